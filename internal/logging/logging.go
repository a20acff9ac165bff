// Package logging provides the single structured logger shared by every
// component, wrapping github.com/charmbracelet/log.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

var base = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Level:           log.InfoLevel,
})

// SetLevel adjusts the minimum level that gets written to stderr.
func SetLevel(level log.Level) {
	base.SetLevel(level)
}

// ParseLevel parses a level name such as "debug" or "warn".
func ParseLevel(name string) (log.Level, error) {
	return log.ParseLevel(name)
}

func Debug(msg interface{}, keyvals ...interface{}) {
	base.Debug(msg, keyvals...)
}

func Info(msg interface{}, keyvals ...interface{}) {
	base.Info(msg, keyvals...)
}

func Warn(msg interface{}, keyvals ...interface{}) {
	base.Warn(msg, keyvals...)
}

func Error(msg interface{}, keyvals ...interface{}) {
	base.Error(msg, keyvals...)
}

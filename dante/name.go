package dante

import (
	"strings"

	"github.com/netaudio/dantectl/internal/logging"
)

// Normalise strips the trailing ".<suffix>" service-type suffix from a fully
// qualified mDNS instance name, yielding the device name. If the suffix is
// absent this is a misbehaving responder, not a fatal condition: it is
// logged and the input is returned unchanged so the caller can keep going.
func Normalise(fullname, suffix string) string {
	want := "." + suffix
	if strings.HasSuffix(fullname, want) {
		return strings.TrimSuffix(fullname, want)
	}

	logging.Warn("instance name missing expected service suffix", "fullname", fullname, "suffix", suffix)
	return fullname
}

// NormaliseChannel splits a "<channel>@<device-instance>" CHAN instance name
// on the leftmost '@' and normalises the device part. Absence of '@' is a
// protocol violation from the responder; it is logged and the event is
// reported as unusable (ok == false) rather than treated as fatal.
func NormaliseChannel(fullname, suffix string) (channel, device string, ok bool) {
	left, right, found := strings.Cut(fullname, "@")
	if !found {
		logging.Warn("channel instance name missing '@' separator", "fullname", fullname)
		return "", "", false
	}

	return left, Normalise(right, suffix), true
}

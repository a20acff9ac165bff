package dante

import (
	"net"
	"time"
)

// Encoding is the sample width derived from a channel's "en" TXT property.
type Encoding int

const (
	EncodingUnknown Encoding = iota
	PCM16
	PCM24
	PCM32
)

func (e Encoding) String() string {
	switch e {
	case PCM16:
		return "PCM16"
	case PCM24:
		return "PCM24"
	case PCM32:
		return "PCM32"
	default:
		return "unknown"
	}
}

func parseEncoding(s string) (Encoding, bool) {
	switch s {
	case "16":
		return PCM16, true
	case "24":
		return PCM24, true
	case "32":
		return PCM32, true
	default:
		return EncodingUnknown, false
	}
}

// DBCInfo is the resolved info for a device's device-control (DBC) service.
type DBCInfo struct {
	Addrs []net.IP
	Port  int
}

// CMCInfo is the resolved info for a device's channel-metadata-control (CMC) service.
type CMCInfo struct {
	Addrs        []net.IP
	Port         int
	ID           string
	Manufacturer string
	Model        string
}

// ARCInfo is the resolved info for a device's audio-routing-control (ARC) service.
type ARCInfo struct {
	Addrs         []net.IP
	Port          int
	RouterVersion string
	RouterInfo    string
}

// ChannelInfo is one resolved channel record. Within a device's channel set,
// two records with a set ID are equal iff their IDs are equal; records whose
// ID is nil are never treated as equal to one another - see channelSet in
// registry.go, which keeps them in a separate list rather than collapsing
// every unresolved channel into a single slot.
type ChannelInfo struct {
	Name       string
	ID         *uint16
	SampleRate *uint32
	Encoding   *Encoding
	Latency    *time.Duration
}

const naPlaceholder = "N/A"

func txtOr(text map[string]string, key, fallback string) string {
	if v, ok := text[key]; ok && v != "" {
		return v
	}
	return fallback
}

package dante

import (
	"fmt"
	"strings"
)

func connLabel(connected bool) string {
	if connected {
		return "Connected"
	}
	return "Disconnected"
}

func channelLabel(ch ChannelInfo) string {
	id := naPlaceholder
	if ch.ID != nil {
		id = fmt.Sprintf("%d", *ch.ID)
	}
	rate := naPlaceholder
	if ch.SampleRate != nil {
		rate = fmt.Sprintf("%d", *ch.SampleRate)
	}
	encoding := naPlaceholder
	if ch.Encoding != nil {
		encoding = ch.Encoding.String()
	}
	latency := naPlaceholder
	if ch.Latency != nil {
		latency = ch.Latency.String()
	}
	return fmt.Sprintf("  channel %q id=%s rate=%s encoding=%s latency=%s", ch.Name, id, rate, encoding, latency)
}

// formatDevice renders one device's multi-line report entry.
func formatDevice(d DeviceDescription) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Device: %s\n", d.Name)
	fmt.Fprintf(&sb, "  DBC: %s\n", connLabel(d.DBCConnected))
	fmt.Fprintf(&sb, "  CMC: %s\n", connLabel(d.CMCConnected))
	fmt.Fprintf(&sb, "  ARC: %s\n", connLabel(d.ARCConnected))
	fmt.Fprintf(&sb, "  Chan: %s\n", connLabel(d.ChanConnected))

	if d.CMC != nil {
		fmt.Fprintf(&sb, "  CMC info: id=%s manufacturer=%s model=%s\n", d.CMC.ID, d.CMC.Manufacturer, d.CMC.Model)
	} else {
		fmt.Fprintf(&sb, "  CMC info: id=%s manufacturer=%s model=%s\n", naPlaceholder, naPlaceholder, naPlaceholder)
	}

	if d.ARC != nil {
		addrs := naPlaceholder
		if len(d.ARC.Addrs) > 0 {
			parts := make([]string, len(d.ARC.Addrs))
			for i, ip := range d.ARC.Addrs {
				parts[i] = ip.String()
			}
			addrs = strings.Join(parts, ", ")
		}
		fmt.Fprintf(&sb, "  ARC info: router_vers=%s router_info=%s port=%d addrs=%s\n",
			d.ARC.RouterVersion, d.ARC.RouterInfo, d.ARC.Port, addrs)
	} else {
		fmt.Fprintf(&sb, "  ARC info: router_vers=%s router_info=%s port=%s addrs=%s\n",
			naPlaceholder, naPlaceholder, naPlaceholder, naPlaceholder)
	}

	for _, ch := range d.Channels {
		sb.WriteString(channelLabel(ch))
		sb.WriteString("\n")
	}

	return sb.String()
}

// Report renders a human-readable dump of every currently present device,
// in arbitrary order - the primary observable output of the registry.
func (r *Registry) Report() string {
	var sb strings.Builder
	for _, d := range r.Devices() {
		sb.WriteString(formatDevice(d))
	}
	return sb.String()
}

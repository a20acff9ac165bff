package dante

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormaliseStripsSuffix(t *testing.T) {
	got := Normalise("studio-a._netaudio-cmc._udp.local.", "_netaudio-cmc._udp.local.")
	assert.Equal(t, "studio-a", got)
}

func TestNormaliseMissingSuffixReturnsInputUnchanged(t *testing.T) {
	got := Normalise("studio-a._something-else.local.", "_netaudio-cmc._udp.local.")
	assert.Equal(t, "studio-a._something-else.local.", got)
}

func TestNormaliseChannelSplitsOnAt(t *testing.T) {
	channel, device, ok := NormaliseChannel("mic1@studio-a._netaudio-chan._udp.local.", "_netaudio-chan._udp.local.")
	a := assert.New(t)
	a.True(ok)
	a.Equal("mic1", channel)
	a.Equal("studio-a", device)
}

func TestNormaliseChannelMissingAtIsSkipped(t *testing.T) {
	_, _, ok := NormaliseChannel("studio-a._netaudio-chan._udp.local.", "_netaudio-chan._udp.local.")
	assert.False(t, ok)
}

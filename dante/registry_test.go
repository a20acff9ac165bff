package dante

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParseIP(t *testing.T, s string) net.IP {
	t.Helper()
	ip := net.ParseIP(s)
	require.NotNil(t, ip)
	return ip
}

func TestTryAddDeviceIdempotent(t *testing.T) {
	r := NewRegistry()
	assert.True(t, r.TryAddDevice("studio-a"))
	assert.False(t, r.TryAddDevice("studio-a"))
	assert.Equal(t, []string{"studio-a"}, r.DeviceNames())
}

func TestAddDeviceAlreadyPresent(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.AddDevice("studio-a"))
	err := r.AddDevice("studio-a")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyPresent)
}

// S1: two categories found for the same device produce one record with
// both presence bits set.
func TestScenarioS1TwoCategoriesFound(t *testing.T) {
	r := NewRegistry()
	r.ConnectDBC("studio-a")
	r.ConnectCMC("studio-a")

	assert.Equal(t, []string{"studio-a"}, r.DeviceNames())
	desc, ok := r.Describe("studio-a")
	require.True(t, ok)
	assert.True(t, desc.DBCConnected)
	assert.True(t, desc.CMCConnected)
	assert.False(t, desc.ARCConnected)
	assert.False(t, desc.ChanConnected)
}

// S2: removing both categories that were connected drops the device.
func TestScenarioS2RemovingLastBitDropsDevice(t *testing.T) {
	r := NewRegistry()
	r.ConnectDBC("studio-a")
	r.ConnectCMC("studio-a")

	require.NoError(t, r.DisconnectDBC("studio-a"))
	assert.Equal(t, []string{"studio-a"}, r.DeviceNames(), "one bit still set")

	require.NoError(t, r.DisconnectCMC("studio-a"))
	assert.Empty(t, r.DeviceNames(), "last bit cleared, device should be gone")
}

// S3/S4: resolving a channel populates its fields, and a later resolve with
// the same id but a different name replaces rather than duplicates it.
func TestScenarioS3S4ChannelResolveAndReplace(t *testing.T) {
	r := NewRegistry()
	r.ConnectChan("studio-a")

	id := uint16(3)
	rate := uint32(48000)
	enc := PCM24
	latency := time.Millisecond

	require.NoError(t, r.UpdateChan("studio-a", ChannelInfo{
		Name: "mic1", ID: &id, SampleRate: &rate, Encoding: &enc, Latency: &latency,
	}))

	desc, ok := r.Describe("studio-a")
	require.True(t, ok)
	require.Len(t, desc.Channels, 1)
	assert.Equal(t, "mic1", desc.Channels[0].Name)
	assert.Equal(t, uint16(3), *desc.Channels[0].ID)
	assert.Equal(t, uint32(48000), *desc.Channels[0].SampleRate)
	assert.Equal(t, PCM24, *desc.Channels[0].Encoding)
	assert.Equal(t, time.Millisecond, *desc.Channels[0].Latency)

	require.NoError(t, r.UpdateChan("studio-a", ChannelInfo{Name: "micA", ID: &id}))

	desc, ok = r.Describe("studio-a")
	require.True(t, ok)
	require.Len(t, desc.Channels, 1, "same id must replace, not duplicate")
	assert.Equal(t, "micA", desc.Channels[0].Name)
}

func TestChannelsWithUnsetIDAreNotCollapsed(t *testing.T) {
	r := NewRegistry()
	r.ConnectChan("studio-a")

	require.NoError(t, r.UpdateChan("studio-a", ChannelInfo{Name: "unresolved-1"}))
	require.NoError(t, r.UpdateChan("studio-a", ChannelInfo{Name: "unresolved-2"}))

	desc, ok := r.Describe("studio-a")
	require.True(t, ok)
	assert.Len(t, desc.Channels, 2, "records with unset id must not dedupe against each other")
}

func TestChannelsSortedByIDWithUnsetLast(t *testing.T) {
	r := NewRegistry()
	r.ConnectChan("studio-a")

	id5 := uint16(5)
	id1 := uint16(1)
	require.NoError(t, r.UpdateChan("studio-a", ChannelInfo{Name: "five", ID: &id5}))
	require.NoError(t, r.UpdateChan("studio-a", ChannelInfo{Name: "unresolved"}))
	require.NoError(t, r.UpdateChan("studio-a", ChannelInfo{Name: "one", ID: &id1}))

	desc, ok := r.Describe("studio-a")
	require.True(t, ok)
	require.Len(t, desc.Channels, 3)
	assert.Equal(t, "one", desc.Channels[0].Name)
	assert.Equal(t, "five", desc.Channels[1].Name)
	assert.Equal(t, "unresolved", desc.Channels[2].Name)
}

func TestDisconnectUnknownDeviceReturnsNotPresent(t *testing.T) {
	r := NewRegistry()
	err := r.DisconnectDBC("ghost")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotPresent)
}

func TestUpdateRequiresExistingRecord(t *testing.T) {
	r := NewRegistry()
	err := r.UpdateDBC("ghost", DBCInfo{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotPresent)
}

func TestDeviceIPsUnionsAllThreeAddressBearingSlots(t *testing.T) {
	r := NewRegistry()
	r.ConnectDBC("studio-a")
	r.ConnectCMC("studio-a")
	r.ConnectARC("studio-a")

	ip1 := mustParseIP(t, "10.0.0.1")
	ip2 := mustParseIP(t, "10.0.0.2")
	ip3 := mustParseIP(t, "10.0.0.3")

	require.NoError(t, r.UpdateDBC("studio-a", DBCInfo{Addrs: []net.IP{ip1}}))
	require.NoError(t, r.UpdateCMC("studio-a", CMCInfo{Addrs: []net.IP{ip2}}))
	require.NoError(t, r.UpdateARC("studio-a", ARCInfo{Addrs: []net.IP{ip1, ip3}}))

	ips := r.DeviceIPs("studio-a")
	require.Len(t, ips, 3)
}

func TestChannelIDExistsAndNameOf(t *testing.T) {
	r := NewRegistry()
	r.ConnectChan("studio-a")
	id := uint16(7)
	require.NoError(t, r.UpdateChan("studio-a", ChannelInfo{Name: "mic7", ID: &id}))

	assert.True(t, r.ChannelIDExists("studio-a", 7))
	assert.False(t, r.ChannelIDExists("studio-a", 8))

	name, ok := r.ChannelNameOf("studio-a", 7)
	assert.True(t, ok)
	assert.Equal(t, "mic7", name)
}

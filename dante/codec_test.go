package dante

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test 9: make_subscription v4.4.1.3, tx channel "ch" (2 bytes), tx device
// "dev" (3 bytes): payload length 273, envelope length field 283, end_pos 279.
func TestMakeSubscriptionPayload4413BoundarySizes(t *testing.T) {
	payload, err := buildSetPayload(Version4413, 5, "ch", "dev")
	require.NoError(t, err)
	assert.Len(t, payload, 273)

	endPos := binary.BigEndian.Uint16(payload[16:18])
	assert.Equal(t, uint16(279), endPos)

	frame := envelope(0x3410, 0, payload)
	length := binary.BigEndian.Uint16(frame[2:4])
	assert.Equal(t, uint16(283), length)
	assert.Len(t, frame, 283)
}

// Test 10: same names under v4.2.1.3: payload length 329, end_pos 335.
func TestMakeSubscriptionPayload4213BoundarySizes(t *testing.T) {
	payload, err := buildSetPayload(Version4213, 5, "ch", "dev")
	require.NoError(t, err)
	assert.Len(t, payload, 329)

	endPos := binary.BigEndian.Uint16(payload[6:8])
	assert.Equal(t, uint16(335), endPos)
}

// Test 11: clear_subscription v4.4.1.3 payload is exactly 266 bytes, all
// bytes from offset 18 onward zero.
func TestClearSubscriptionPayload4413Shape(t *testing.T) {
	payload, err := buildClearPayload(Version4413, 7)
	require.NoError(t, err)
	require.Len(t, payload, 266)
	for i := 18; i < len(payload); i++ {
		assert.Zerof(t, payload[i], "byte at offset %d should be zero", i)
	}
}

// Test 12: clear_subscription v4.2.1.3 payload is exactly 322 bytes, all
// bytes from offset 4 onward zero.
func TestClearSubscriptionPayload4213Shape(t *testing.T) {
	payload, err := buildClearPayload(Version4213, 7)
	require.NoError(t, err)
	require.Len(t, payload, 322)
	for i := 4; i < len(payload); i++ {
		assert.Zerof(t, payload[i], "byte at offset %d should be zero", i)
	}
}

func TestSequenceNumbersIncrementByOneAndWrap(t *testing.T) {
	m := NewManager()
	first := m.nextSeq()
	second := m.nextSeq()
	assert.Equal(t, uint16(0), first)
	assert.Equal(t, uint16(1), second)

	m.seq = 0xFFFF
	last := m.nextSeq()
	wrapped := m.nextSeq()
	assert.Equal(t, uint16(0xFFFF), last)
	assert.Equal(t, uint16(0), wrapped)
}

// S5: make_subscription(v4.4.1.3, <rx>, 0x0005, "dev", "ch") sends one
// datagram to <rx>:4440 with the documented first 10 bytes and a total
// length of 283. The receiver here is 127.0.0.1 rather than 10.0.0.1 so the
// test can listen for the datagram on loopback.
func TestScenarioS5MakeSubscriptionSendsExpectedDatagram(t *testing.T) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: SubscriptionPort})
	if err != nil {
		t.Skipf("cannot bind loopback port %d in this environment: %v", SubscriptionPort, err)
	}
	defer conn.Close()

	m := NewManager()
	err = m.MakeSubscription(Version4413, net.IPv4(127, 0, 0, 1), 0x0005, "dev", "ch")
	require.NoError(t, err)

	buf := make([]byte, 512)
	n, addr, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)
	assert.Equal(t, 283, n)
	assert.NotNil(t, addr)

	frame := buf[:n]
	assert.Equal(t, byte(0x28), frame[0])
	assert.Equal(t, byte(0x30), frame[1])
	assert.Equal(t, uint16(283), binary.BigEndian.Uint16(frame[2:4]))
	assert.Equal(t, uint16(0), binary.BigEndian.Uint16(frame[4:6]), "first command of a fresh manager carries sequence 0")
	assert.Equal(t, uint16(0x3410), binary.BigEndian.Uint16(frame[6:8]))
	assert.Equal(t, uint16(0), binary.BigEndian.Uint16(frame[8:10]))
}

// S6: clear_subscription(v4.2.1.3, 10.0.0.1, 0x0007) produces a 332-byte
// datagram (10-byte envelope + 322-byte payload) whose payload bytes
// [2..4] equal rx channel id and [4..322] are zero.
func TestScenarioS6ClearSubscriptionFrameShape(t *testing.T) {
	payload, err := buildClearPayload(Version4213, 0x0007)
	require.NoError(t, err)

	cmdCode, err := commandCode(Version4213)
	require.NoError(t, err)

	frame := envelope(cmdCode, 0, payload)
	assert.Len(t, frame, 332)

	framePayload := frame[10:]
	assert.Equal(t, uint16(0x0007), binary.BigEndian.Uint16(framePayload[2:4]))
	for i := 4; i < len(framePayload); i++ {
		assert.Zerof(t, framePayload[i], "payload byte at offset %d should be zero", i)
	}
}

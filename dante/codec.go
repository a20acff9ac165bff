package dante

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"
)

// ProtocolVersion is one of the two wire-format revisions this codec knows
// how to emit. No other value is recognised.
type ProtocolVersion string

const (
	Version4413 ProtocolVersion = "4.4.1.3"
	Version4213 ProtocolVersion = "4.2.1.3"
)

// SubscriptionPort is the destination UDP port for both MakeSubscription
// and ClearSubscription.
const SubscriptionPort = 4440

const (
	envelopeMagicHi = 0x28
	envelopeMagicLo = 0x30
	envelopeHeaderLen = 10
)

func commandCode(version ProtocolVersion) (uint16, error) {
	switch version {
	case Version4413:
		return 0x3410, nil
	case Version4213:
		return 0x3010, nil
	default:
		return 0, fmt.Errorf("dante: unsupported protocol version %q", version)
	}
}

// Manager hands out per-manager monotonic sequence numbers and sends the
// resulting command frames. A Manager is safe for concurrent use.
type Manager struct {
	mu  sync.Mutex
	seq uint16
}

// NewManager returns a Manager whose first command carries sequence 0.
func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) nextSeq() uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	seq := m.seq
	m.seq++ // wraps at 2^16 by virtue of uint16 arithmetic; non-fatal by design.
	return seq
}

// envelope wraps payload in the fixed 10-byte header shared by every
// subscription command: magic, total-length, sequence, command code, and
// two reserved bytes.
func envelope(cmdCode, seq uint16, payload []byte) []byte {
	buf := make([]byte, envelopeHeaderLen+len(payload))
	buf[0] = envelopeMagicHi
	buf[1] = envelopeMagicLo
	binary.BigEndian.PutUint16(buf[2:4], uint16(len(payload)+envelopeHeaderLen))
	binary.BigEndian.PutUint16(buf[4:6], seq)
	binary.BigEndian.PutUint16(buf[6:8], cmdCode)
	// buf[8:10] reserved, left zero.
	copy(buf[envelopeHeaderLen:], payload)
	return buf
}

var subscriptionPrefix4413 = [10]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x08, 0x00, 0x20, 0x01}

func buildSetPayload4413(rxChannelID uint16, txChannel, txDevice string) []byte {
	total := 266 + len(txChannel) + 1 + len(txDevice) + 1
	buf := make([]byte, total)
	copy(buf[0:10], subscriptionPrefix4413[:])
	binary.BigEndian.PutUint16(buf[10:12], rxChannelID)
	copy(buf[12:16], []byte{0x00, 0x03, 0x01, 0x14})
	endPos := uint16(276 + len(txChannel) + 1)
	binary.BigEndian.PutUint16(buf[16:18], endPos)
	// buf[18:266] zeros.
	off := 266
	off += copy(buf[off:], txChannel)
	off++ // trailing NUL, already zero
	off += copy(buf[off:], txDevice)
	// trailing NUL, already zero
	return buf
}

func buildClearPayload4413(rxChannelID uint16) []byte {
	buf := make([]byte, 266)
	copy(buf[0:10], subscriptionPrefix4413[:])
	binary.BigEndian.PutUint16(buf[10:12], rxChannelID)
	copy(buf[12:18], []byte{0x00, 0x03, 0x00, 0x00, 0x00, 0x00})
	// buf[18:266] zeros.
	return buf
}

func buildSetPayload4213(rxChannelID uint16, txChannel, txDevice string) []byte {
	total := 322 + len(txChannel) + 1 + len(txDevice) + 1
	buf := make([]byte, total)
	buf[0], buf[1] = 0x10, 0x01
	binary.BigEndian.PutUint16(buf[2:4], rxChannelID)
	buf[4], buf[5] = 0x01, 0x4C
	endPos := uint16(332 + len(txChannel) + 1)
	binary.BigEndian.PutUint16(buf[6:8], endPos)
	// buf[8:322] zeros.
	off := 322
	off += copy(buf[off:], txChannel)
	off++ // trailing NUL, already zero
	off += copy(buf[off:], txDevice)
	return buf
}

func buildClearPayload4213(rxChannelID uint16) []byte {
	buf := make([]byte, 322)
	buf[0], buf[1] = 0x10, 0x01
	binary.BigEndian.PutUint16(buf[2:4], rxChannelID)
	// buf[4:322] zeros.
	return buf
}

func buildSetPayload(version ProtocolVersion, rxChannelID uint16, txChannel, txDevice string) ([]byte, error) {
	switch version {
	case Version4413:
		return buildSetPayload4413(rxChannelID, txChannel, txDevice), nil
	case Version4213:
		return buildSetPayload4213(rxChannelID, txChannel, txDevice), nil
	default:
		return nil, fmt.Errorf("dante: unsupported protocol version %q", version)
	}
}

func buildClearPayload(version ProtocolVersion, rxChannelID uint16) ([]byte, error) {
	switch version {
	case Version4413:
		return buildClearPayload4413(rxChannelID), nil
	case Version4213:
		return buildClearPayload4213(rxChannelID), nil
	default:
		return nil, fmt.Errorf("dante: unsupported protocol version %q", version)
	}
}

// MakeSubscription builds and sends a "set subscription" command directing
// rxChannelID on the receiver at rxIP to consume txChannel on txDevice.
func (m *Manager) MakeSubscription(version ProtocolVersion, rxIP net.IP, rxChannelID uint16, txDevice, txChannel string) error {
	payload, err := buildSetPayload(version, rxChannelID, txChannel, txDevice)
	if err != nil {
		return err
	}
	cmdCode, err := commandCode(version)
	if err != nil {
		return err
	}
	frame := envelope(cmdCode, m.nextSeq(), payload)
	return sendUDP(rxIP, SubscriptionPort, frame)
}

// ClearSubscription builds and sends a "clear subscription" command tearing
// down rxChannelID on the receiver at rxIP.
func (m *Manager) ClearSubscription(version ProtocolVersion, rxIP net.IP, rxChannelID uint16) error {
	payload, err := buildClearPayload(version, rxChannelID)
	if err != nil {
		return err
	}
	cmdCode, err := commandCode(version)
	if err != nil {
		return err
	}
	frame := envelope(cmdCode, m.nextSeq(), payload)
	return sendUDP(rxIP, SubscriptionPort, frame)
}

// sendUDP binds a fresh unconnected socket, sends one datagram to dst:port,
// and releases the socket on every exit path. There is no retry, no ack,
// and no receive path - fire and forget.
func sendUDP(dst net.IP, port int, data []byte) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return &Error{Op: "send", Err: fmt.Errorf("%w: %v", ErrConnectionFailed, err)}
	}
	defer conn.Close()

	if _, err := conn.WriteToUDP(data, &net.UDPAddr{IP: dst, Port: port}); err != nil {
		return &Error{Op: "send", Err: fmt.Errorf("%w: %v", ErrConnectionFailed, err)}
	}
	return nil
}

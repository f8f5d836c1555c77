package injection

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"net"
	"sync"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/mpm"
)

// DefaultRate is the radiotap rate (500 kb/s units) used for peering frames: 6 Mb/s.
const DefaultRate = 12

const maxSequence = 0x0fff

// FrameBuilder wraps mesh peering bodies in Action frames sent from one station.
// It is safe for concurrent use; each frame gets the next sequence number.
type FrameBuilder struct {
	Transmitter net.HardwareAddr
	Rate        uint8

	mu  sync.Mutex
	seq uint16
}

// NewFrameBuilder creates a builder for frames transmitted by tx.
func NewFrameBuilder(tx net.HardwareAddr) *FrameBuilder {
	return &FrameBuilder{Transmitter: tx, Rate: DefaultRate}
}

// Build serializes body as a self-protected Action frame addressed to receiver.
func (b *FrameBuilder) Build(receiver net.HardwareAddr, body mpm.Body) ([]byte, error) {
	b.mu.Lock()
	seq := b.seq
	b.seq = (b.seq + 1) & maxSequence
	b.mu.Unlock()

	return SerializePeeringFrame(body, receiver, b.Transmitter, b.Transmitter, seq, b.Rate)
}

// SerializePeeringFrame builds RadioTap + Dot11 Action header + category/action + body + FCS.
// In a mesh BSS the third address of a peering frame is the transmitter.
func SerializePeeringFrame(body mpm.Body, receiver, transmitter, address3 net.HardwareAddr, seq uint16, rate uint8) ([]byte, error) {
	if !body.Kind().Valid() {
		return nil, fmt.Errorf("serialize peering frame: %w", mpm.ErrUnknownKind)
	}

	radiotap := &layers.RadioTap{
		Present: layers.RadioTapPresentFlags | layers.RadioTapPresentRate,
		Flags:   layers.RadioTapFlagsFCS,
		Rate:    layers.RadioTapRate(rate),
	}

	dot11 := &layers.Dot11{
		Type:           layers.Dot11TypeMgmtAction,
		Address1:       receiver,
		Address2:       transmitter,
		Address3:       address3,
		SequenceNumber: seq,
	}

	action := gopacket.Payload([]byte{mpm.CategorySelfProtected, byte(body.Kind())})

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}

	if err := gopacket.SerializeLayers(buf, opts, dot11, action, body); err != nil {
		return nil, fmt.Errorf("serialize %s frame failed: %w", body.Kind(), err)
	}

	// Dot11 decoding always strips a trailing FCS, so the frame must carry one.
	fcs, err := buf.AppendBytes(4)
	if err != nil {
		return nil, err
	}
	mac := buf.Bytes()
	binary.LittleEndian.PutUint32(fcs, crc32.ChecksumIEEE(mac[:len(mac)-4]))

	if err := radiotap.SerializeTo(buf, opts); err != nil {
		return nil, fmt.Errorf("serialize radiotap failed: %w", err)
	}

	return buf.Bytes(), nil
}

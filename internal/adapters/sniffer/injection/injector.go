package injection

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/mpm"
	"github.com/lcalzada-xor/meshpeer/internal/telemetry"
)

// Injector sends mesh peering frames from one station through a PacketInjector.
type Injector struct {
	builder   *FrameBuilder
	mechanism PacketInjector

	// Interval is the pause between frames of a sequence.
	Interval time.Duration
}

// RandomMAC generates a random locally administered unicast MAC address.
func RandomMAC() net.HardwareAddr {
	buf := make([]byte, 6)
	rand.Read(buf)
	buf[0] = (buf[0] | 0x02) & 0xfe
	return net.HardwareAddr(buf)
}

// NewInjector creates an Injector transmitting as tx. A nil tx gets a random address.
func NewInjector(mech PacketInjector, tx net.HardwareAddr) *Injector {
	if tx == nil {
		tx = RandomMAC()
	}
	return &Injector{
		builder:   NewFrameBuilder(tx),
		mechanism: mech,
	}
}

// Transmitter returns the address frames are sent from.
func (i *Injector) Transmitter() net.HardwareAddr {
	return i.builder.Transmitter
}

// Send builds one frame carrying body and injects it.
func (i *Injector) Send(receiver net.HardwareAddr, body mpm.Body) error {
	frame, err := i.builder.Build(receiver, body)
	if err != nil {
		return err
	}
	telemetry.FramesEncoded.WithLabelValues(body.Kind().String()).Inc()

	if err := i.mechanism.Inject(frame); err != nil {
		return fmt.Errorf("failed to inject %s frame: %w", body.Kind(), err)
	}
	slog.Debug("peering frame injected", "kind", body.Kind().String(), "to", receiver.String(), "len", len(frame))
	return nil
}

// SendSequence sends bodies in order, pausing Interval between them.
// It returns how many frames were sent before ctx was cancelled or an error occurred.
func (i *Injector) SendSequence(ctx context.Context, receiver net.HardwareAddr, bodies ...mpm.Body) (int, error) {
	for n, body := range bodies {
		if n > 0 && i.Interval > 0 {
			select {
			case <-ctx.Done():
				return n, ctx.Err()
			case <-time.After(i.Interval):
			}
		} else if err := ctx.Err(); err != nil {
			return n, err
		}

		if err := i.Send(receiver, body); err != nil {
			return n, err
		}
	}
	return len(bodies), nil
}

// Close releases the underlying injection mechanism.
func (i *Injector) Close() error {
	return i.mechanism.Close()
}

package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/google/gopacket/pcapgo"
)

// ActionFilter limits a live capture to management Action frames.
const ActionFilter = "type mgt subtype action"

// Handler receives each packet; a non-nil error stops the capture.
type Handler func(gopacket.Packet) error

// ReadFile feeds every packet of the pcap file at path to fn.
func ReadFile(ctx context.Context, path string, fn Handler) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ReadPackets(ctx, f, fn)
}

// ReadPackets feeds every packet of the pcap stream r to fn.
func ReadPackets(ctx context.Context, r io.Reader, fn Handler) error {
	reader, err := pcapgo.NewReader(r)
	if err != nil {
		return fmt.Errorf("read pcap header: %w", err)
	}
	return Run(ctx, gopacket.NewPacketSource(reader, reader.LinkType()), fn)
}

// Live captures Action frames on iface until ctx is done or fn fails.
func Live(ctx context.Context, iface string, fn Handler) error {
	handle, err := pcap.OpenLive(iface, SnapLen, true, pcap.BlockForever)
	if err != nil {
		return fmt.Errorf("open %s: %w", iface, err)
	}
	defer handle.Close()

	if err := handle.SetBPFFilter(ActionFilter); err != nil {
		return fmt.Errorf("set BPF filter: %w", err)
	}

	slog.Info("live capture started", "iface", iface, "filter", ActionFilter)
	return Run(ctx, gopacket.NewPacketSource(handle, handle.LinkType()), fn)
}

// Run drains src into fn. It returns nil once the source is exhausted.
func Run(ctx context.Context, src *gopacket.PacketSource, fn Handler) error {
	packets := src.Packets()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case packet, ok := <-packets:
			if !ok {
				return nil
			}
			if err := fn(packet); err != nil {
				return err
			}
		}
	}
}

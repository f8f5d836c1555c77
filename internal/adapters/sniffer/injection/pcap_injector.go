package injection

import (
	"fmt"

	"github.com/google/gopacket/pcap"
)

// PcapInjector writes frames to a monitor-mode interface through libpcap.
type PcapInjector struct {
	handle *pcap.Handle
}

func NewPcapInjector(iface string) (PacketInjector, error) {
	handle, err := pcap.OpenLive(iface, 65536, false, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("pcap open failed: %w", err)
	}
	return &PcapInjector{handle: handle}, nil
}

func (p *PcapInjector) Inject(packet []byte) error {
	return p.handle.WritePacketData(packet)
}

func (p *PcapInjector) Close() error {
	p.handle.Close()
	return nil
}

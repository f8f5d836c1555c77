package ie

import (
	"fmt"

	"github.com/google/gopacket"
)

// ProtocolMPM is the Mesh Peering Management protocol identifier.
const ProtocolMPM uint8 = 0

// PeeringProtocolLen is the fixed size of the Peering Protocol element.
const PeeringProtocolLen = elementHeaderLen + 1

// PeeringProtocol is the 3-octet peering protocol version element.
type PeeringProtocol struct {
	Version uint8
}

// NewPeeringProtocol returns the element advertising plain MPM.
func NewPeeringProtocol() PeeringProtocol {
	return PeeringProtocol{Version: ProtocolMPM}
}

func (p PeeringProtocol) Len() int {
	return PeeringProtocolLen
}

func (p PeeringProtocol) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	return writeElement(b, opts, TagPeeringProtocol, []byte{p.Version})
}

func (p *PeeringProtocol) DecodeFrom(r *Reader) (int, error) {
	payload, err := ReadElement(r, TagPeeringProtocol, 1, 1)
	if err != nil {
		return 0, err
	}
	p.Version = payload[0]
	return PeeringProtocolLen, nil
}

func (p PeeringProtocol) Equal(o PeeringProtocol) bool {
	return p.Version == o.Version
}

func (p PeeringProtocol) String() string {
	if p.Version == ProtocolMPM {
		return "MPM"
	}
	return fmt.Sprintf("protocol(%d)", p.Version)
}

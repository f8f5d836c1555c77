package ie

import (
	"fmt"
	"strings"

	"github.com/google/gopacket"
)

// ConfigurationLen is the fixed size of the Mesh Configuration element.
const ConfigurationLen = elementHeaderLen + 7

// Active path selection protocol identifiers.
const (
	PathSelectionHWMP uint8 = 1
)

// Active path selection metric identifiers.
const (
	MetricAirtime uint8 = 1
)

// Congestion control mode identifiers.
const (
	CongestionNull      uint8 = 0
	CongestionSignaling uint8 = 1
)

// Synchronization method identifiers.
const (
	SyncNull           uint8 = 0
	SyncNeighborOffset uint8 = 1
)

// Authentication protocol identifiers.
const (
	AuthNull      uint8 = 0
	AuthSAE       uint8 = 1
	AuthIEEE8021X uint8 = 2
)

// Mesh Capability bits.
const (
	CapAcceptingPeerings uint8 = 1 << iota
	CapMCCASupported
	CapMCCAEnabled
	CapForwarding
	CapMBCAEnabled
	CapTBTTAdjusting
	CapPowerSaveLevel
)

// MaxPeerings is the largest peering count the formation info field can carry.
const MaxPeerings = 0x3f

// FormationInfo is the Mesh Formation Info octet.
type FormationInfo struct {
	ConnectedToGate bool
	NumPeerings     uint8
	ConnectedToAS   bool
}

func (f FormationInfo) encode() byte {
	b := (f.NumPeerings & MaxPeerings) << 1
	if f.ConnectedToGate {
		b |= 0x01
	}
	if f.ConnectedToAS {
		b |= 0x80
	}
	return b
}

func decodeFormationInfo(b byte) FormationInfo {
	return FormationInfo{
		ConnectedToGate: b&0x01 != 0,
		NumPeerings:     (b >> 1) & MaxPeerings,
		ConnectedToAS:   b&0x80 != 0,
	}
}

// Configuration is the Mesh Configuration element (tag 113).
type Configuration struct {
	PathSelectionProtocol uint8
	PathSelectionMetric   uint8
	CongestionControl     uint8
	Synchronization       uint8
	Authentication        uint8
	Formation             FormationInfo
	Capability            uint8
}

// DefaultConfiguration advertises HWMP with the airtime metric and nothing else.
func DefaultConfiguration() Configuration {
	return Configuration{
		PathSelectionProtocol: PathSelectionHWMP,
		PathSelectionMetric:   MetricAirtime,
		CongestionControl:     CongestionNull,
		Synchronization:       SyncNull,
		Authentication:        AuthNull,
		Capability:            CapAcceptingPeerings | CapForwarding,
	}
}

// AcceptsPeerings reports whether the station accepts additional mesh peerings.
func (c Configuration) AcceptsPeerings() bool {
	return c.Capability&CapAcceptingPeerings != 0
}

func (c Configuration) Len() int {
	return ConfigurationLen
}

func (c Configuration) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	if c.Formation.NumPeerings > MaxPeerings {
		return fmt.Errorf("%w: %d peerings exceeds %d", ErrMalformedElement, c.Formation.NumPeerings, MaxPeerings)
	}
	info := []byte{
		c.PathSelectionProtocol,
		c.PathSelectionMetric,
		c.CongestionControl,
		c.Synchronization,
		c.Authentication,
		c.Formation.encode(),
		c.Capability,
	}
	return writeElement(b, opts, TagMeshConfiguration, info)
}

func (c *Configuration) DecodeFrom(r *Reader) (int, error) {
	payload, err := ReadElement(r, TagMeshConfiguration, ConfigurationLen-elementHeaderLen, ConfigurationLen-elementHeaderLen)
	if err != nil {
		return 0, err
	}
	*c = Configuration{
		PathSelectionProtocol: payload[0],
		PathSelectionMetric:   payload[1],
		CongestionControl:     payload[2],
		Synchronization:       payload[3],
		Authentication:        payload[4],
		Formation:             decodeFormationInfo(payload[5]),
		Capability:            payload[6],
	}
	return ConfigurationLen, nil
}

func (c Configuration) Equal(o Configuration) bool {
	return c == o
}

func (c Configuration) String() string {
	var caps []string
	names := []string{"accept", "mcca", "mcca-on", "fwd", "mbca", "tbtt", "ps"}
	for i, name := range names {
		if c.Capability&(1<<i) != 0 {
			caps = append(caps, name)
		}
	}
	return fmt.Sprintf("psp=%d metric=%d cc=%d sync=%d auth=%d peerings=%d gate=%t as=%t cap=[%s]",
		c.PathSelectionProtocol, c.PathSelectionMetric, c.CongestionControl, c.Synchronization,
		c.Authentication, c.Formation.NumPeerings, c.Formation.ConnectedToGate, c.Formation.ConnectedToAS,
		strings.Join(caps, ","))
}

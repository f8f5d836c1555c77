package parser

import (
	"encoding/binary"
	"time"

	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/ie"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/mpm"
	"github.com/lcalzada-xor/meshpeer/internal/core/domain"
)

// ToObservation flattens a decoded body into the stored observation form.
func ToObservation(body mpm.Body, transmitter, receiver string, frameLen int, ts time.Time) domain.PeeringObservation {
	obs := domain.PeeringObservation{
		Kind:        body.Kind().String(),
		Transmitter: transmitter,
		Receiver:    receiver,
		FrameLen:    frameLen,
		Timestamp:   ts,
	}

	switch b := body.(type) {
	case *mpm.OpenBody:
		f := b.Fields()
		obs.MeshID = string(f.MeshID.ID)
		obs.Capability = uint16(f.Capability)
		obs.Rates = rateStrings(f.AllRates())
		obs.HasExtRates = f.ExtendedRates != nil
		obs.Config = meshConf(f.Config)
	case *mpm.ConfirmBody:
		f := b.Fields()
		obs.Capability = uint16(f.Capability)
		obs.AID = f.AID
		obs.Rates = rateStrings(f.AllRates())
		obs.HasExtRates = f.ExtendedRates != nil
		obs.Config = meshConf(f.Config)
	case *mpm.CloseBody:
		obs.MeshID = string(b.Fields().MeshID.ID)
	}
	return obs
}

func rateStrings(set ie.RateSet) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, len(set))
	for i, r := range set {
		out[i] = r.String()
	}
	return out
}

func meshConf(c ie.Configuration) *domain.MeshConf {
	return &domain.MeshConf{
		PathSelection:   c.PathSelectionProtocol,
		Metric:          c.PathSelectionMetric,
		Authentication:  c.Authentication,
		Peerings:        int(c.Formation.NumPeerings),
		AcceptsPeerings: c.AcceptsPeerings(),
		ConnectedToGate: c.Formation.ConnectedToGate,
	}
}

// localLinkID reads the Local Link ID of a Mesh Peering Management element in trailing.
// The element starts with a 2-octet protocol identifier followed by the Local Link ID.
func localLinkID(trailing []byte) (uint16, bool) {
	mgmt := ie.FindIE(trailing, int(ie.TagMeshPeeringManagement))
	if len(mgmt) < 4 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(mgmt[2:4]), true
}

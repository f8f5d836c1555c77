package storage

import (
	"strings"

	"github.com/lcalzada-xor/meshpeer/internal/core/domain"
)

// toDomain converts a database model to a domain entity.
func toDomain(m PeeringModel) domain.PeeringObservation {
	obs := domain.PeeringObservation{
		ID:          m.ID,
		Kind:        m.Kind,
		Transmitter: m.Transmitter,
		Receiver:    m.Receiver,
		MeshID:      m.MeshID,
		Capability:  m.Capability,
		AID:         m.AID,
		HasExtRates: m.HasExtRates,
		FrameLen:    m.FrameLen,
		Timestamp:   m.Timestamp,

		HasPeeringMgmt: m.HasPeeringMgmt,
		LocalLinkID:    m.LocalLinkID,
	}
	if m.Rates != "" {
		obs.Rates = strings.Fields(m.Rates)
	}
	if m.HasConfig {
		obs.Config = &domain.MeshConf{
			PathSelection:   m.PathSelection,
			Metric:          m.Metric,
			Authentication:  m.Authentication,
			Peerings:        m.Peerings,
			AcceptsPeerings: m.AcceptsPeerings,
			ConnectedToGate: m.ConnectedToGate,
		}
	}
	return obs
}

// toModel converts a domain entity to a database model.
func toModel(o domain.PeeringObservation) PeeringModel {
	m := PeeringModel{
		ID:          o.ID,
		Kind:        o.Kind,
		Transmitter: o.Transmitter,
		Receiver:    o.Receiver,
		MeshID:      o.MeshID,
		Capability:  o.Capability,
		AID:         o.AID,
		Rates:       strings.Join(o.Rates, " "),
		HasExtRates: o.HasExtRates,
		FrameLen:    o.FrameLen,
		Timestamp:   o.Timestamp,

		HasPeeringMgmt: o.HasPeeringMgmt,
		LocalLinkID:    o.LocalLinkID,
	}
	if c := o.Config; c != nil {
		m.HasConfig = true
		m.PathSelection = c.PathSelection
		m.Metric = c.Metric
		m.Authentication = c.Authentication
		m.Peerings = c.Peerings
		m.AcceptsPeerings = c.AcceptsPeerings
		m.ConnectedToGate = c.ConnectedToGate
	}
	return m
}

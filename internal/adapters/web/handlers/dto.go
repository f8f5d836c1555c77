package handlers

import (
	"fmt"

	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/ie"
	"github.com/lcalzada-xor/meshpeer/internal/adapters/sniffer/mpm"
)

// ConfigDTO is the JSON form of the Mesh Configuration element.
type ConfigDTO struct {
	PathSelection   uint8 `json:"path_selection"`
	Metric          uint8 `json:"metric"`
	Congestion      uint8 `json:"congestion"`
	Sync            uint8 `json:"sync"`
	Authentication  uint8 `json:"authentication"`
	ConnectedToGate bool  `json:"connected_to_gate"`
	Peerings        uint8 `json:"peerings"`
	ConnectedToAS   bool  `json:"connected_to_as"`
	Capability      uint8 `json:"capability"`
}

// FieldsDTO is the JSON form of any peering body; fields a kind does not carry are omitted.
type FieldsDTO struct {
	Protocol      uint8      `json:"protocol,omitempty"` // Peering Protocol version, 0 is MPM
	Capability    uint16     `json:"capability,omitempty"`
	AID           uint16     `json:"aid,omitempty"`
	Rates         []int      `json:"rates,omitempty"` // raw octets, Supported then Extended
	ExtendedRates bool       `json:"extended_rates,omitempty"`
	MeshID        string     `json:"mesh_id,omitempty"`
	Config        *ConfigDTO `json:"config,omitempty"`
}

func configToDTO(c ie.Configuration) *ConfigDTO {
	return &ConfigDTO{
		PathSelection:   c.PathSelectionProtocol,
		Metric:          c.PathSelectionMetric,
		Congestion:      c.CongestionControl,
		Sync:            c.Synchronization,
		Authentication:  c.Authentication,
		ConnectedToGate: c.Formation.ConnectedToGate,
		Peerings:        c.Formation.NumPeerings,
		ConnectedToAS:   c.Formation.ConnectedToAS,
		Capability:      c.Capability,
	}
}

func (d *ConfigDTO) configuration() ie.Configuration {
	if d == nil {
		return ie.DefaultConfiguration()
	}
	return ie.Configuration{
		PathSelectionProtocol: d.PathSelection,
		PathSelectionMetric:   d.Metric,
		CongestionControl:     d.Congestion,
		Synchronization:       d.Sync,
		Authentication:        d.Authentication,
		Formation: ie.FormationInfo{
			ConnectedToGate: d.ConnectedToGate,
			NumPeerings:     d.Peerings,
			ConnectedToAS:   d.ConnectedToAS,
		},
		Capability: d.Capability,
	}
}

func rateOctets(set ie.RateSet) []int {
	out := make([]int, len(set))
	for i, r := range set {
		out[i] = int(r)
	}
	return out
}

// bodyToDTO flattens a decoded body.
func bodyToDTO(body mpm.Body) FieldsDTO {
	switch b := body.(type) {
	case *mpm.OpenBody:
		f := b.Fields()
		return FieldsDTO{
			Protocol:      f.Protocol.Version,
			Capability:    uint16(f.Capability),
			Rates:         rateOctets(f.AllRates()),
			ExtendedRates: f.ExtendedRates != nil,
			MeshID:        string(f.MeshID.ID),
			Config:        configToDTO(f.Config),
		}
	case *mpm.ConfirmBody:
		f := b.Fields()
		return FieldsDTO{
			Protocol:      f.Protocol.Version,
			Capability:    uint16(f.Capability),
			AID:           f.AID,
			Rates:         rateOctets(f.AllRates()),
			ExtendedRates: f.ExtendedRates != nil,
			Config:        configToDTO(f.Config),
		}
	case *mpm.CloseBody:
		f := b.Fields()
		return FieldsDTO{Protocol: f.Protocol.Version, MeshID: string(f.MeshID.ID)}
	}
	return FieldsDTO{}
}

// dtoToBody builds a body of kind k. A missing config gets the default configuration.
func dtoToBody(k mpm.Kind, d FieldsDTO) (mpm.Body, error) {
	rates := make([]ie.Rate, len(d.Rates))
	for i, r := range d.Rates {
		if r < 0 || r > 0xff {
			return nil, fmt.Errorf("rate %d is not an octet", r)
		}
		rates[i] = ie.Rate(r)
	}
	set, err := ie.NewRateSet(rates...)
	if err != nil {
		return nil, err
	}
	meshID, err := ie.NewMeshID(d.MeshID)
	if err != nil {
		return nil, err
	}
	protocol := ie.PeeringProtocol{Version: d.Protocol}
	if d.Config != nil && d.Config.Peerings > ie.MaxPeerings {
		return nil, fmt.Errorf("peerings %d exceeds %d", d.Config.Peerings, ie.MaxPeerings)
	}

	switch k {
	case mpm.KindOpen:
		f := mpm.OpenFields{
			Protocol:   protocol,
			Capability: mpm.Capability(d.Capability),
			MeshID:     meshID,
			Config:     d.Config.configuration(),
		}
		f.SetRates(set)
		b := mpm.NewOpenBody()
		b.SetFields(f)
		return b, nil
	case mpm.KindConfirm:
		f := mpm.ConfirmFields{
			Protocol:   protocol,
			Capability: mpm.Capability(d.Capability),
			AID:        d.AID,
			Config:     d.Config.configuration(),
		}
		f.SetRates(set)
		b := mpm.NewConfirmBody()
		b.SetFields(f)
		return b, nil
	case mpm.KindClose:
		b := mpm.NewCloseBody()
		b.SetFields(mpm.CloseFields{Protocol: protocol, MeshID: meshID})
		return b, nil
	}
	return nil, fmt.Errorf("%w: %d", mpm.ErrUnknownKind, uint8(k))
}

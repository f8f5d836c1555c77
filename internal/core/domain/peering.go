package domain

import "time"

// PeeringObservation is one decoded mesh peering frame seen on the air or in a capture.
type PeeringObservation struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"`        // "open", "confirm", "close"
	Transmitter string    `json:"transmitter"` // MAC of the sending mesh station
	Receiver    string    `json:"receiver"`
	MeshID      string    `json:"mesh_id,omitempty"`
	Capability  uint16    `json:"capability,omitempty"`
	AID         uint16    `json:"aid,omitempty"` // Confirm only
	Rates       []string  `json:"rates,omitempty"` // e.g. "6.0*", basic rates starred
	HasExtRates bool      `json:"has_ext_rates"`
	Config      *MeshConf `json:"config,omitempty"`

	// From a Mesh Peering Management element trailing the body, when present.
	HasPeeringMgmt bool   `json:"has_peering_mgmt"`
	LocalLinkID    uint16 `json:"local_link_id,omitempty"`

	FrameLen    int       `json:"frame_len"`
	Timestamp   time.Time `json:"timestamp"`
}

// MeshConf is the subset of the Mesh Configuration element worth keeping.
type MeshConf struct {
	PathSelection   uint8 `json:"path_selection"`
	Metric          uint8 `json:"metric"`
	Authentication  uint8 `json:"authentication"`
	Peerings        int   `json:"peerings"`
	AcceptsPeerings bool  `json:"accepts_peerings"`
	ConnectedToGate bool  `json:"connected_to_gate"`
}

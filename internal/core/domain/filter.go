package domain

import (
	"errors"
	"net"
	"time"
)

// Observation kinds, matching the peering action names.
const (
	KindOpen    = "open"
	KindConfirm = "confirm"
	KindClose   = "close"
)

// Domain Errors for filtering
var (
	ErrInvalidKind  = errors.New("kind must be open, confirm or close")
	ErrInvalidMAC   = errors.New("transmitter must be a MAC address")
	ErrInvalidLimit = errors.New("limit cannot be negative")
)

// PeeringFilter defines criteria for querying observations. Zero values match everything.
type PeeringFilter struct {
	MeshID      string    `json:"mesh_id"`     // exact match, empty = any
	Transmitter string    `json:"transmitter"` // exact match after Validate normalises it
	Kind        string    `json:"kind"`        // "open", "confirm", "close", "" (empty = any)
	Since       time.Time `json:"since"`
	Limit       int       `json:"limit"` // 0 = no limit
}

func (f *PeeringFilter) WithMeshID(id string) *PeeringFilter {
	f.MeshID = id
	return f
}

func (f *PeeringFilter) WithKind(k string) *PeeringFilter {
	f.Kind = k
	return f
}

// Validate rejects filters no observation could satisfy and rewrites the transmitter
// into the lowercase colon form observations are stored with.
func (f *PeeringFilter) Validate() error {
	switch f.Kind {
	case "", KindOpen, KindConfirm, KindClose:
	default:
		return ErrInvalidKind
	}
	if f.Transmitter != "" {
		if !IsValidMAC(f.Transmitter) {
			return ErrInvalidMAC
		}
		mac, err := net.ParseMAC(f.Transmitter)
		if err != nil {
			return ErrInvalidMAC
		}
		f.Transmitter = mac.String()
	}
	if f.Limit < 0 {
		return ErrInvalidLimit
	}
	return nil
}

// Matches applies the filter in memory with the same semantics as the storage query.
// Call Validate first so the transmitter is in canonical form.
func (f *PeeringFilter) Matches(o *PeeringObservation) bool {
	if o == nil {
		return false
	}
	if f.MeshID != "" && o.MeshID != f.MeshID {
		return false
	}
	if f.Transmitter != "" && o.Transmitter != f.Transmitter {
		return false
	}
	if f.Kind != "" && o.Kind != f.Kind {
		return false
	}
	if !f.Since.IsZero() && o.Timestamp.Before(f.Since) {
		return false
	}
	return true
}

package ports

import "github.com/lcalzada-xor/meshpeer/internal/core/domain"

// ObservationStore defines the behavior for persisting decoded peering frames.
type ObservationStore interface {
	// SaveObservation stores one observation, assigning an ID when empty.
	SaveObservation(obs domain.PeeringObservation) error
	SaveObservationsBatch(obs []domain.PeeringObservation) error

	// ListObservations returns observations matching filter, newest first.
	ListObservations(filter domain.PeeringFilter) ([]domain.PeeringObservation, error)

	// ListPeers returns the distinct transmitters seen for a mesh ID.
	ListPeers(meshID string) ([]string, error)

	// Close closes the storage connection.
	Close() error
}

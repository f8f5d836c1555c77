// Package web serves the peering codec and stored observations over HTTP.
package web

import (
	"github.com/lcalzada-xor/meshpeer/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// MockObservationStore is a mock of ports.ObservationStore
type MockObservationStore struct {
	mock.Mock
}

func (m *MockObservationStore) SaveObservation(obs domain.PeeringObservation) error {
	args := m.Called(obs)
	return args.Error(0)
}

func (m *MockObservationStore) SaveObservationsBatch(obs []domain.PeeringObservation) error {
	args := m.Called(obs)
	return args.Error(0)
}

func (m *MockObservationStore) ListObservations(filter domain.PeeringFilter) ([]domain.PeeringObservation, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.PeeringObservation), args.Error(1)
}

func (m *MockObservationStore) ListPeers(meshID string) ([]string, error) {
	args := m.Called(meshID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockObservationStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

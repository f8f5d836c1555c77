package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lcalzada-xor/meshpeer/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockStorage implements ports.ObservationStore for testing
type MockStorage struct {
	mu      sync.Mutex
	Saved   []domain.PeeringObservation
	Batches int
	Err     error
}

func (m *MockStorage) SaveObservationsBatch(obs []domain.PeeringObservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Batches++
	m.Saved = append(m.Saved, obs...)
	return nil
}

func (m *MockStorage) SaveObservation(obs domain.PeeringObservation) error {
	return m.SaveObservationsBatch([]domain.PeeringObservation{obs})
}
func (m *MockStorage) ListObservations(domain.PeeringFilter) ([]domain.PeeringObservation, error) {
	return nil, nil
}
func (m *MockStorage) ListPeers(string) ([]string, error) { return nil, nil }
func (m *MockStorage) Close() error                       { return nil }

func (m *MockStorage) count() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Saved), m.Batches
}

func obs(i int) domain.PeeringObservation {
	return domain.PeeringObservation{ID: fmt.Sprint(i), Kind: domain.KindOpen}
}

func TestPersistenceManager_Batching(t *testing.T) {
	mockStore := &MockStorage{}
	pm := NewPersistenceManager(mockStore, 10)
	pm.batchSize = 5
	pm.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pm.Start(ctx)

	for i := 0; i < 4; i++ {
		require.NoError(t, pm.Persist(ctx, obs(i)))
	}
	time.Sleep(50 * time.Millisecond)
	saved, _ := mockStore.count()
	assert.Equal(t, 0, saved, "batch not full yet")

	require.NoError(t, pm.Persist(ctx, obs(4)))
	assert.Eventually(t, func() bool {
		saved, batches := mockStore.count()
		return saved == 5 && batches == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPersistenceManager_IntervalFlush(t *testing.T) {
	mockStore := &MockStorage{}
	pm := NewPersistenceManager(mockStore, 10)
	pm.interval = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pm.Start(ctx)

	require.NoError(t, pm.Persist(ctx, obs(1)))
	assert.Eventually(t, func() bool {
		saved, _ := mockStore.count()
		return saved == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPersistenceManager_CloseFlushes(t *testing.T) {
	mockStore := &MockStorage{}
	pm := NewPersistenceManager(mockStore, 10)
	pm.interval = time.Hour

	pm.Start(context.Background())
	for i := 0; i < 3; i++ {
		require.NoError(t, pm.Persist(context.Background(), obs(i)))
	}
	pm.Close()

	saved, failed := pm.Stats()
	assert.Equal(t, 3, saved)
	assert.Zero(t, failed)
	n, _ := mockStore.count()
	assert.Equal(t, 3, n)
}

func TestPersistenceManager_CancelFlushes(t *testing.T) {
	mockStore := &MockStorage{}
	pm := NewPersistenceManager(mockStore, 10)
	pm.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	pm.Start(ctx)
	require.NoError(t, pm.Persist(ctx, obs(1)))
	cancel()
	<-pm.done

	n, _ := mockStore.count()
	assert.Equal(t, 1, n)
}

func TestPersistenceManager_SaveError(t *testing.T) {
	mockStore := &MockStorage{Err: errors.New("disk full")}
	pm := NewPersistenceManager(mockStore, 10)

	pm.Start(context.Background())
	require.NoError(t, pm.Persist(context.Background(), obs(1)))
	pm.Close()

	saved, failed := pm.Stats()
	assert.Zero(t, saved)
	assert.Equal(t, 1, failed)
}

func TestPersistenceManager_PersistCancelled(t *testing.T) {
	pm := NewPersistenceManager(&MockStorage{}, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, pm.Persist(ctx, obs(1)), context.Canceled)
}

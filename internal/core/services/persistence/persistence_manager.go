package persistence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lcalzada-xor/meshpeer/internal/core/domain"
	"github.com/lcalzada-xor/meshpeer/internal/core/ports"
)

// PersistenceManager handles background batch writing of observations to storage.
// Batches are flushed when full, on every interval tick, and once more on shutdown.
type PersistenceManager struct {
	storage     ports.ObservationStore
	persistChan chan domain.PeeringObservation
	batchSize   int
	interval    time.Duration
	done        chan struct{}

	mu     sync.Mutex
	saved  int
	failed int
}

// NewPersistenceManager creates a new manager.
func NewPersistenceManager(storage ports.ObservationStore, bufferSize int) *PersistenceManager {
	return &PersistenceManager{
		storage:     storage,
		persistChan: make(chan domain.PeeringObservation, bufferSize),
		batchSize:   100,
		interval:    5 * time.Second,
		done:        make(chan struct{}),
	}
}

// Persist queues an observation, waiting for room while ctx is live.
func (p *PersistenceManager) Persist(ctx context.Context, obs domain.PeeringObservation) error {
	select {
	case p.persistChan <- obs:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start begins the persistence loop. It runs until ctx is done or Close is called.
func (p *PersistenceManager) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	var buffer []domain.PeeringObservation

	go func() {
		defer close(p.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				p.drain(&buffer)
				p.flushBuffer(buffer)
				return
			case obs, ok := <-p.persistChan:
				if !ok {
					p.flushBuffer(buffer)
					return
				}
				buffer = append(buffer, obs)
				if len(buffer) >= p.batchSize {
					p.flushBuffer(buffer)
					buffer = nil
				}
			case <-ticker.C:
				if len(buffer) > 0 {
					p.flushBuffer(buffer)
					buffer = nil
				}
			}
		}
	}()
}

// Close stops accepting observations and waits for the final flush.
// Persist must not be called after Close.
func (p *PersistenceManager) Close() {
	close(p.persistChan)
	<-p.done
}

// Stats returns how many observations were written and how many failed.
func (p *PersistenceManager) Stats() (saved, failed int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.saved, p.failed
}

func (p *PersistenceManager) drain(buffer *[]domain.PeeringObservation) {
	for {
		select {
		case obs, ok := <-p.persistChan:
			if !ok {
				return
			}
			*buffer = append(*buffer, obs)
		default:
			return
		}
	}
}

func (p *PersistenceManager) flushBuffer(buffer []domain.PeeringObservation) {
	if len(buffer) == 0 || p.storage == nil {
		return
	}
	err := p.storage.SaveObservationsBatch(buffer)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.failed += len(buffer)
		slog.Error("failed to batch save observations", "count", len(buffer), "error", err)
		return
	}
	p.saved += len(buffer)
}

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/meshpeer/internal/core/domain"
	"github.com/lcalzada-xor/meshpeer/internal/core/ports"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// SQLiteAdapter implements ports.ObservationStore using GORM and SQLite.
type SQLiteAdapter struct {
	db *gorm.DB
}

// PeeringModel is the GORM model for a decoded peering frame.
type PeeringModel struct {
	ID          string `gorm:"primaryKey"`
	Kind        string `gorm:"index"`
	Transmitter string `gorm:"index"`
	Receiver    string
	MeshID      string `gorm:"index"`
	Capability  uint16
	AID         uint16
	Rates       string // space separated, basic rates starred
	HasExtRates bool
	FrameLen    int

	HasPeeringMgmt bool
	LocalLinkID    uint16
	Timestamp   time.Time `gorm:"index"`

	// Mesh Configuration, absent on Close
	HasConfig       bool
	PathSelection   uint8
	Metric          uint8
	Authentication  uint8
	Peerings        int
	AcceptsPeerings bool
	ConnectedToGate bool
}

// NewSQLiteAdapter opens the database at path, creating its directory, migrates the
// schema and instruments every query with OpenTelemetry spans.
func NewSQLiteAdapter(path string) (*SQLiteAdapter, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&PeeringModel{}); err != nil {
		return nil, err
	}

	return &SQLiteAdapter{db: db}, nil
}

// SaveObservation upserts one observation.
func (a *SQLiteAdapter) SaveObservation(obs domain.PeeringObservation) error {
	model := toModel(withID(obs))
	return a.db.Save(&model).Error
}

// SaveObservationsBatch saves multiple observations in a single transaction.
func (a *SQLiteAdapter) SaveObservationsBatch(obs []domain.PeeringObservation) error {
	if len(obs) == 0 {
		return nil
	}

	models := make([]PeeringModel, len(obs))
	for i, o := range obs {
		models[i] = toModel(withID(o))
	}

	return a.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			UpdateAll: true,
		}).CreateInBatches(models, 100).Error
	})
}

// ListObservations retrieves observations matching the filter, newest first.
func (a *SQLiteAdapter) ListObservations(filter domain.PeeringFilter) ([]domain.PeeringObservation, error) {
	query := a.db.Model(&PeeringModel{})

	if filter.MeshID != "" {
		query = query.Where("mesh_id = ?", filter.MeshID)
	}
	if filter.Transmitter != "" {
		query = query.Where("transmitter = ?", filter.Transmitter)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if !filter.Since.IsZero() {
		query = query.Where("timestamp >= ?", filter.Since)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var models []PeeringModel
	if err := query.Order("timestamp desc").Find(&models).Error; err != nil {
		return nil, err
	}

	out := make([]domain.PeeringObservation, len(models))
	for i, m := range models {
		out[i] = toDomain(m)
	}
	return out, nil
}

// ListPeers returns the distinct transmitters that advertised meshID.
func (a *SQLiteAdapter) ListPeers(meshID string) ([]string, error) {
	var peers []string
	err := a.db.Model(&PeeringModel{}).
		Where("mesh_id = ?", meshID).
		Distinct().
		Order("transmitter").
		Pluck("transmitter", &peers).Error
	return peers, err
}

func (a *SQLiteAdapter) Close() error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func withID(obs domain.PeeringObservation) domain.PeeringObservation {
	if obs.ID == "" {
		obs.ID = uuid.NewString()
	}
	return obs
}

var _ ports.ObservationStore = (*SQLiteAdapter)(nil)

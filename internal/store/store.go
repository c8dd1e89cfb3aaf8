// Package store persists enrichment runs and their enriched records.
package store

import (
	"context"

	"github.com/SoleneDerville/occurrence-atlas/internal/model"
)

// RecordFilter narrows ListRecords output. Zero values mean "no filter".
type RecordFilter struct {
	Species string `json:"species,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for the enrichment pipeline.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, csvPath, rasterPath string) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, stats model.RunStats) error
	FailRun(ctx context.Context, runID string, cause error) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)

	// Records
	InsertRecords(ctx context.Context, runID string, records []model.EnrichedRecord) error
	ListRecords(ctx context.Context, runID string, filter RecordFilter) ([]model.EnrichedRecord, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

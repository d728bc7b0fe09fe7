// Package history provides persistent storage of completed analysis runs.
// It records per-analysis summaries (disease, candidate counts, top hit,
// timing) so operators can review what the pipeline produced over time.
package history

import (
	"context"
	"io"
	"time"

	"github.com/drug-repurposing-server/internal/domain"
)

// Store defines the interface for analysis history storage.
type Store interface {
	// Record appends a completed analysis summary. The record's ID is
	// populated on return.
	Record(ctx context.Context, record *domain.AnalysisRecord) error

	// List returns analysis records, newest first, with pagination.
	List(ctx context.Context, limit, offset int) ([]*domain.AnalysisRecord, error)

	// Count returns the total number of recorded analyses.
	Count(ctx context.Context) (int64, error)

	// Delete removes an analysis record by ID.
	Delete(ctx context.Context, id int64) error

	// ExportJSON exports all records to a JSON writer.
	ExportJSON(ctx context.Context, writer io.Writer) error

	// Close closes the store and releases resources.
	Close() error
}

// Export represents the JSON export format.
type Export struct {
	Version    string                   `json:"version"`
	ExportedAt time.Time                `json:"exported_at"`
	Count      int                      `json:"count"`
	Analyses   []*domain.AnalysisRecord `json:"analyses"`
}

package recorder

import (
	"context"
	"time"

	"github.com/google/uuid"

	"MarketAnalyzer/internal/model"
)

// Snapshot is one persisted analysis: the indicators at a symbol's latest
// bar as seen by a particular run.
type Snapshot struct {
	RunID      string
	RecordedAt time.Time
	Symbol     string
	Interval   string
	Source     string
	Bars       int
	Close      float64
	Indicators model.IndicatorSet
}

// Recorder persists historical data for analysis.
type Recorder interface {
	RecordAnalysis(ctx context.Context, runID string, a *model.Analysis) error
	// Recent returns up to limit snapshots for symbol, newest bar first.
	Recent(ctx context.Context, symbol string, limit int) ([]Snapshot, error)
	Close() error
}

// NewRunID returns an identifier grouping the snapshots of one sweep.
func NewRunID() string { return uuid.NewString() }

package recorder

import (
	"context"

	"MarketAnalyzer/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnalysis(context.Context, string, *model.Analysis) error { return nil }
func (n *NoopRecorder) Recent(context.Context, string, int) ([]Snapshot, error)       { return nil, nil }
func (n *NoopRecorder) Close() error                                                  { return nil }

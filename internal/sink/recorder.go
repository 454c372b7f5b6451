package sink

import (
	"context"

	"github.com/mattjoyce/hookctl/internal/storage"
)

//go:generate mockgen -destination=mocks/mock_recorder.go -package=mocks github.com/mattjoyce/hookctl/internal/sink Recorder

// Recorder persists accepted deliveries. *storage.Captures implements it.
type Recorder interface {
	Record(ctx context.Context, c storage.Capture) (storage.Capture, error)
	List(ctx context.Context, limit int) ([]storage.Capture, error)
	Get(ctx context.Context, id int64) (storage.Capture, error)
}

var _ Recorder = (*storage.Captures)(nil)

package ports

import (
	"context"
	"time"
)

// Exchange is one finished voice round trip.
type Exchange struct {
	ID              string    `json:"id"`
	Source          string    `json:"source"`
	Transcript      string    `json:"transcript"`
	Reply           string    `json:"reply"`
	Outcome         string    `json:"outcome"`
	AudioBytes      int64     `json:"audio_bytes"`
	AudioDurationMs int64     `json:"audio_duration_ms"`
	CreatedAt       time.Time `json:"created_at"`
}

// Postgres repository
type ExchangeRepo interface {
	EnsureSchema(ctx context.Context) error
	Create(ctx context.Context, e *Exchange) error
	ListRecent(ctx context.Context, limit int) ([]Exchange, error)
}

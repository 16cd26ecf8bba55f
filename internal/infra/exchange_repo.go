package infra

import (
	"context"
	"database/sql"
	"time"

	"github.com/Felipe2109/voice_relay/internal/ports"
)

type exchangeRepo struct {
	db *sql.DB
}

func NewExchangeRepo(db *sql.DB) ports.ExchangeRepo {
	return &exchangeRepo{db: db}
}

func (r *exchangeRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS voice_exchanges (
			id                TEXT PRIMARY KEY,
			source            TEXT NOT NULL,
			transcript        TEXT NOT NULL,
			reply             TEXT NOT NULL,
			outcome           TEXT NOT NULL,
			audio_bytes       BIGINT NOT NULL DEFAULT 0,
			audio_duration_ms BIGINT NOT NULL DEFAULT 0,
			created_at        TIMESTAMPTZ NOT NULL
		)
	`)
	return err
}

func (r *exchangeRepo) Create(ctx context.Context, e *ports.Exchange) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO voice_exchanges (id, source, transcript, reply, outcome, audio_bytes, audio_duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.Source, e.Transcript, e.Reply, e.Outcome, e.AudioBytes, e.AudioDurationMs, e.CreatedAt)
	return err
}

func (r *exchangeRepo) ListRecent(ctx context.Context, limit int) ([]ports.Exchange, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source, transcript, reply, outcome, audio_bytes, audio_duration_ms, created_at
		FROM voice_exchanges
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ports.Exchange, 0, limit)
	for rows.Next() {
		var e ports.Exchange
		if err := rows.Scan(
			&e.ID,
			&e.Source,
			&e.Transcript,
			&e.Reply,
			&e.Outcome,
			&e.AudioBytes,
			&e.AudioDurationMs,
			&e.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

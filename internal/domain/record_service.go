package domain

import (
	"context"
	"fmt"

	"github.com/Felipe2109/voice_relay/internal/ports"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type exchangeService struct {
	repo ports.ExchangeRepo
}

func NewExchangeService(repo ports.ExchangeRepo) ports.ExchangeService {
	return &exchangeService{repo: repo}
}

func (s *exchangeService) Record(ctx context.Context, e ports.Exchange) error {
	if e.ID == "" {
		return fmt.Errorf("exchange id required")
	}
	if err := s.repo.Create(ctx, &e); err != nil {
		return fmt.Errorf("save exchange %s: %w", e.ID, err)
	}
	return nil
}

func (s *exchangeService) ListRecent(ctx context.Context, limit int) ([]ports.Exchange, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

package ports

import "context"

type ExchangeService interface {
	Record(ctx context.Context, e Exchange) error
	ListRecent(ctx context.Context, limit int) ([]Exchange, error)
}

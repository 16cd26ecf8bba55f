package error_notificator

import (
	"context"

	"github.com/Vovarama1992/go-utils/logger"
)

type Service struct {
	infra Notificator
	log   *logger.ZapLogger
}

func NewService(infra Notificator, log *logger.ZapLogger) *Service {
	return &Service{infra: infra, log: log}
}

// Notify never fails the caller's flow; delivery problems are only logged.
func (s *Service) Notify(ctx context.Context, err error, details string) error {
	if nerr := s.infra.Notify(ctx, err, details); nerr != nil {
		s.log.Log(logger.LogEntry{
			Level:   "warn",
			Message: "[error_notificator] send failed",
			Error:   nerr,
		})
		return nerr
	}
	return nil
}

package infra

import (
	"context"
	"errors"

	"admission-gate/middleware/admission/domain"
)

// FanOutStats repassa cada evento para todos os stores, acumulando os erros.
type FanOutStats []domain.StatsStore

func (f FanOutStats) Record(ctx context.Context, ev domain.StatsEvent) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Record(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

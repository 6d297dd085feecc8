package runner

import (
	"context"

	"signal_bot/internal/models"
)

// ConditionalBroker — то, что нужно reconciliation-циклу для эмуляции OCO
// опросом. Адаптер с нативной OCO-группой мог бы реализовать тот же
// контракт без опроса.
type ConditionalBroker interface {
	CancelConditional(ctx context.Context, pair, id string) error
	ConditionalStatus(ctx context.Context, pair, id string) (models.OrderState, error)
	PositionSize(ctx context.Context, pair string) (float64, error)
}

// Exchange — полный набор возможностей биржи, которым пользуется конвейер
// исполнения сигнала.
type Exchange interface {
	ConditionalBroker

	SetLeverage(ctx context.Context, pair string, leverage int) error
	Balance(ctx context.Context) (float64, error)
	InstrumentMeta(ctx context.Context, pair string) (models.Instrument, error)
	PlaceMarket(ctx context.Context, pair string, dir models.Direction, qty float64) (id string, avgPrice float64, err error)
	PlaceConditional(ctx context.Context, pair string, dir models.Direction, isTP bool, qty, trigger float64) (string, error)
}

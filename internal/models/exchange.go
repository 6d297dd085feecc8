package models

// Instrument — точности инструмента с биржи.
type Instrument struct {
	Symbol   string // биржевой формат, "ETHUSDT"
	StepSize float64
	TickSize float64
	MinQty   float64
}

// OrderState — свёрнутый статус условного ордера.
// Closed покрывает filled/canceled/rejected/expired: для снятия ноги
// с учёта различие не важно.
type OrderState int

const (
	OrderStateUnknown OrderState = iota
	OrderStateOpen
	OrderStateClosed
)

func (s OrderState) String() string {
	switch s {
	case OrderStateOpen:
		return "open"
	case OrderStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

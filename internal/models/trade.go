package models

import "time"

// TakeProfitAlloc — одна цель плана: цена и количество под неё.
type TakeProfitAlloc struct {
	Price    float64
	Quantity float64
}

// PositionPlan — конкретный план ордеров, посчитанный из сигнала и баланса.
type PositionPlan struct {
	Quantity     float64 // полный размер позиции, округлён вниз до шага
	UsedFraction float64 // доля баланса, ушедшая в маржу
	StopPrice    float64
	TakeProfits  []TakeProfitAlloc
}

// TakeProfitLeg — выставленный тейк по одной цели.
type TakeProfitLeg struct {
	OrderID  string
	Price    float64
	Quantity float64
	Notified bool
}

// ActiveTrade — живая сделка в леджере. Мутирует только через Ledger.
type ActiveTrade struct {
	Symbol     string
	Direction  Direction
	Leverage   float64
	EntryPrice float64
	Quantity   float64

	EntryOrderID string
	StopOrderID  string // "" — стоп не выставлен, позиция без защиты
	Targets      map[int]*TakeProfitLeg

	OpenedAt time.Time
}

// Clone — глубокая копия для снапшотов вне мьютекса леджера.
func (t *ActiveTrade) Clone() *ActiveTrade {
	cp := *t
	cp.Targets = make(map[int]*TakeProfitLeg, len(t.Targets))
	for i, leg := range t.Targets {
		l := *leg
		cp.Targets[i] = &l
	}
	return &cp
}

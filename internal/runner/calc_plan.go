package runner

import (
	"errors"
	"fmt"

	"signal_bot/internal/helper"
	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
)

// ErrInvalidSize — баланс или рассчитанное количество не положительны.
var ErrInvalidSize = errors.New("runner: invalid position size")

// BuildPlan считает конкретный план ордеров из сигнала и баланса:
//
//	qty    = floor(balance * fraction * leverage / entry, stepSize)
//	stop   = цена, при которой ROI позиции равен -StopROIPct
//	тейки  = цели сигнала с долями из политики
//
// Округление количества только ВНИЗ, чтобы не перебрать маржу.
func BuildPlan(sig models.TradeSignal, balance float64, inst models.Instrument, pol config.Trading) (models.PositionPlan, error) {
	if balance <= 0 {
		return models.PositionPlan{}, fmt.Errorf("%w: balance=%.8f", ErrInvalidSize, balance)
	}
	if sig.EntryPrice <= 0 || sig.Leverage <= 0 {
		return models.PositionPlan{}, fmt.Errorf("%w: entry=%.8f lev=%.2f", ErrInvalidSize, sig.EntryPrice, sig.Leverage)
	}

	qty := helper.FloorToStep(balance*pol.BalanceFraction*sig.Leverage/sig.EntryPrice, inst.StepSize)
	if qty <= 0 {
		return models.PositionPlan{}, fmt.Errorf("%w: qty=%.8f after step rounding", ErrInvalidSize, qty)
	}
	if qty < inst.MinQty {
		return models.PositionPlan{}, fmt.Errorf("%w: qty=%.8f below instrument min %.8f", ErrInvalidSize, qty, inst.MinQty)
	}

	// стоп округляем в безопасную сторону
	stopRaw := StopPrice(sig.Direction, sig.EntryPrice, sig.Leverage, pol.StopROIPct)
	var stop float64
	if sig.Direction.IsLong() {
		stop = helper.RoundDownToTick(stopRaw, inst.TickSize)
	} else {
		stop = helper.RoundUpToTick(stopRaw, inst.TickSize)
	}

	n := len(pol.TPFractions)
	if n > len(sig.Targets) {
		n = len(sig.Targets)
	}
	tps := make([]models.TakeProfitAlloc, 0, n)
	for i := 0; i < n; i++ {
		legQty := helper.FloorToStep(qty*pol.TPFractions[i], inst.StepSize)
		// нога мельче минимального лота биржей всё равно не примется
		if legQty <= 0 || legQty < inst.MinQty {
			continue
		}
		px := sig.Targets[i]
		if sig.Direction.IsLong() {
			px = helper.RoundUpToTick(px, inst.TickSize)
		} else {
			px = helper.RoundDownToTick(px, inst.TickSize)
		}
		tps = append(tps, models.TakeProfitAlloc{Price: px, Quantity: legQty})
	}

	return models.PositionPlan{
		Quantity:     qty,
		UsedFraction: pol.BalanceFraction,
		StopPrice:    stop,
		TakeProfits:  tps,
	}, nil
}

// StopPrice — цена, на которой ROI с учётом плеча достигает -roiPct.
// long:  entry * (1 - roiPct/(100*lev))
// short: entry * (1 + roiPct/(100*lev))
func StopPrice(dir models.Direction, entry, leverage, roiPct float64) float64 {
	dist := roiPct / (100 * leverage)
	if dir.IsLong() {
		return entry * (1 - dist)
	}
	return entry * (1 + dist)
}

// RealizedROI — процент прибыли на маржу при выходе по exit.
func RealizedROI(dir models.Direction, entry, exit, leverage float64) float64 {
	roi := (exit - entry) / entry * 100 * leverage
	if !dir.IsLong() {
		roi = -roi
	}
	return roi
}

package helper

import (
	"math"
	"strconv"
	"strings"
)

// FloorToStep округляет количество вниз до шага инструмента.
// Только вниз: округление вверх перебрало бы маржу.
func FloorToStep(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	steps := math.Floor(v/step + 1e-9)
	return steps * step
}

func RoundDownToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Floor(px/tick + 1e-12)
	return steps * tick
}

func RoundUpToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Ceil(px/tick - 1e-12)
	return steps * tick
}

// RoundToTick — к ближайшему тику, для цен триггеров.
func RoundToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	return math.Floor(px/tick+0.5) * tick
}

// ExchangeSymbol переводит пару из сигнала в биржевой формат:
// "ETH/USDT" -> "ETHUSDT".
func ExchangeSymbol(pair string) string {
	return strings.ReplaceAll(pair, "/", "")
}

// StepDecimals — сколько знаков после запятой у шага (0.001 -> 3).
func StepDecimals(step float64) int {
	if step >= 1 || step <= 0 {
		return 0
	}
	s := strconv.FormatFloat(step, 'f', -1, 64)
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return 0
	}
	return len(s) - i - 1
}

// FormatAmount форматирует число под точность шага для отправки на биржу.
func FormatAmount(v, step float64) string {
	return strconv.FormatFloat(v, 'f', StepDecimals(step), 64)
}

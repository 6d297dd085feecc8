package exchange

import (
	"context"
	"fmt"
	"strconv"

	"signal_bot/internal/helper"
	"signal_bot/internal/models"
)

// InstrumentMeta отдаёт точности инструмента. Фильтры биржи не меняются
// в рантайме, поэтому ответ кэшируется на весь процесс.
func (c *Client) InstrumentMeta(ctx context.Context, pair string) (models.Instrument, error) {
	sym := helper.ExchangeSymbol(pair)

	c.metaMu.Lock()
	if inst, ok := c.meta[sym]; ok {
		c.metaMu.Unlock()
		return inst, nil
	}
	c.metaMu.Unlock()

	info, err := c.fut.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return models.Instrument{}, fmt.Errorf("exchange info: %w", err)
	}

	parsePos := func(name, s string) (float64, error) {
		v, perr := strconv.ParseFloat(s, 64)
		if perr != nil || v <= 0 {
			return 0, fmt.Errorf("%s parse: %v (%q)", name, perr, s)
		}
		return v, nil
	}

	for i := range info.Symbols {
		s := &info.Symbols[i]
		if s.Symbol != sym {
			continue
		}

		lot := s.LotSizeFilter()
		pf := s.PriceFilter()
		if lot == nil || pf == nil {
			return models.Instrument{}, fmt.Errorf("instrument %s: filters missing", sym)
		}

		step, err := parsePos("stepSize", lot.StepSize)
		if err != nil {
			return models.Instrument{}, err
		}
		minQty, err := parsePos("minQty", lot.MinQuantity)
		if err != nil {
			return models.Instrument{}, err
		}
		tick, err := parsePos("tickSize", pf.TickSize)
		if err != nil {
			return models.Instrument{}, err
		}

		inst := models.Instrument{
			Symbol:   sym,
			StepSize: step,
			TickSize: tick,
			MinQty:   minQty,
		}

		c.metaMu.Lock()
		c.meta[sym] = inst
		c.metaMu.Unlock()

		return inst, nil
	}

	return models.Instrument{}, fmt.Errorf("instrument %s not found", sym)
}

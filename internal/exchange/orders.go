package exchange

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/google/uuid"

	"signal_bot/internal/helper"
	"signal_bot/internal/models"
	"signal_bot/pkg/logger"
)

const quoteAsset = "USDT"

// SetLeverage выставляет плечо по инструменту.
func (c *Client) SetLeverage(ctx context.Context, pair string, leverage int) error {
	if !c.live {
		logger.Info("[PAPER] set leverage %dx for %s", leverage, pair)
		return nil
	}
	_, err := c.fut.NewChangeLeverageService().
		Symbol(helper.ExchangeSymbol(pair)).
		Leverage(leverage).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("change leverage: %w", err)
	}
	return nil
}

// Balance — свободный USDT на фьючерсном счёте.
func (c *Client) Balance(ctx context.Context) (float64, error) {
	if !c.live {
		// синтетический депозит в бумажном режиме
		return 1000.0, nil
	}
	balances, err := c.fut.NewGetBalanceService().Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch balance: %w", err)
	}
	for _, b := range balances {
		if b.Asset != quoteAsset {
			continue
		}
		free, perr := strconv.ParseFloat(b.AvailableBalance, 64)
		if perr != nil {
			return 0, fmt.Errorf("parse balance %q: %w", b.AvailableBalance, perr)
		}
		return free, nil
	}
	return 0, nil
}

// PlaceMarket открывает позицию по рынку. Возвращает id ордера и среднюю
// цену исполнения (0, если биржа её ещё не отдала).
func (c *Client) PlaceMarket(ctx context.Context, pair string, dir models.Direction, qty float64) (string, float64, error) {
	if qty <= 0 {
		return "", 0, fmt.Errorf("place market: qty <= 0")
	}
	if !c.live {
		logger.Info("[PAPER] market %s %s qty=%.8f", dir, pair, qty)
		return "paper-" + uuid.NewString(), 0, nil
	}

	inst, err := c.InstrumentMeta(ctx, pair)
	if err != nil {
		return "", 0, err
	}

	side := futures.SideTypeBuy
	if !dir.IsLong() {
		side = futures.SideTypeSell
	}

	res, err := c.fut.NewCreateOrderService().
		Symbol(inst.Symbol).
		Side(side).
		Type(futures.OrderTypeMarket).
		Quantity(helper.FormatAmount(qty, inst.StepSize)).
		NewClientOrderID("sigbot-" + uuid.NewString()).
		Do(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("market order: %w", err)
	}

	avg, _ := strconv.ParseFloat(res.AvgPrice, 64)
	return strconv.FormatInt(res.OrderID, 10), avg, nil
}

// PlaceConditional ставит триггерный reduce-only ордер (стоп или тейк) по
// марк-цене. Если основной эндпоинт отвечает «используйте conditional-
// эндпоинт», та же нога уходит вторым ярусом через algo-клиент. В любом
// исходе наружу отдаётся не больше одного id.
func (c *Client) PlaceConditional(ctx context.Context, pair string, dir models.Direction, isTP bool, qty, trigger float64) (string, error) {
	if qty <= 0 {
		return "", fmt.Errorf("conditional: qty <= 0")
	}
	if trigger <= 0 {
		return "", fmt.Errorf("conditional: trigger <= 0")
	}
	if !c.live {
		logger.Info("[PAPER] conditional %s tp=%v trigger=%.8f qty=%.8f", pair, isTP, trigger, qty)
		return "paper-algo-" + uuid.NewString(), nil
	}

	inst, err := c.InstrumentMeta(ctx, pair)
	if err != nil {
		return "", err
	}

	// закрывающая сторона
	side := futures.SideTypeSell
	if !dir.IsLong() {
		side = futures.SideTypeBuy
	}

	ordType := futures.OrderTypeStopMarket
	if isTP {
		ordType = futures.OrderTypeTakeProfitMarket
	}

	qtyStr := helper.FormatAmount(qty, inst.StepSize)
	triggerStr := helper.FormatAmount(helper.RoundToTick(trigger, inst.TickSize), inst.TickSize)

	res, err := c.fut.NewCreateOrderService().
		Symbol(inst.Symbol).
		Side(side).
		Type(ordType).
		Quantity(qtyStr).
		StopPrice(triggerStr).
		ReduceOnly(true).
		WorkingType(futures.WorkingTypeMarkPrice).
		Do(ctx)
	if err == nil {
		return strconv.FormatInt(res.OrderID, 10), nil
	}
	if Classify(err) != CategoryNeedsAlgoEndpoint {
		return "", fmt.Errorf("conditional order: %w", err)
	}

	logger.Info("[%s] основной эндпоинт отклонил триггерный тип, ухожу на conditional-эндпоинт", pair)
	algoID, err := c.algo.place(ctx, inst.Symbol, string(side), string(ordType), qtyStr, triggerStr)
	if err != nil {
		return "", fmt.Errorf("conditional order (algo tier): %w", err)
	}
	return algoID, nil
}

// CancelConditional снимает условный ордер. «Ордер не найден» на обоих
// ярусах считается успехом: нога уже исполнилась или снята.
func (c *Client) CancelConditional(ctx context.Context, pair, id string) error {
	if !c.live {
		logger.Info("[PAPER] cancel conditional %s %s", pair, id)
		return nil
	}
	sym := helper.ExchangeSymbol(pair)

	if oid, perr := strconv.ParseInt(id, 10, 64); perr == nil {
		_, err := c.fut.NewCancelOrderService().Symbol(sym).OrderID(oid).Do(ctx)
		if err == nil {
			return nil
		}
		if Classify(err) != CategoryUnknownOrder {
			return fmt.Errorf("cancel order: %w", err)
		}
		// ордер может жить только во втором ярусе — пробуем там
	}

	if err := c.algo.cancel(ctx, sym, id); err != nil {
		if Classify(err) == CategoryUnknownOrder {
			return nil
		}
		return fmt.Errorf("cancel order (algo tier): %w", err)
	}
	return nil
}

// ConditionalStatus — свёрнутый статус условного ордера, с тем же
// двухъярусным поиском, что и у отмены.
func (c *Client) ConditionalStatus(ctx context.Context, pair, id string) (models.OrderState, error) {
	if !c.live {
		// бумажные ордера сами не исполняются
		return models.OrderStateOpen, nil
	}
	sym := helper.ExchangeSymbol(pair)

	if oid, perr := strconv.ParseInt(id, 10, 64); perr == nil {
		res, err := c.fut.NewGetOrderService().Symbol(sym).OrderID(oid).Do(ctx)
		if err == nil {
			return stateFromStatus(res.Status), nil
		}
		if Classify(err) != CategoryUnknownOrder {
			return models.OrderStateUnknown, fmt.Errorf("order status: %w", err)
		}
	}

	st, err := c.algo.status(ctx, sym, id)
	if err != nil {
		return models.OrderStateUnknown, fmt.Errorf("order status (algo tier): %w", err)
	}
	return st, nil
}

// PositionSize — абсолютный размер живой позиции по инструменту.
func (c *Client) PositionSize(ctx context.Context, pair string) (float64, error) {
	if !c.live {
		// бумажная позиция не закрывается извне
		return 1, nil
	}
	sym := helper.ExchangeSymbol(pair)
	risks, err := c.fut.NewGetPositionRiskService().Symbol(sym).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("position risk: %w", err)
	}
	for _, r := range risks {
		if r.Symbol != sym {
			continue
		}
		amt, perr := strconv.ParseFloat(r.PositionAmt, 64)
		if perr != nil {
			return 0, fmt.Errorf("parse position %q: %w", r.PositionAmt, perr)
		}
		return math.Abs(amt), nil
	}
	return 0, nil
}

func stateFromStatus(s futures.OrderStatusType) models.OrderState {
	switch s {
	case futures.OrderStatusTypeNew, futures.OrderStatusTypePartiallyFilled:
		return models.OrderStateOpen
	case futures.OrderStatusTypeFilled,
		futures.OrderStatusTypeCanceled,
		futures.OrderStatusTypeRejected,
		futures.OrderStatusTypeExpired:
		return models.OrderStateClosed
	default:
		return models.OrderStateUnknown
	}
}

package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"

	"signal_bot/internal/ledger"
	"signal_bot/internal/models"
	"signal_bot/internal/modules/config"
	statussvc "signal_bot/internal/modules/status/service"
	"signal_bot/internal/notify"
	"signal_bot/internal/parser"
	"signal_bot/pkg/logger"
)

// Runner превращает сообщения канала в сделки: разбор, сайзинг, вход,
// защитные ноги, запись в леджер.
type Runner struct {
	cfg     *config.Config
	ex      Exchange
	ledger  *ledger.Ledger
	parser  *parser.Parser
	n       notify.Notifier
	state   *statussvc.State
	metrics *statussvc.Metrics
}

func NewRunner(
	cfg *config.Config,
	ex Exchange,
	ld *ledger.Ledger,
	n notify.Notifier,
	state *statussvc.State,
	metrics *statussvc.Metrics,
) *Runner {
	return &Runner{
		cfg:     cfg,
		ex:      ex,
		ledger:  ld,
		parser:  parser.New(cfg.Trading.Quote, len(cfg.Trading.TPFractions)),
		n:       n,
		state:   state,
		metrics: metrics,
	}
}

// HandleMessage — обработка одного сообщения из канала. Не-сигналы молча
// пропускаются, битые сигналы выбрасываются с warn-логом имени поля.
func (r *Runner) HandleMessage(ctx context.Context, msg models.InboundMessage) {
	if !r.parser.LooksLikeSignal(msg.Text) {
		return
	}

	sig, err := r.parser.Parse(msg.Text)
	if err != nil {
		var mf *parser.MissingFieldError
		if errors.As(err, &mf) {
			logger.Warn("сигнал отброшен: нет поля %q", mf.Field)
			r.state.AppendLog("warn", fmt.Sprintf("signal dropped: missing %s", mf.Field))
		} else {
			logger.Warn("сигнал отброшен: %v", err)
		}
		r.metrics.Signals.WithLabelValues("rejected").Inc()
		return
	}
	r.metrics.Signals.WithLabelValues("parsed").Inc()
	r.state.RecordSignal(sig.Symbol, string(sig.Direction))
	r.state.AppendLog("info", fmt.Sprintf("signal %s %s @ %.6f, %d targets", sig.Direction, sig.Symbol, sig.EntryPrice, len(sig.Targets)))
	logger.Info("[SIGNAL] %s %s @ %.6f lev=%.0fx targets=%v", sig.Direction, sig.Symbol, sig.EntryPrice, sig.Leverage, sig.Targets)

	// пересылаем оригинал сигнала в чат — best effort
	r.n.Forward(ctx, msg.MessageID, msg.ChannelID)

	if err := r.ExecuteSignal(ctx, sig); err != nil {
		logger.Error("[%s] сигнал не исполнен: %v", sig.Symbol, err)
		r.state.RecordError(err.Error())
		r.n.SendF(ctx, "❗️ [%s] Сигнал не исполнен: %v", sig.Symbol, err)
	}
}

// ExecuteSignal — линейный конвейер с обрывом на критических шагах.
// Плечо, баланс, сайзинг и вход критичны; защитные ноги — нет: сделка
// живёт и без них, но это громко логируется.
func (r *Runner) ExecuteSignal(ctx context.Context, sig models.TradeSignal) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "execute_signal")
	defer span.Finish()
	span.SetTag("symbol", sig.Symbol)
	span.SetTag("direction", string(sig.Direction))

	// дубль по символу отклоняем до любых биржевых вызовов
	if _, exists := r.ledger.Get(sig.Symbol); exists {
		logger.Warn("[%s] сигнал отклонён: по символу уже есть живая сделка", sig.Symbol)
		r.n.SendF(ctx, "⚠️ [%s] Новый сигнал отклонён: сделка уже открыта", sig.Symbol)
		return nil
	}

	// 1. Плечо. Без него нельзя корректно сайзить позицию.
	if err := r.ex.SetLeverage(ctx, sig.Symbol, int(sig.Leverage)); err != nil {
		return fmt.Errorf("set leverage: %w", err)
	}

	// 2. Баланс.
	balance, err := r.ex.Balance(ctx)
	if err != nil {
		return fmt.Errorf("fetch balance: %w", err)
	}
	if balance <= 0 {
		return fmt.Errorf("balance <= 0: %.8f", balance)
	}

	// 3. План: размер, стоп, доли по целям.
	inst, err := r.ex.InstrumentMeta(ctx, sig.Symbol)
	if err != nil {
		return fmt.Errorf("instrument meta: %w", err)
	}
	plan, err := BuildPlan(sig, balance, inst, r.cfg.Trading)
	if err != nil {
		return err
	}

	// 4. Рыночный вход. Провал — ничего не открыто, просто выходим.
	entryID, avgPx, err := r.ex.PlaceMarket(ctx, sig.Symbol, sig.Direction, plan.Quantity)
	if err != nil {
		r.metrics.OrderFailures.WithLabelValues("entry").Inc()
		return fmt.Errorf("entry order: %w", err)
	}
	r.metrics.Orders.WithLabelValues("entry").Inc()
	entryPx := sig.EntryPrice
	if avgPx > 0 {
		entryPx = avgPx
	}

	// 5. Стоп на весь размер. Провал НЕ фатален: позиция останется без
	// защиты, и об этом обязаны знать и лог, и чат.
	stopID, err := r.ex.PlaceConditional(ctx, sig.Symbol, sig.Direction, false, plan.Quantity, plan.StopPrice)
	if err != nil {
		stopID = ""
		r.metrics.OrderFailures.WithLabelValues("stop").Inc()
		logger.Warn("[%s] стоп не выставлен, позиция без защиты: %v", sig.Symbol, err)
		r.state.RecordError(fmt.Sprintf("%s: stop not placed: %v", sig.Symbol, err))
		r.n.SendF(ctx, "⚠️ [%s] СТОП НЕ ВЫСТАВЛЕН, позиция без защиты: %v", sig.Symbol, err)
	} else {
		r.metrics.Orders.WithLabelValues("stop").Inc()
	}

	// 6. Тейки. Каждая нога независима, провал одной не мешает остальным.
	targets := make(map[int]*models.TakeProfitLeg, len(plan.TakeProfits))
	for i, tp := range plan.TakeProfits {
		tpID, terr := r.ex.PlaceConditional(ctx, sig.Symbol, sig.Direction, true, tp.Quantity, tp.Price)
		if terr != nil {
			r.metrics.OrderFailures.WithLabelValues("take_profit").Inc()
			logger.Warn("[%s] тейк %d @ %.6f не выставлен: %v", sig.Symbol, i+1, tp.Price, terr)
			continue
		}
		r.metrics.Orders.WithLabelValues("take_profit").Inc()
		targets[i] = &models.TakeProfitLeg{OrderID: tpID, Price: tp.Price, Quantity: tp.Quantity}
	}

	// 7. Фиксируем сделку в леджере.
	trade := &models.ActiveTrade{
		Symbol:       sig.Symbol,
		Direction:    sig.Direction,
		Leverage:     sig.Leverage,
		EntryPrice:   entryPx,
		Quantity:     plan.Quantity,
		EntryOrderID: entryID,
		StopOrderID:  stopID,
		Targets:      targets,
		OpenedAt:     time.Now(),
	}
	if err := r.ledger.Put(trade); err != nil {
		// гонка двух сигналов по одному символу: наши условные ноги
		// снимаем, чтобы не мешали уже записанной сделке
		r.unwindConditionals(ctx, trade)
		return fmt.Errorf("record trade: %w", err)
	}
	r.metrics.ActiveTrades.Set(float64(r.ledger.Len()))
	r.state.RecordTrade(sig.Symbol, string(sig.Direction), entryPx, plan.Quantity)

	logger.Info("[%s] OPEN %s qty=%.6f entry=%.6f stop=%.6f tps=%d (entryId=%s)",
		sig.Symbol, sig.Direction, plan.Quantity, entryPx, plan.StopPrice, len(targets), entryID)
	r.n.SendF(ctx,
		"✅ [%s] OPEN %-5s @ %.6f | qty=%.6f lev=%.0fx | SL=%.6f | тейков: %d",
		sig.Symbol, sig.Direction, entryPx, plan.Quantity, sig.Leverage, plan.StopPrice, len(targets),
	)

	return nil
}

func (r *Runner) unwindConditionals(ctx context.Context, t *models.ActiveTrade) {
	if t.StopOrderID != "" {
		if err := r.ex.CancelConditional(ctx, t.Symbol, t.StopOrderID); err != nil {
			logger.Error("[%s] unwind stop %s: %v", t.Symbol, t.StopOrderID, err)
		}
	}
	for _, leg := range t.Targets {
		if err := r.ex.CancelConditional(ctx, t.Symbol, leg.OrderID); err != nil {
			logger.Error("[%s] unwind tp %s: %v", t.Symbol, leg.OrderID, err)
		}
	}
}

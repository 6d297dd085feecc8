package runner

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opentracing/opentracing-go"

	"signal_bot/internal/ledger"
	"signal_bot/internal/models"
	statussvc "signal_bot/internal/modules/status/service"
	"signal_bot/internal/notify"
	"signal_bot/pkg/logger"
)

// Reconciler периодически опрашивает условные ордера и позицию и доводит
// сделку до развязки: тейк сработал — снять стоп, стоп сработал — снять
// тейки, позиция исчезла — снять всё. Это программная замена OCO,
// которого на фьючерсах нет.
type Reconciler struct {
	broker   ConditionalBroker
	ledger   *ledger.Ledger
	n        notify.Notifier
	state    *statussvc.State
	metrics  *statussvc.Metrics
	interval time.Duration

	started atomic.Bool
	stop    chan struct{}
	done    chan struct{}

	mu       sync.Mutex
	inFlight map[string]struct{}
}

func NewReconciler(
	broker ConditionalBroker,
	ld *ledger.Ledger,
	n notify.Notifier,
	state *statussvc.State,
	metrics *statussvc.Metrics,
	interval time.Duration,
) *Reconciler {
	return &Reconciler{
		broker:   broker,
		ledger:   ld,
		n:        n,
		state:    state,
		metrics:  metrics,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		inFlight: make(map[string]struct{}),
	}
}

// Start запускает цикл. Повторный вызов — ошибка.
func (r *Reconciler) Start(ctx context.Context) error {
	if !r.started.CompareAndSwap(false, true) {
		return fmt.Errorf("reconciler already started")
	}
	go r.loop(ctx)
	logger.Info("reconciler started, interval=%s", r.interval)
	return nil
}

func (r *Reconciler) Stop() {
	if !r.started.Load() {
		return
	}
	close(r.stop)
	<-r.done
}

func (r *Reconciler) loop(ctx context.Context) {
	defer close(r.done)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Pass(ctx)
		}
	}
}

// Pass — один проход по всем живым сделкам. Символы, чей прошлый проход
// ещё не закончился, пропускаются.
func (r *Reconciler) Pass(ctx context.Context) {
	r.metrics.ReconcilePasses.Inc()
	for _, symbol := range r.ledger.Symbols() {
		r.mu.Lock()
		if _, busy := r.inFlight[symbol]; busy {
			r.mu.Unlock()
			continue
		}
		r.inFlight[symbol] = struct{}{}
		r.mu.Unlock()

		go func(symbol string) {
			defer func() {
				r.mu.Lock()
				delete(r.inFlight, symbol)
				r.mu.Unlock()
			}()
			if err := r.reconcileSymbol(ctx, symbol); err != nil {
				r.metrics.ReconcileErrors.Inc()
				logger.Error("[%s] reconcile: %v", symbol, err)
			}
		}(symbol)
	}
}

// reconcileSymbol проверяет одну сделку. Порядок важен: сначала тейки
// (приятная развязка), потом стоп, потом сама позиция.
func (r *Reconciler) reconcileSymbol(ctx context.Context, symbol string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "reconcile_symbol")
	defer span.Finish()
	span.SetTag("symbol", symbol)

	trade, ok := r.ledger.Get(symbol)
	if !ok {
		return nil
	}

	// 1. Тейки: сработавший тейк означает, что позиция (или её часть)
	// закрыта в плюс.
	for idx, leg := range trade.Targets {
		st, err := r.broker.ConditionalStatus(ctx, symbol, leg.OrderID)
		if err != nil {
			return fmt.Errorf("tp %s status: %w", leg.OrderID, err)
		}
		if st != models.OrderStateClosed {
			continue
		}
		roi := RealizedROI(trade.Direction, trade.EntryPrice, leg.Price, trade.Leverage)
		if r.ledger.MarkNotified(symbol, idx) {
			r.state.RecordTP(symbol, roi)
			logger.Info("[%s] TP%d сработал @ %.6f, ROI=%.2f%%", symbol, idx+1, leg.Price, roi)
			r.n.SendF(ctx, "🎯 [%s] Тейк %d исполнен @ %.6f | ROI %.2f%% 🤑", symbol, idx+1, leg.Price, roi)
		}
		// развязка: сделку забирает ровно один проход
		claimed, won := r.ledger.Claim(symbol)
		if !won {
			return nil
		}
		r.closeOut(ctx, claimed, idx)
		return nil
	}

	// 2. Стоп: позиция закрыта в минус, тейки больше не нужны.
	if trade.StopOrderID != "" {
		st, err := r.broker.ConditionalStatus(ctx, symbol, trade.StopOrderID)
		if err != nil {
			return fmt.Errorf("stop %s status: %w", trade.StopOrderID, err)
		}
		if st == models.OrderStateClosed {
			claimed, won := r.ledger.Claim(symbol)
			if !won {
				return nil
			}
			logger.Info("[%s] стоп сработал, снимаем тейки", symbol)
			r.cancelTargets(ctx, claimed, -1)
			r.n.SendF(ctx, "🛑 [%s] Стоп-лосс исполнен, сделка закрыта", symbol)
			r.finishTrade()
			return nil
		}
	}

	// 3. Позиция: закрыта руками или иным путём — подчищаем всё.
	size, err := r.broker.PositionSize(ctx, symbol)
	if err != nil {
		return fmt.Errorf("position size: %w", err)
	}
	if size == 0 {
		claimed, won := r.ledger.Claim(symbol)
		if !won {
			return nil
		}
		logger.Info("[%s] позиции на бирже нет, снимаем условные ордера", symbol)
		r.cancelStop(ctx, claimed)
		r.cancelTargets(ctx, claimed, -1)
		r.n.SendF(ctx, "ℹ️ [%s] Позиция закрыта вне бота, ордера сняты", symbol)
		r.finishTrade()
	}
	return nil
}

// closeOut — уборка после сработавшего тейка triggeredIdx: стоп и
// остальные тейки снимаются.
func (r *Reconciler) closeOut(ctx context.Context, t *models.ActiveTrade, triggeredIdx int) {
	r.cancelStop(ctx, t)
	r.cancelTargets(ctx, t, triggeredIdx)
	r.finishTrade()
}

func (r *Reconciler) cancelStop(ctx context.Context, t *models.ActiveTrade) {
	if t.StopOrderID == "" {
		return
	}
	if err := r.broker.CancelConditional(ctx, t.Symbol, t.StopOrderID); err != nil {
		logger.Error("[%s] cancel stop %s: %v", t.Symbol, t.StopOrderID, err)
	}
}

func (r *Reconciler) cancelTargets(ctx context.Context, t *models.ActiveTrade, skipIdx int) {
	for idx, leg := range t.Targets {
		if idx == skipIdx {
			continue
		}
		if err := r.broker.CancelConditional(ctx, t.Symbol, leg.OrderID); err != nil {
			logger.Error("[%s] cancel tp %s: %v", t.Symbol, leg.OrderID, err)
		}
	}
}

func (r *Reconciler) finishTrade() {
	r.metrics.ActiveTrades.Set(float64(r.ledger.Len()))
}

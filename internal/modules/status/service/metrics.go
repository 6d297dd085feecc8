package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics — счётчики бота для /metrics.
//   - bot_signals_total{result}      — разобранные/отброшенные сигналы
//   - bot_orders_total{leg}          — выставленные ордера по ногам
//   - bot_order_failures_total{leg}  — отказы размещения по ногам
//   - bot_reconcile_passes_total     — проходы reconciliation-цикла
//   - bot_reconcile_errors_total     — ошибки внутри проходов
//   - bot_active_trades              — живые сделки в леджере
type Metrics struct {
	Signals         *prometheus.CounterVec
	Orders          *prometheus.CounterVec
	OrderFailures   *prometheus.CounterVec
	ReconcilePasses prometheus.Counter
	ReconcileErrors prometheus.Counter
	ActiveTrades    prometheus.Gauge
}

func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Signals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_signals_total",
				Help: "Signals by parse result",
			},
			[]string{"result"}, // parsed|rejected
		),
		Orders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_orders_total",
				Help: "Orders placed by leg",
			},
			[]string{"leg"}, // entry|stop|take_profit
		),
		OrderFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bot_order_failures_total",
				Help: "Order placement failures by leg",
			},
			[]string{"leg"},
		),
		ReconcilePasses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bot_reconcile_passes_total",
				Help: "Reconciliation passes",
			},
		),
		ReconcileErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "bot_reconcile_errors_total",
				Help: "Errors inside reconciliation passes",
			},
		),
		ActiveTrades: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "bot_active_trades",
				Help: "Active trades in the ledger",
			},
		),
	}

	reg.MustRegister(
		m.Signals,
		m.Orders,
		m.OrderFailures,
		m.ReconcilePasses,
		m.ReconcileErrors,
		m.ActiveTrades,
	)

	return m
}

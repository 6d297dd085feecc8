package ledger

import (
	"errors"
	"sort"
	"sync"

	"signal_bot/internal/models"
)

// ErrTradeExists — по символу уже есть живая сделка. Новый сигнал
// отклоняем, чтобы не осиротить уже выставленные ордера.
var ErrTradeExists = errors.New("ledger: active trade already exists for symbol")

// Ledger — единственный владелец активных сделок, ключ — символ сигнала.
// Все мутации идут через его мьютекс; наружу отдаются только копии.
type Ledger struct {
	mu     sync.Mutex
	trades map[string]*models.ActiveTrade
}

func New() *Ledger {
	return &Ledger{
		trades: make(map[string]*models.ActiveTrade),
	}
}

func (l *Ledger) Put(t *models.ActiveTrade) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.trades[t.Symbol]; exists {
		return ErrTradeExists
	}
	l.trades[t.Symbol] = t.Clone()
	return nil
}

// Get — копия сделки для чтения вне мьютекса.
func (l *Ledger) Get(symbol string) (*models.ActiveTrade, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.trades[symbol]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

func (l *Ledger) Symbols() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, 0, len(l.trades))
	for s := range l.trades {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.trades)
}

// Claim снимает сделку с учёта и возвращает её. Победитель гонки получает
// сделку и делает отмены/уведомления; второй вызов — безвредный no-op.
func (l *Ledger) Claim(symbol string) (*models.ActiveTrade, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.trades[symbol]
	if !ok {
		return nil, false
	}
	delete(l.trades, symbol)
	return t, true
}

// MarkNotified взводит флаг уведомления по цели. true только при первом
// вызове — гарантия «ровно одно уведомление на ногу».
func (l *Ledger) MarkNotified(symbol string, target int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	t, ok := l.trades[symbol]
	if !ok {
		return false
	}
	leg, ok := t.Targets[target]
	if !ok || leg.Notified {
		return false
	}
	leg.Notified = true
	return true
}

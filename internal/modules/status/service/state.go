package service

import (
	"sync"
	"sync/atomic"
	"time"
)

const maxLogEntries = 500

// Event — строка журнала для стрима на статус-страницу.
type Event struct {
	TS      time.Time `json:"ts"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

type SignalRecord struct {
	Symbol    string    `json:"symbol"`
	Direction string    `json:"direction"`
	TS        time.Time `json:"ts"`
}

type TradeRecord struct {
	Symbol     string    `json:"symbol"`
	Direction  string    `json:"direction"`
	EntryPrice float64   `json:"entry_price"`
	Quantity   float64   `json:"qty"`
	TS         time.Time `json:"ts"`
}

type TPRecord struct {
	Symbol string    `json:"symbol"`
	ROIPct float64   `json:"roi_pct"`
	TS     time.Time `json:"ts"`
}

type ErrorRecord struct {
	Message string    `json:"message"`
	TS      time.Time `json:"ts"`
}

// Snapshot — срез состояния для /api/state.
type Snapshot struct {
	Mode       string        `json:"mode"`
	ChannelID  int64         `json:"channel_id"`
	UptimeSec  int64         `json:"uptime_sec"`
	LastSignal *SignalRecord `json:"last_signal"`
	LastTrade  *TradeRecord  `json:"last_trade"`
	LastTP     *TPRecord     `json:"last_tp"`
	LastError  *ErrorRecord  `json:"last_error"`
}

// State — разделяемое состояние бота для статус-страницы. Журнал держит
// последние maxLogEntries записей в памяти, подписчики получают новые
// записи через неблокирующие каналы.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	mu         sync.Mutex
	mode       string
	channelID  int64
	lastSignal *SignalRecord
	lastTrade  *TradeRecord
	lastTP     *TPRecord
	lastError  *ErrorRecord
	logs       []Event
	subs       map[chan Event]struct{}
}

func NewState() *State {
	s := &State{
		startedAt: time.Now(),
		mode:      "PAPER",
		subs:      make(map[chan Event]struct{}),
	}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

func (s *State) SetMode(mode string, channelID int64) {
	s.mu.Lock()
	s.mode = mode
	s.channelID = channelID
	s.mu.Unlock()
}

func (s *State) RecordSignal(symbol, direction string) {
	s.mu.Lock()
	s.lastSignal = &SignalRecord{Symbol: symbol, Direction: direction, TS: time.Now()}
	s.mu.Unlock()
}

func (s *State) RecordTrade(symbol, direction string, entry, qty float64) {
	s.mu.Lock()
	s.lastTrade = &TradeRecord{Symbol: symbol, Direction: direction, EntryPrice: entry, Quantity: qty, TS: time.Now()}
	s.mu.Unlock()
}

func (s *State) RecordTP(symbol string, roiPct float64) {
	s.mu.Lock()
	s.lastTP = &TPRecord{Symbol: symbol, ROIPct: roiPct, TS: time.Now()}
	s.mu.Unlock()
}

func (s *State) RecordError(msg string) {
	s.mu.Lock()
	s.lastError = &ErrorRecord{Message: msg, TS: time.Now()}
	s.mu.Unlock()
}

// AppendLog пишет запись в кольцо и рассылает подписчикам.
// Медленный подписчик запись теряет, но никого не блокирует.
func (s *State) AppendLog(level, message string) {
	e := Event{TS: time.Now(), Level: level, Message: message}

	s.mu.Lock()
	s.logs = append(s.logs, e)
	if len(s.logs) > maxLogEntries {
		s.logs = s.logs[len(s.logs)-maxLogEntries:]
	}
	for ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *State) RecentLogs(limit int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.logs) {
		limit = len(s.logs)
	}
	out := make([]Event, limit)
	copy(out, s.logs[len(s.logs)-limit:])
	return out
}

// Subscribe возвращает канал новых записей и функцию отписки.
func (s *State) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)

	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()

	return ch, func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Snapshot{
		Mode:       s.mode,
		ChannelID:  s.channelID,
		UptimeSec:  int64(time.Since(s.startedAt).Seconds()),
		LastSignal: s.lastSignal,
		LastTrade:  s.lastTrade,
		LastTP:     s.lastTP,
		LastError:  s.lastError,
	}
}

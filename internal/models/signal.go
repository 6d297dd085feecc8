package models

// Direction — сторона позиции.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
)

func (d Direction) IsLong() bool { return d == DirectionLong }

// TradeSignal — разобранный сигнал из канала. Неизменяемый после парсинга.
// Targets упорядочены по направлению: для long по возрастанию,
// для short по убыванию, так что Targets[0] всегда ближайшая к входу цель.
type TradeSignal struct {
	Direction  Direction
	Symbol     string // "ETH/USDT"
	Leverage   float64
	EntryPrice float64
	Targets    []float64
}

// InboundMessage — сырое сообщение из транспорта.
type InboundMessage struct {
	Text      string
	MessageID int
	ChannelID int64
}

package parser

import (
	"regexp"
	"sort"
	"strconv"

	"signal_bot/internal/models"
)

const (
	markerLong  = "🟢 Long"
	markerShort = "🔴 Short"
)

var (
	reDirection = regexp.MustCompile(`(🟢 Long|🔴 Short)`)
	reLeverage  = regexp.MustCompile(`Margin mode:\s*Cross\s*\(([\d.]+)[xX]\)`)
	reTarget    = regexp.MustCompile(`(\d+)\)\s*([\d.]+)`)
)

// MissingFieldError — в сигнале нет обязательного поля. Сообщение просто
// выбрасывается, ретраев нет; вызывающий логирует имя поля.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string { return "signal: missing " + e.Field }

// Parser вытаскивает структурированный сигнал из текста сообщения.
// Чистая функция: одинаковый текст всегда даёт одинаковый результат.
type Parser struct {
	maxTargets int
	reSymbol   *regexp.Regexp
	reEntry    *regexp.Regexp
}

// New создаёт парсер под котируемую валюту (обычно USDT).
// maxTargets <= 0 означает «брать все цели».
func New(quote string, maxTargets int) *Parser {
	return &Parser{
		maxTargets: maxTargets,
		reSymbol:   regexp.MustCompile(`Name:\s*([A-Z]+/` + quote + `)`),
		reEntry:    regexp.MustCompile(`Entry price\(` + quote + `\):\s*([\d.]+)`),
	}
}

// LooksLikeSignal — быстрый фильтр до полного разбора: есть ли маркер
// направления вообще.
func (p *Parser) LooksLikeSignal(text string) bool {
	return reDirection.MatchString(text)
}

// Parse разбирает сигнал. Цели сортируются по направлению: long —
// по возрастанию, short — по убыванию, затем усекаются до maxTargets.
func (p *Parser) Parse(text string) (models.TradeSignal, error) {
	var sig models.TradeSignal

	m := reDirection.FindStringSubmatch(text)
	if m == nil {
		return sig, &MissingFieldError{Field: "direction"}
	}
	if m[1] == markerLong {
		sig.Direction = models.DirectionLong
	} else {
		sig.Direction = models.DirectionShort
	}

	m = p.reSymbol.FindStringSubmatch(text)
	if m == nil {
		return sig, &MissingFieldError{Field: "symbol"}
	}
	sig.Symbol = m[1]

	m = reLeverage.FindStringSubmatch(text)
	if m == nil {
		return sig, &MissingFieldError{Field: "leverage"}
	}
	lev, err := strconv.ParseFloat(m[1], 64)
	if err != nil || lev <= 0 {
		return sig, &MissingFieldError{Field: "leverage"}
	}
	sig.Leverage = lev

	m = p.reEntry.FindStringSubmatch(text)
	if m == nil {
		return sig, &MissingFieldError{Field: "entry price"}
	}
	entry, err := strconv.ParseFloat(m[1], 64)
	if err != nil || entry <= 0 {
		return sig, &MissingFieldError{Field: "entry price"}
	}
	sig.EntryPrice = entry

	targets := make([]float64, 0, 4)
	for _, tm := range reTarget.FindAllStringSubmatch(text, -1) {
		px, perr := strconv.ParseFloat(tm[2], 64)
		if perr != nil || px <= 0 {
			continue
		}
		targets = append(targets, px)
	}
	if len(targets) == 0 {
		return sig, &MissingFieldError{Field: "targets"}
	}

	if sig.Direction == models.DirectionLong {
		sort.Float64s(targets)
	} else {
		sort.Sort(sort.Reverse(sort.Float64Slice(targets)))
	}
	if p.maxTargets > 0 && len(targets) > p.maxTargets {
		targets = targets[:p.maxTargets]
	}
	sig.Targets = targets

	return sig, nil
}

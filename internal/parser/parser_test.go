package parser

import (
	"errors"
	"reflect"
	"testing"

	"signal_bot/internal/models"
)

const sampleLong = `🟢 Long
Name: ETH/USDT
Margin mode: Cross (10.0X)

↪️ Entry price(USDT): 100.5

Targets:
1) 103.2
2) 101.8
3) 108.0
4) 112.5`

const sampleShort = `🔴 Short
Name: SOL/USDT
Margin mode: Cross (20X)

↪️ Entry price(USDT): 150.0

Targets:
1) 147.0
2) 144.0
3) 148.5`

func TestParse_Long(t *testing.T) {
	p := New("USDT", 3)
	sig, err := p.Parse(sampleLong)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if sig.Direction != models.DirectionLong {
		t.Errorf("Direction = %v, want long", sig.Direction)
	}
	if sig.Symbol != "ETH/USDT" {
		t.Errorf("Symbol = %q", sig.Symbol)
	}
	if sig.Leverage != 10.0 {
		t.Errorf("Leverage = %v", sig.Leverage)
	}
	if sig.EntryPrice != 100.5 {
		t.Errorf("EntryPrice = %v", sig.EntryPrice)
	}
	// по возрастанию, усечено до 3
	want := []float64{101.8, 103.2, 108.0}
	if !reflect.DeepEqual(sig.Targets, want) {
		t.Errorf("Targets = %v, want %v", sig.Targets, want)
	}
}

func TestParse_ShortTargetsDescending(t *testing.T) {
	p := New("USDT", 3)
	sig, err := p.Parse(sampleShort)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := []float64{148.5, 147.0, 144.0}
	if !reflect.DeepEqual(sig.Targets, want) {
		t.Errorf("Targets = %v, want %v", sig.Targets, want)
	}
	// Targets[0] — ближайшая к входу цель со стороны профита
	if sig.Targets[0] >= sig.EntryPrice {
		t.Errorf("Targets[0] = %v not on profit side of %v", sig.Targets[0], sig.EntryPrice)
	}
}

func TestParse_MissingFields(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field string
	}{
		{"no direction", "Name: ETH/USDT\nMargin mode: Cross (10X)\nEntry price(USDT): 100\n1) 101", "direction"},
		{"no symbol", "🟢 Long\nMargin mode: Cross (10X)\nEntry price(USDT): 100\n1) 101", "symbol"},
		{"no leverage", "🟢 Long\nName: ETH/USDT\nEntry price(USDT): 100\n1) 101", "leverage"},
		{"no entry", "🟢 Long\nName: ETH/USDT\nMargin mode: Cross (10X)\nTargets:", "entry price"},
		{"no targets", "🟢 Long\nName: ETH/USDT\nMargin mode: Cross (10X)\nEntry price(USDT): 100\n", "targets"},
	}
	p := New("USDT", 3)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.text)
			var mf *MissingFieldError
			if !errors.As(err, &mf) {
				t.Fatalf("Parse() error = %v, want MissingFieldError", err)
			}
			if mf.Field != tt.field {
				t.Errorf("Field = %q, want %q", mf.Field, tt.field)
			}
		})
	}
}

func TestParse_Idempotent(t *testing.T) {
	p := New("USDT", 2)
	a, err := p.Parse(sampleLong)
	if err != nil {
		t.Fatal(err)
	}
	b, err := p.Parse(sampleLong)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("reparse mismatch: %+v vs %+v", a, b)
	}
	if len(a.Targets) != 2 {
		t.Errorf("truncation to 2 failed: %v", a.Targets)
	}
}

func TestParse_SingleTargetPolicy(t *testing.T) {
	p := New("USDT", 1)
	sig, err := p.Parse(sampleLong)
	if err != nil {
		t.Fatal(err)
	}
	if len(sig.Targets) != 1 || sig.Targets[0] != 101.8 {
		t.Errorf("Targets = %v, want [101.8]", sig.Targets)
	}
}

func TestLooksLikeSignal(t *testing.T) {
	p := New("USDT", 3)
	if p.LooksLikeSignal("обычное сообщение в канале") {
		t.Error("plain text must not look like a signal")
	}
	if !p.LooksLikeSignal(sampleShort) {
		t.Error("short sample must look like a signal")
	}
}

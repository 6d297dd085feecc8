package helper

import "testing"

func TestFloorToStep(t *testing.T) {
	tests := []struct {
		v, step, want float64
	}{
		{1.5, 0.001, 1.5},
		{1.5678, 0.001, 1.567},
		{1.5678, 0.01, 1.56},
		{0.0009, 0.001, 0},
		{42.0, 0, 42.0},
		{3.0000000001, 1, 3},
	}
	for _, tt := range tests {
		if got := FloorToStep(tt.v, tt.step); got != tt.want {
			t.Errorf("FloorToStep(%v, %v) = %v, want %v", tt.v, tt.step, got, tt.want)
		}
	}
}

func TestExchangeSymbol(t *testing.T) {
	if got := ExchangeSymbol("ETH/USDT"); got != "ETHUSDT" {
		t.Errorf("ExchangeSymbol = %q", got)
	}
}

func TestStepDecimals(t *testing.T) {
	tests := []struct {
		step float64
		want int
	}{
		{0.001, 3},
		{0.1, 1},
		{1, 0},
		{0.00001, 5},
		{0, 0},
	}
	for _, tt := range tests {
		if got := StepDecimals(tt.step); got != tt.want {
			t.Errorf("StepDecimals(%v) = %d, want %d", tt.step, got, tt.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(1.5, 0.001); got != "1.500" {
		t.Errorf("FormatAmount = %q", got)
	}
	if got := FormatAmount(83.0, 0.01); got != "83.00" {
		t.Errorf("FormatAmount = %q", got)
	}
}

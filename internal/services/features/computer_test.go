package features

import (
	"errors"
	"testing"
)

// lcgPrices builds a deterministic pseudo-random price series.
func lcgPrices(n int) []float64 {
	x := int64(1)
	out := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		x = (x*1103515245 + 12345) % 2147483648
		out = append(out, 100.0+float64(x%1000)/100.0)
	}
	return out
}

func TestComputeKnownSeries(t *testing.T) {
	c := NewComputer()
	fv, err := c.Compute(lcgPrices(60))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]float64{
		"rsi":        47.8607,
		"ema_fast":   103.8621,
		"ema_slow":   104.4321,
		"atr":        3.6733,
		"momentum":   -0.0002,
		"volatility": 0.04,
	}
	got := map[string]float64{
		"rsi":        fv.RSI,
		"ema_fast":   fv.EMAFast,
		"ema_slow":   fv.EMASlow,
		"atr":        fv.ATR,
		"momentum":   fv.Momentum,
		"volatility": fv.Volatility,
	}
	for k, w := range want {
		if got[k] != w {
			t.Fatalf("%s = %v, want %v", k, got[k], w)
		}
	}
}

func TestComputeDeterministic(t *testing.T) {
	c := NewComputer()
	prices := lcgPrices(80)
	first, err := c.Compute(prices)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := c.Compute(prices)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Fatalf("non-deterministic output: %+v vs %+v", again, first)
		}
	}
}

func TestComputeInsufficientData(t *testing.T) {
	c := NewComputer()
	for _, n := range []int{0, 1, 49} {
		_, err := c.Compute(lcgPrices(n))
		var insufficient *ErrInsufficientData
		if !errors.As(err, &insufficient) {
			t.Fatalf("n=%d: expected ErrInsufficientData, got %v", n, err)
		}
		if insufficient.Got != n || insufficient.Want != MinPrices {
			t.Fatalf("n=%d: unexpected detail %+v", n, insufficient)
		}
	}
}

func TestRSIBounds(t *testing.T) {
	c := NewComputer()

	inc := make([]float64, 60)
	dec := make([]float64, 60)
	for i := range inc {
		inc[i] = float64(i + 1)
		dec[i] = float64(200 - i)
	}

	up, err := c.Compute(inc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if up.RSI != 100 {
		t.Fatalf("strictly increasing prices: RSI = %v, want 100", up.RSI)
	}

	down, err := c.Compute(dec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if down.RSI != 0 {
		t.Fatalf("strictly decreasing prices: RSI = %v, want 0", down.RSI)
	}

	fv, err := c.Compute(lcgPrices(200))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fv.RSI < 0 || fv.RSI > 100 {
		t.Fatalf("RSI out of range: %v", fv.RSI)
	}
}

func TestFlatSeries(t *testing.T) {
	c := NewComputer()
	flat := make([]float64, 60)
	for i := range flat {
		flat[i] = 5.0
	}
	fv, err := c.Compute(flat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// no losses at all: RSI pegs at 100 by the Wilder formula
	if fv.RSI != 100 {
		t.Fatalf("flat RSI = %v, want 100", fv.RSI)
	}
	if fv.ATR != 0 || fv.Volatility != 0 || fv.Momentum != 0 {
		t.Fatalf("flat series should have zero ATR/volatility/momentum: %+v", fv)
	}
	if fv.EMAFast != 5 || fv.EMASlow != 5 {
		t.Fatalf("flat EMA should equal the price: %+v", fv)
	}
}

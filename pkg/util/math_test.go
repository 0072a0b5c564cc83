package util

import "testing"

func TestRound4(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{1.23456, 1.2346},
		{1.23454, 1.2345},
		{-0.00005, -0.0001},
		{0, 0},
	}
	for _, c := range cases {
		if got := Round4(c.in); got != c.want {
			t.Fatalf("Round4(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestClamp01(t *testing.T) {
	if got := Clamp01(-0.5); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := Clamp01(1.5); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
	if got := Clamp01(0.42); got != 0.42 {
		t.Fatalf("expected passthrough, got %v", got)
	}
}

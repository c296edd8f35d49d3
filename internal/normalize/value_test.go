package normalize

import (
	"math"
	"testing"
	"time"
)

func TestAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"   ", 0},
		{"abc", 0},
		{"R$ 1.234,56", 1234.56},
		{"R$1.234,56", 1234.56},
		{"1,234.56", 1234.56},
		{"1.234.567,89", 1234567.89},
		{"1,234,567.89", 1234567.89},
		{"1234.56", 1234.56},
		{"12,5", 12.5},
		{"US$ 99", 99},
		{"€ 10,00", 10},
		{"45,90 BRL", 45.9},
		{"1 234,56", 1234.56},
		{"-R$ 5,00", -5},
		{"NaN", 0},
		{"Inf", 0},
		{"12..5", 0},
		{"1,2,3", 0},
	}
	for _, c := range cases {
		got := Amount(c.in)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Amount(%q) = %v, want %v", c.in, got, c.want)
		}
		if math.IsNaN(got) || math.IsInf(got, 0) {
			t.Errorf("Amount(%q) not finite", c.in)
		}
	}
}

func TestAmountExponents(t *testing.T) {
	if got := Amount("1e2"); got != 100 {
		t.Fatalf("Amount(1e2) = %v, want 100", got)
	}
	start := time.Now()
	for _, in := range []string{"1e2000000000", "R$ 1e200000000", "1E+400000", "-1e-2000000000", "12,5e900000"} {
		if got := Amount(in); got != 0 {
			t.Errorf("Amount(%q) = %v, want 0", in, got)
		}
	}
	if d := time.Since(start); d > time.Second {
		t.Fatalf("huge exponents took %v", d)
	}
}

func TestCount(t *testing.T) {
	cases := map[string]float64{
		"1.234":      1234,
		"1,234":      1234,
		"12.345.678": 12345678,
		"87":         87,
		"":           0,
		"-3":         0,
		"n/a":        0,
	}
	for in, want := range cases {
		if got := Count(in); got != want {
			t.Errorf("Count(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNonNegative(t *testing.T) {
	if NonNegative(-1) != 0 || NonNegative(math.NaN()) != 0 || NonNegative(2.5) != 2.5 {
		t.Fatal("NonNegative should clamp negatives and NaN to zero")
	}
}

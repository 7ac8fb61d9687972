package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"1.234", "1.23"},
		{"1.236", "1.24"},
		{"2.345", "2.34"}, // half to even
		{"2.355", "2.36"},
		{"-2.345", "-2.34"},
		{"3750", "3750"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundMoney(dec(tt.in))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("RoundMoney(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestClampPercent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"-5", "0"},
		{"0", "0"},
		{"42.5", "42.5"},
		{"100", "100"},
		{"150", "100"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ClampPercent(dec(tt.in))
			if !got.Equal(dec(tt.want)) {
				t.Errorf("ClampPercent(%s) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestSumMoney(t *testing.T) {
	got := SumMoney(dec("0.10"), dec("0.20"), dec("1000.05"))
	if !got.Equal(dec("1000.35")) {
		t.Errorf("SumMoney() = %s, want 1000.35", got)
	}
	if !SumMoney().IsZero() {
		t.Error("SumMoney() of nothing should be zero")
	}
}

package core

import (
	"errors"
	"testing"
	"time"
)

func TestPriceSeries_Extractors(t *testing.T) {
	d0 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	s := PriceSeries{
		{Date: d0, Open: 10, High: 11, Low: 9, Close: 10.5},
		{Date: d0.AddDate(0, 0, 1), Open: 10.5, High: 12, Low: 10, Close: 11.5},
	}

	closes := s.Closes()
	if len(closes) != 2 || closes[0] != 10.5 || closes[1] != 11.5 {
		t.Errorf("unexpected closes: %v", closes)
	}
	if h := s.Highs(); h[1] != 12 {
		t.Errorf("unexpected highs: %v", h)
	}
	if l := s.Lows(); l[0] != 9 {
		t.Errorf("unexpected lows: %v", l)
	}
	if d := s.Dates(); !d[1].Equal(d0.AddDate(0, 0, 1)) {
		t.Errorf("unexpected dates: %v", d)
	}
}

func TestCompareDate(t *testing.T) {
	morning := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	evening := time.Date(2024, 3, 5, 21, 0, 0, 0, time.UTC)
	next := time.Date(2024, 3, 6, 1, 0, 0, 0, time.UTC)

	if CompareDate(morning, evening) != 0 {
		t.Error("same calendar date should compare equal")
	}
	if CompareDate(evening, next) != -1 {
		t.Error("earlier date should compare -1")
	}
	if CompareDate(next, morning) != 1 {
		t.Error("later date should compare 1")
	}
	if CompareDate(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC), morning) != -1 {
		t.Error("year should dominate")
	}
}

func TestSameMonthAndMonthStart(t *testing.T) {
	a := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	b := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	c := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)

	if !SameMonth(a, b) {
		t.Error("expected same month")
	}
	if SameMonth(b, c) {
		t.Error("different years should not be same month")
	}
	if !MonthStart(a).Equal(b) {
		t.Errorf("MonthStart = %v, want %v", MonthStart(a), b)
	}
}

func TestStrategyConfig_Validate(t *testing.T) {
	base := StrategyConfig{
		StrategySymbol:   "TF1",
		InstrumentSymbol: "IUSQ",
		Exchange:         "SMART",
		Currency:         "EUR",
		TargetWeight:     10,
		MinWeight:        8,
		MaxWeight:        12,
	}

	tests := []struct {
		name    string
		mutate  func(c *StrategyConfig)
		wantErr *Error
	}{
		{"valid", func(c *StrategyConfig) {}, nil},
		{"equal bounds", func(c *StrategyConfig) { c.MinWeight, c.TargetWeight, c.MaxWeight = 10, 10, 10 }, nil},
		{"missing strategy symbol", func(c *StrategyConfig) { c.StrategySymbol = "" }, ErrConfigMissing},
		{"missing instrument", func(c *StrategyConfig) { c.InstrumentSymbol = "" }, ErrConfigMissing},
		{"negative min", func(c *StrategyConfig) { c.MinWeight = -1 }, ErrConfigInvalid},
		{"max over 100", func(c *StrategyConfig) { c.MaxWeight = 101 }, ErrConfigInvalid},
		{"target below min", func(c *StrategyConfig) { c.TargetWeight = 5 }, ErrConfigInvalid},
		{"target above max", func(c *StrategyConfig) { c.TargetWeight = 15 }, ErrConfigInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

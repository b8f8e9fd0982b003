package app

import (
	"context"
	"testing"
	"time"
)

type spendStub struct {
	spend float64
	since time.Time
}

func (s *spendStub) MonthlySpend(ctx context.Context, userID string, since time.Time) (float64, error) {
	s.since = since
	return s.spend, nil
}

func TestIsWithinBudget(t *testing.T) {
	tests := []struct {
		name  string
		cap   float64
		spend float64
		want  bool
	}{
		{name: "under cap", cap: 10, spend: 9.99, want: true},
		{name: "at cap", cap: 10, spend: 10, want: false},
		{name: "over cap", cap: 10, spend: 12.5, want: false},
		{name: "zero cap disables check", cap: 0, spend: 999, want: true},
		{name: "negative cap disables check", cap: -1, spend: 999, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBudgetService(&spendStub{spend: tt.spend}, tt.cap, fixedClock(weekdayMorning))
			got, err := b.IsWithinBudget(context.Background(), "user-1")
			if err != nil {
				t.Fatalf("IsWithinBudget returned error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("IsWithinBudget with cap=%v spend=%v = %v, want %v", tt.cap, tt.spend, got, tt.want)
			}
		})
	}
}

func TestIsWithinBudget_UsesCalendarMonthStart(t *testing.T) {
	spend := &spendStub{}
	b := NewBudgetService(spend, 100, fixedClock(weekdayMorning))

	if _, err := b.IsWithinBudget(context.Background(), "user-1"); err != nil {
		t.Fatalf("IsWithinBudget returned error: %v", err)
	}

	want := time.Date(2025, 6, 1, 0, 0, 0, 0, weekdayMorning.Location())
	if !spend.since.Equal(want) {
		t.Fatalf("expected spend queried since %v, got %v", want, spend.since)
	}
}

package util

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWholeMonthsBetween(t *testing.T) {
	tests := []struct {
		name string
		from time.Time
		to   time.Time
		want int
	}{
		{"same month", date(2025, 1, 15), date(2025, 1, 31), 0},
		{"adjacent days across months", date(2025, 1, 31), date(2025, 2, 1), 1},
		{"half year", date(2025, 1, 15), date(2025, 7, 15), 6},
		{"across year boundary", date(2024, 11, 1), date(2025, 2, 1), 3},
		{"negative when reversed", date(2025, 3, 1), date(2025, 1, 1), -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WholeMonthsBetween(tt.from, tt.to); got != tt.want {
				t.Errorf("WholeMonthsBetween(%v, %v) = %d, want %d", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestMonthsUntilByDays(t *testing.T) {
	tests := []struct {
		name   string
		today  time.Time
		target time.Time
		want   int
	}{
		{"past target clamps to one", date(2025, 1, 15), date(2024, 12, 1), 1},
		{"same day clamps to one", date(2025, 1, 15), date(2025, 1, 15), 1},
		{"under thirty days clamps to one", date(2025, 1, 1), date(2025, 1, 20), 1},
		{"sixty days is two months", date(2025, 1, 1), date(2025, 3, 2), 2},
		{"half year", date(2025, 1, 15), date(2025, 7, 15), 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsUntilByDays(tt.today, tt.target); got != tt.want {
				t.Errorf("MonthsUntilByDays(%v, %v) = %d, want %d", tt.today, tt.target, got, tt.want)
			}
		})
	}
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2025, 6, 3, 17, 45, 12, 999, time.UTC)
	got := DateOnly(in)
	want := date(2025, 6, 3)
	if !got.Equal(want) {
		t.Errorf("DateOnly(%v) = %v, want %v", in, got, want)
	}
}

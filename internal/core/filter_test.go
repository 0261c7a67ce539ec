package core

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func tx(amount string, category string, date time.Time) Transaction {
	return Transaction{
		ID:       uuid.New(),
		Amount:   decimal.RequireFromString(amount),
		Category: category,
		Date:     date,
	}
}

func TestFilterByRange(t *testing.T) {
	r := ResolveRange(From1st, date(2024, 5, 15), 0)
	inside := tx("-10", "Cibo", date(2024, 5, 3))
	onStart := tx("-5", "Casa", r.Start)
	onEnd := tx("-5", "Casa", r.End)
	before := tx("-7", "Cibo", time.Date(2024, 4, 30, 23, 59, 59, 0, time.UTC))
	after := tx("-7", "Cibo", date(2024, 6, 1))

	got := FilterByRange([]Transaction{before, inside, onStart, onEnd, after}, r)
	if len(got) != 3 {
		t.Fatalf("FilterByRange() returned %d transactions, want 3", len(got))
	}
	// Input order preserved.
	if got[0].ID != inside.ID || got[1].ID != onStart.ID || got[2].ID != onEnd.ID {
		t.Error("FilterByRange() did not preserve input order")
	}

	for _, excluded := range []Transaction{before, after} {
		if excluded.Date.Before(r.Start) || excluded.Date.After(r.End) {
			continue
		}
		t.Errorf("transaction %v excluded but inside range", excluded.Date)
	}
}

func TestFilterByRange_Empty(t *testing.T) {
	r := ResolveRange(From1st, date(2024, 5, 15), 0)
	if got := FilterByRange(nil, r); len(got) != 0 {
		t.Errorf("FilterByRange(nil) = %v, want empty", got)
	}
}

func TestPartition(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	older := tx("-10", "Cibo", date(2024, 5, 10))
	todayLate := tx("-20", "Casa", time.Date(2024, 5, 15, 23, 59, 0, 0, time.UTC))
	tomorrow := tx("-30", "Svago", date(2024, 5, 16))
	nextWeek := tx("-40", "Viaggi", date(2024, 5, 22))
	input := []Transaction{older, nextWeek, todayLate, tomorrow}

	future, past := Partition(input, now)

	if len(future)+len(past) != len(input) {
		t.Fatalf("partition lost transactions: %d + %d != %d", len(future), len(past), len(input))
	}
	if len(future) != 2 {
		t.Fatalf("future = %d transactions, want 2", len(future))
	}
	// Future sorted ascending by date.
	if future[0].ID != tomorrow.ID || future[1].ID != nextWeek.ID {
		t.Error("future bucket not sorted ascending by date")
	}
	// Past keeps reversed input order: todayLate was appended after older.
	if past[0].ID != todayLate.ID || past[1].ID != older.ID {
		t.Error("past bucket not in reverse-insertion order")
	}
}

func TestPartition_TodayIsPastRegardlessOfTime(t *testing.T) {
	// now is just after midnight; a transaction later today must still
	// land in past (day granularity, not timestamp granularity).
	now := time.Date(2024, 5, 15, 0, 1, 0, 0, time.UTC)
	late := tx("-10", "Cibo", time.Date(2024, 5, 15, 23, 59, 0, 0, time.UTC))

	future, past := Partition([]Transaction{late}, now)
	if len(future) != 0 || len(past) != 1 {
		t.Errorf("Partition() = %d future, %d past; want 0, 1", len(future), len(past))
	}
}

func TestGroupByCalendarDay(t *testing.T) {
	morning := tx("-10", "Cibo", time.Date(2024, 5, 14, 9, 0, 0, 0, time.UTC))
	evening := tx("-20", "Casa", time.Date(2024, 5, 14, 20, 0, 0, 0, time.UTC))
	other := tx("-30", "Svago", time.Date(2024, 5, 12, 13, 0, 0, 0, time.UTC))

	grouped := GroupByCalendarDay([]Transaction{evening, morning, other})
	if len(grouped) != 2 {
		t.Fatalf("GroupByCalendarDay() produced %d groups, want 2", len(grouped))
	}

	day14 := grouped[date(2024, 5, 14)]
	if len(day14) != 2 || day14[0].ID != evening.ID || day14[1].ID != morning.ID {
		t.Error("within-day order does not follow input order")
	}

	days := SortedDaysDesc(grouped)
	if len(days) != 2 || !days[0].Equal(date(2024, 5, 14)) || !days[1].Equal(date(2024, 5, 12)) {
		t.Errorf("SortedDaysDesc() = %v, want newest first", days)
	}
}

func TestIsPendingToday(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		when time.Time
		want bool
	}{
		{"later today", time.Date(2024, 5, 15, 18, 0, 0, 0, time.UTC), true},
		{"earlier today", time.Date(2024, 5, 15, 8, 0, 0, 0, time.UTC), false},
		{"tomorrow", date(2024, 5, 16), false},
		{"yesterday", date(2024, 5, 14), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsPendingToday(tx("-1", "Cibo", tt.when), now)
			if got != tt.want {
				t.Errorf("IsPendingToday(%v) = %v, want %v", tt.when, got, tt.want)
			}
		})
	}
}

func TestNeedsRefresh(t *testing.T) {
	now := time.Date(2024, 5, 15, 12, 0, 0, 0, time.UTC)
	settled := tx("-10", "Cibo", date(2024, 5, 10))
	pending := tx("-20", "Casa", time.Date(2024, 5, 15, 18, 0, 0, 0, time.UTC))

	if NeedsRefresh([]Transaction{settled}, now) {
		t.Error("NeedsRefresh() = true for fully settled set")
	}
	if !NeedsRefresh([]Transaction{settled, pending}, now) {
		t.Error("NeedsRefresh() = false with a pending transaction today")
	}
	if NeedsRefresh(nil, now) {
		t.Error("NeedsRefresh(nil) = true")
	}
}

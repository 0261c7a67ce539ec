package core

import (
	"sort"
	"time"
)

// FilterByRange returns the transactions whose date falls inside the
// inclusive range. Input order is preserved; the slice is freshly
// allocated and never aliases the input.
func FilterByRange(transactions []Transaction, r DateRange) []Transaction {
	out := make([]Transaction, 0, len(transactions))
	for _, t := range transactions {
		if r.Contains(t.Date) {
			out = append(out, t)
		}
	}
	return out
}

// Partition splits transactions into future and past buckets at
// calendar-day granularity. A transaction dated today lands in past no
// matter its time-of-day. Future entries are sorted ascending by date;
// past entries keep the input order reversed, so consumers grouping by
// day see most-recently-inserted first.
func Partition(transactions []Transaction, now time.Time) (future, past []Transaction) {
	today := CalendarDay(now)

	for _, t := range transactions {
		if CalendarDay(t.Date).After(today) {
			future = append(future, t)
		} else {
			past = append(past, t)
		}
	}

	sort.SliceStable(future, func(i, j int) bool {
		return future[i].Date.Before(future[j].Date)
	})
	for i, j := 0, len(past)-1; i < j; i, j = i+1, j-1 {
		past[i], past[j] = past[j], past[i]
	}
	return future, past
}

// GroupByCalendarDay buckets transactions by their time-stripped date.
// Within a day the incoming order is kept, so feeding the past bucket
// of Partition keeps reverse-insertion order inside each day.
func GroupByCalendarDay(transactions []Transaction) map[time.Time][]Transaction {
	grouped := make(map[time.Time][]Transaction)
	for _, t := range transactions {
		day := CalendarDay(t.Date)
		grouped[day] = append(grouped[day], t)
	}
	return grouped
}

// SortedDaysDesc returns the group keys newest-first, the order the
// transaction feed presents day sections in.
func SortedDaysDesc(grouped map[time.Time][]Transaction) []time.Time {
	days := make([]time.Time, 0, len(grouped))
	for day := range grouped {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	return days
}

// IsPendingToday reports whether the transaction's calendar day has
// arrived while its exact timestamp is still ahead of now. Such entries
// are already in the past bucket; the predicate only signals that a
// cached partition should be recomputed.
func IsPendingToday(t Transaction, now time.Time) bool {
	return !CalendarDay(t.Date).After(CalendarDay(now)) && t.Date.After(now)
}

// NeedsRefresh reports whether any transaction has crossed into today
// with a timestamp still in the future, meaning wall-clock progress
// will soon change what a partition of this set looks like.
func NeedsRefresh(transactions []Transaction, now time.Time) bool {
	for _, t := range transactions {
		if IsPendingToday(t, now) {
			return true
		}
	}
	return false
}

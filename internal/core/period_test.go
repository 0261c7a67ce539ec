package core

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveRange_From1st(t *testing.T) {
	tests := []struct {
		name      string
		ref       time.Time
		offset    int
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "mid month no offset",
			ref:       time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC),
			offset:    0,
			wantStart: date(2024, 5, 1),
			wantEnd:   time.Date(2024, 5, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC),
		},
		{
			name:      "previous month",
			ref:       time.Date(2024, 5, 15, 10, 30, 0, 0, time.UTC),
			offset:    -1,
			wantStart: date(2024, 4, 1),
			wantEnd:   time.Date(2024, 4, 30, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC),
		},
		{
			name:      "offset across year boundary",
			ref:       time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			offset:    -1,
			wantStart: date(2023, 12, 1),
			wantEnd:   time.Date(2023, 12, 31, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC),
		},
		{
			name:      "leap february",
			ref:       time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC),
			offset:    1,
			wantStart: date(2024, 2, 1),
			wantEnd:   time.Date(2024, 2, 29, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC),
		},
		{
			name:      "day 31 clamped into short month",
			ref:       time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC),
			offset:    1,
			wantStart: date(2024, 4, 1),
			wantEnd:   time.Date(2024, 4, 30, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveRange(From1st, tt.ref, tt.offset)
			if !got.Start.Equal(tt.wantStart) {
				t.Errorf("ResolveRange() start = %v, want %v", got.Start, tt.wantStart)
			}
			if !got.End.Equal(tt.wantEnd) {
				t.Errorf("ResolveRange() end = %v, want %v", got.End, tt.wantEnd)
			}
		})
	}
}

func TestResolveRange_FromNth(t *testing.T) {
	tests := []struct {
		name      string
		kind      PeriodKind
		ref       time.Time
		offset    int
		wantStart time.Time
		wantEndDay time.Time
	}{
		{
			name:       "from5th mid month",
			kind:       From5th,
			ref:        date(2024, 5, 15),
			offset:     0,
			wantStart:  date(2024, 4, 5),
			wantEndDay: date(2024, 5, 4),
		},
		{
			name:       "from5th before the 5th keeps same window",
			kind:       From5th,
			ref:        date(2024, 5, 2),
			offset:     0,
			wantStart:  date(2024, 4, 5),
			wantEndDay: date(2024, 5, 4),
		},
		{
			name:       "from25th across year boundary",
			kind:       From25th,
			ref:        date(2024, 1, 10),
			offset:     0,
			wantStart:  date(2023, 12, 25),
			wantEndDay: date(2024, 1, 24),
		},
		{
			name:       "from10th with negative offset",
			kind:       From10th,
			ref:        date(2024, 5, 15),
			offset:     -2,
			wantStart:  date(2024, 2, 10),
			wantEndDay: date(2024, 3, 9),
		},
		{
			name:       "from15th with positive offset",
			kind:       From15th,
			ref:        date(2024, 5, 15),
			offset:     1,
			wantStart:  date(2024, 5, 15),
			wantEndDay: date(2024, 6, 14),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveRange(tt.kind, tt.ref, tt.offset)
			if !got.Start.Equal(tt.wantStart) {
				t.Errorf("ResolveRange() start = %v, want %v", got.Start, tt.wantStart)
			}
			wantEnd := time.Date(tt.wantEndDay.Year(), tt.wantEndDay.Month(), tt.wantEndDay.Day(),
				23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
			if !got.End.Equal(wantEnd) {
				t.Errorf("ResolveRange() end = %v, want %v", got.End, wantEnd)
			}
		})
	}
}

func TestResolveRange_StartNeverAfterEnd(t *testing.T) {
	refs := []time.Time{
		date(2024, 1, 1),
		date(2024, 2, 29),
		date(2023, 12, 31),
		time.Date(2024, 6, 15, 23, 59, 59, 0, time.UTC),
	}
	for _, kind := range AllPeriodKinds() {
		for _, ref := range refs {
			for offset := -25; offset <= 25; offset++ {
				r := ResolveRange(kind, ref, offset)
				if r.Start.After(r.End) {
					t.Fatalf("ResolveRange(%s, %v, %d): start %v after end %v", kind, ref, offset, r.Start, r.End)
				}
			}
		}
	}
}

func TestResolveRange_Monotonic(t *testing.T) {
	ref := time.Date(2024, 5, 15, 8, 0, 0, 0, time.UTC)
	for _, kind := range AllPeriodKinds() {
		for offset := -24; offset < 24; offset++ {
			cur := ResolveRange(kind, ref, offset)
			next := ResolveRange(kind, ref, offset+1)
			if !cur.Start.Before(next.Start) {
				t.Errorf("%s offset %d: start %v not before next start %v", kind, offset, cur.Start, next.Start)
			}
		}
	}
}

func TestResolveRange_Idempotent(t *testing.T) {
	ref := time.Date(2024, 5, 15, 8, 0, 0, 0, time.UTC)
	first := ResolveRange(From20th, ref, -3)
	second := ResolveRange(From20th, ref, -3)
	if !first.Start.Equal(second.Start) || !first.End.Equal(second.End) {
		t.Errorf("ResolveRange not idempotent: %v vs %v", first, second)
	}
}

func TestDescribeRange(t *testing.T) {
	it := ItalianLocale()
	tests := []struct {
		name   string
		kind   PeriodKind
		ref    time.Time
		offset int
		want   string
	}{
		{
			name:   "full month current year",
			kind:   From1st,
			ref:    date(2024, 5, 15),
			offset: 0,
			want:   "Maggio",
		},
		{
			name:   "full month different year",
			kind:   From1st,
			ref:    date(2024, 1, 15),
			offset: -1,
			want:   "Dicembre 2023",
		},
		{
			name:   "custom period same year",
			kind:   From5th,
			ref:    date(2024, 5, 15),
			offset: 0,
			want:   "5 apr - 4 mag",
		},
		{
			name:   "custom period start in previous year",
			kind:   From25th,
			ref:    date(2024, 1, 10),
			offset: 0,
			want:   "25 dic 2023 - 24 gen",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DescribeRange(tt.kind, tt.ref, tt.offset, it)
			if got != tt.want {
				t.Errorf("DescribeRange() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescribeRange_EnglishLocale(t *testing.T) {
	got := DescribeRange(From1st, date(2024, 5, 15), 0, EnglishLocale())
	if got != "May" {
		t.Errorf("DescribeRange() = %q, want %q", got, "May")
	}
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{"jan 31 plus one clamps to feb 29", date(2024, 1, 31), 1, date(2024, 2, 29)},
		{"jan 31 plus one in common year", date(2023, 1, 31), 1, date(2023, 2, 28)},
		{"march 31 minus one clamps", date(2024, 3, 31), -1, date(2024, 2, 29)},
		{"year wrap forward", date(2023, 11, 15), 3, date(2024, 2, 15)},
		{"year wrap backward", date(2024, 2, 15), -3, date(2023, 11, 15)},
		{"zero is identity", date(2024, 6, 10), 0, date(2024, 6, 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := addMonthsClamped(tt.in, tt.n)
			if !got.Equal(tt.want) {
				t.Errorf("addMonthsClamped(%v, %d) = %v, want %v", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestParsePeriodKind(t *testing.T) {
	for _, kind := range AllPeriodKinds() {
		got, err := ParsePeriodKind(string(kind))
		if err != nil || got != kind {
			t.Errorf("ParsePeriodKind(%q) = %v, %v", kind, got, err)
		}
	}
	if _, err := ParsePeriodKind("from31st"); err == nil {
		t.Error("ParsePeriodKind accepted unknown kind")
	}
}

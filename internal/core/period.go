// Period window resolution.
//
// A (PeriodKind, reference instant, month offset) triple deterministically
// maps to an inclusive DateRange, and independently to a short label.
// The window never shifts based on the reference day-of-month; only
// the period's anchor day decides where a window starts and ends.
package core

import (
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"
)

// Locale carries the month names and number separators used when
// rendering period labels and amounts.
type Locale struct {
	MonthNames   [12]string
	MonthAbbrevs [12]string
	DecimalSep   string
	GroupSep     string
}

// ItalianLocale uses lowercase month names and comma decimals, the
// default presentation for the app.
func ItalianLocale() Locale {
	return Locale{
		MonthNames: [12]string{
			"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
			"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre",
		},
		MonthAbbrevs: [12]string{
			"gen", "feb", "mar", "apr", "mag", "giu",
			"lug", "ago", "set", "ott", "nov", "dic",
		},
		DecimalSep: ",",
		GroupSep:   ".",
	}
}

// EnglishLocale is provided for portability and tests.
func EnglishLocale() Locale {
	return Locale{
		MonthNames: [12]string{
			"january", "february", "march", "april", "may", "june",
			"july", "august", "september", "october", "november", "december",
		},
		MonthAbbrevs: [12]string{
			"jan", "feb", "mar", "apr", "may", "jun",
			"jul", "aug", "sep", "oct", "nov", "dec",
		},
		DecimalSep: ".",
		GroupSep:   ",",
	}
}

// MonthName returns the capitalized full month name.
func (l Locale) MonthName(m time.Month) string {
	return capitalize(l.MonthNames[int(m)-1])
}

// MonthAbbrev returns the short month name.
func (l Locale) MonthAbbrev(m time.Month) string {
	return l.MonthAbbrevs[int(m)-1]
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// ResolveRange maps a period selection and month offset to the concrete
// inclusive window around the reference instant. The result is pure:
// identical inputs always yield the identical range, and Start never
// exceeds End.
func ResolveRange(kind PeriodKind, ref time.Time, monthOffset int) DateRange {
	adjusted := addMonthsClamped(ref, monthOffset)

	if kind == From1st {
		start := time.Date(adjusted.Year(), adjusted.Month(), 1, 0, 0, 0, 0, adjusted.Location())
		last := daysInMonth(adjusted.Year(), adjusted.Month())
		return DateRange{
			Start: start,
			End:   endOfDay(time.Date(adjusted.Year(), adjusted.Month(), last, 0, 0, 0, 0, adjusted.Location())),
		}
	}

	day := kind.AnchorDay()
	prev := addMonthsClamped(adjusted, -1)
	start := time.Date(prev.Year(), prev.Month(), day, 0, 0, 0, 0, adjusted.Location())
	end := time.Date(adjusted.Year(), adjusted.Month(), day-1, 0, 0, 0, 0, adjusted.Location())
	return DateRange{Start: start, End: endOfDay(end)}
}

// DescribeRange renders the short human-readable label for the resolved
// window. A range covering exactly one full calendar month collapses to
// the bare month name, suffixed with the year when it differs from the
// reference instant's year; any other range is printed as
// "d MMM [yyyy] - d MMM".
func DescribeRange(kind PeriodKind, ref time.Time, monthOffset int, locale Locale) string {
	r := ResolveRange(kind, ref, monthOffset)
	currentYear := ref.Year()

	startDay, endDay := r.Start.Day(), r.End.Day()
	sameMonth := r.Start.Month() == r.End.Month() && r.Start.Year() == r.End.Year()
	if startDay == 1 && sameMonth && endDay == daysInMonth(r.End.Year(), r.End.Month()) {
		name := locale.MonthName(r.Start.Month())
		if r.Start.Year() != currentYear {
			return fmt.Sprintf("%s %d", name, r.Start.Year())
		}
		return name
	}

	startStr := fmt.Sprintf("%d %s", startDay, locale.MonthAbbrev(r.Start.Month()))
	endStr := fmt.Sprintf("%d %s", endDay, locale.MonthAbbrev(r.End.Month()))
	if r.Start.Year() != currentYear {
		return fmt.Sprintf("%s %d - %s", startStr, r.Start.Year(), endStr)
	}
	return fmt.Sprintf("%s - %s", startStr, endStr)
}

// addMonthsClamped shifts t by n calendar months, clamping the
// day-of-month to the target month's length instead of letting the
// overflow spill into the next month. Time-of-day is preserved.
func addMonthsClamped(t time.Time, n int) time.Time {
	months := t.Year()*12 + int(t.Month()) - 1 + n
	year := months / 12
	month := time.Month(months%12 + 1)
	if months < 0 && months%12 != 0 {
		year = months/12 - 1
		month = time.Month(months%12 + 13)
	}

	day := t.Day()
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	h, m, s := t.Clock()
	return time.Date(year, month, day, h, m, s, t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

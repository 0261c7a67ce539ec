package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	From1st  PeriodKind = "from1st"
	From5th  PeriodKind = "from5th"
	From10th PeriodKind = "from10th"
	From15th PeriodKind = "from15th"
	From20th PeriodKind = "from20th"
	From25th PeriodKind = "from25th"
)

type (
	// PeriodKind identifies the monthly billing-cycle anchor used to
	// window transactions. From1st means plain calendar month; the
	// others run from day N of the previous month through day N-1 of
	// the current one.
	PeriodKind string

	// Transaction is an immutable ledger entry. A negative amount is
	// an expense, a positive one is income.
	Transaction struct {
		ID          uuid.UUID
		Description string
		Amount      decimal.Decimal
		Category    string
		Date        time.Time
	}

	// DateRange is an inclusive window. End is normalized to the last
	// instant of its calendar day when derived from a day boundary.
	DateRange struct {
		Start time.Time
		End   time.Time
	}

	// CategoryShare is a category's total and its fraction of the
	// expense (or income) grand total for a filtered set. Derived,
	// never persisted.
	CategoryShare struct {
		Category   string
		Amount     decimal.Decimal
		Percentage decimal.Decimal
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrEmptyCategory   = errors.New("empty category")
	ErrUnknownPeriod   = errors.New("unknown period kind")
	ErrDescriptionSize = errors.New("description too long (max 200 characters)")
)

// AllPeriodKinds lists the closed set of period anchors in display order.
func AllPeriodKinds() []PeriodKind {
	return []PeriodKind{From1st, From5th, From10th, From15th, From20th, From25th}
}

// ParsePeriodKind converts a stored code back into a PeriodKind.
func ParsePeriodKind(s string) (PeriodKind, error) {
	switch PeriodKind(strings.TrimSpace(s)) {
	case From1st:
		return From1st, nil
	case From5th:
		return From5th, nil
	case From10th:
		return From10th, nil
	case From15th:
		return From15th, nil
	case From20th:
		return From20th, nil
	case From25th:
		return From25th, nil
	}
	return "", ErrUnknownPeriod
}

// AnchorDay returns the day of the month the period starts from.
func (p PeriodKind) AnchorDay() int {
	switch p {
	case From5th:
		return 5
	case From10th:
		return 10
	case From15th:
		return 15
	case From20th:
		return 20
	case From25th:
		return 25
	default:
		return 1
	}
}

// DisplayName returns the Italian selector label for the period.
func (p PeriodKind) DisplayName() string {
	switch p {
	case From5th:
		return "Dal 5 del mese"
	case From10th:
		return "Dal 10 del mese"
	case From15th:
		return "Dal 15 del mese"
	case From20th:
		return "Dal 20 del mese"
	case From25th:
		return "Dal 25 del mese"
	default:
		return "Dal 1 del mese"
	}
}

// Validate applies entry-form rules. The aggregation core itself
// tolerates zero amounts and empty categories; this guards the write
// path only.
func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if t.Amount.IsZero() {
		return ErrInvalidAmount
	}
	if len(t.Description) > 200 {
		return ErrDescriptionSize
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	return nil
}

// IsExpense reports whether the transaction is on the expense side.
func (t Transaction) IsExpense() bool {
	return t.Amount.IsNegative()
}

// IsIncome reports whether the transaction is on the income side.
func (t Transaction) IsIncome() bool {
	return t.Amount.IsPositive()
}

// Contains reports whether instant is inside the inclusive range.
func (r DateRange) Contains(instant time.Time) bool {
	return !instant.Before(r.Start) && !instant.After(r.End)
}

// CalendarDay strips the time-of-day, returning local midnight of t's day.
func CalendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

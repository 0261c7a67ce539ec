package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"bilancio/internal/core"
)

// ErrNotFound is returned when a transaction or category id is unknown
// to the store.
var ErrNotFound = errors.New("not found")

// Settings are the scalar preferences the host keeps between sessions.
type Settings struct {
	Period      core.PeriodKind
	MonthOffset int
	WelcomeSeen bool
}

// DefaultSettings mirrors a fresh install: calendar-month period,
// current month, welcome screen still pending.
func DefaultSettings() Settings {
	return Settings{Period: core.From1st, MonthOffset: 0, WelcomeSeen: false}
}

// Ports for outbound adapters. The core only ever sees read-only
// snapshots handed out by these.
type (
	// TransactionStore owns the canonical transaction collection.
	// List returns entries in insertion order; Partition's
	// reverse-insertion contract depends on it.
	TransactionStore interface {
		Add(ctx context.Context, t core.Transaction) error
		Update(ctx context.Context, t core.Transaction) error
		Delete(ctx context.Context, id uuid.UUID) error
		Get(ctx context.Context, id uuid.UUID) (core.Transaction, error)
		List(ctx context.Context) ([]core.Transaction, error)
		ListByRange(ctx context.Context, r core.DateRange) ([]core.Transaction, error)
		// ReplaceAll swaps the entire collection atomically. Restore
		// uses it so a half-applied backup never becomes visible.
		ReplaceAll(ctx context.Context, ts []core.Transaction) error
	}

	// SettingsStore persists the selected period and month offset.
	SettingsStore interface {
		LoadSettings(ctx context.Context) (Settings, error)
		SaveSettings(ctx context.Context, s Settings) error
	}

	// CategoryStore persists user-defined categories used for
	// emoji/color resolution.
	CategoryStore interface {
		ListCategories(ctx context.Context) ([]core.Category, error)
		SaveCategory(ctx context.Context, c core.Category) error
		DeleteCategory(ctx context.Context, id uuid.UUID) error
	}

	// Store is the combined backend surface the application wires up.
	Store interface {
		TransactionStore
		SettingsStore
		CategoryStore
	}
)

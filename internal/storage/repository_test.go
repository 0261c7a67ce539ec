package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "bilancio.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository() error = %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func sample(amount string, day int) core.Transaction {
	return core.Transaction{
		ID:          uuid.New(),
		Description: "spesa",
		Amount:      decimal.RequireFromString(amount),
		Category:    "Cibo",
		Date:        time.Date(2024, 5, day, 12, 30, 0, 0, time.UTC),
	}
}

func TestSQLiteRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	tx := sample("-42.50", 10)
	if err := repo.Add(ctx, tx); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got, err := repo.Get(ctx, tx.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !got.Amount.Equal(tx.Amount) {
		t.Errorf("Get() amount = %s, want %s", got.Amount, tx.Amount)
	}
	if !got.Date.Equal(tx.Date) {
		t.Errorf("Get() date = %v, want %v", got.Date, tx.Date)
	}

	tx.Description = "aggiornata"
	tx.Amount = decimal.RequireFromString("-50")
	if err := repo.Update(ctx, tx); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	got, _ = repo.Get(ctx, tx.ID)
	if got.Description != "aggiornata" || !got.Amount.Equal(tx.Amount) {
		t.Errorf("Update() not applied, got %+v", got)
	}

	if err := repo.Delete(ctx, tx.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, tx.ID); err != ledger.ErrNotFound {
		t.Errorf("Get(deleted) error = %v, want ErrNotFound", err)
	}
	if err := repo.Update(ctx, tx); err != ledger.ErrNotFound {
		t.Errorf("Update(deleted) error = %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, tx.ID); err != ledger.ErrNotFound {
		t.Errorf("Delete(deleted) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_ListPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	// Dates deliberately out of order: List must follow insertion, not time.
	entries := []core.Transaction{sample("-1", 20), sample("-2", 5), sample("-3", 12)}
	for _, e := range entries {
		if err := repo.Add(ctx, e); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != len(entries) {
		t.Fatalf("List() = %d entries, want %d", len(all), len(entries))
	}
	for i := range entries {
		if all[i].ID != entries[i].ID {
			t.Fatalf("List() order differs from insertion order at %d", i)
		}
	}
}

func TestSQLiteRepository_ListByRange(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	at := func(amount string, date time.Time) core.Transaction {
		return core.Transaction{
			ID:       uuid.New(),
			Amount:   decimal.RequireFromString(amount),
			Category: "Casa",
			Date:     date,
		}
	}

	inside := sample("-1", 15)
	// Last second of the end day with zero nanoseconds: still inside
	// the inclusive end-of-day bound.
	endSecond := at("-2", time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC))
	// Client-supplied offsets must compare as instants: 1:30 on June 1
	// at +02:00 is still May 31 in UTC.
	offsetIn := at("-3", time.Date(2024, 6, 1, 1, 30, 0, 0, time.FixedZone("CEST", 2*3600)))
	// 1:00 on May 1 at +03:00 is April 30 in UTC, outside the window.
	offsetOut := at("-4", time.Date(2024, 5, 1, 1, 0, 0, 0, time.FixedZone("EEST", 3*3600)))
	outside := at("-5", time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	for _, e := range []core.Transaction{inside, endSecond, offsetIn, offsetOut, outside} {
		if err := repo.Add(ctx, e); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	r := core.ResolveRange(core.From1st, time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC), 0)
	got, err := repo.ListByRange(ctx, r)
	if err != nil {
		t.Fatalf("ListByRange() error = %v", err)
	}

	wantIDs := []uuid.UUID{inside.ID, endSecond.ID, offsetIn.ID}
	if len(got) != len(wantIDs) {
		t.Fatalf("ListByRange() = %d entries, want %d", len(got), len(wantIDs))
	}
	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Errorf("ListByRange()[%d] = %s, want %s", i, got[i].ID, want)
		}
	}
	if !got[2].Date.Equal(offsetIn.Date) {
		t.Errorf("ListByRange() date = %v, want same instant as %v", got[2].Date, offsetIn.Date)
	}
}

func TestSQLiteRepository_Settings(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	got, err := repo.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got != ledger.DefaultSettings() {
		t.Errorf("LoadSettings() on empty db = %+v, want defaults", got)
	}

	want := ledger.Settings{Period: core.From25th, MonthOffset: -3, WelcomeSeen: true}
	if err := repo.SaveSettings(ctx, want); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	got, err = repo.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if got != want {
		t.Errorf("LoadSettings() = %+v, want %+v", got, want)
	}

	// Second save must overwrite, not duplicate.
	want.MonthOffset = 1
	if err := repo.SaveSettings(ctx, want); err != nil {
		t.Fatalf("SaveSettings() error = %v", err)
	}
	got, _ = repo.LoadSettings(ctx)
	if got.MonthOffset != 1 {
		t.Errorf("LoadSettings() offset = %d, want 1", got.MonthOffset)
	}
}

func TestSQLiteRepository_Categories(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	cat := core.Category{ID: uuid.New(), Name: "Palestra", Emoji: "🏋️", ColorHex: "#addab0", IsExpense: true}
	if err := repo.SaveCategory(ctx, cat); err != nil {
		t.Fatalf("SaveCategory() error = %v", err)
	}

	cat.Emoji = "🤸"
	if err := repo.SaveCategory(ctx, cat); err != nil {
		t.Fatalf("SaveCategory() upsert error = %v", err)
	}

	cats, err := repo.ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories() error = %v", err)
	}
	if len(cats) != 1 || cats[0].Emoji != "🤸" {
		t.Errorf("ListCategories() = %+v, want single updated entry", cats)
	}

	if err := repo.DeleteCategory(ctx, cat.ID); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	if err := repo.DeleteCategory(ctx, cat.ID); err != ledger.ErrNotFound {
		t.Errorf("DeleteCategory(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_ReplaceAll(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	if err := repo.Add(ctx, sample("-1", 1)); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	replacement := []core.Transaction{sample("-2", 2), sample("-3", 3)}
	if err := repo.ReplaceAll(ctx, replacement); err != nil {
		t.Fatalf("ReplaceAll() error = %v", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 || all[0].ID != replacement[0].ID {
		t.Errorf("ReplaceAll() not applied, got %d entries", len(all))
	}
}

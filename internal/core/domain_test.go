package core

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestTransaction_Validate(t *testing.T) {
	valid := Transaction{
		ID:          uuid.New(),
		Description: "Spesa settimanale",
		Amount:      decimal.RequireFromString("-42.50"),
		Category:    "Spesa",
		Date:        date(2024, 5, 10),
	}

	tests := []struct {
		name    string
		mutate  func(Transaction) Transaction
		wantErr error
	}{
		{"valid expense", func(tx Transaction) Transaction { return tx }, nil},
		{"valid income", func(tx Transaction) Transaction {
			tx.Amount = decimal.NewFromInt(1200)
			return tx
		}, nil},
		{"empty description allowed", func(tx Transaction) Transaction {
			tx.Description = ""
			return tx
		}, nil},
		{"zero amount", func(tx Transaction) Transaction {
			tx.Amount = decimal.Zero
			return tx
		}, ErrInvalidAmount},
		{"zero date", func(tx Transaction) Transaction {
			tx.Date = time.Time{}
			return tx
		}, ErrZeroDate},
		{"blank category", func(tx Transaction) Transaction {
			tx.Category = "   "
			return tx
		}, ErrEmptyCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(valid).Validate()
			if err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestTransactionSides(t *testing.T) {
	expense := Transaction{Amount: decimal.RequireFromString("-10")}
	income := Transaction{Amount: decimal.RequireFromString("10")}

	if !expense.IsExpense() || expense.IsIncome() {
		t.Error("negative amount not classified as expense")
	}
	if !income.IsIncome() || income.IsExpense() {
		t.Error("positive amount not classified as income")
	}
}

func TestCalendarDay(t *testing.T) {
	in := time.Date(2024, 5, 15, 18, 42, 7, 123, time.UTC)
	want := date(2024, 5, 15)
	if got := CalendarDay(in); !got.Equal(want) {
		t.Errorf("CalendarDay() = %v, want %v", got, want)
	}
}

func TestEmojiFor(t *testing.T) {
	custom := []Category{
		{ID: uuid.New(), Name: "Palestra", Emoji: "🏋️", ColorHex: "#addab0", IsExpense: true},
	}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"default lowercase", "cibo", "🍖"},
		{"default mixed case", "CiBo", "🍖"},
		{"custom case-insensitive", "palestra", "🏋️"},
		{"unknown falls back", "boh", "🏷️"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EmojiFor(tt.in, custom); got != tt.want {
				t.Errorf("EmojiFor(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

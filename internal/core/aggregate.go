package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// shareTolerance is the percentage distance under which two categories
// count as tied and fall back to alphabetical order. Required for
// deterministic output; map iteration order alone is not stable.
var shareTolerance = decimal.New(1, -3) // 0.001

// ExpenseShares computes per-category totals and normalized shares for
// the expense side (amount < 0). Amounts are reported as absolute
// values. A zero expense total yields an empty result, not an error.
func ExpenseShares(transactions []Transaction) []CategoryShare {
	return shares(transactions, func(t Transaction) (decimal.Decimal, bool) {
		if t.Amount.IsNegative() {
			return t.Amount.Abs(), true
		}
		return decimal.Decimal{}, false
	})
}

// IncomeShares is the income-side counterpart of ExpenseShares
// (amount > 0, no sign flip needed). Same zero-total and tie-break
// rules.
func IncomeShares(transactions []Transaction) []CategoryShare {
	return shares(transactions, func(t Transaction) (decimal.Decimal, bool) {
		if t.Amount.IsPositive() {
			return t.Amount, true
		}
		return decimal.Decimal{}, false
	})
}

func shares(transactions []Transaction, side func(Transaction) (decimal.Decimal, bool)) []CategoryShare {
	totals := make(map[string]decimal.Decimal)
	grand := decimal.Zero
	for _, t := range transactions {
		amount, ok := side(t)
		if !ok {
			continue
		}
		// Buckets key on the literal stored category string; only
		// emoji/color lookup elsewhere is case-insensitive.
		totals[t.Category] = totals[t.Category].Add(amount)
		grand = grand.Add(amount)
	}
	if !grand.IsPositive() {
		return nil
	}

	result := make([]CategoryShare, 0, len(totals))
	for category, amount := range totals {
		result = append(result, CategoryShare{
			Category:   category,
			Amount:     amount,
			Percentage: amount.Div(grand),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		diff := result[i].Percentage.Sub(result[j].Percentage)
		if diff.Abs().GreaterThanOrEqual(shareTolerance) {
			return diff.IsPositive()
		}
		return result[i].Category < result[j].Category
	})
	return result
}

// TotalExpenses sums the absolute value of all negative amounts.
func TotalExpenses(transactions []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transactions {
		if t.Amount.IsNegative() {
			total = total.Add(t.Amount.Abs())
		}
	}
	return total
}

// TotalIncome sums all positive amounts.
func TotalIncome(transactions []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transactions {
		if t.Amount.IsPositive() {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// Balance is the signed sum over the whole set.
func Balance(transactions []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range transactions {
		total = total.Add(t.Amount)
	}
	return total
}

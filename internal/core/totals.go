package core

import "iter"

// MonthlyTotals is the headline summary for one month.
// Remaining = Income + base budget - Spent.
type MonthlyTotals struct {
	Income    Money
	Spent     Money
	Remaining Money
}

// CategoryTotal is one category's slice of a month. Remaining and
// PercentUsed are meaningful only when HasCap is set; a category without a
// cap has no "remaining" at all, which is different from a remaining of
// zero.
type CategoryTotal struct {
	Category    Category
	Spent       Money
	Cap         Money
	HasCap      bool
	Remaining   Money
	PercentUsed int
}

// ComputeMonthlyTotals folds the transactions of one month into totals.
// A month with no transactions yields all-zero totals plus the base budget
// as remaining.
func ComputeMonthlyTotals(txns iter.Seq[Transaction], month MonthKey, base Money) MonthlyTotals {
	var t MonthlyTotals
	for txn := range txns {
		if txn.MonthKey() != month {
			continue
		}
		switch txn.Kind {
		case Income:
			t.Income.Cents += txn.Amount.Cents
		case Expense:
			t.Spent.Cents += txn.Amount.Cents
		}
	}
	t.Remaining = Money{Cents: t.Income.Cents + base.Cents - t.Spent.Cents}
	return t
}

// ComputeCategoryTotals breaks one month's expenses down per category,
// against the effective caps for that month. Every known category appears in
// the result, in the fixed category order. PercentUsed is clamped to
// [0, 100] so an overspent category still renders a full progress bar.
func ComputeCategoryTotals(txns iter.Seq[Transaction], month MonthKey, caps CategoryCaps) []CategoryTotal {
	spent := make(map[Category]int64, len(Categories))
	for txn := range txns {
		if txn.Kind != Expense || txn.MonthKey() != month {
			continue
		}
		spent[txn.Category] += txn.Amount.Cents
	}

	out := make([]CategoryTotal, 0, len(Categories))
	for _, c := range Categories {
		ct := CategoryTotal{Category: c, Spent: Money{Cents: spent[c]}}
		if limit := caps[c]; limit.Cents > 0 {
			ct.HasCap = true
			ct.Cap = limit
			ct.Remaining = Money{Cents: limit.Cents - ct.Spent.Cents}
			ct.PercentUsed = clampPercent(ct.Spent.Cents, limit.Cents)
		}
		out = append(out, ct)
	}
	return out
}

func clampPercent(part, whole int64) int {
	if whole <= 0 || part <= 0 {
		return 0
	}
	pct := part * 100 / whole
	if pct > 100 {
		return 100
	}
	return int(pct)
}

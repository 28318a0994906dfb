package core

// CategoryCaps maps a category to its spending cap for one month. A zero or
// absent cap means "no budget set" for that category; it is never shown as a
// budget of zero.
type CategoryCaps map[Category]Money

// BudgetConfiguration holds the per-month cap overrides, keyed by month.
type BudgetConfiguration map[MonthKey]CategoryCaps

// Effective resolves the caps in force for a month: the month-specific entry
// when one exists (even an empty one), otherwise the default caps, otherwise
// nothing. Callers must treat the result as read-only.
func (b BudgetConfiguration) Effective(defaults CategoryCaps, month MonthKey) CategoryCaps {
	if caps, ok := b[month]; ok {
		return caps
	}
	if defaults != nil {
		return defaults
	}
	return CategoryCaps{}
}

// Clone returns a deep copy; used when handing state across ownership
// boundaries (snapshots, wholesale replacement on pull).
func (b BudgetConfiguration) Clone() BudgetConfiguration {
	if b == nil {
		return nil
	}
	out := make(BudgetConfiguration, len(b))
	for month, caps := range b {
		out[month] = caps.Clone()
	}
	return out
}

func (c CategoryCaps) Clone() CategoryCaps {
	if c == nil {
		return nil
	}
	out := make(CategoryCaps, len(c))
	for cat, amount := range c {
		out[cat] = amount
	}
	return out
}

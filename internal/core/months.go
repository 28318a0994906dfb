package core

import (
	"iter"
	"sort"
	"time"
)

// AvailableMonths returns every month worth showing in a month picker: the
// months that actually hold transactions, the current month, and a window of
// window calendar months on each side of now. Most recent first, no
// duplicates.
func AvailableMonths(txns iter.Seq[Transaction], window int, now time.Time) []MonthKey {
	seen := make(map[MonthKey]struct{})
	for txn := range txns {
		seen[txn.MonthKey()] = struct{}{}
	}
	seen[MonthKeyOf(now)] = struct{}{}
	for i := -window; i <= window; i++ {
		shifted := time.Date(now.Year(), now.Month()+time.Month(i), 1, 0, 0, 0, 0, now.Location())
		seen[MonthKeyOf(shifted)] = struct{}{}
	}

	out := make([]MonthKey, 0, len(seen))
	for month := range seen {
		out = append(out, month)
	}
	// YYYY-MM sorts lexicographically in calendar order.
	sort.Slice(out, func(i, j int) bool { return out[i] > out[j] })
	return out
}

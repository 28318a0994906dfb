package core

import (
	"encoding/json"
	"iter"
	"slices"
	"testing"
	"time"
)

// txnSeq adapts a slice to the lazy sequence the aggregation functions
// consume. Restartable by construction.
func txnSeq(txns []Transaction) iter.Seq[Transaction] {
	return func(yield func(Transaction) bool) {
		for _, t := range txns {
			if !yield(t) {
				return
			}
		}
	}
}

func expenseOn(month MonthKey, cat Category, cents int64) Transaction {
	return Transaction{
		ID:         "t-" + string(month) + "-" + string(cat),
		Kind:       Expense,
		Amount:     Money{Cents: cents},
		Category:   cat,
		OccurredAt: month.Time().Add(12 * time.Hour),
	}
}

func incomeOn(month MonthKey, cents int64) Transaction {
	return Transaction{
		ID:         "i-" + string(month),
		Kind:       Income,
		Amount:     Money{Cents: cents},
		OccurredAt: month.Time().Add(12 * time.Hour),
	}
}

func TestTransactionValidate(t *testing.T) {
	good := NewTransactionOn(Expense, Money{Cents: 100}, "Food", "Ale", "groceries", 2024, time.May, 3)
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Kind: "transfer", Amount: Money{Cents: 1}, OccurredAt: time.Now()},
		{Kind: Expense, Amount: Money{Cents: 0}, Category: "Food", OccurredAt: time.Now()},
		{Kind: Expense, Amount: Money{Cents: 1}, Category: "Gambling", OccurredAt: time.Now()},
		{Kind: Expense, Amount: Money{Cents: 1}, Category: "", OccurredAt: time.Now()},
		{Kind: Expense, Amount: Money{Cents: 1}, Category: "Food"}, // zero time
		{Kind: Income, Amount: Money{Cents: 1}, Category: "Casino", OccurredAt: time.Now()},
	}
	for i, txn := range bads {
		if err := txn.Validate(); err == nil {
			t.Errorf("case %d: expected error", i)
		}
	}

	// Income without a category is fine.
	inc := Transaction{Kind: Income, Amount: Money{Cents: 1}, OccurredAt: time.Now()}
	if err := inc.Validate(); err != nil {
		t.Errorf("income without category should validate, got %v", err)
	}
}

func TestTransactionMonthKeyDerived(t *testing.T) {
	txn := NewTransactionOn(Expense, Money{Cents: 100}, "Food", "", "", 2024, time.May, 31)
	if got := txn.MonthKey(); got != "2024-05" {
		t.Fatalf("MonthKey() = %s, want 2024-05", got)
	}
}

func TestTransactionJSONRoundTrip(t *testing.T) {
	txn := NewTransactionOn(Expense, Money{Cents: 1250}, "Transport", "Anais", "bus pass", 2024, time.May, 10)
	txn.ID = "abc-123"

	data, err := json.Marshal(txn)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Transaction
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.ID != txn.ID || back.Kind != txn.Kind || back.Amount != txn.Amount ||
		back.Category != txn.Category || back.Payer != txn.Payer || back.Note != txn.Note {
		t.Fatalf("round trip mismatch: %+v vs %+v", back, txn)
	}
	if !back.OccurredAt.Equal(txn.OccurredAt) {
		t.Fatalf("OccurredAt mismatch: %v vs %v", back.OccurredAt, txn.OccurredAt)
	}
}

func TestTransactionUnmarshalIgnoresStoredMonth(t *testing.T) {
	// A payload whose month field contradicts ts: the derived month wins.
	raw := `{"id":"x","type":"expense","amount":10,"cat":"Food","ts":` +
		jsonMillis(2024, time.May, 3) + `,"month":"1999-01"}`
	var txn Transaction
	if err := json.Unmarshal([]byte(raw), &txn); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got := txn.MonthKey(); got != "2024-05" {
		t.Fatalf("MonthKey() = %s, want 2024-05", got)
	}
}

func jsonMillis(year int, month time.Month, day int) string {
	ts := time.Date(year, month, day, 12, 0, 0, 0, time.Local).UnixMilli()
	data, _ := json.Marshal(ts)
	return string(data)
}

func TestKnownCategory(t *testing.T) {
	for _, c := range Categories {
		if !KnownCategory(c) {
			t.Errorf("expected %s to be known", c)
		}
	}
	if KnownCategory("Yachts") {
		t.Error("unexpected category accepted")
	}
	if !slices.Contains(Categories, Category("Other")) {
		t.Error("Other must be part of the fixed set")
	}
}

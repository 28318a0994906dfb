package events

import (
	"testing"
	"time"

	"ledger/internal/core"
)

func TestNewAddEvent(t *testing.T) {
	txn := core.NewTransactionOn(core.Expense, core.Money{Cents: 1200}, core.CategoryFood,
		"ada", "lunch", 2026, time.March, 5)
	txn.ID = "t-1"

	evt := NewAddEvent(txn)
	if evt.Op != OpAdd {
		t.Errorf("Op = %q, want %q", evt.Op, OpAdd)
	}
	if evt.Transaction.ID != "t-1" {
		t.Errorf("Transaction.ID = %q, want t-1", evt.Transaction.ID)
	}
	if evt.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
}

func TestTransactionEventJSONRoundTrip(t *testing.T) {
	txn := core.NewTransactionOn(core.Expense, core.Money{Cents: 4550}, core.CategoryTransport,
		"ada", "train", 2026, time.March, 5)
	txn.ID = "t-2"
	evt := NewAddEvent(txn)

	raw, err := evt.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}
	parsed, err := TransactionEventFromJSON(raw)
	if err != nil {
		t.Fatalf("TransactionEventFromJSON() error = %v", err)
	}
	if parsed.Op != OpAdd {
		t.Errorf("Op = %q, want %q", parsed.Op, OpAdd)
	}
	if parsed.Transaction.ID != "t-2" {
		t.Errorf("Transaction.ID = %q, want t-2", parsed.Transaction.ID)
	}
	if parsed.Transaction.Amount.Cents != 4550 {
		t.Errorf("Amount = %d cents, want 4550", parsed.Transaction.Amount.Cents)
	}
	if parsed.Transaction.MonthKey() != core.MonthKey("2026-03") {
		t.Errorf("MonthKey = %q, want 2026-03", parsed.Transaction.MonthKey())
	}
}

func TestTransactionEventInvalidJSON(t *testing.T) {
	if _, err := TransactionEventFromJSON([]byte(`{"op": 7}`)); err == nil {
		t.Error("expected error for malformed event")
	}
}

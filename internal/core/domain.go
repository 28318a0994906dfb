package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const (
	Expense Kind = "expense"
	Income  Kind = "income"
)

type (
	Kind     string
	Category string

	// Transaction is a single ledger entry. Entries are immutable once
	// recorded; the store only appends and removes them.
	Transaction struct {
		ID         string
		Kind       Kind
		Amount     Money
		Category   Category
		Payer      string
		Note       string
		OccurredAt time.Time
	}
)

const (
	CategoryFood      Category = "Food"
	CategoryTransport Category = "Transport"
	CategoryHousing   Category = "Housing"
	CategoryUtilities Category = "Utilities"
	CategoryHealth    Category = "Health"
	CategoryFun       Category = "Fun"
	CategoryShopping  Category = "Shopping"
	CategoryOther     Category = "Other"
)

// Categories is the fixed set of spending categories. Expenses must carry
// one of these; income entries may leave the category empty.
var Categories = []Category{
	CategoryFood, CategoryTransport, CategoryHousing, CategoryUtilities,
	CategoryHealth, CategoryFun, CategoryShopping, CategoryOther,
}

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrInvalidCategory = errors.New("invalid category")
	ErrZeroTime        = errors.New("transaction time cannot be zero")
	ErrInvalidMonthKey = errors.New("invalid month key")
)

func (k Kind) Valid() bool {
	return k == Expense || k == Income
}

// KnownCategory reports whether c belongs to the fixed category set.
func KnownCategory(c Category) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// MonthKey returns the calendar month bucket of the transaction. It is
// always derived from OccurredAt, so it cannot drift out of sync with it.
func (t Transaction) MonthKey() MonthKey {
	return MonthKeyOf(t.OccurredAt)
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if t.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if t.OccurredAt.IsZero() {
		return ErrZeroTime
	}
	switch t.Kind {
	case Expense:
		if !KnownCategory(t.Category) {
			return ErrInvalidCategory
		}
	case Income:
		if t.Category != "" && !KnownCategory(t.Category) {
			return ErrInvalidCategory
		}
	}
	return nil
}

// NewTransactionOn builds an entry for a date-only input. The time of day is
// fixed at noon so the entry lands in the intended calendar day in every
// nearby timezone.
func NewTransactionOn(kind Kind, amount Money, category Category, payer, note string, year int, month time.Month, day int) Transaction {
	return Transaction{
		Kind:       kind,
		Amount:     amount,
		Category:   category,
		Payer:      strings.TrimSpace(payer),
		Note:       strings.TrimSpace(note),
		OccurredAt: time.Date(year, month, day, 12, 0, 0, 0, time.Local),
	}
}

// txnWire is the JSON shape shared with the remote snapshot blob and the
// export file: {id, type, amount, note, cat, ts, month, who}. The ts field
// is epoch milliseconds; month is written for readers that want it but is
// re-derived from ts on decode.
type txnWire struct {
	ID     string   `json:"id"`
	Type   Kind     `json:"type"`
	Amount Money    `json:"amount"`
	Note   string   `json:"note,omitempty"`
	Cat    Category `json:"cat,omitempty"`
	TS     int64    `json:"ts"`
	Month  string   `json:"month"`
	Who    string   `json:"who,omitempty"`
}

func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(txnWire{
		ID:     t.ID,
		Type:   t.Kind,
		Amount: t.Amount,
		Note:   t.Note,
		Cat:    t.Category,
		TS:     t.OccurredAt.UnixMilli(),
		Month:  string(t.MonthKey()),
		Who:    t.Payer,
	})
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var w txnWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t.ID = w.ID
	t.Kind = w.Type
	t.Amount = w.Amount
	t.Note = w.Note
	t.Category = w.Cat
	t.Payer = w.Who
	t.OccurredAt = time.UnixMilli(w.TS)
	return nil
}

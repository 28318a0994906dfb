package core

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Snapshot is the complete serializable ledger state at one instant. It is
// what gets pushed to the shared household store and what a pull replaces
// local state with. The JSON field names are the blob format shared by all
// household devices. The current user is a device-local preference and
// never travels in the snapshot.
type Snapshot struct {
	Transactions []Transaction       `json:"txns"`
	Budgets      BudgetConfiguration `json:"catBudgetsMap"`
	DefaultCaps  CategoryCaps        `json:"defaultBudgets"`
	BaseBudget   Money               `json:"monthlyBudget"`
}

// Clone returns an independent copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{
		Transactions: slices.Clone(s.Transactions),
		Budgets:      s.Budgets.Clone(),
		DefaultCaps:  s.DefaultCaps.Clone(),
		BaseBudget:   s.BaseBudget,
	}
}

// SnapshotPatch is a partially-present snapshot decoded from an untrusted
// payload. A nil field means the payload did not carry a usable value for
// it and the local value must be kept.
type SnapshotPatch struct {
	Transactions *[]Transaction
	Budgets      *BudgetConfiguration
	DefaultCaps  *CategoryCaps
	BaseBudget   *Money
}

// Empty reports whether the patch carries nothing at all.
func (p SnapshotPatch) Empty() bool {
	return p.Transactions == nil && p.Budgets == nil && p.DefaultCaps == nil &&
		p.BaseBudget == nil
}

// DecodeSnapshotPatch validates a remote snapshot payload field by field.
// The payload must be a JSON object; beyond that, each field is taken only
// if it has the expected shape and is silently skipped otherwise, so one
// malformed field never poisons the rest of the snapshot. JSON null counts
// as malformed everywhere: a null txns must never read as "replace the
// collection with nothing".
func DecodeSnapshotPatch(data []byte) (SnapshotPatch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return SnapshotPatch{}, fmt.Errorf("snapshot payload is not an object: %w", err)
	}

	var p SnapshotPatch
	if v, ok := raw["txns"]; ok {
		var txns []Transaction
		if err := json.Unmarshal(v, &txns); err == nil && txns != nil {
			p.Transactions = &txns
		}
	}
	if v, ok := raw["catBudgetsMap"]; ok {
		var budgets BudgetConfiguration
		if err := json.Unmarshal(v, &budgets); err == nil && budgets != nil {
			p.Budgets = &budgets
		}
	}
	if v, ok := raw["defaultBudgets"]; ok {
		var caps CategoryCaps
		if err := json.Unmarshal(v, &caps); err == nil && caps != nil {
			p.DefaultCaps = &caps
		}
	}
	if v, ok := raw["monthlyBudget"]; ok {
		var base Money
		if err := json.Unmarshal(v, &base); err == nil && string(v) != "null" {
			p.BaseBudget = &base
		}
	}
	return p, nil
}

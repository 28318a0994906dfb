// Package export serializes the ledger to a portable JSON file and parses
// it back. The file carries transactions and the base budget; budget caps
// travel through the shared snapshot instead.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ledger/internal/core"
)

const Version = 1

var ErrNotAnObject = errors.New("import file must be a JSON object")

// File is the on-disk export shape.
type File struct {
	Version      int                `json:"version"`
	ExportedAt   time.Time          `json:"exportedAt"`
	BaseBudget   core.Money         `json:"baseBudget"`
	Transactions []core.Transaction `json:"transactions"`
}

// Marshal renders a snapshot as an export document.
func Marshal(snap core.Snapshot, now time.Time) ([]byte, error) {
	f := File{
		Version:      Version,
		ExportedAt:   now,
		BaseBudget:   snap.BaseBudget,
		Transactions: snap.Transactions,
	}
	if f.Transactions == nil {
		f.Transactions = []core.Transaction{}
	}
	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}
	return raw, nil
}

// Parse reads a user-supplied import document. The top level must be a
// JSON object. Fields load independently: transactions apply only when the
// field is a well-formed array, baseBudget only when numeric; null reads as
// absent for both. A file where neither field is usable yields an empty
// patch, not an error.
func Parse(data []byte) (core.SnapshotPatch, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return core.SnapshotPatch{}, ErrNotAnObject
	}

	var patch core.SnapshotPatch
	if raw, ok := probe["transactions"]; ok {
		var txns []core.Transaction
		if err := json.Unmarshal(raw, &txns); err == nil && txns != nil {
			patch.Transactions = &txns
		}
	}
	if raw, ok := probe["baseBudget"]; ok {
		var base core.Money
		if err := json.Unmarshal(raw, &base); err == nil && string(raw) != "null" {
			patch.BaseBudget = &base
		}
	}
	return patch, nil
}

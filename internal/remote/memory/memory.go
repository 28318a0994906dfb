// Package memory is an in-process SnapshotStore. It backs tests and
// single-device deployments that run without a shared backend.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"ledger/internal/core"
)

type record struct {
	data      []byte
	updatedAt time.Time
}

type SnapshotStore struct {
	mu    sync.Mutex
	byKey map[string]record
}

func New() *SnapshotStore {
	return &SnapshotStore{byKey: map[string]record{}}
}

func (s *SnapshotStore) Fetch(_ context.Context, householdID string) (*core.SnapshotPatch, error) {
	s.mu.Lock()
	rec, ok := s.byKey[householdID]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}
	patch, err := core.DecodeSnapshotPatch(rec.data)
	if err != nil {
		return nil, fmt.Errorf("decode stored snapshot: %w", err)
	}
	return &patch, nil
}

func (s *SnapshotStore) Upsert(_ context.Context, householdID string, snap core.Snapshot, at time.Time) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	s.mu.Lock()
	s.byKey[householdID] = record{data: raw, updatedAt: at}
	s.mu.Unlock()
	return nil
}

// SetRaw stores an arbitrary payload for a household, bypassing encoding.
// Tests use it to simulate snapshots written by other writers.
func (s *SnapshotStore) SetRaw(householdID string, data []byte) {
	s.mu.Lock()
	s.byKey[householdID] = record{data: data, updatedAt: time.Now()}
	s.mu.Unlock()
}

// UpdatedAt reports when the household snapshot was last written, or a zero
// time when none exists.
func (s *SnapshotStore) UpdatedAt(householdID string) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byKey[householdID].updatedAt
}

// Package remote defines the port to the shared household snapshot. The
// reconciler talks to this interface only; the concrete backend is chosen
// at startup.
package remote

import (
	"context"
	"time"

	"ledger/internal/core"
)

// SnapshotStore is the remote end of the household state. Fetch returns
// (nil, nil) when no snapshot exists yet for the household. Upsert replaces
// the stored snapshot wholesale.
type SnapshotStore interface {
	Fetch(ctx context.Context, householdID string) (*core.SnapshotPatch, error)
	Upsert(ctx context.Context, householdID string, snap core.Snapshot, at time.Time) error
}

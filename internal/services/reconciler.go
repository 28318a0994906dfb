package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ledger/internal/core"
	"ledger/internal/ledger"
	"ledger/internal/remote"
)

// ReconcilerConfig holds configuration for the snapshot reconciler
type ReconcilerConfig struct {
	// HouseholdID identifies the shared snapshot this device belongs to
	HouseholdID string

	// Debounce is how long to wait after the last local change before
	// pushing (default: 500ms)
	Debounce time.Duration

	// PushTimeout bounds a single push attempt (default: 15s)
	PushTimeout time.Duration
}

// DefaultReconcilerConfig returns sensible defaults
func DefaultReconcilerConfig(householdID string) ReconcilerConfig {
	return ReconcilerConfig{
		HouseholdID: householdID,
		Debounce:    500 * time.Millisecond,
		PushTimeout: 15 * time.Second,
	}
}

// Reconciler keeps the local ledger and the shared household snapshot
// loosely in sync: one pull shortly after startup, then a debounced
// fire-and-forget push after every local change. Remote failures never
// block or fail local operations.
type Reconciler struct {
	store  *ledger.Store
	remote remote.SnapshotStore
	config ReconcilerConfig

	pullOnce sync.Once

	// kick carries at most one pending wake-up for the push loop
	kick chan struct{}

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewReconciler creates a reconciler and registers it for change
// notifications on the store.
func NewReconciler(store *ledger.Store, snapshots remote.SnapshotStore, config ReconcilerConfig) *Reconciler {
	if config.Debounce <= 0 {
		config.Debounce = 500 * time.Millisecond
	}
	if config.PushTimeout <= 0 {
		config.PushTimeout = 15 * time.Second
	}
	r := &Reconciler{
		store:  store,
		remote: snapshots,
		config: config,
		kick:   make(chan struct{}, 1),
	}
	store.OnChange(r.notifyChange)
	return r
}

// Start begins the push loop. Returns an error if already running.
func (r *Reconciler) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("reconciler is already running")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.mu.Unlock()

	go r.runLoop(ctx)

	slog.InfoContext(ctx, "Reconciler started",
		"household_id", r.config.HouseholdID,
		"debounce", r.config.Debounce)

	return nil
}

// Stop gracefully stops the push loop and waits for completion. The running
// flag clears before the mutex releases so a second concurrent Stop is a
// no-op instead of a double close of the stop channel.
func (r *Reconciler) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	r.running = false
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Reconciler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reconciler stop timed out")
		return ctx.Err()
	}

	return nil
}

// IsRunning returns whether the push loop is currently running
func (r *Reconciler) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// PullOnce fetches the shared snapshot and replaces local state with it.
// Repeat calls are no-ops; only the first pull of a process applies. A
// fetch failure or a malformed snapshot leaves local state untouched.
func (r *Reconciler) PullOnce(ctx context.Context) {
	r.pullOnce.Do(func() {
		patch, err := r.remote.Fetch(ctx, r.config.HouseholdID)
		if err != nil {
			slog.WarnContext(ctx, "Initial pull failed, keeping local state",
				"household_id", r.config.HouseholdID, "error", err)
			return
		}
		if patch == nil {
			slog.InfoContext(ctx, "No shared snapshot yet",
				"household_id", r.config.HouseholdID)
			return
		}
		if err := r.store.ApplyRemote(ctx, *patch); err != nil {
			slog.WarnContext(ctx, "Failed to apply pulled snapshot",
				"household_id", r.config.HouseholdID, "error", err)
			return
		}
		slog.InfoContext(ctx, "Applied shared snapshot",
			"household_id", r.config.HouseholdID)
	})
}

// notifyChange arms the debounce window. The buffered channel coalesces
// bursts of changes into a single wake-up.
func (r *Reconciler) notifyChange() {
	select {
	case r.kick <- struct{}{}:
	default:
	}
}

// runLoop waits for local changes and pushes once the ledger has been
// quiet for the debounce window. Changes arriving inside the window
// restart it, so a burst of edits produces one push.
func (r *Reconciler) runLoop(ctx context.Context) {
	defer close(r.doneCh)

	timer := time.NewTimer(r.config.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	armed := false
	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-r.kick:
			if armed && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(r.config.Debounce)
			armed = true
		case <-timer.C:
			armed = false
			go r.push(r.store.Snapshot())
		}
	}
}

// push writes the snapshot to the remote store. Failures are logged and
// swallowed; the next local change schedules another attempt. Pushes run
// detached from the loop so a slow remote cannot delay later windows.
func (r *Reconciler) push(snap core.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), r.config.PushTimeout)
	defer cancel()

	at := time.Now()
	if err := r.remote.Upsert(ctx, r.config.HouseholdID, snap, at); err != nil {
		slog.WarnContext(ctx, "Push to shared snapshot failed",
			"household_id", r.config.HouseholdID, "error", err)
		return
	}
	slog.DebugContext(ctx, "Pushed ledger snapshot",
		"household_id", r.config.HouseholdID,
		"transactions", len(snap.Transactions))
}

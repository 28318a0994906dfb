// Package ledger owns the in-memory ledger state: the transaction
// collection, the budget configuration and the base budget. The store is an
// explicitly constructed object with injected persistence, so tests can run
// it against a fake backend and nothing in the repo reaches for globals.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"ledger/internal/core"
	"ledger/internal/storage"
)

// ChangeListener runs after every successful local mutation. Listeners must
// not block; the reconciler uses one to arm its push debounce and the event
// publisher uses the per-transaction hooks instead.
type ChangeListener func()

type Store struct {
	state storage.StateStore

	mu       sync.Mutex
	txns     []core.Transaction
	budgets  core.BudgetConfiguration
	defaults core.CategoryCaps
	base     core.Money
	user     string
	revision uint64

	listenerMu sync.Mutex
	listeners  []ChangeListener
}

func NewStore(state storage.StateStore) *Store {
	return &Store{
		state:    state,
		budgets:  core.BudgetConfiguration{},
		defaults: core.CategoryCaps{},
	}
}

// OnChange registers a listener for local mutations. Wholesale replacement
// from a pulled remote snapshot does not count as a local mutation and
// never fires listeners.
func (s *Store) OnChange(fn ChangeListener) {
	s.listenerMu.Lock()
	s.listeners = append(s.listeners, fn)
	s.listenerMu.Unlock()
}

func (s *Store) notify() {
	s.listenerMu.Lock()
	listeners := slices.Clone(s.listeners)
	s.listenerMu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Load reads the persisted state. Absent or unparsable keys leave the
// zero-value defaults in place; a half-broken state file never prevents
// startup.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loadKey := func(key string, dst any) {
		raw, err := s.state.Get(ctx, key)
		if err != nil {
			slog.WarnContext(ctx, "Failed to read persisted state, using default",
				"key", key, "error", err)
			return
		}
		if raw == nil {
			return
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			slog.WarnContext(ctx, "Persisted state is unparsable, using default",
				"key", key, "error", err)
		}
	}

	loadKey(storage.KeyTransactions, &s.txns)
	loadKey(storage.KeyBudgets, &s.budgets)
	loadKey(storage.KeyDefaultCaps, &s.defaults)
	loadKey(storage.KeyBaseBudget, &s.base)
	loadKey(storage.KeyCurrentUser, &s.user)

	if s.budgets == nil {
		s.budgets = core.BudgetConfiguration{}
	}
	if s.defaults == nil {
		s.defaults = core.CategoryCaps{}
	}

	slog.InfoContext(ctx, "Ledger state loaded",
		"transactions", len(s.txns),
		"budget_months", len(s.budgets),
		"base_budget", s.base.String())
	return nil
}

// AddTransaction appends a validated entry. A fresh id is assigned when the
// entry has none. The new state is persisted before the call returns.
func (s *Store) AddTransaction(ctx context.Context, txn core.Transaction) (core.Transaction, error) {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if err := txn.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	s.txns = append(s.txns, txn)
	if err := s.persistLocked(ctx, storage.KeyTransactions, s.txns); err != nil {
		s.txns = s.txns[:len(s.txns)-1]
		s.mu.Unlock()
		return core.Transaction{}, err
	}
	s.revision++
	s.mu.Unlock()

	s.notify()
	return txn, nil
}

// RemoveTransaction deletes the entry with the given id. Removing an id that
// does not exist is a no-op, not an error; nothing is persisted or announced
// in that case.
func (s *Store) RemoveTransaction(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	idx := slices.IndexFunc(s.txns, func(t core.Transaction) bool { return t.ID == id })
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}
	removed := s.txns[idx]
	s.txns = slices.Delete(slices.Clone(s.txns), idx, idx+1)
	if err := s.persistLocked(ctx, storage.KeyTransactions, s.txns); err != nil {
		s.txns = slices.Insert(s.txns, idx, removed)
		s.mu.Unlock()
		return false, err
	}
	s.revision++
	s.mu.Unlock()

	s.notify()
	return true, nil
}

// Transactions returns the collection as a lazy, restartable sequence over
// a point-in-time copy. No ordering is guaranteed; presentation layers sort
// for themselves.
func (s *Store) Transactions() iter.Seq[core.Transaction] {
	s.mu.Lock()
	txns := slices.Clone(s.txns)
	s.mu.Unlock()
	return func(yield func(core.Transaction) bool) {
		for _, t := range txns {
			if !yield(t) {
				return
			}
		}
	}
}

// SetMonthCaps stores the caps for one month and, when alsoDefault is set,
// makes the same caps the fallback for months without an entry.
func (s *Store) SetMonthCaps(ctx context.Context, month core.MonthKey, caps core.CategoryCaps, alsoDefault bool) error {
	if !month.Valid() {
		return core.ErrInvalidMonthKey
	}

	s.mu.Lock()
	prev, hadPrev := s.budgets[month]
	s.budgets[month] = caps.Clone()
	if err := s.persistLocked(ctx, storage.KeyBudgets, s.budgets); err != nil {
		if hadPrev {
			s.budgets[month] = prev
		} else {
			delete(s.budgets, month)
		}
		s.mu.Unlock()
		return err
	}
	if alsoDefault {
		prevDefaults := s.defaults
		s.defaults = caps.Clone()
		if err := s.persistLocked(ctx, storage.KeyDefaultCaps, s.defaults); err != nil {
			s.defaults = prevDefaults
			if hadPrev {
				s.budgets[month] = prev
			} else {
				delete(s.budgets, month)
			}
			// compensating write; the month entry already hit disk
			_ = s.persistLocked(ctx, storage.KeyBudgets, s.budgets)
			s.mu.Unlock()
			return err
		}
	}
	s.revision++
	s.mu.Unlock()

	s.notify()
	return nil
}

// SetBaseBudget stores the month-independent top-up added to every month's
// available funds. Negative values are rejected.
func (s *Store) SetBaseBudget(ctx context.Context, base core.Money) error {
	if base.Cents < 0 {
		return core.ErrInvalidAmount
	}

	s.mu.Lock()
	prev := s.base
	s.base = base
	if err := s.persistLocked(ctx, storage.KeyBaseBudget, s.base); err != nil {
		s.base = prev
		s.mu.Unlock()
		return err
	}
	s.revision++
	s.mu.Unlock()

	s.notify()
	return nil
}

// SetCurrentUser records the default payer for new entries on this device.
func (s *Store) SetCurrentUser(ctx context.Context, user string) error {
	s.mu.Lock()
	prev := s.user
	s.user = user
	if err := s.persistLocked(ctx, storage.KeyCurrentUser, s.user); err != nil {
		s.user = prev
		s.mu.Unlock()
		return err
	}
	s.revision++
	s.mu.Unlock()

	s.notify()
	return nil
}

func (s *Store) BaseBudget() core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.base
}

func (s *Store) CurrentUser() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Revision increases on every local mutation; derived-view caches key on it.
func (s *Store) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// EffectiveCaps resolves the caps in force for a month: month-specific
// entry, else defaults, else empty.
func (s *Store) EffectiveCaps(month core.MonthKey) core.CategoryCaps {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budgets.Effective(s.defaults, month).Clone()
}

// MonthlyTotals computes the headline summary for a month.
func (s *Store) MonthlyTotals(month core.MonthKey) core.MonthlyTotals {
	return core.ComputeMonthlyTotals(s.Transactions(), month, s.BaseBudget())
}

// CategoryTotals computes the per-category breakdown for a month against
// its effective caps.
func (s *Store) CategoryTotals(month core.MonthKey) []core.CategoryTotal {
	return core.ComputeCategoryTotals(s.Transactions(), month, s.EffectiveCaps(month))
}

// Snapshot captures the shared state for pushing or exporting. The current
// user stays out: it is a device preference, not household data. An empty
// collection marshals as [] rather than null so other devices never read
// it as an absent field.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	txns := slices.Clone(s.txns)
	if txns == nil {
		txns = []core.Transaction{}
	}
	return core.Snapshot{
		Transactions: txns,
		Budgets:      s.budgets.Clone(),
		DefaultCaps:  s.defaults.Clone(),
		BaseBudget:   s.base,
	}
}

// ApplyRemote replaces local state wholesale with the fields a pulled
// snapshot carries. Fields absent from the patch keep their local values.
// Listeners are deliberately not fired: a pull must not immediately echo
// back as a push.
func (s *Store) ApplyRemote(ctx context.Context, patch core.SnapshotPatch) error {
	return s.applyPatch(ctx, patch, false)
}

// ApplyImport overwrites state from a user-supplied import file. Unlike a
// pull this is a local mutation, so listeners fire and the reconciler will
// propagate the imported state.
func (s *Store) ApplyImport(ctx context.Context, patch core.SnapshotPatch) error {
	return s.applyPatch(ctx, patch, true)
}

func (s *Store) applyPatch(ctx context.Context, patch core.SnapshotPatch, localMutation bool) error {
	if patch.Empty() {
		return nil
	}

	s.mu.Lock()
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if patch.Transactions != nil {
		s.txns = slices.Clone(*patch.Transactions)
		keep(s.persistLocked(ctx, storage.KeyTransactions, s.txns))
	}
	if patch.Budgets != nil {
		s.budgets = patch.Budgets.Clone()
		keep(s.persistLocked(ctx, storage.KeyBudgets, s.budgets))
	}
	if patch.DefaultCaps != nil {
		s.defaults = patch.DefaultCaps.Clone()
		keep(s.persistLocked(ctx, storage.KeyDefaultCaps, s.defaults))
	}
	if patch.BaseBudget != nil {
		s.base = *patch.BaseBudget
		keep(s.persistLocked(ctx, storage.KeyBaseBudget, s.base))
	}
	s.revision++
	s.mu.Unlock()

	if localMutation {
		s.notify()
	}
	return firstErr
}

// persistLocked writes one state key; callers hold s.mu.
func (s *Store) persistLocked(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode state %q: %w", key, err)
	}
	if err := s.state.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("persist state %q: %w", key, err)
	}
	return nil
}

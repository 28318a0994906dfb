package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"ledger/internal/core"
)

// fakeState keeps state in a map and can be told to fail writes, either
// globally or for one key.
type fakeState struct {
	data    map[string][]byte
	putErr  error
	failKey string
	putKeys []string
}

func newFakeState() *fakeState {
	return &fakeState{data: map[string][]byte{}}
}

func (f *fakeState) Get(_ context.Context, key string) ([]byte, error) {
	raw, ok := f.data[key]
	if !ok {
		return nil, nil
	}
	return raw, nil
}

func (f *fakeState) Put(_ context.Context, key string, value []byte) error {
	if f.putErr != nil && (f.failKey == "" || key == f.failKey) {
		return f.putErr
	}
	f.data[key] = value
	f.putKeys = append(f.putKeys, key)
	return nil
}

func expenseOn(amount int64, cat core.Category, year int, month time.Month, day int) core.Transaction {
	return core.NewTransactionOn(core.Expense, core.Money{Cents: amount}, cat, "ada", "", year, month, day)
}

func collect(s *Store) []core.Transaction {
	var out []core.Transaction
	for t := range s.Transactions() {
		out = append(out, t)
	}
	return out
}

func TestAddTransactionAssignsIDAndPersists(t *testing.T) {
	state := newFakeState()
	store := NewStore(state)

	saved, err := store.AddTransaction(context.Background(), expenseOn(1250, core.CategoryFood, 2026, time.March, 5))
	if err != nil {
		t.Fatalf("AddTransaction() error = %v", err)
	}
	if saved.ID == "" {
		t.Error("expected a generated id")
	}
	if len(collect(store)) != 1 {
		t.Fatalf("expected 1 transaction, got %d", len(collect(store)))
	}
	if _, ok := state.data["txns"]; !ok {
		t.Error("transactions were not persisted")
	}
}

func TestAddTransactionRejectsInvalid(t *testing.T) {
	store := NewStore(newFakeState())

	bad := expenseOn(500, "Groceries", 2026, time.March, 5)
	if _, err := store.AddTransaction(context.Background(), bad); !errors.Is(err, core.ErrInvalidCategory) {
		t.Fatalf("AddTransaction() error = %v, want ErrInvalidCategory", err)
	}
	if len(collect(store)) != 0 {
		t.Error("invalid transaction must not be stored")
	}
}

func TestAddTransactionRollsBackOnPersistFailure(t *testing.T) {
	state := newFakeState()
	store := NewStore(state)
	state.putErr = errors.New("disk full")

	if _, err := store.AddTransaction(context.Background(), expenseOn(100, core.CategoryFun, 2026, time.March, 5)); err == nil {
		t.Fatal("expected persistence error")
	}
	if len(collect(store)) != 0 {
		t.Error("failed add must leave the collection unchanged")
	}
}

func TestRemoveTransaction(t *testing.T) {
	store := NewStore(newFakeState())
	saved, err := store.AddTransaction(context.Background(), expenseOn(100, core.CategoryFood, 2026, time.March, 5))
	if err != nil {
		t.Fatal(err)
	}

	removed, err := store.RemoveTransaction(context.Background(), saved.ID)
	if err != nil || !removed {
		t.Fatalf("RemoveTransaction() = %v, %v, want true, nil", removed, err)
	}
	if len(collect(store)) != 0 {
		t.Error("transaction still present after removal")
	}

	removed, err = store.RemoveTransaction(context.Background(), "missing")
	if err != nil {
		t.Fatalf("removing an unknown id must not error: %v", err)
	}
	if removed {
		t.Error("removing an unknown id must report false")
	}
}

func TestRemoveUnknownDoesNotNotify(t *testing.T) {
	store := NewStore(newFakeState())
	var fired int
	store.OnChange(func() { fired++ })

	if _, err := store.RemoveTransaction(context.Background(), "missing"); err != nil {
		t.Fatal(err)
	}
	if fired != 0 {
		t.Errorf("listener fired %d times for a no-op removal", fired)
	}
}

func TestLoadRestoresState(t *testing.T) {
	state := newFakeState()
	first := NewStore(state)
	ctx := context.Background()

	if _, err := first.AddTransaction(ctx, expenseOn(900, core.CategoryHousing, 2026, time.April, 1)); err != nil {
		t.Fatal(err)
	}
	if err := first.SetBaseBudget(ctx, core.Money{Cents: 50000}); err != nil {
		t.Fatal(err)
	}
	if err := first.SetCurrentUser(ctx, "ada"); err != nil {
		t.Fatal(err)
	}

	second := NewStore(state)
	if err := second.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(collect(second)) != 1 {
		t.Errorf("expected 1 transaction after reload, got %d", len(collect(second)))
	}
	if second.BaseBudget().Cents != 50000 {
		t.Errorf("base budget = %d, want 50000", second.BaseBudget().Cents)
	}
	if second.CurrentUser() != "ada" {
		t.Errorf("current user = %q, want ada", second.CurrentUser())
	}
}

func TestLoadToleratesCorruptKeys(t *testing.T) {
	state := newFakeState()
	state.data["txns"] = []byte("{not json")
	state.data["monthlyBudget"] = []byte("123")

	store := NewStore(state)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(collect(store)) != 0 {
		t.Error("corrupt transactions key must fall back to empty")
	}
	if store.BaseBudget().Cents != 12300 {
		t.Errorf("base budget = %d, want 12300", store.BaseBudget().Cents)
	}
}

func TestSetMonthCapsAndDefaults(t *testing.T) {
	store := NewStore(newFakeState())
	ctx := context.Background()
	month := core.MonthKey("2026-03")
	caps := core.CategoryCaps{core.CategoryFood: {Cents: 40000}}

	if err := store.SetMonthCaps(ctx, month, caps, true); err != nil {
		t.Fatalf("SetMonthCaps() error = %v", err)
	}
	if got := store.EffectiveCaps(month)[core.CategoryFood].Cents; got != 40000 {
		t.Errorf("month caps = %d, want 40000", got)
	}
	if got := store.EffectiveCaps(core.MonthKey("2026-07"))[core.CategoryFood].Cents; got != 40000 {
		t.Errorf("defaults did not apply to other months, got %d", got)
	}

	if err := store.SetMonthCaps(ctx, "march", caps, false); !errors.Is(err, core.ErrInvalidMonthKey) {
		t.Errorf("SetMonthCaps(invalid month) error = %v, want ErrInvalidMonthKey", err)
	}
}

func TestSetMonthCapsRollsBackWhenDefaultsPersistFails(t *testing.T) {
	state := newFakeState()
	store := NewStore(state)
	ctx := context.Background()
	old := core.CategoryCaps{core.CategoryFood: {Cents: 10000}}
	if err := store.SetMonthCaps(ctx, core.MonthKey("2026-01"), old, true); err != nil {
		t.Fatal(err)
	}

	state.putErr = errors.New("disk full")
	state.failKey = "defaultBudgets"
	caps := core.CategoryCaps{core.CategoryFood: {Cents: 77700}}
	if err := store.SetMonthCaps(ctx, core.MonthKey("2026-03"), caps, true); err == nil {
		t.Fatal("expected persistence error")
	}

	if got := store.EffectiveCaps(core.MonthKey("2026-07"))[core.CategoryFood].Cents; got != 10000 {
		t.Errorf("defaults after failed write = %d, want old 10000", got)
	}
	if got := store.EffectiveCaps(core.MonthKey("2026-03"))[core.CategoryFood].Cents; got != 10000 {
		t.Errorf("failed month entry survived, caps = %d, want fallback 10000", got)
	}
}

func TestApplyRemoteReplacesPresentFieldsOnly(t *testing.T) {
	store := NewStore(newFakeState())
	ctx := context.Background()
	if _, err := store.AddTransaction(ctx, expenseOn(100, core.CategoryFood, 2026, time.March, 5)); err != nil {
		t.Fatal(err)
	}
	if err := store.SetCurrentUser(ctx, "ada"); err != nil {
		t.Fatal(err)
	}

	var fired int
	store.OnChange(func() { fired++ })

	remote := []core.Transaction{
		expenseOn(7000, core.CategoryUtilities, 2026, time.March, 9),
		expenseOn(300, core.CategoryFun, 2026, time.March, 10),
	}
	remote[0].ID, remote[1].ID = "r1", "r2"
	base := core.Money{Cents: 99900}
	if err := store.ApplyRemote(ctx, core.SnapshotPatch{
		Transactions: &remote,
		BaseBudget:   &base,
	}); err != nil {
		t.Fatalf("ApplyRemote() error = %v", err)
	}

	if got := len(collect(store)); got != 2 {
		t.Errorf("transactions after pull = %d, want 2", got)
	}
	if store.BaseBudget().Cents != 99900 {
		t.Errorf("base budget = %d, want 99900", store.BaseBudget().Cents)
	}
	if store.CurrentUser() != "ada" {
		t.Errorf("absent field overwrote local user, got %q", store.CurrentUser())
	}
	if fired != 0 {
		t.Errorf("pull fired %d change listeners, want 0", fired)
	}
}

func TestApplyImportNotifies(t *testing.T) {
	store := NewStore(newFakeState())
	var fired int
	store.OnChange(func() { fired++ })

	base := core.Money{Cents: 1000}
	if err := store.ApplyImport(context.Background(), core.SnapshotPatch{BaseBudget: &base}); err != nil {
		t.Fatal(err)
	}
	if fired != 1 {
		t.Errorf("import fired %d change listeners, want 1", fired)
	}
}

func TestSnapshotIsDetached(t *testing.T) {
	store := NewStore(newFakeState())
	ctx := context.Background()
	if _, err := store.AddTransaction(ctx, expenseOn(100, core.CategoryFood, 2026, time.March, 5)); err != nil {
		t.Fatal(err)
	}

	snap := store.Snapshot()
	snap.Transactions[0].Note = "mutated"
	snap.Budgets[core.MonthKey("2026-01")] = core.CategoryCaps{}

	if collect(store)[0].Note == "mutated" {
		t.Error("snapshot shares transaction backing array with the store")
	}
}

func TestSnapshotEmitsEmptyArrayAndNoUser(t *testing.T) {
	store := NewStore(newFakeState())
	ctx := context.Background()
	if err := store.SetCurrentUser(ctx, "ada"); err != nil {
		t.Fatal(err)
	}

	raw, err := json.Marshal(store.Snapshot())
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if !strings.Contains(string(raw), `"txns":[]`) {
		t.Errorf("fresh snapshot must carry an empty array, got %s", raw)
	}
	if strings.Contains(string(raw), "currentUser") {
		t.Errorf("device user leaked into the shared snapshot: %s", raw)
	}
}

func TestApplyRemoteNullTransactionsKeepLocal(t *testing.T) {
	store := NewStore(newFakeState())
	ctx := context.Background()
	if _, err := store.AddTransaction(ctx, expenseOn(100, core.CategoryFood, 2026, time.March, 5)); err != nil {
		t.Fatal(err)
	}

	patch, err := core.DecodeSnapshotPatch([]byte(`{"txns":null}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.ApplyRemote(ctx, patch); err != nil {
		t.Fatal(err)
	}
	if got := len(collect(store)); got != 1 {
		t.Errorf("null txns wiped the local collection, got %d entries", got)
	}
}

func TestApplyRemoteIgnoresUserPreference(t *testing.T) {
	store := NewStore(newFakeState())
	ctx := context.Background()
	if err := store.SetCurrentUser(ctx, "ada"); err != nil {
		t.Fatal(err)
	}

	patch, err := core.DecodeSnapshotPatch([]byte(`{"currentUser":"someone-else"}`))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.ApplyRemote(ctx, patch); err != nil {
		t.Fatal(err)
	}
	if store.CurrentUser() != "ada" {
		t.Errorf("pull overwrote the device user, got %q", store.CurrentUser())
	}
}

func TestRevisionAdvancesOnMutation(t *testing.T) {
	store := NewStore(newFakeState())
	ctx := context.Background()
	before := store.Revision()

	if _, err := store.AddTransaction(ctx, expenseOn(100, core.CategoryFood, 2026, time.March, 5)); err != nil {
		t.Fatal(err)
	}
	if store.Revision() == before {
		t.Error("revision did not advance after a mutation")
	}
}

func TestMonthlyTotalsThroughStore(t *testing.T) {
	store := NewStore(newFakeState())
	ctx := context.Background()
	if _, err := store.AddTransaction(ctx, expenseOn(5000, core.CategoryFood, 2026, time.March, 5)); err != nil {
		t.Fatal(err)
	}
	income := core.NewTransactionOn(core.Income, core.Money{Cents: 200000}, "", "ada", "salary", 2026, time.March, 1)
	if _, err := store.AddTransaction(ctx, income); err != nil {
		t.Fatal(err)
	}
	if err := store.SetBaseBudget(ctx, core.Money{Cents: 10000}); err != nil {
		t.Fatal(err)
	}

	totals := store.MonthlyTotals(core.MonthKey("2026-03"))
	if totals.Remaining.Cents != 205000 {
		t.Errorf("remaining = %d, want 205000", totals.Remaining.Cents)
	}
}

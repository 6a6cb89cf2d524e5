package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/Davemasibo/mikrotikDashboard/internal/config"
	"github.com/Davemasibo/mikrotikDashboard/internal/storage"
)

func testConfig(addr string) config.RedisConfig {
	return config.RedisConfig{
		Host:         addr, // miniredis.Addr() is already "host:port"
		Port:         0,
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 5,
		DialTimeout:  "5s",
		ReadTimeout:  "3s",
		WriteTimeout: "3s",
	}
}

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := Open(testConfig(mr.Addr()))
	if err != nil {
		t.Fatalf("Failed to open Redis store: %v", err)
	}
	return store, mr
}

func TestPlanStore_CreateAndGet(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	plans := store.Plans()

	plan := storage.Plan{
		Name:        "Daily Unlimited",
		Price:       100,
		Speed:       "5 Mbps",
		Validity:    "24 hours",
		DataLimit:   "Unlimited",
		Profile:     "daily-unlimited",
		Description: "Full-speed unlimited access for 24 hours",
		Active:      true,
	}

	if err := plans.Create(ctx, &plan); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if plan.ID == "" {
		t.Fatal("Create did not assign an ID")
	}

	got, err := plans.Get(ctx, plan.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != plan.Name {
		t.Errorf("Name = %q, want %q", got.Name, plan.Name)
	}
	if got.Price != 100 {
		t.Errorf("Price = %d, want 100", got.Price)
	}
	if !got.Active {
		t.Error("Active = false, want true")
	}
}

func TestPlanStore_GetMissing(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	_, err := store.Plans().Get(context.Background(), "no-such-plan")
	if err != storage.ErrNotFound {
		t.Errorf("Get = %v, want ErrNotFound", err)
	}
}

func TestPlanStore_ListSortedByPrice(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	plans := store.Plans()

	for _, p := range storage.DefaultPlans() {
		plan := p
		if err := plans.Create(ctx, &plan); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	got, err := plans.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len(List) = %d, want 4", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Price > got[i].Price {
			t.Errorf("List not sorted by price: %d before %d", got[i-1].Price, got[i].Price)
		}
	}
}

func TestPlanStore_UpdateAndDelete(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	plans := store.Plans()

	plan := storage.Plan{Name: "Hourly Unlimited", Price: 20, Active: true}
	if err := plans.Create(ctx, &plan); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	plan.Price = 30
	plan.Active = false
	if err := plans.Update(ctx, &plan); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := plans.Get(ctx, plan.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Price != 30 || got.Active {
		t.Errorf("after update: Price = %d, Active = %v", got.Price, got.Active)
	}

	if err := plans.Delete(ctx, plan.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := plans.Get(ctx, plan.ID); err != storage.ErrNotFound {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
	if err := plans.Delete(ctx, plan.ID); err != storage.ErrNotFound {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestPlanStore_PersistsAcrossReopen(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := Open(testConfig(mr.Addr()))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	ctx := context.Background()
	plan := storage.Plan{Name: "2 Mbps - 30 Days", Price: 500, Active: true}
	if err := store.Plans().Create(ctx, &plan); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(testConfig(mr.Addr()))
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() { _ = reopened.Close() }()

	got, err := reopened.Plans().Get(ctx, plan.ID)
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got.ID != plan.ID || got.Name != plan.Name {
		t.Errorf("reopened plan = %+v, want ID %q Name %q", got, plan.ID, plan.Name)
	}
}

func TestSeedPlans(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()

	n, err := storage.SeedPlans(ctx, store.Plans())
	if err != nil {
		t.Fatalf("SeedPlans failed: %v", err)
	}
	if n != 4 {
		t.Errorf("seeded %d plans, want 4", n)
	}

	// Seeding again is a no-op.
	n, err = storage.SeedPlans(ctx, store.Plans())
	if err != nil {
		t.Fatalf("second SeedPlans failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second seed created %d plans, want 0", n)
	}
}

func TestTransactionStore_Lifecycle(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	txns := store.Transactions()

	txn := storage.Transaction{
		CheckoutRequestID: "ws_CO_240820001",
		Username:          "254712345678",
		PhoneNumber:       "254712345678",
		PlanID:            "plan-1",
		PlanName:          "Daily Unlimited",
		Amount:            100,
	}
	if err := txns.Create(ctx, &txn); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if txn.Status != storage.StatusPending {
		t.Errorf("Status = %q, want %q", txn.Status, storage.StatusPending)
	}

	got, err := txns.GetByCheckoutID(ctx, "ws_CO_240820001")
	if err != nil {
		t.Fatalf("GetByCheckoutID failed: %v", err)
	}
	if got.ID != txn.ID {
		t.Errorf("GetByCheckoutID ID = %q, want %q", got.ID, txn.ID)
	}

	now := time.Now().UTC()
	got.Status = storage.StatusCompleted
	got.CompletedAt = &now
	if err := txns.Update(ctx, got); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	updated, err := txns.Get(ctx, txn.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if updated.Status != storage.StatusCompleted {
		t.Errorf("Status = %q, want %q", updated.Status, storage.StatusCompleted)
	}
	if updated.CompletedAt == nil {
		t.Error("CompletedAt = nil, want set")
	}
}

func TestTransactionStore_GetByCheckoutIDMissing(t *testing.T) {
	store, _ := setupTestStore(t)
	defer func() { _ = store.Close() }()

	_, err := store.Transactions().GetByCheckoutID(context.Background(), "ws_CO_unknown")
	if err != storage.ErrNotFound {
		t.Errorf("GetByCheckoutID = %v, want ErrNotFound", err)
	}
}

package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Plans() PlanStore
	Transactions() TransactionStore
}

// PlanStore manages internet plan records.
type PlanStore interface {
	Get(ctx context.Context, id string) (*Plan, error)
	List(ctx context.Context) ([]Plan, error)
	Create(ctx context.Context, plan *Plan) error
	Update(ctx context.Context, plan *Plan) error
	Delete(ctx context.Context, id string) error
}

// TransactionStore manages payment transaction records.
type TransactionStore interface {
	Get(ctx context.Context, id string) (*Transaction, error)
	GetByCheckoutID(ctx context.Context, checkoutID string) (*Transaction, error)
	List(ctx context.Context) ([]Transaction, error)
	Create(ctx context.Context, txn *Transaction) error
	Update(ctx context.Context, txn *Transaction) error
}

// SeedPlans populates the plan store with the default catalog when it
// holds no plans. Seeded IDs are generated once and then stable for
// the lifetime of the store.
func SeedPlans(ctx context.Context, plans PlanStore) (int, error) {
	existing, err := plans.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	defaults := DefaultPlans()
	for i := range defaults {
		if err := plans.Create(ctx, &defaults[i]); err != nil {
			return i, err
		}
	}
	return len(defaults), nil
}

package bolt

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/Davemasibo/mikrotikDashboard/internal/storage"
)

type transactionStore struct {
	db *bbolt.DB
}

func (s *transactionStore) Get(ctx context.Context, id string) (*storage.Transaction, error) {
	return getBucketValue[storage.Transaction](ctx, s.db, bucketTransactions, id)
}

func (s *transactionStore) GetByCheckoutID(ctx context.Context, checkoutID string) (*storage.Transaction, error) {
	var id string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketCheckoutIndex))
		if b == nil {
			return storage.ErrNotFound
		}
		v := b.Get([]byte(checkoutID))
		if v == nil {
			return storage.ErrNotFound
		}
		id = string(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *transactionStore) List(ctx context.Context) ([]storage.Transaction, error) {
	txns, err := listBucket[storage.Transaction](ctx, s.db, bucketTransactions)
	if err != nil {
		return nil, err
	}
	sort.Slice(txns, func(i, j int) bool { return txns[i].CreatedAt.After(txns[j].CreatedAt) })
	return txns, nil
}

func (s *transactionStore) Create(ctx context.Context, txn *storage.Transaction) error {
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now().UTC()
	}
	if txn.Status == "" {
		txn.Status = storage.StatusPending
	}
	return s.put(ctx, txn)
}

func (s *transactionStore) Update(ctx context.Context, txn *storage.Transaction) error {
	if _, err := s.Get(ctx, txn.ID); err != nil {
		return err
	}
	return s.put(ctx, txn)
}

// put writes the record and its checkout index entry in one transaction.
func (s *transactionStore) put(ctx context.Context, txn *storage.Transaction) error {
	data, err := marshal(txn)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketTransactions))
		if b == nil {
			return fmt.Errorf("bucket missing: %s", bucketTransactions)
		}
		if err := b.Put([]byte(txn.ID), data); err != nil {
			return err
		}
		if txn.CheckoutRequestID != "" {
			idx := tx.Bucket([]byte(bucketCheckoutIndex))
			if idx == nil {
				return fmt.Errorf("bucket missing: %s", bucketCheckoutIndex)
			}
			if err := idx.Put([]byte(txn.CheckoutRequestID), []byte(txn.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

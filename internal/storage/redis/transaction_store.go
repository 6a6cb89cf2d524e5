package redis

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/Davemasibo/mikrotikDashboard/internal/storage"
)

type transactionStore struct {
	client *redis.Client
}

func (s *transactionStore) Get(ctx context.Context, id string) (*storage.Transaction, error) {
	data, err := s.client.HGetAll(ctx, txnKeyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return parseTransaction(data)
}

func (s *transactionStore) GetByCheckoutID(ctx context.Context, checkoutID string) (*storage.Transaction, error) {
	id, err := s.client.Get(ctx, checkoutKeyPref+checkoutID).Result()
	if err == redis.Nil {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve checkout ID: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *transactionStore) List(ctx context.Context) ([]storage.Transaction, error) {
	ids, err := s.client.SMembers(ctx, txnIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction IDs: %w", err)
	}

	txns := make([]storage.Transaction, 0, len(ids))
	for _, id := range ids {
		txn, err := s.Get(ctx, id)
		if err == storage.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		txns = append(txns, *txn)
	}

	// Newest first
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

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, txnKeyPrefix+txn.ID, transactionToHash(txn))
		pipe.SAdd(ctx, txnIndexKey, txn.ID)
		if txn.CheckoutRequestID != "" {
			pipe.Set(ctx, checkoutKeyPref+txn.CheckoutRequestID, txn.ID, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (s *transactionStore) Update(ctx context.Context, txn *storage.Transaction) error {
	exists, err := s.client.SIsMember(ctx, txnIndexKey, txn.ID).Result()
	if err != nil {
		return fmt.Errorf("failed to check transaction: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, txnKeyPrefix+txn.ID, transactionToHash(txn))
		if txn.CheckoutRequestID != "" {
			pipe.Set(ctx, checkoutKeyPref+txn.CheckoutRequestID, txn.ID, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

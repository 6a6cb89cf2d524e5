package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Davemasibo/mikrotikDashboard/internal/config"
	"github.com/Davemasibo/mikrotikDashboard/internal/storage"
)

// Key layout:
//
//	fortunet:plan:{id}          hash   one plan record
//	fortunet:plans              set    all plan IDs
//	fortunet:txn:{id}           hash   one transaction record
//	fortunet:txns               set    all transaction IDs
//	fortunet:txn:checkout:{id}  string checkout request ID -> transaction ID
const (
	planKeyPrefix   = "fortunet:plan:"
	planIndexKey    = "fortunet:plans"
	txnKeyPrefix    = "fortunet:txn:"
	txnIndexKey     = "fortunet:txns"
	checkoutKeyPref = "fortunet:txn:checkout:"
)

// Store implements the storage.Store interface using Redis
type Store struct {
	client *redis.Client
	plans  *planStore
	txns   *transactionStore
}

// Open creates a new Redis-backed storage instance
func Open(cfg config.RedisConfig) (*Store, error) {
	dialTimeout, err := time.ParseDuration(cfg.DialTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid dial_timeout: %w", err)
	}

	readTimeout, err := time.ParseDuration(cfg.ReadTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid read_timeout: %w", err)
	}

	writeTimeout, err := time.ParseDuration(cfg.WriteTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid write_timeout: %w", err)
	}

	addr := cfg.Host
	if cfg.Port > 0 {
		addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	})

	// Ping to verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{
		client: client,
		plans:  &planStore{client: client},
		txns:   &transactionStore{client: client},
	}, nil
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// Plans returns the PlanStore implementation
func (s *Store) Plans() storage.PlanStore {
	return s.plans
}

// Transactions returns the TransactionStore implementation
func (s *Store) Transactions() storage.TransactionStore {
	return s.txns
}

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

type planStore struct {
	client *redis.Client
}

func (s *planStore) Get(ctx context.Context, id string) (*storage.Plan, error) {
	data, err := s.client.HGetAll(ctx, planKeyPrefix+id).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return parsePlan(data)
}

func (s *planStore) List(ctx context.Context) ([]storage.Plan, error) {
	ids, err := s.client.SMembers(ctx, planIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list plan IDs: %w", err)
	}

	plans := make([]storage.Plan, 0, len(ids))
	for _, id := range ids {
		plan, err := s.Get(ctx, id)
		if err == storage.ErrNotFound {
			// Index entry without a record; skip it.
			continue
		}
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}

	sort.Slice(plans, func(i, j int) bool { return plans[i].Price < plans[j].Price })
	return plans, nil
}

func (s *planStore) Create(ctx context.Context, plan *storage.Plan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, planKeyPrefix+plan.ID, planToHash(plan))
		pipe.SAdd(ctx, planIndexKey, plan.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

func (s *planStore) Update(ctx context.Context, plan *storage.Plan) error {
	exists, err := s.client.SIsMember(ctx, planIndexKey, plan.ID).Result()
	if err != nil {
		return fmt.Errorf("failed to check plan: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}

	plan.UpdatedAt = time.Now().UTC()
	if err := s.client.HSet(ctx, planKeyPrefix+plan.ID, planToHash(plan)).Err(); err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	return nil
}

func (s *planStore) Delete(ctx context.Context, id string) error {
	removed, err := s.client.SRem(ctx, planIndexKey, id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if removed == 0 {
		return storage.ErrNotFound
	}
	if err := s.client.Del(ctx, planKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete plan record: %w", err)
	}
	return nil
}

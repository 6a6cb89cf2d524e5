package bolt

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"github.com/Davemasibo/mikrotikDashboard/internal/storage"
)

type planStore struct {
	db *bbolt.DB
}

func (s *planStore) Get(ctx context.Context, id string) (*storage.Plan, error) {
	return getBucketValue[storage.Plan](ctx, s.db, bucketPlans, id)
}

func (s *planStore) List(ctx context.Context) ([]storage.Plan, error) {
	plans, err := listBucket[storage.Plan](ctx, s.db, bucketPlans)
	if err != nil {
		return nil, err
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
	return putBucketValue(ctx, s.db, bucketPlans, plan.ID, plan)
}

func (s *planStore) Update(ctx context.Context, plan *storage.Plan) error {
	if _, err := s.Get(ctx, plan.ID); err != nil {
		return err
	}
	plan.UpdatedAt = time.Now().UTC()
	return putBucketValue(ctx, s.db, bucketPlans, plan.ID, plan)
}

func (s *planStore) Delete(ctx context.Context, id string) error {
	return deleteBucketValue(ctx, s.db, bucketPlans, id)
}

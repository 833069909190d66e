package postgres

import (
	"context"
	"encoding/json"
	"time"

	"spotsong-billing/internal/domain/model"
	"spotsong-billing/internal/domain/ports/repository"
	"spotsong-billing/internal/infra/metrics"
	red "spotsong-billing/internal/infra/redis"
)

var _ repository.PlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator caches the plan list for browse/ops reads. ResolveAt
// is never cached: settlement must price against the row committed at the
// instant its transaction runs, so resolution always goes to the database.
type planRepoCacheDecorator struct {
	inner repository.PlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.PlanRepository, cache red.RedisClient) repository.PlanRepository {
	return &planRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

const planListKey = "plans:all"

// Save invalidates the cached list before appending the new version.
func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	_ = d.cache.Del(ctx, planListKey)
	return d.inner.Save(ctx, tx, plan)
}

func (d *planRepoCacheDecorator) ResolveAt(ctx context.Context, tx repository.Tx, name string, asOf time.Time) (*model.Plan, error) {
	return d.inner.ResolveAt(ctx, tx, name, asOf)
}

func (d *planRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	val, err := d.cache.Get(ctx, planListKey)
	if err == nil {
		var plans []*model.Plan
		if json.Unmarshal([]byte(val), &plans) == nil {
			metrics.IncCacheRequest("plan_list", "hit")
			return plans, nil
		}
	}

	metrics.IncCacheRequest("plan_list", "miss")
	plans, err := d.inner.ListAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	if len(plans) > 0 {
		if bytes, err := json.Marshal(plans); err == nil {
			_ = d.cache.Set(ctx, planListKey, bytes, d.ttl)
		}
	}
	return plans, nil
}

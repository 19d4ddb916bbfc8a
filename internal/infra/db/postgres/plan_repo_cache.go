// File: internal/infra/db/postgres/plan_repo_cache.go
package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/repository"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/metrics"
	red "github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/infra/redis"
)

var _ repository.SubscriptionPlanRepository = (*planRepoCacheDecorator)(nil)

// planRepoCacheDecorator caches plan reads in Redis. Plans change rarely
// and are read on every callback that carries a plan reference.
type planRepoCacheDecorator struct {
	inner repository.SubscriptionPlanRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewPlanRepoCacheDecorator(inner repository.SubscriptionPlanRepository, cache red.RedisClient) repository.SubscriptionPlanRepository {
	return &planRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   1 * time.Hour,
	}
}

func (d *planRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	key := "plan:" + id
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var plan model.SubscriptionPlan
		if json.Unmarshal([]byte(val), &plan) == nil {
			metrics.IncCacheRequest("plan", "hit")
			return &plan, nil
		}
	} else if err != redis.Nil {
		// Redis unavailable: fall through to the database.
	}

	metrics.IncCacheRequest("plan", "miss")
	plan, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b, merr := json.Marshal(plan); merr == nil {
		d.cache.Set(ctx, key, b, d.ttl)
	}
	return plan, nil
}

// Save invalidates both the single-plan entry and the full list.
func (d *planRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, plan *model.SubscriptionPlan) error {
	d.cache.Del(ctx, "plan:"+plan.ID, "plans:all")
	return d.inner.Save(ctx, tx, plan)
}

func (d *planRepoCacheDecorator) ListAll(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	const key = "plans:all"
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var plans []*model.SubscriptionPlan
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
		if b, merr := json.Marshal(plans); merr == nil {
			d.cache.Set(ctx, key, b, d.ttl)
		}
	}
	return plans, nil
}

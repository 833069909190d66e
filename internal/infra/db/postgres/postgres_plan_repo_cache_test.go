//go:build !integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spotsong-billing/internal/domain"
	"spotsong-billing/internal/domain/model"
	"spotsong-billing/internal/domain/ports/repository"
	red "spotsong-billing/internal/infra/redis"
)

// fakeRedis is an in-memory stand-in for the cache, honoring the miss
// sentinel the decorator relies on.
type fakeRedis struct {
	store map[string]string
}

func newFakeRedis() *fakeRedis { return &fakeRedis{store: make(map[string]string)} }

func (f *fakeRedis) Ping(ctx context.Context) error { return nil }

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.store[key] = string(v)
	case string:
		f.store[key] = v
	}
	return nil
}

func (f *fakeRedis) Get(ctx context.Context, key string) (string, error) {
	v, ok := f.store[key]
	if !ok {
		return "", red.Nil
	}
	return v, nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.store, k)
	}
	return nil
}

func (f *fakeRedis) Close() error { return nil }

var _ red.RedisClient = (*fakeRedis)(nil)

// fakePlanRepo counts how often each read actually reaches the store.
type fakePlanRepo struct {
	plans []*model.Plan

	listCalls    int
	resolveCalls int
	listErr      error
}

func (f *fakePlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	cp := *plan
	f.plans = append(f.plans, &cp)
	return nil
}

func (f *fakePlanRepo) ResolveAt(ctx context.Context, tx repository.Tx, name string, asOf time.Time) (*model.Plan, error) {
	f.resolveCalls++
	for i := len(f.plans) - 1; i >= 0; i-- {
		if f.plans[i].Name == name && !f.plans[i].EffectiveFrom.After(asOf) {
			cp := *f.plans[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakePlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*model.Plan, 0, len(f.plans))
	for _, p := range f.plans {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

var _ repository.PlanRepository = (*fakePlanRepo)(nil)

func testPlan(id, name, price string) *model.Plan {
	d, _ := decimal.NewFromString(price)
	return &model.Plan{
		ID:            id,
		Name:          name,
		Price:         d,
		DaysPeriod:    30,
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestPlanRepoCacheDecorator(t *testing.T) {
	ctx := context.Background()

	t.Run("should serve the list from cache after the first read", func(t *testing.T) {
		// --- Arrange ---
		inner := &fakePlanRepo{plans: []*model.Plan{testPlan("p1", "monthly", "7.99")}}
		decorator := NewPlanRepoCacheDecorator(inner, newFakeRedis())

		// --- Act ---
		first, err := decorator.ListAll(ctx, repository.NoTX)
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		second, err := decorator.ListAll(ctx, repository.NoTX)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if inner.listCalls != 1 {
			t.Errorf("expected exactly 1 store read, got %d", inner.listCalls)
		}
		if len(first) != 1 || len(second) != 1 {
			t.Fatalf("expected 1 plan from both reads, got %d and %d", len(first), len(second))
		}
		if second[0].ID != "p1" || !second[0].Price.Equal(first[0].Price) {
			t.Error("expected the cached list to round-trip intact")
		}
	})

	t.Run("should invalidate the cached list on save", func(t *testing.T) {
		// --- Arrange ---
		inner := &fakePlanRepo{plans: []*model.Plan{testPlan("p1", "monthly", "7.99")}}
		decorator := NewPlanRepoCacheDecorator(inner, newFakeRedis())
		if _, err := decorator.ListAll(ctx, repository.NoTX); err != nil {
			t.Fatalf("failed to warm the cache: %v", err)
		}

		// --- Act ---
		if err := decorator.Save(ctx, repository.NoTX, testPlan("p2", "monthly", "9.99")); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		plans, err := decorator.ListAll(ctx, repository.NoTX)

		// --- Assert ---
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if inner.listCalls != 2 {
			t.Errorf("expected the list to be re-read after save, got %d store reads", inner.listCalls)
		}
		if len(plans) != 2 {
			t.Errorf("expected 2 plans after the new version, got %d", len(plans))
		}
	})

	t.Run("should never serve resolution from cache", func(t *testing.T) {
		// --- Arrange ---
		inner := &fakePlanRepo{plans: []*model.Plan{testPlan("p1", "monthly", "7.99")}}
		decorator := NewPlanRepoCacheDecorator(inner, newFakeRedis())
		asOf := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

		// --- Act ---
		for i := 0; i < 3; i++ {
			if _, err := decorator.ResolveAt(ctx, repository.NoTX, "monthly", asOf); err != nil {
				t.Fatalf("expected no error, but got: %v", err)
			}
		}

		// --- Assert ---
		if inner.resolveCalls != 3 {
			t.Errorf("expected every resolution to reach the store, got %d", inner.resolveCalls)
		}
	})

	t.Run("should not cache an empty list", func(t *testing.T) {
		// --- Arrange ---
		inner := &fakePlanRepo{}
		decorator := NewPlanRepoCacheDecorator(inner, newFakeRedis())

		// --- Act ---
		_, _ = decorator.ListAll(ctx, repository.NoTX)
		_, _ = decorator.ListAll(ctx, repository.NoTX)

		// --- Assert ---
		if inner.listCalls != 2 {
			t.Errorf("expected both reads to reach the store, got %d", inner.listCalls)
		}
	})

	t.Run("should propagate store errors on a cache miss", func(t *testing.T) {
		// --- Arrange ---
		inner := &fakePlanRepo{listErr: domain.ErrStorageFailure}
		decorator := NewPlanRepoCacheDecorator(inner, newFakeRedis())

		// --- Act ---
		_, err := decorator.ListAll(ctx, repository.NoTX)

		// --- Assert ---
		if !errors.Is(err, domain.ErrStorageFailure) {
			t.Fatalf("expected ErrStorageFailure, but got: %v", err)
		}
	})
}

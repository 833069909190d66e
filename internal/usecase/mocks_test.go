//go:build !integration

package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/shopspring/decimal"

	"spotsong-billing/internal/domain"
	"spotsong-billing/internal/domain/model"
	"spotsong-billing/internal/domain/ports/repository"
)

// MockTxManager runs the callback without a real transaction; repositories in
// these tests are in-memory so there is nothing to roll back.
type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
	Calls      int
}

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// MockSettlementGuard records acquisitions.
type MockSettlementGuard struct {
	AcquireFunc func(ctx context.Context, tx repository.Tx) error
	Acquired    int
}

func NewMockSettlementGuard() *MockSettlementGuard { return &MockSettlementGuard{} }

func (m *MockSettlementGuard) Acquire(ctx context.Context, tx repository.Tx) error {
	m.Acquired++
	if m.AcquireFunc != nil {
		return m.AcquireFunc(ctx, tx)
	}
	return nil
}

// MockPlanRepo is a small in-memory plan store with per-method overrides.
type MockPlanRepo struct {
	mu    sync.RWMutex
	plans []*model.Plan

	SaveFunc      func(ctx context.Context, tx repository.Tx, plan *model.Plan) error
	ResolveAtFunc func(ctx context.Context, tx repository.Tx, name string, asOf time.Time) (*model.Plan, error)
	ListAllFunc   func(ctx context.Context, tx repository.Tx) ([]*model.Plan, error)
}

func NewMockPlanRepo() *MockPlanRepo { return &MockPlanRepo{} }

func (m *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.Plan) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, plan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *plan
	m.plans = append(m.plans, &cp)
	return nil
}

func (m *MockPlanRepo) ResolveAt(ctx context.Context, tx repository.Tx, name string, asOf time.Time) (*model.Plan, error) {
	if m.ResolveAtFunc != nil {
		return m.ResolveAtFunc(ctx, tx, name, asOf)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *model.Plan
	for _, p := range m.plans {
		if p.Name != name || p.EffectiveFrom.After(asOf) {
			continue
		}
		if best == nil || p.EffectiveFrom.After(best.EffectiveFrom) {
			best = p
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *MockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx, tx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Plan, 0, len(m.plans))
	for _, p := range m.plans {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// MockCardRepo is an in-memory card store keyed by code.
type MockCardRepo struct {
	mu    sync.RWMutex
	cards map[string]*model.Card

	InsertFunc              func(ctx context.Context, tx repository.Tx, card *model.Card) error
	FindEligibleByCodesFunc func(ctx context.Context, tx repository.Tx, codes []string, now time.Time) ([]*model.Card, error)
	DeductFunc              func(ctx context.Context, tx repository.Tx, cardID string, amount decimal.Decimal) error

	InsertCalls int
	DeductCalls []string // card ids, in call order
}

func NewMockCardRepo() *MockCardRepo {
	return &MockCardRepo{cards: make(map[string]*model.Card)}
}

func (m *MockCardRepo) Insert(ctx context.Context, tx repository.Tx, card *model.Card) error {
	m.InsertCalls++
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, card)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.cards[card.Code]; exists {
		return domain.ErrConflict
	}
	cp := *card
	m.cards[card.Code] = &cp
	return nil
}

func (m *MockCardRepo) FindEligibleByCodes(ctx context.Context, tx repository.Tx, codes []string, now time.Time) ([]*model.Card, error) {
	if m.FindEligibleByCodesFunc != nil {
		return m.FindEligibleByCodesFunc(ctx, tx, codes, now)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Card
	for _, code := range codes {
		if c, ok := m.cards[code]; ok && c.Eligible(now) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Expire.Equal(out[j].Expire) {
			return out[i].Expire.Before(out[j].Expire)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MockCardRepo) Deduct(ctx context.Context, tx repository.Tx, cardID string, amount decimal.Decimal) error {
	m.DeductCalls = append(m.DeductCalls, cardID)
	if m.DeductFunc != nil {
		return m.DeductFunc(ctx, tx, cardID, amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.cards {
		if c.ID == cardID {
			if c.Balance.LessThan(amount) {
				return domain.ErrStorageFailure
			}
			c.Balance = c.Balance.Sub(amount)
			return nil
		}
	}
	return domain.ErrStorageFailure
}

func (m *MockCardRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.cards[code]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

// Seed stores a card directly, bypassing Insert bookkeeping.
func (m *MockCardRepo) Seed(card *model.Card) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *card
	m.cards[card.Code] = &cp
}

// Balances snapshots card balances by id.
func (m *MockCardRepo) Balances() map[string]decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(m.cards))
	for _, c := range m.cards {
		out[c.ID] = c.Balance
	}
	return out
}

// MockSubscriptionRepo is an in-memory subscription store.
type MockSubscriptionRepo struct {
	mu   sync.RWMutex
	subs []*model.Subscription

	InsertFunc           func(ctx context.Context, tx repository.Tx, sub *model.Subscription) error
	FindLatestActiveFunc func(ctx context.Context, tx repository.Tx, principal string, now time.Time) (*model.Subscription, error)
}

func NewMockSubscriptionRepo() *MockSubscriptionRepo { return &MockSubscriptionRepo{} }

func (m *MockSubscriptionRepo) Insert(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, tx, sub)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.subs = append(m.subs, &cp)
	return nil
}

func (m *MockSubscriptionRepo) FindLatestActive(ctx context.Context, tx repository.Tx, principal string, now time.Time) (*model.Subscription, error) {
	if m.FindLatestActiveFunc != nil {
		return m.FindLatestActiveFunc(ctx, tx, principal, now)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *model.Subscription
	for _, s := range m.subs {
		if s.ConsumerPrincipal != principal || s.EndAt.Before(now) {
			continue
		}
		if best == nil || s.EndAt.After(best.EndAt) {
			best = s
		}
	}
	if best == nil {
		return nil, domain.ErrNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *MockSubscriptionRepo) ListByConsumer(ctx context.Context, tx repository.Tx, principal string) ([]*model.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Subscription
	for _, s := range m.subs {
		if s.ConsumerPrincipal == principal {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

// All snapshots every stored subscription.
func (m *MockSubscriptionRepo) All() []*model.Subscription {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Subscription, 0, len(m.subs))
	for _, s := range m.subs {
		cp := *s
		out = append(out, &cp)
	}
	return out
}

// MockPostingRepo is an in-memory posting store.
type MockPostingRepo struct {
	mu       sync.RWMutex
	postings []*model.Posting

	InsertBatchFunc func(ctx context.Context, tx repository.Tx, postings []*model.Posting) error
}

func NewMockPostingRepo() *MockPostingRepo { return &MockPostingRepo{} }

func (m *MockPostingRepo) InsertBatch(ctx context.Context, tx repository.Tx, postings []*model.Posting) error {
	if m.InsertBatchFunc != nil {
		return m.InsertBatchFunc(ctx, tx, postings)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range postings {
		cp := *p
		m.postings = append(m.postings, &cp)
	}
	return nil
}

func (m *MockPostingRepo) ListBySubscription(ctx context.Context, tx repository.Tx, subscriptionID string) ([]*model.Posting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*model.Posting
	for _, p := range m.postings {
		if p.SubscriptionID == subscriptionID {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockPostingRepo) SumByCard(ctx context.Context, tx repository.Tx, cardID string) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sum := decimal.Zero
	for _, p := range m.postings {
		if p.CardID == cardID {
			sum = sum.Add(p.Cost)
		}
	}
	return sum, nil
}

// All snapshots every stored posting.
func (m *MockPostingRepo) All() []*model.Posting {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.Posting, 0, len(m.postings))
	for _, p := range m.postings {
		cp := *p
		out = append(out, &cp)
	}
	return out
}

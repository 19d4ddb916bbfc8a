//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/model"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/adapter"
	"github.com/MirabbosEgamberdiyev2001/edu-project-sub002/internal/domain/ports/repository"
)

// ---- Mock PaymentRepository ----

// MockPaymentRepo is an in-memory ledger that mirrors the Postgres repo's
// contract: Insert enforces the (provider, order_id) unique key and
// UpdateVersioned is a real compare-and-swap guarded by a mutex, so the
// concurrency tests exercise the same race arbitration the engine sees in
// production.
type MockPaymentRepo struct {
	mu      sync.Mutex
	data    map[string]*model.Payment // by id
	byKey   map[string]string         // provider+order_id -> id
	inserts int

	InsertFunc           func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	UpdateVersionedFunc  func(ctx context.Context, tx repository.Tx, p *model.Payment, expectedVersion int64) (bool, error)
	LinkSubscriptionFunc func(ctx context.Context, tx repository.Tx, paymentID, subscriptionID string) error
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{data: map[string]*model.Payment{}, byKey: map[string]string{}}
}

func key(provider model.PaymentProvider, orderID string) string {
	return string(provider) + "|" + orderID
}

func (r *MockPaymentRepo) Insert(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if r.InsertFunc != nil {
		return r.InsertFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	k := key(p.Provider, p.OrderID)
	if _, exists := r.byKey[k]; exists {
		return domain.ErrAlreadyExists
	}
	cp := *p
	r.data[p.ID] = &cp
	r.byKey[k] = p.ID
	r.inserts++
	return nil
}

// InsertCount reports how many rows Insert actually wrote.
func (r *MockPaymentRepo) InsertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inserts
}

func (r *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) FindByProviderOrder(ctx context.Context, tx repository.Tx, provider model.PaymentProvider, orderID string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byKey[key(provider, orderID)]; ok {
		cp := *r.data[id]
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) FindByExternalTx(ctx context.Context, tx repository.Tx, provider model.PaymentProvider, externalTxID string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		if p.Provider == provider && externalTxID != "" && p.ExternalTxID == externalTxID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) UpdateVersioned(ctx context.Context, tx repository.Tx, p *model.Payment, expectedVersion int64) (bool, error) {
	if r.UpdateVersionedFunc != nil {
		return r.UpdateVersionedFunc(ctx, tx, p, expectedVersion)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.data[p.ID]
	if !ok {
		return false, domain.ErrNotFound
	}
	if cur.Version != expectedVersion {
		return false, nil
	}
	cp := *p
	cp.Version = expectedVersion + 1
	cp.UpdatedAt = time.Now()
	// Fields the conditional update never touches keep their stored values.
	cp.SubscriptionID = cur.SubscriptionID
	r.data[p.ID] = &cp
	p.Version = cp.Version
	return true, nil
}

func (r *MockPaymentRepo) LinkSubscription(ctx context.Context, tx repository.Tx, paymentID, subscriptionID string) error {
	if r.LinkSubscriptionFunc != nil {
		return r.LinkSubscriptionFunc(ctx, tx, paymentID, subscriptionID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[paymentID]
	if !ok {
		return domain.ErrNotFound
	}
	p.SubscriptionID = &subscriptionID
	return nil
}

func (r *MockPaymentRepo) ListCreatedBetween(ctx context.Context, tx repository.Tx, provider model.PaymentProvider, from, to time.Time) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		if p.Provider != provider || p.CreateTime == nil {
			continue
		}
		if p.CreateTime.Before(from) || p.CreateTime.After(to) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MockPaymentRepo) ListActivationBacklog(ctx context.Context, tx repository.Tx, limit int) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		if p.SubActivated && p.SubscriptionID == nil {
			cp := *p
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *MockPaymentRepo) List(ctx context.Context, tx repository.Tx, offset, limit int) ([]*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		cp := *p
		out = append(out, &cp)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Get reads the stored row directly, bypassing the repository interface.
func (r *MockPaymentRepo) Get(id string) *model.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp
	}
	return nil
}

// ---- Mock SubscriptionPlanRepository ----

type MockPlanRepo struct {
	mu   sync.Mutex
	data map[string]*model.SubscriptionPlan
}

var _ repository.SubscriptionPlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{data: map[string]*model.SubscriptionPlan{}}
}

func (r *MockPlanRepo) Save(ctx context.Context, tx repository.Tx, plan *model.SubscriptionPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *plan
	r.data[plan.ID] = &cp
	return nil
}

func (r *MockPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.SubscriptionPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.SubscriptionPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.SubscriptionPlan, 0, len(r.data))
	for _, p := range r.data {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

// ---- Mock SubscriptionRepository ----

type MockSubscriptionRepo struct {
	mu          sync.Mutex
	data        map[string]*model.UserSubscription
	activations map[string]string // payment id -> subscription id
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{
		data:        map[string]*model.UserSubscription{},
		activations: map[string]string{},
	}
}

func (r *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, sub *model.UserSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *sub
	r.data[sub.ID] = &cp
	return nil
}

func (r *MockSubscriptionRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.data[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.UserSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.data {
		if s.UserID == userID && s.Status == model.SubscriptionStatusActive {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockSubscriptionRepo) FindActivationByPayment(ctx context.Context, tx repository.Tx, paymentID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if subID, ok := r.activations[paymentID]; ok {
		return subID, nil
	}
	return "", domain.ErrNotFound
}

func (r *MockSubscriptionRepo) SaveActivation(ctx context.Context, tx repository.Tx, paymentID, subscriptionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.activations[paymentID]; !ok {
		r.activations[paymentID] = subscriptionID
	}
	return nil
}

func (r *MockSubscriptionRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx runs the function immediately without a real transaction. Assign
// WithTxFunc to control transactional behavior in a specific test.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// ---- Mock SubscriptionActivator ----

type MockActivator struct {
	mu    sync.Mutex
	calls int

	ActivateFunc func(ctx context.Context, p *model.Payment) (string, error)
}

var _ adapter.SubscriptionActivator = (*MockActivator)(nil)

func (m *MockActivator) ActivateOrExtend(ctx context.Context, p *model.Payment) (string, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.ActivateFunc != nil {
		return m.ActivateFunc(ctx, p)
	}
	return "sub-" + p.ID, nil
}

// Calls reports how many times the collaborator was invoked.
func (m *MockActivator) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ---- Mock CheckoutLinker ----

type MockLinker struct {
	provider model.PaymentProvider
	URLFunc  func(ctx context.Context, p *model.Payment) (string, error)
}

var _ adapter.CheckoutLinker = (*MockLinker)(nil)

func (m *MockLinker) Provider() model.PaymentProvider { return m.provider }

func (m *MockLinker) CheckoutURL(ctx context.Context, p *model.Payment) (string, error) {
	if m.URLFunc != nil {
		return m.URLFunc(ctx, p)
	}
	return "https://pay.example/" + p.OrderID, nil
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

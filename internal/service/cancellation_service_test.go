package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"subtrackr-be/internal/dto"
	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/repository/contract"
	"subtrackr-be/internal/repository/memory"
	"subtrackr-be/internal/repository/specification"
	"subtrackr-be/internal/repository/unitofwork"
	"subtrackr-be/pkg/cancellation"
	"subtrackr-be/pkg/provider"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// The store is shared between the request goroutine and the background
// dispatch goroutine, so every fake guards its maps.
type stubStore struct {
	mu          sync.Mutex
	requests    map[uuid.UUID]*entity.CancellationRequest
	attempts    []*entity.CancellationAttempt
	subs        map[uuid.UUID]*entity.Subscription
	provs       map[uuid.UUID]*entity.Provider
	failFindOne error
}

func newStubStore() *stubStore {
	return &stubStore{
		requests: make(map[uuid.UUID]*entity.CancellationRequest),
		subs:     make(map[uuid.UUID]*entity.Subscription),
		provs:    make(map[uuid.UUID]*entity.Provider),
	}
}

type stubCancellationRepo struct{ store *stubStore }

func (r *stubCancellationRepo) Create(_ context.Context, req *entity.CancellationRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	clone := *req
	r.store.requests[req.ID] = &clone
	return nil
}

func (r *stubCancellationRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.CancellationRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failFindOne != nil {
		return nil, r.store.failFindOne
	}
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			if req, found := r.store.requests[byID.ID]; found {
				clone := *req
				return &clone, nil
			}
		}
	}
	return nil, nil
}

func (r *stubCancellationRepo) FindOneWithLog(_ context.Context, id uuid.UUID) (*entity.CancellationRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	req, found := r.store.requests[id]
	if !found {
		return nil, nil
	}
	clone := *req
	for _, a := range r.store.attempts {
		if a.RequestID == id {
			clone.AutomationLog = append(clone.AutomationLog, *a)
		}
	}
	return &clone, nil
}

func (r *stubCancellationRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*entity.CancellationRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var bySub *specification.BySubscriptionID
	var byUser *specification.ByUserID
	nonTerminal := false
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.BySubscriptionID:
			bySub = &s
		case specification.ByUserID:
			byUser = &s
		case specification.NonTerminal:
			nonTerminal = true
		}
	}

	var out []*entity.CancellationRequest
	for _, req := range r.store.requests {
		if bySub != nil && req.SubscriptionID != bySub.SubscriptionID {
			continue
		}
		if byUser != nil && req.UserID != byUser.UserID {
			continue
		}
		if nonTerminal && req.Status.IsTerminal() {
			continue
		}
		clone := *req
		out = append(out, &clone)
	}
	return out, nil
}

func (r *stubCancellationRepo) Update(_ context.Context, req *entity.CancellationRequest) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	clone := *req
	r.store.requests[req.ID] = &clone
	return nil
}

func (r *stubCancellationRepo) TransitionToProcessing(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	req, found := r.store.requests[id]
	if !found {
		return false, nil
	}
	eligible := req.Status == entity.RequestStatusPending ||
		(req.Status == entity.RequestStatusFailed && req.NextRetryAt != nil && !req.NextRetryAt.After(now))
	if !eligible {
		return false, nil
	}
	req.Status = entity.RequestStatusProcessing
	req.Attempts++
	req.LastAttemptAt = &now
	req.NextRetryAt = nil
	return true, nil
}

func (r *stubCancellationRepo) FindDueForRetry(_ context.Context, now time.Time, limit int) ([]*entity.CancellationRequest, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var due []*entity.CancellationRequest
	for _, req := range r.store.requests {
		if req.Status == entity.RequestStatusFailed && req.NextRetryAt != nil && !req.NextRetryAt.After(now) {
			clone := *req
			due = append(due, &clone)
		}
		if limit > 0 && len(due) >= limit {
			break
		}
	}
	return due, nil
}

func (r *stubCancellationRepo) AppendAttempt(_ context.Context, attempt *entity.CancellationAttempt) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	clone := *attempt
	r.store.attempts = append(r.store.attempts, &clone)
	return nil
}

func (r *stubCancellationRepo) CountAttempts(_ context.Context, requestID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, a := range r.store.attempts {
		if a.RequestID == requestID {
			n++
		}
	}
	return n, nil
}

func (r *stubCancellationRepo) DeleteAllByUserIdUnscoped(_ context.Context, userId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, req := range r.store.requests {
		if req.UserID == userId {
			delete(r.store.requests, id)
		}
	}
	return nil
}

type stubSubscriptionRepo struct{ store *stubStore }

func (r *stubSubscriptionRepo) Create(_ context.Context, sub *entity.Subscription) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	clone := *sub
	r.store.subs[sub.ID] = &clone
	return nil
}

func (r *stubSubscriptionRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Subscription, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			if sub, found := r.store.subs[byID.ID]; found {
				clone := *sub
				return &clone, nil
			}
		}
	}
	return nil, nil
}

func (r *stubSubscriptionRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.Subscription, error) {
	return nil, nil
}

func (r *stubSubscriptionRepo) Update(_ context.Context, sub *entity.Subscription) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	clone := *sub
	r.store.subs[sub.ID] = &clone
	return nil
}

func (r *stubSubscriptionRepo) UpdateStatus(_ context.Context, id uuid.UUID, status entity.SubscriptionStatus) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if sub, ok := r.store.subs[id]; ok {
		sub.Status = status
	}
	return nil
}

func (r *stubSubscriptionRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.subs, id)
	return nil
}

type stubProviderRepo struct{ store *stubStore }

func (r *stubProviderRepo) Upsert(_ context.Context, p *entity.Provider) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	clone := *p
	r.store.provs[p.ID] = &clone
	return nil
}

func (r *stubProviderRepo) FindOne(_ context.Context, _ ...specification.Specification) (*entity.Provider, error) {
	return nil, nil
}

func (r *stubProviderRepo) FindBySlug(_ context.Context, slug string) (*entity.Provider, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, p := range r.store.provs {
		if p.Slug == slug {
			clone := *p
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *stubProviderRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Provider, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if p, found := r.store.provs[id]; found {
		clone := *p
		return &clone, nil
	}
	return nil, nil
}

func (r *stubProviderRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.Provider, error) {
	return nil, nil
}

type stubUnitOfWork struct{ store *stubStore }

func (u *stubUnitOfWork) Begin(context.Context) error { return nil }
func (u *stubUnitOfWork) Commit() error               { return nil }
func (u *stubUnitOfWork) Rollback() error             { return nil }

func (u *stubUnitOfWork) UserRepository() contract.UserRepository             { return nil }
func (u *stubUnitOfWork) MembershipRepository() contract.MembershipRepository { return nil }
func (u *stubUnitOfWork) SubscriptionRepository() contract.SubscriptionRepository {
	return &stubSubscriptionRepo{store: u.store}
}
func (u *stubUnitOfWork) TransactionRepository() contract.TransactionRepository { return nil }
func (u *stubUnitOfWork) ProviderRepository() contract.ProviderRepository {
	return &stubProviderRepo{store: u.store}
}
func (u *stubUnitOfWork) CancellationRepository() contract.CancellationRepository {
	return &stubCancellationRepo{store: u.store}
}

type stubFactory struct{ store *stubStore }

func (f *stubFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return &stubUnitOfWork{store: f.store}
}

type serviceFixture struct {
	store   *stubStore
	cache   *memory.ProgressCache
	service ICancellationService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	store := newStubStore()
	factory := &stubFactory{store: store}
	cache := memory.NewProgressCache()
	sink := NewNatsProgressSink(nil, cache, nopLogger{})
	orch := cancellation.NewOrchestrator(nopLogger{}, provider.NewRegistry(), sink, 5*time.Minute, 24*time.Hour)
	svc := NewCancellationService(factory, orch, sink, cache, nil, nopLogger{}, 3)
	return &serviceFixture{store: store, cache: cache, service: svc}
}

func (f *serviceFixture) seedSubscription(userID uuid.UUID, status entity.SubscriptionStatus, prov *entity.Provider) *entity.Subscription {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()

	sub := &entity.Subscription{
		ID:           uuid.New(),
		UserID:       userID,
		MerchantName: "Acme Streaming",
		Status:       status,
	}
	if prov != nil {
		if prov.ID == uuid.Nil {
			prov.ID = uuid.New()
		}
		f.store.provs[prov.ID] = prov
		sub.ProviderID = &prov.ID
	}
	f.store.subs[sub.ID] = sub
	return sub
}

func (f *serviceFixture) requestStatus(id uuid.UUID) entity.RequestStatus {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	if req, ok := f.store.requests[id]; ok {
		return req.Status
	}
	return ""
}

func TestCreateRequestRejectsUnknownSubscription(t *testing.T) {
	f := newServiceFixture(t)
	userID := uuid.New()

	_, err := f.service.CreateRequest(context.Background(), userID, &dto.CreateCancellationRequest{
		SubscriptionId: uuid.New(),
	})
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestCreateRequestRejectsForeignSubscription(t *testing.T) {
	f := newServiceFixture(t)
	owner := uuid.New()
	sub := f.seedSubscription(owner, entity.SubscriptionStatusActive, nil)

	_, err := f.service.CreateRequest(context.Background(), uuid.New(), &dto.CreateCancellationRequest{
		SubscriptionId: sub.ID,
	})
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)
}

func TestCreateRequestRejectsInactiveSubscription(t *testing.T) {
	f := newServiceFixture(t)
	userID := uuid.New()
	sub := f.seedSubscription(userID, entity.SubscriptionStatusCancelled, nil)

	_, err := f.service.CreateRequest(context.Background(), userID, &dto.CreateCancellationRequest{
		SubscriptionId: sub.ID,
	})
	assert.ErrorIs(t, err, ErrSubscriptionNotActive)
}

func TestCreateRequestRejectsSecondActiveRequest(t *testing.T) {
	f := newServiceFixture(t)
	userID := uuid.New()
	sub := f.seedSubscription(userID, entity.SubscriptionStatusActive, nil)

	first, err := f.service.CreateRequest(context.Background(), userID, &dto.CreateCancellationRequest{
		SubscriptionId: sub.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, first)

	_, err = f.service.CreateRequest(context.Background(), userID, &dto.CreateCancellationRequest{
		SubscriptionId: sub.ID,
	})
	assert.ErrorIs(t, err, ErrCancellationInFlight)
}

func TestCreateRequestSelectsMethodFromCapabilities(t *testing.T) {
	f := newServiceFixture(t)
	userID := uuid.New()
	prov := &entity.Provider{
		Slug: "acme", Name: "Acme",
		SupportsAPI: true, APIConfigured: true,
	}
	sub := f.seedSubscription(userID, entity.SubscriptionStatusActive, prov)

	res, err := f.service.CreateRequest(context.Background(), userID, &dto.CreateCancellationRequest{
		SubscriptionId: sub.ID,
		Priority:       "high",
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.MethodAPI), res.Method)
	assert.Equal(t, string(entity.RequestStatusPending), res.Status)

	// No connector is registered, so the background dispatch records a
	// failed attempt and schedules a retry.
	require.Eventually(t, func() bool {
		return f.requestStatus(res.RequestId) == entity.RequestStatusFailed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCreateRequestWithoutProviderEscalatesToManual(t *testing.T) {
	f := newServiceFixture(t)
	userID := uuid.New()
	sub := f.seedSubscription(userID, entity.SubscriptionStatusActive, nil)

	res, err := f.service.CreateRequest(context.Background(), userID, &dto.CreateCancellationRequest{
		SubscriptionId: sub.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.MethodManual), res.Method)

	require.Eventually(t, func() bool {
		return f.requestStatus(res.RequestId) == entity.RequestStatusRequiresManual
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetStatusHonorsOwnership(t *testing.T) {
	f := newServiceFixture(t)
	userID := uuid.New()
	sub := f.seedSubscription(userID, entity.SubscriptionStatusActive, nil)

	res, err := f.service.CreateRequest(context.Background(), userID, &dto.CreateCancellationRequest{
		SubscriptionId: sub.ID,
	})
	require.NoError(t, err)

	_, err = f.service.GetStatus(context.Background(), uuid.New(), res.RequestId)
	assert.ErrorIs(t, err, ErrCancellationNotFound)

	status, err := f.service.GetStatus(context.Background(), userID, res.RequestId)
	require.NoError(t, err)
	assert.Equal(t, res.RequestId, status.Id)
}

func TestGetStatusOverlaysCachedProgressOnlyWhenAhead(t *testing.T) {
	f := newServiceFixture(t)
	userID := uuid.New()
	sub := f.seedSubscription(userID, entity.SubscriptionStatusActive, nil)

	res, err := f.service.CreateRequest(context.Background(), userID, &dto.CreateCancellationRequest{
		SubscriptionId: sub.ID,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.requestStatus(res.RequestId) == entity.RequestStatusRequiresManual
	}, 2*time.Second, 10*time.Millisecond)

	// A stale snapshot behind the database state must not win.
	f.cache.Save(cancellation.ProgressEvent{
		RequestID: res.RequestId,
		UserID:    userID,
		Status:    entity.RequestStatusProcessing,
		Message:   "stale",
		Progress:  10,
	})

	status, err := f.service.GetStatus(context.Background(), userID, res.RequestId)
	require.NoError(t, err)
	assert.Equal(t, 90, status.Progress)
	assert.NotEqual(t, "stale", status.ProgressMessage)
}

func TestListReturnsOnlyOwnRequests(t *testing.T) {
	f := newServiceFixture(t)
	alice := uuid.New()
	bob := uuid.New()
	aliceSub := f.seedSubscription(alice, entity.SubscriptionStatusActive, nil)
	bobSub := f.seedSubscription(bob, entity.SubscriptionStatusActive, nil)

	_, err := f.service.CreateRequest(context.Background(), alice, &dto.CreateCancellationRequest{SubscriptionId: aliceSub.ID})
	require.NoError(t, err)
	_, err = f.service.CreateRequest(context.Background(), bob, &dto.CreateCancellationRequest{SubscriptionId: bobSub.ID})
	require.NoError(t, err)

	items, err := f.service.List(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, aliceSub.ID, items[0].SubscriptionId)
}

func TestRetryWrapsOrchestratorRejections(t *testing.T) {
	f := newServiceFixture(t)
	userID := uuid.New()
	sub := f.seedSubscription(userID, entity.SubscriptionStatusActive, nil)

	res, err := f.service.CreateRequest(context.Background(), userID, &dto.CreateCancellationRequest{
		SubscriptionId: sub.ID,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.requestStatus(res.RequestId) == entity.RequestStatusRequiresManual
	}, 2*time.Second, 10*time.Millisecond)

	// requires_manual is not retryable.
	_, err = f.service.Retry(context.Background(), userID, res.RequestId)
	assert.True(t, errors.Is(err, ErrCancellationBadRequest))
}

func TestRetrySeparatesValidationFromInfrastructureErrors(t *testing.T) {
	f := newServiceFixture(t)
	userID := uuid.New()

	_, err := f.service.Retry(context.Background(), userID, uuid.New())
	assert.ErrorIs(t, err, ErrCancellationNotFound)

	f.store.mu.Lock()
	f.store.failFindOne = errors.New("connection refused")
	f.store.mu.Unlock()

	_, err = f.service.Retry(context.Background(), userID, uuid.New())
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCancellationBadRequest), "infrastructure failures must not map to a client error")
	assert.False(t, errors.Is(err, ErrCancellationNotFound))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestConfirmManualClosesRequestAndClearsCache(t *testing.T) {
	f := newServiceFixture(t)
	userID := uuid.New()
	sub := f.seedSubscription(userID, entity.SubscriptionStatusActive, nil)

	res, err := f.service.CreateRequest(context.Background(), userID, &dto.CreateCancellationRequest{
		SubscriptionId: sub.ID,
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return f.requestStatus(res.RequestId) == entity.RequestStatusRequiresManual
	}, 2*time.Second, 10*time.Millisecond)

	code := "CONF-42"
	action, err := f.service.ConfirmManual(context.Background(), userID, res.RequestId, &dto.ConfirmManualRequest{
		WasSuccessful:    true,
		ConfirmationCode: &code,
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.RequestStatusCompleted), action.Status)

	_, cached := f.cache.Get(res.RequestId)
	assert.False(t, cached)

	status, err := f.service.GetStatus(context.Background(), userID, res.RequestId)
	require.NoError(t, err)
	assert.Equal(t, 100, status.Progress)
	require.NotNil(t, status.ConfirmationCode)
	assert.Equal(t, code, *status.ConfirmationCode)
}

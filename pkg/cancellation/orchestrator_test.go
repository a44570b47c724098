package cancellation

import (
	"context"
	"testing"
	"time"

	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/repository/contract"
	"subtrackr-be/internal/repository/specification"
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

type memorySink struct {
	events []ProgressEvent
}

func (s *memorySink) Publish(_ context.Context, event ProgressEvent) {
	s.events = append(s.events, event)
}

type scriptedConnector struct {
	method   string
	outcomes []provider.Outcome
	calls    int
}

func (c *scriptedConnector) Method() string { return c.method }

func (c *scriptedConnector) AttemptCancel(_ context.Context, _ provider.SubscriptionContext) provider.Outcome {
	idx := c.calls
	if idx >= len(c.outcomes) {
		idx = len(c.outcomes) - 1
	}
	c.calls++
	return c.outcomes[idx]
}

type fakeCancellationRepo struct {
	requests map[uuid.UUID]*entity.CancellationRequest
	attempts []*entity.CancellationAttempt
}

func newFakeCancellationRepo() *fakeCancellationRepo {
	return &fakeCancellationRepo{requests: make(map[uuid.UUID]*entity.CancellationRequest)}
}

func (r *fakeCancellationRepo) Create(_ context.Context, req *entity.CancellationRequest) error {
	clone := *req
	r.requests[req.ID] = &clone
	return nil
}

func (r *fakeCancellationRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.CancellationRequest, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			if req, found := r.requests[byID.ID]; found {
				clone := *req
				return &clone, nil
			}
		}
	}
	return nil, nil
}

func (r *fakeCancellationRepo) FindOneWithLog(_ context.Context, id uuid.UUID) (*entity.CancellationRequest, error) {
	req, found := r.requests[id]
	if !found {
		return nil, nil
	}
	clone := *req
	for _, a := range r.attempts {
		if a.RequestID == id {
			clone.AutomationLog = append(clone.AutomationLog, *a)
		}
	}
	return &clone, nil
}

func (r *fakeCancellationRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.CancellationRequest, error) {
	out := make([]*entity.CancellationRequest, 0, len(r.requests))
	for _, req := range r.requests {
		clone := *req
		out = append(out, &clone)
	}
	return out, nil
}

func (r *fakeCancellationRepo) Update(_ context.Context, req *entity.CancellationRequest) error {
	clone := *req
	r.requests[req.ID] = &clone
	return nil
}

func (r *fakeCancellationRepo) TransitionToProcessing(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	req, found := r.requests[id]
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

func (r *fakeCancellationRepo) FindDueForRetry(_ context.Context, now time.Time, limit int) ([]*entity.CancellationRequest, error) {
	var due []*entity.CancellationRequest
	for _, req := range r.requests {
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

func (r *fakeCancellationRepo) AppendAttempt(_ context.Context, attempt *entity.CancellationAttempt) error {
	clone := *attempt
	r.attempts = append(r.attempts, &clone)
	return nil
}

func (r *fakeCancellationRepo) CountAttempts(_ context.Context, requestID uuid.UUID) (int64, error) {
	var n int64
	for _, a := range r.attempts {
		if a.RequestID == requestID {
			n++
		}
	}
	return n, nil
}

func (r *fakeCancellationRepo) DeleteAllByUserIdUnscoped(_ context.Context, userId uuid.UUID) error {
	for id, req := range r.requests {
		if req.UserID == userId {
			delete(r.requests, id)
		}
	}
	return nil
}

type fakeSubscriptionRepo struct {
	subs     map[uuid.UUID]*entity.Subscription
	statuses map[uuid.UUID]entity.SubscriptionStatus
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{
		subs:     make(map[uuid.UUID]*entity.Subscription),
		statuses: make(map[uuid.UUID]entity.SubscriptionStatus),
	}
}

func (r *fakeSubscriptionRepo) Create(_ context.Context, sub *entity.Subscription) error {
	r.subs[sub.ID] = sub
	return nil
}

func (r *fakeSubscriptionRepo) FindOne(_ context.Context, specs ...specification.Specification) (*entity.Subscription, error) {
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			return r.subs[byID.ID], nil
		}
	}
	return nil, nil
}

func (r *fakeSubscriptionRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.Subscription, error) {
	return nil, nil
}

func (r *fakeSubscriptionRepo) Update(_ context.Context, sub *entity.Subscription) error {
	r.subs[sub.ID] = sub
	return nil
}

func (r *fakeSubscriptionRepo) UpdateStatus(_ context.Context, id uuid.UUID, status entity.SubscriptionStatus) error {
	r.statuses[id] = status
	if sub, ok := r.subs[id]; ok {
		sub.Status = status
	}
	return nil
}

func (r *fakeSubscriptionRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.subs, id)
	return nil
}

type fakeProviderRepo struct {
	providers map[uuid.UUID]*entity.Provider
}

func newFakeProviderRepo() *fakeProviderRepo {
	return &fakeProviderRepo{providers: make(map[uuid.UUID]*entity.Provider)}
}

func (r *fakeProviderRepo) Upsert(_ context.Context, p *entity.Provider) error {
	r.providers[p.ID] = p
	return nil
}

func (r *fakeProviderRepo) FindOne(_ context.Context, _ ...specification.Specification) (*entity.Provider, error) {
	return nil, nil
}

func (r *fakeProviderRepo) FindBySlug(_ context.Context, slug string) (*entity.Provider, error) {
	for _, p := range r.providers {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, nil
}

func (r *fakeProviderRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Provider, error) {
	return r.providers[id], nil
}

func (r *fakeProviderRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.Provider, error) {
	return nil, nil
}

type fakeUnitOfWork struct {
	cancellations *fakeCancellationRepo
	subscriptions *fakeSubscriptionRepo
	providers     *fakeProviderRepo
}

func newFakeUnitOfWork() *fakeUnitOfWork {
	return &fakeUnitOfWork{
		cancellations: newFakeCancellationRepo(),
		subscriptions: newFakeSubscriptionRepo(),
		providers:     newFakeProviderRepo(),
	}
}

func (u *fakeUnitOfWork) Begin(context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error               { return nil }
func (u *fakeUnitOfWork) Rollback() error             { return nil }

func (u *fakeUnitOfWork) UserRepository() contract.UserRepository             { return nil }
func (u *fakeUnitOfWork) MembershipRepository() contract.MembershipRepository { return nil }
func (u *fakeUnitOfWork) SubscriptionRepository() contract.SubscriptionRepository {
	return u.subscriptions
}
func (u *fakeUnitOfWork) TransactionRepository() contract.TransactionRepository { return nil }
func (u *fakeUnitOfWork) ProviderRepository() contract.ProviderRepository       { return u.providers }
func (u *fakeUnitOfWork) CancellationRepository() contract.CancellationRepository {
	return u.cancellations
}

type fixture struct {
	uow      *fakeUnitOfWork
	registry *provider.Registry
	sink     *memorySink
	orch     *Orchestrator
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		uow:      newFakeUnitOfWork(),
		registry: provider.NewRegistry(),
		sink:     &memorySink{},
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.orch = NewOrchestrator(nopLogger{}, f.registry, f.sink, 5*time.Minute, 24*time.Hour).
		WithClock(func() time.Time { return f.now })
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) seedRequest(t *testing.T, method entity.CancellationMethod, prov *entity.Provider) *entity.CancellationRequest {
	t.Helper()
	userID := uuid.New()
	sub := &entity.Subscription{
		ID:           uuid.New(),
		UserID:       userID,
		MerchantName: "Acme Streaming",
		Status:       entity.SubscriptionStatusActive,
	}
	require.NoError(t, f.uow.subscriptions.Create(context.Background(), sub))

	req := &entity.CancellationRequest{
		ID:             uuid.New(),
		UserID:         userID,
		SubscriptionID: sub.ID,
		Status:         entity.RequestStatusPending,
		Method:         method,
		Priority:       entity.PriorityNormal,
		MaxAttempts:    3,
	}
	if prov != nil {
		if prov.ID == uuid.Nil {
			prov.ID = uuid.New()
		}
		require.NoError(t, f.uow.providers.Upsert(context.Background(), prov))
		req.ProviderID = &prov.ID
	}
	require.NoError(t, f.uow.cancellations.Create(context.Background(), req))
	return req
}

func TestDispatchSuccessCompletesRequest(t *testing.T) {
	f := newFixture(t)
	prov := &entity.Provider{Slug: "acme", Name: "Acme", SupportsAPI: true, APIConfigured: true}
	req := f.seedRequest(t, entity.MethodAPI, prov)

	effective := f.now.Add(30 * 24 * time.Hour)
	f.registry.Register("acme", &scriptedConnector{
		method: "api",
		outcomes: []provider.Outcome{{
			Success:          true,
			ConfirmationCode: "CONF-42",
			EffectiveDate:    &effective,
		}},
	})

	res, err := f.orch.Dispatch(context.Background(), f.uow, req.ID)
	require.NoError(t, err)
	assert.Equal(t, DispatchCompleted, res.Code)

	stored, _ := f.uow.cancellations.FindOne(context.Background(), specification.ByID{ID: req.ID})
	assert.Equal(t, entity.RequestStatusCompleted, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	require.NotNil(t, stored.ConfirmationCode)
	assert.Equal(t, "CONF-42", *stored.ConfirmationCode)
	require.NotNil(t, stored.CompletedAt)
	assert.Nil(t, stored.NextRetryAt)

	assert.Equal(t, entity.SubscriptionStatusCancelled, f.uow.subscriptions.statuses[req.SubscriptionID])

	count, _ := f.uow.cancellations.CountAttempts(context.Background(), req.ID)
	assert.EqualValues(t, 1, count)
}

func TestDispatchFailureSchedulesRetryWithBackoff(t *testing.T) {
	f := newFixture(t)
	prov := &entity.Provider{Slug: "acme", Name: "Acme", SupportsAPI: true, APIConfigured: true}
	req := f.seedRequest(t, entity.MethodAPI, prov)

	f.registry.Register("acme", &scriptedConnector{
		method:   "api",
		outcomes: []provider.Outcome{{ErrorCode: "timeout", ErrorMessage: "provider timed out"}},
	})

	res, err := f.orch.Dispatch(context.Background(), f.uow, req.ID)
	require.NoError(t, err)
	assert.Equal(t, DispatchRetryScheduled, res.Code)

	stored, _ := f.uow.cancellations.FindOne(context.Background(), specification.ByID{ID: req.ID})
	assert.Equal(t, entity.RequestStatusFailed, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	require.NotNil(t, stored.ErrorCode)
	assert.Equal(t, "timeout", *stored.ErrorCode)
	require.NotNil(t, stored.NextRetryAt)
	assert.Equal(t, f.now.Add(5*time.Minute), *stored.NextRetryAt)
	assert.Nil(t, stored.CompletedAt)
}

func TestDispatchExhaustionEscalatesToManual(t *testing.T) {
	f := newFixture(t)
	prov := &entity.Provider{Slug: "acme", Name: "Acme", SupportsAPI: true, APIConfigured: true}
	req := f.seedRequest(t, entity.MethodAPI, prov)

	f.registry.Register("acme", &scriptedConnector{
		method:   "api",
		outcomes: []provider.Outcome{{ErrorCode: "unreachable", ErrorMessage: "connection refused"}},
	})

	for i := 0; i < 3; i++ {
		_, err := f.orch.Dispatch(context.Background(), f.uow, req.ID)
		require.NoError(t, err)
		f.advance(25 * time.Hour)
	}

	stored, _ := f.uow.cancellations.FindOne(context.Background(), specification.ByID{ID: req.ID})
	assert.Equal(t, entity.RequestStatusRequiresManual, stored.Status)
	assert.Equal(t, 3, stored.Attempts)
	assert.LessOrEqual(t, stored.Attempts, stored.MaxAttempts)
	require.NotNil(t, stored.ManualInstructions)
	assert.NotEmpty(t, stored.ManualInstructions.Steps)
	require.NotNil(t, stored.ErrorCode)
	assert.Equal(t, "unreachable", *stored.ErrorCode)
	assert.Nil(t, stored.CompletedAt)

	count, _ := f.uow.cancellations.CountAttempts(context.Background(), req.ID)
	assert.EqualValues(t, 3, count)
}

func TestDispatchManualMethodEscalatesImmediately(t *testing.T) {
	f := newFixture(t)
	prov := &entity.Provider{
		Slug:        "corner-gym",
		Name:        "Corner Gym",
		ManualSteps: []string{"Visit the front desk", "Fill in the cancellation form"},
	}
	req := f.seedRequest(t, entity.MethodManual, prov)

	res, err := f.orch.Dispatch(context.Background(), f.uow, req.ID)
	require.NoError(t, err)
	assert.Equal(t, DispatchManualRequired, res.Code)

	stored, _ := f.uow.cancellations.FindOne(context.Background(), specification.ByID{ID: req.ID})
	assert.Equal(t, entity.RequestStatusRequiresManual, stored.Status)
	assert.Equal(t, 1, stored.Attempts)
	require.NotNil(t, stored.ManualInstructions)
	assert.Equal(t, []string{"Visit the front desk", "Fill in the cancellation form"}, stored.ManualInstructions.Steps)
	assert.Nil(t, stored.ErrorCode)
}

func TestDispatchTerminalRequestIsNoop(t *testing.T) {
	f := newFixture(t)
	req := f.seedRequest(t, entity.MethodAPI, nil)

	stored, _ := f.uow.cancellations.FindOne(context.Background(), specification.ByID{ID: req.ID})
	stored.Status = entity.RequestStatusCompleted
	require.NoError(t, f.uow.cancellations.Update(context.Background(), stored))

	res, err := f.orch.Dispatch(context.Background(), f.uow, req.ID)
	require.NoError(t, err)
	assert.Equal(t, DispatchAlreadyTerminal, res.Code)
	assert.Equal(t, entity.RequestStatusCompleted, res.Request.Status)

	count, _ := f.uow.cancellations.CountAttempts(context.Background(), req.ID)
	assert.EqualValues(t, 0, count, "terminal dispatch must not add log entries")
	assert.Empty(t, f.sink.events, "terminal dispatch must not emit events")
}

func TestDispatchConflictWhenAlreadyProcessing(t *testing.T) {
	f := newFixture(t)
	req := f.seedRequest(t, entity.MethodAPI, nil)

	stored, _ := f.uow.cancellations.FindOne(context.Background(), specification.ByID{ID: req.ID})
	stored.Status = entity.RequestStatusProcessing
	stored.Attempts = 1
	require.NoError(t, f.uow.cancellations.Update(context.Background(), stored))

	res, err := f.orch.Dispatch(context.Background(), f.uow, req.ID)
	require.NoError(t, err)
	assert.Equal(t, DispatchConflict, res.Code)

	after, _ := f.uow.cancellations.FindOne(context.Background(), specification.ByID{ID: req.ID})
	assert.Equal(t, 1, after.Attempts, "conflicting dispatch must not bump attempts")
}

func TestDispatchFailedRequestNotDueYet(t *testing.T) {
	f := newFixture(t)
	prov := &entity.Provider{Slug: "acme", Name: "Acme", SupportsAPI: true, APIConfigured: true}
	req := f.seedRequest(t, entity.MethodAPI, prov)

	f.registry.Register("acme", &scriptedConnector{
		method:   "api",
		outcomes: []provider.Outcome{{ErrorCode: "timeout"}},
	})

	_, err := f.orch.Dispatch(context.Background(), f.uow, req.ID)
	require.NoError(t, err)

	// Retry window has not elapsed yet.
	f.advance(time.Minute)
	res, err := f.orch.Dispatch(context.Background(), f.uow, req.ID)
	require.NoError(t, err)
	assert.Equal(t, DispatchConflict, res.Code)

	stored, _ := f.uow.cancellations.FindOne(context.Background(), specification.ByID{ID: req.ID})
	assert.Equal(t, 1, stored.Attempts)
}

func TestConfirmManualSuccess(t *testing.T) {
	f := newFixture(t)
	prov := &entity.Provider{Slug: "corner-gym", Name: "Corner Gym"}
	req := f.seedRequest(t, entity.MethodManual, prov)

	_, err := f.orch.Dispatch(context.Background(), f.uow, req.ID)
	require.NoError(t, err)

	code := "ABC123"
	res, err := f.orch.ConfirmManual(context.Background(), f.uow, req.ID, req.UserID, ManualConfirmation{
		WasSuccessful:    true,
		ConfirmationCode: &code,
	})
	require.NoError(t, err)
	assert.Equal(t, DispatchConfirmed, res.Code)

	stored, _ := f.uow.cancellations.FindOne(context.Background(), specification.ByID{ID: req.ID})
	assert.Equal(t, entity.RequestStatusCompleted, stored.Status)
	assert.True(t, stored.UserConfirmed)
	require.NotNil(t, stored.ConfirmationCode)
	assert.Equal(t, "ABC123", *stored.ConfirmationCode)
	require.NotNil(t, stored.CompletedAt)
	assert.Equal(t, entity.SubscriptionStatusCancelled, f.uow.subscriptions.statuses[req.SubscriptionID])
}

func TestConfirmManualUnsuccessfulClosesRequest(t *testing.T) {
	f := newFixture(t)
	req := f.seedRequest(t, entity.MethodManual, nil)

	_, err := f.orch.Dispatch(context.Background(), f.uow, req.ID)
	require.NoError(t, err)

	res, err := f.orch.ConfirmManual(context.Background(), f.uow, req.ID, req.UserID, ManualConfirmation{WasSuccessful: false})
	require.NoError(t, err)
	assert.Equal(t, DispatchConfirmed, res.Code)

	stored, _ := f.uow.cancellations.FindOne(context.Background(), specification.ByID{ID: req.ID})
	assert.Equal(t, entity.RequestStatusCancelled, stored.Status)
	require.NotNil(t, stored.CompletedAt)
	_, cancelled := f.uow.subscriptions.statuses[req.SubscriptionID]
	assert.False(t, cancelled, "unsuccessful confirmation must not cancel the subscription")
}

func TestConfirmManualRejectsWrongState(t *testing.T) {
	f := newFixture(t)
	req := f.seedRequest(t, entity.MethodAPI, nil)

	_, err := f.orch.ConfirmManual(context.Background(), f.uow, req.ID, req.UserID, ManualConfirmation{WasSuccessful: true})
	assert.Error(t, err)
}

func TestConfirmManualRejectsForeignUser(t *testing.T) {
	f := newFixture(t)
	req := f.seedRequest(t, entity.MethodManual, nil)
	_, err := f.orch.Dispatch(context.Background(), f.uow, req.ID)
	require.NoError(t, err)

	_, err = f.orch.ConfirmManual(context.Background(), f.uow, req.ID, uuid.New(), ManualConfirmation{WasSuccessful: true})
	assert.Error(t, err)
}

func TestRetryReArmsFailedRequest(t *testing.T) {
	f := newFixture(t)
	prov := &entity.Provider{Slug: "acme", Name: "Acme", SupportsAPI: true, APIConfigured: true}
	req := f.seedRequest(t, entity.MethodAPI, prov)

	f.registry.Register("acme", &scriptedConnector{
		method: "api",
		outcomes: []provider.Outcome{
			{ErrorCode: "timeout"},
			{Success: true, ConfirmationCode: "RETRY-OK"},
		},
	})

	_, err := f.orch.Dispatch(context.Background(), f.uow, req.ID)
	require.NoError(t, err)

	// A user-triggered retry skips the remaining backoff window.
	res, err := f.orch.Retry(context.Background(), f.uow, req.ID, req.UserID)
	require.NoError(t, err)
	assert.Equal(t, DispatchCompleted, res.Code)

	stored, _ := f.uow.cancellations.FindOne(context.Background(), specification.ByID{ID: req.ID})
	assert.Equal(t, entity.RequestStatusCompleted, stored.Status)
	assert.Equal(t, 2, stored.Attempts)
}

func TestRetryRejectsNonFailedRequest(t *testing.T) {
	f := newFixture(t)
	req := f.seedRequest(t, entity.MethodAPI, nil)

	_, err := f.orch.Retry(context.Background(), f.uow, req.ID, req.UserID)
	assert.Error(t, err)
}

func TestProgressEventsAreOrderedAndMonotone(t *testing.T) {
	f := newFixture(t)
	prov := &entity.Provider{Slug: "acme", Name: "Acme", SupportsAPI: true, APIConfigured: true}
	req := f.seedRequest(t, entity.MethodAPI, prov)

	f.registry.Register("acme", &scriptedConnector{
		method:   "api",
		outcomes: []provider.Outcome{{ErrorCode: "timeout"}},
	})

	for i := 0; i < 3; i++ {
		_, err := f.orch.Dispatch(context.Background(), f.uow, req.ID)
		require.NoError(t, err)
		f.advance(25 * time.Hour)
	}

	code := "DONE"
	_, err := f.orch.ConfirmManual(context.Background(), f.uow, req.ID, req.UserID, ManualConfirmation{
		WasSuccessful:    true,
		ConfirmationCode: &code,
	})
	require.NoError(t, err)

	require.NotEmpty(t, f.sink.events)
	prevProgress := -1
	prevAt := time.Time{}
	for i, evt := range f.sink.events {
		assert.Equal(t, req.ID, evt.RequestID)
		assert.NotEmpty(t, evt.Message)
		assert.GreaterOrEqual(t, evt.Progress, prevProgress, "event %d went backwards", i)
		assert.False(t, evt.OccurredAt.Before(prevAt), "event %d out of order", i)
		prevProgress = evt.Progress
		prevAt = evt.OccurredAt
	}
	last := f.sink.events[len(f.sink.events)-1]
	assert.Equal(t, entity.RequestStatusCompleted, last.Status)
	assert.Equal(t, 100, last.Progress)
}

func TestDispatchMissingConnectorFailsGracefully(t *testing.T) {
	f := newFixture(t)
	prov := &entity.Provider{Slug: "ghost", Name: "Ghost", SupportsAPI: true, APIConfigured: true}
	req := f.seedRequest(t, entity.MethodAPI, prov)

	res, err := f.orch.Dispatch(context.Background(), f.uow, req.ID)
	require.NoError(t, err, "a missing connector is a dispatch outcome, not an error")
	assert.Equal(t, DispatchRetryScheduled, res.Code)

	stored, _ := f.uow.cancellations.FindOne(context.Background(), specification.ByID{ID: req.ID})
	require.NotNil(t, stored.ErrorCode)
	assert.Equal(t, "connector_unavailable", *stored.ErrorCode)
}

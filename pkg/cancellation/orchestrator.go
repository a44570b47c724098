package cancellation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/pkg/logger"
	"subtrackr-be/internal/repository/specification"
	"subtrackr-be/internal/repository/unitofwork"
	"subtrackr-be/pkg/provider"

	"github.com/google/uuid"
)

// Validation rejections callers may want to distinguish from
// infrastructure failures.
var (
	ErrRequestNotFound = errors.New("cancellation request not found")
	ErrInvalidState    = errors.New("request state does not allow this operation")
)

// DispatchCode classifies what a dispatch call did.
type DispatchCode string

const (
	DispatchCompleted       DispatchCode = "completed"
	DispatchRetryScheduled  DispatchCode = "retry_scheduled"
	DispatchManualRequired  DispatchCode = "manual_required"
	DispatchConflict        DispatchCode = "conflict"
	DispatchAlreadyTerminal DispatchCode = "already_terminal"
	DispatchConfirmed       DispatchCode = "confirmed"
)

// DispatchResult is the status object every orchestrator operation returns.
// Provider failures never surface as Go errors: success, retryable failure,
// exhausted retries and manual escalation are all encoded here so the API
// layer can render every outcome. The error return of the operations is
// reserved for validation and infrastructure problems.
type DispatchResult struct {
	Code    DispatchCode
	Request *entity.CancellationRequest
}

// ManualConfirmation is the user's report after following manual steps.
type ManualConfirmation struct {
	WasSuccessful    bool
	ConfirmationCode *string
	EffectiveDate    *time.Time
	RefundAmount     *float64
}

// Orchestrator drives cancellation requests through their lifecycle.
type Orchestrator struct {
	logger    logger.ILogger
	registry  *provider.Registry
	sink      ProgressSink
	baseDelay time.Duration
	maxDelay  time.Duration
	now       func() time.Time
}

func NewOrchestrator(log logger.ILogger, registry *provider.Registry, sink ProgressSink, baseDelay, maxDelay time.Duration) *Orchestrator {
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	if maxDelay <= 0 {
		maxDelay = DefaultMaxDelay
	}
	return &Orchestrator{
		logger:    log,
		registry:  registry,
		sink:      sink,
		baseDelay: baseDelay,
		maxDelay:  maxDelay,
		now:       time.Now,
	}
}

// WithClock overrides the time source. Tests use it to make backoff
// deterministic.
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Dispatch executes one cancellation attempt for the request.
//
// Dispatching a terminal request is a no-op returning the current state, and
// a request that is not eligible (another dispatcher claimed it, or its
// retry is not due yet) aborts without side effects. Both guarantees come
// from the single conditional UPDATE in TransitionToProcessing, so
// concurrent dispatchers for the same request cannot both proceed.
func (o *Orchestrator) Dispatch(ctx context.Context, uow unitofwork.UnitOfWork, requestID uuid.UUID) (*DispatchResult, error) {
	repo := uow.CancellationRepository()

	req, err := repo.FindOne(ctx, specification.ByID{ID: requestID})
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}

	if req.Status.IsTerminal() {
		return &DispatchResult{Code: DispatchAlreadyTerminal, Request: req}, nil
	}

	now := o.now()
	claimed, err := repo.TransitionToProcessing(ctx, requestID, now)
	if err != nil {
		return nil, err
	}
	if !claimed {
		o.logger.Info("Cancellation", "Dispatch skipped, request not eligible", map[string]interface{}{
			"request_id": requestID.String(),
			"status":     string(req.Status),
		})
		return &DispatchResult{Code: DispatchConflict, Request: req}, nil
	}

	req.Status = entity.RequestStatusProcessing
	req.Attempts++
	req.LastAttemptAt = &now
	req.NextRetryAt = nil
	o.publish(ctx, req)

	prov := o.loadProvider(ctx, uow, req)
	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: req.SubscriptionID})
	if err != nil {
		return nil, err
	}

	if req.Method == entity.MethodManual {
		return o.escalateToManual(ctx, uow, req, prov, sub, nil)
	}

	outcome := o.execute(ctx, req, prov, sub)
	if outcome.Success {
		return o.complete(ctx, uow, req, outcome)
	}

	if req.Attempts < req.MaxAttempts {
		return o.scheduleRetry(ctx, uow, req, outcome)
	}
	return o.escalateToManual(ctx, uow, req, prov, sub, &outcome)
}

// ConfirmManual records the user's report after manual steps. Success moves
// the request to completed, anything else closes it as cancelled.
func (o *Orchestrator) ConfirmManual(ctx context.Context, uow unitofwork.UnitOfWork, requestID, userID uuid.UUID, confirmation ManualConfirmation) (*DispatchResult, error) {
	repo := uow.CancellationRepository()

	req, err := repo.FindOne(ctx, specification.ByID{ID: requestID})
	if err != nil {
		return nil, err
	}
	if req == nil || req.UserID != userID {
		return nil, ErrRequestNotFound
	}
	if req.Status != entity.RequestStatusRequiresManual {
		return nil, fmt.Errorf("%w: request is not awaiting manual confirmation", ErrInvalidState)
	}

	now := o.now()
	req.UserConfirmed = true
	req.CompletedAt = &now
	if confirmation.WasSuccessful {
		req.Status = entity.RequestStatusCompleted
		req.ConfirmationCode = confirmation.ConfirmationCode
		req.EffectiveDate = confirmation.EffectiveDate
		req.RefundAmount = confirmation.RefundAmount
	} else {
		req.Status = entity.RequestStatusCancelled
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.CancellationRepository().Update(ctx, req); err != nil {
		return nil, err
	}
	if confirmation.WasSuccessful {
		if err := uow.SubscriptionRepository().UpdateStatus(ctx, req.SubscriptionID, entity.SubscriptionStatusCancelled); err != nil {
			return nil, err
		}
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	o.logger.Info("Cancellation", "Manual confirmation recorded", map[string]interface{}{
		"request_id": req.ID.String(),
		"status":     string(req.Status),
	})
	o.publish(ctx, req)

	return &DispatchResult{Code: DispatchConfirmed, Request: req}, nil
}

// Retry re-arms a failed request and dispatches it immediately. Requests in
// any other state are rejected; max_attempts still bounds the pipeline.
func (o *Orchestrator) Retry(ctx context.Context, uow unitofwork.UnitOfWork, requestID, userID uuid.UUID) (*DispatchResult, error) {
	repo := uow.CancellationRepository()

	req, err := repo.FindOne(ctx, specification.ByID{ID: requestID})
	if err != nil {
		return nil, err
	}
	if req == nil || req.UserID != userID {
		return nil, ErrRequestNotFound
	}
	if req.Status != entity.RequestStatusFailed {
		return nil, fmt.Errorf("%w: only failed requests can be retried", ErrInvalidState)
	}

	now := o.now()
	req.NextRetryAt = &now
	if err := repo.Update(ctx, req); err != nil {
		return nil, err
	}

	return o.Dispatch(ctx, uow, requestID)
}

func (o *Orchestrator) execute(ctx context.Context, req *entity.CancellationRequest, prov *entity.Provider, sub *entity.Subscription) provider.Outcome {
	slug := ""
	merchant := ""
	if prov != nil {
		slug = prov.Slug
	}
	if sub != nil {
		merchant = sub.MerchantName
	}

	connector, ok := o.registry.Lookup(slug, string(req.Method))
	if !ok {
		return provider.Outcome{
			ErrorCode:    "connector_unavailable",
			ErrorMessage: fmt.Sprintf("no %s connector registered for provider %q", req.Method, slug),
		}
	}

	return connector.AttemptCancel(ctx, provider.SubscriptionContext{
		RequestID:      req.ID,
		SubscriptionID: req.SubscriptionID,
		UserID:         req.UserID,
		ProviderSlug:   slug,
		MerchantName:   merchant,
	})
}

func (o *Orchestrator) complete(ctx context.Context, uow unitofwork.UnitOfWork, req *entity.CancellationRequest, outcome provider.Outcome) (*DispatchResult, error) {
	now := o.now()
	req.Status = entity.RequestStatusCompleted
	req.CompletedAt = &now
	req.ErrorCode = nil
	req.ErrorMessage = nil
	if outcome.ConfirmationCode != "" {
		req.ConfirmationCode = &outcome.ConfirmationCode
	}
	req.EffectiveDate = outcome.EffectiveDate
	req.RefundAmount = outcome.RefundAmount

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.CancellationRepository().Update(ctx, req); err != nil {
		return nil, err
	}
	if err := o.appendLog(ctx, uow, req, "provider_call", "succeeded", nil, nil); err != nil {
		return nil, err
	}
	if err := uow.SubscriptionRepository().UpdateStatus(ctx, req.SubscriptionID, entity.SubscriptionStatusCancelled); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	o.logger.Info("Cancellation", "Request completed", map[string]interface{}{
		"request_id": req.ID.String(),
		"attempts":   req.Attempts,
	})
	o.publish(ctx, req)

	return &DispatchResult{Code: DispatchCompleted, Request: req}, nil
}

func (o *Orchestrator) scheduleRetry(ctx context.Context, uow unitofwork.UnitOfWork, req *entity.CancellationRequest, outcome provider.Outcome) (*DispatchResult, error) {
	now := o.now()
	retryAt := now.Add(BackoffDelay(req.Attempts, o.baseDelay, o.maxDelay))

	req.Status = entity.RequestStatusFailed
	req.NextRetryAt = &retryAt
	req.ErrorCode = strPtr(outcome.ErrorCode)
	req.ErrorMessage = strPtr(outcome.ErrorMessage)

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.CancellationRepository().Update(ctx, req); err != nil {
		return nil, err
	}
	if err := o.appendLog(ctx, uow, req, "provider_call", "failed", req.ErrorCode, req.ErrorMessage); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	o.logger.Warn("Cancellation", "Attempt failed, retry scheduled", map[string]interface{}{
		"request_id":    req.ID.String(),
		"attempts":      req.Attempts,
		"next_retry_at": retryAt,
		"error_code":    outcome.ErrorCode,
	})
	o.publish(ctx, req)

	return &DispatchResult{Code: DispatchRetryScheduled, Request: req}, nil
}

func (o *Orchestrator) escalateToManual(ctx context.Context, uow unitofwork.UnitOfWork, req *entity.CancellationRequest, prov *entity.Provider, sub *entity.Subscription, outcome *provider.Outcome) (*DispatchResult, error) {
	merchant := ""
	if sub != nil {
		merchant = sub.MerchantName
	}

	req.Status = entity.RequestStatusRequiresManual
	req.NextRetryAt = nil
	req.ManualInstructions = BuildManualInstructions(prov, merchant)

	step := "manual_escalation"
	status := "escalated"
	if outcome != nil {
		req.ErrorCode = strPtr(outcome.ErrorCode)
		req.ErrorMessage = strPtr(outcome.ErrorMessage)
		status = "failed"
		step = "provider_call"
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.CancellationRepository().Update(ctx, req); err != nil {
		return nil, err
	}
	if err := o.appendLog(ctx, uow, req, step, status, req.ErrorCode, req.ErrorMessage); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	o.logger.Info("Cancellation", "Request requires manual action", map[string]interface{}{
		"request_id": req.ID.String(),
		"attempts":   req.Attempts,
	})
	o.publish(ctx, req)

	return &DispatchResult{Code: DispatchManualRequired, Request: req}, nil
}

func (o *Orchestrator) loadProvider(ctx context.Context, uow unitofwork.UnitOfWork, req *entity.CancellationRequest) *entity.Provider {
	if req.ProviderID == nil {
		return nil
	}
	prov, err := uow.ProviderRepository().FindByID(ctx, *req.ProviderID)
	if err != nil {
		o.logger.Warn("Cancellation", "Provider lookup failed", map[string]interface{}{
			"provider_id": req.ProviderID.String(),
			"error":       err.Error(),
		})
		return nil
	}
	return prov
}

func (o *Orchestrator) appendLog(ctx context.Context, uow unitofwork.UnitOfWork, req *entity.CancellationRequest, step, status string, errCode, errMsg *string) error {
	return uow.CancellationRepository().AppendAttempt(ctx, &entity.CancellationAttempt{
		ID:            uuid.New(),
		RequestID:     req.ID,
		AttemptNumber: req.Attempts,
		Method:        req.Method,
		Step:          step,
		Status:        status,
		ErrorCode:     errCode,
		ErrorMessage:  errMsg,
	})
}

func (o *Orchestrator) publish(ctx context.Context, req *entity.CancellationRequest) {
	if o.sink == nil {
		return
	}
	o.sink.Publish(ctx, EventFor(req, o.now()))
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

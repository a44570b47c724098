package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"subtrackr-be/internal/dto"
	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/mapper"
	"subtrackr-be/internal/pkg/logger"
	"subtrackr-be/internal/pkg/mailer"
	"subtrackr-be/internal/repository/memory"
	"subtrackr-be/internal/repository/specification"
	"subtrackr-be/internal/repository/unitofwork"
	"subtrackr-be/pkg/cancellation"

	"github.com/google/uuid"
)

var (
	ErrSubscriptionNotFound   = errors.New("subscription not found")
	ErrSubscriptionNotActive  = errors.New("subscription is not active")
	ErrCancellationInFlight   = errors.New("a cancellation request for this subscription is already in progress")
	ErrCancellationNotFound   = errors.New("cancellation request not found")
	ErrCancellationBadRequest = errors.New("invalid cancellation action")
)

type ICancellationService interface {
	CreateRequest(ctx context.Context, userID uuid.UUID, req *dto.CreateCancellationRequest) (*dto.CreateCancellationResponse, error)
	GetStatus(ctx context.Context, userID, requestID uuid.UUID) (*dto.CancellationStatusResponse, error)
	List(ctx context.Context, userID uuid.UUID) ([]dto.CancellationListItemResponse, error)
	Retry(ctx context.Context, userID, requestID uuid.UUID) (*dto.CancellationActionResponse, error)
	ConfirmManual(ctx context.Context, userID, requestID uuid.UUID, req *dto.ConfirmManualRequest) (*dto.CancellationActionResponse, error)
}

type cancellationService struct {
	uowFactory    unitofwork.RepositoryFactory
	orchestrator  *cancellation.Orchestrator
	sink          cancellation.ProgressSink
	progressCache *memory.ProgressCache
	mapper        *mapper.CancellationMapper
	emailService  mailer.IEmailService
	logger        logger.ILogger
	maxAttempts   int
}

func NewCancellationService(
	uowFactory unitofwork.RepositoryFactory,
	orchestrator *cancellation.Orchestrator,
	sink cancellation.ProgressSink,
	progressCache *memory.ProgressCache,
	emailService mailer.IEmailService,
	log logger.ILogger,
	maxAttempts int,
) ICancellationService {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &cancellationService{
		uowFactory:    uowFactory,
		orchestrator:  orchestrator,
		sink:          sink,
		progressCache: progressCache,
		mapper:        mapper.NewCancellationMapper(),
		emailService:  emailService,
		logger:        log,
		maxAttempts:   maxAttempts,
	}
}

// CreateRequest validates the subscription, picks the cancellation method
// from the provider's capabilities and persists a pending request, then
// kicks off the first dispatch in the background. The response reflects the
// accepted request, not the dispatch outcome.
func (s *cancellationService) CreateRequest(ctx context.Context, userID uuid.UUID, req *dto.CreateCancellationRequest) (*dto.CreateCancellationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: req.SubscriptionId})
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.UserID != userID {
		return nil, ErrSubscriptionNotFound
	}
	if sub.Status != entity.SubscriptionStatusActive {
		return nil, ErrSubscriptionNotActive
	}

	// One active request per subscription.
	existing, err := uow.CancellationRepository().FindAll(ctx,
		specification.BySubscriptionID{SubscriptionID: sub.ID},
		specification.NonTerminal{},
	)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, ErrCancellationInFlight
	}

	var prov *entity.Provider
	if sub.ProviderID != nil {
		prov, err = uow.ProviderRepository().FindByID(ctx, *sub.ProviderID)
		if err != nil {
			return nil, err
		}
	}

	method := cancellation.SelectMethod(prov.Capabilities())

	priority := entity.PriorityNormal
	if req.Priority != "" {
		priority = entity.RequestPriority(req.Priority)
	}

	request := &entity.CancellationRequest{
		ID:             uuid.New(),
		UserID:         userID,
		SubscriptionID: sub.ID,
		Status:         entity.RequestStatusPending,
		Method:         method,
		Priority:       priority,
		MaxAttempts:    s.maxAttempts,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	if prov != nil {
		request.ProviderID = &prov.ID
	}

	if err := uow.CancellationRepository().Create(ctx, request); err != nil {
		return nil, err
	}

	s.logger.Info("Cancellation", "Request created", map[string]interface{}{
		"request_id":      request.ID.String(),
		"subscription_id": sub.ID.String(),
		"method":          string(method),
	})

	if s.sink != nil {
		s.sink.Publish(ctx, cancellation.EventFor(request, time.Now()))
	}

	go s.dispatchAsync(request.ID)

	return &dto.CreateCancellationResponse{
		RequestId: request.ID,
		Status:    string(request.Status),
		Method:    string(method),
		Message:   "Cancellation request accepted",
	}, nil
}

func (s *cancellationService) dispatchAsync(requestID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	result, err := s.orchestrator.Dispatch(ctx, uow, requestID)
	if err != nil {
		s.logger.Error("Cancellation", "Background dispatch failed", map[string]interface{}{
			"request_id": requestID.String(),
			"error":      err.Error(),
		})
		return
	}
	s.notifyByEmail(ctx, result)
}

// notifyByEmail sends the escalation or confirmation mail for a dispatch
// outcome. Failures are logged and swallowed, mail is best effort.
func (s *cancellationService) notifyByEmail(ctx context.Context, result *cancellation.DispatchResult) {
	if s.emailService == nil || result == nil || result.Request == nil {
		return
	}
	if result.Code != cancellation.DispatchManualRequired && result.Code != cancellation.DispatchCompleted {
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: result.Request.UserID})
	if err != nil || user == nil {
		return
	}
	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: result.Request.SubscriptionID})
	if err != nil || sub == nil {
		return
	}

	switch result.Code {
	case cancellation.DispatchCompleted:
		err = s.emailService.SendCancellationConfirmed(user.Email, sub.MerchantName)
	case cancellation.DispatchManualRequired:
		err = s.emailService.SendManualInstructions(user.Email, sub.MerchantName, result.Request.ManualInstructions)
	}
	if err != nil {
		s.logger.Warn("Cancellation", "Failed to send outcome email", map[string]interface{}{
			"request_id": result.Request.ID.String(),
			"error":      err.Error(),
		})
	}
}

// GetStatus returns the full detail view including the automation log. The
// progress snapshot cache answers the progress fields when the request is
// mid-flight; the database remains the source of truth.
func (s *cancellationService) GetStatus(ctx context.Context, userID, requestID uuid.UUID) (*dto.CancellationStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	req, err := uow.CancellationRepository().FindOneWithLog(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil || req.UserID != userID {
		return nil, ErrCancellationNotFound
	}

	res := s.mapper.ToStatusResponse(req)

	if snapshot, ok := s.progressCache.Get(requestID); ok && snapshot.Progress > res.Progress {
		res.Progress = snapshot.Progress
		res.ProgressMessage = snapshot.Message
	}
	return res, nil
}

func (s *cancellationService) List(ctx context.Context, userID uuid.UUID) ([]dto.CancellationListItemResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	requests, err := uow.CancellationRepository().FindAll(ctx,
		specification.ByUserID{UserID: userID},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	items := make([]dto.CancellationListItemResponse, 0, len(requests))
	for _, req := range requests {
		items = append(items, s.mapper.ToListItem(req))
	}
	return items, nil
}

// mapOrchestratorError keeps validation rejections on the 4xx path while
// repository and infrastructure failures pass through untouched.
func mapOrchestratorError(err error) error {
	switch {
	case errors.Is(err, cancellation.ErrRequestNotFound):
		return ErrCancellationNotFound
	case errors.Is(err, cancellation.ErrInvalidState):
		return fmt.Errorf("%w: %v", ErrCancellationBadRequest, err)
	}
	return err
}

// Retry re-dispatches a failed request on the user's initiative, skipping
// whatever backoff window remains.
func (s *cancellationService) Retry(ctx context.Context, userID, requestID uuid.UUID) (*dto.CancellationActionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	result, err := s.orchestrator.Retry(ctx, uow, requestID, userID)
	if err != nil {
		return nil, mapOrchestratorError(err)
	}
	s.notifyByEmail(ctx, result)

	return &dto.CancellationActionResponse{
		RequestId: requestID,
		Status:    string(result.Request.Status),
		Message:   cancellation.ProgressMessage(result.Request.Status, result.Request.Method, result.Request.Attempts, result.Request.MaxAttempts),
	}, nil
}

func (s *cancellationService) ConfirmManual(ctx context.Context, userID, requestID uuid.UUID, req *dto.ConfirmManualRequest) (*dto.CancellationActionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	result, err := s.orchestrator.ConfirmManual(ctx, uow, requestID, userID, cancellation.ManualConfirmation{
		WasSuccessful:    req.WasSuccessful,
		ConfirmationCode: req.ConfirmationCode,
		EffectiveDate:    req.EffectiveDate,
		RefundAmount:     req.RefundAmount,
	})
	if err != nil {
		return nil, mapOrchestratorError(err)
	}

	s.progressCache.Delete(requestID)

	return &dto.CancellationActionResponse{
		RequestId: requestID,
		Status:    string(result.Request.Status),
		Message:   cancellation.ProgressMessage(result.Request.Status, result.Request.Method, result.Request.Attempts, result.Request.MaxAttempts),
	}, nil
}

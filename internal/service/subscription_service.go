package service

import (
	"context"
	"errors"
	"time"

	"subtrackr-be/internal/dto"
	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/mapper"
	"subtrackr-be/internal/repository/specification"
	"subtrackr-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ISubscriptionService interface {
	Create(ctx context.Context, userID uuid.UUID, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	List(ctx context.Context, userID uuid.UUID) ([]*dto.SubscriptionResponse, error)
	Show(ctx context.Context, userID, id uuid.UUID) (*dto.SubscriptionResponse, error)
	Update(ctx context.Context, userID, id uuid.UUID, req *dto.UpdateSubscriptionRequest) (*dto.SubscriptionResponse, error)
	Archive(ctx context.Context, userID, id uuid.UUID) error
	ListProviders(ctx context.Context) ([]dto.ProviderResponse, error)
	UpsertProvider(ctx context.Context, req *dto.UpsertProviderRequest) (*dto.ProviderResponse, error)
}

type subscriptionService struct {
	uowFactory unitofwork.RepositoryFactory
	mapper     *mapper.SubscriptionMapper
}

func NewSubscriptionService(uowFactory unitofwork.RepositoryFactory) ISubscriptionService {
	return &subscriptionService{
		uowFactory: uowFactory,
		mapper:     mapper.NewSubscriptionMapper(),
	}
}

func (s *subscriptionService) Create(ctx context.Context, userID uuid.UUID, req *dto.CreateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	sub := &entity.Subscription{
		ID:              uuid.New(),
		UserID:          userID,
		MerchantName:    req.MerchantName,
		Amount:          decimal.NewFromFloat(req.Amount),
		Currency:        req.Currency,
		BillingInterval: entity.BillingInterval(req.BillingInterval),
		Status:          entity.SubscriptionStatusActive,
		Source:          "manual",
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}

	if req.NextDueDate != nil {
		due, err := time.Parse("2006-01-02", *req.NextDueDate)
		if err != nil {
			return nil, errors.New("next_due_date must be YYYY-MM-DD")
		}
		sub.NextDueDate = &due
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.SubscriptionRepository().Create(ctx, sub); err != nil {
		return nil, err
	}

	return s.toResponse(ctx, uow, sub), nil
}

func (s *subscriptionService) List(ctx context.Context, userID uuid.UUID) ([]*dto.SubscriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	subs, err := uow.SubscriptionRepository().FindAll(ctx,
		specification.ByUserID{UserID: userID},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.SubscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		responses = append(responses, s.toResponse(ctx, uow, sub))
	}
	return responses, nil
}

func (s *subscriptionService) Show(ctx context.Context, userID, id uuid.UUID) (*dto.SubscriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.UserID != userID {
		return nil, ErrSubscriptionNotFound
	}
	return s.toResponse(ctx, uow, sub), nil
}

func (s *subscriptionService) Update(ctx context.Context, userID, id uuid.UUID, req *dto.UpdateSubscriptionRequest) (*dto.SubscriptionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.UserID != userID {
		return nil, ErrSubscriptionNotFound
	}

	if req.MerchantName != nil {
		sub.MerchantName = *req.MerchantName
	}
	if req.Amount != nil {
		sub.Amount = decimal.NewFromFloat(*req.Amount)
	}
	if req.BillingInterval != nil {
		sub.BillingInterval = entity.BillingInterval(*req.BillingInterval)
	}
	if req.Status != nil {
		sub.Status = entity.SubscriptionStatus(*req.Status)
	}
	sub.UpdatedAt = time.Now()

	if err := uow.SubscriptionRepository().Update(ctx, sub); err != nil {
		return nil, err
	}
	return s.toResponse(ctx, uow, sub), nil
}

func (s *subscriptionService) Archive(ctx context.Context, userID, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub, err := uow.SubscriptionRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if sub == nil || sub.UserID != userID {
		return ErrSubscriptionNotFound
	}
	return uow.SubscriptionRepository().UpdateStatus(ctx, id, entity.SubscriptionStatusArchived)
}

func (s *subscriptionService) ListProviders(ctx context.Context) ([]dto.ProviderResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	providers, err := uow.ProviderRepository().FindAll(ctx, specification.OrderBy{Field: "name"})
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ProviderResponse, 0, len(providers))
	for _, p := range providers {
		responses = append(responses, s.mapper.ToProviderResponse(p))
	}
	return responses, nil
}

func (s *subscriptionService) UpsertProvider(ctx context.Context, req *dto.UpsertProviderRequest) (*dto.ProviderResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	provider, err := uow.ProviderRepository().FindBySlug(ctx, req.Slug)
	if err != nil {
		return nil, err
	}
	if provider == nil {
		provider = &entity.Provider{
			ID:        uuid.New(),
			Slug:      req.Slug,
			CreatedAt: time.Now(),
		}
	}

	provider.Name = req.Name
	provider.SupportsAPI = req.SupportsAPI
	provider.APIConfigured = req.APIConfigured
	provider.SupportsWebAutomation = req.SupportsWebAutomation
	provider.AutomationRegistered = req.AutomationRegistered
	provider.ManualSteps = req.ManualSteps
	provider.ContactPhone = req.ContactPhone
	provider.ContactEmail = req.ContactEmail
	provider.WebsiteURL = req.WebsiteURL
	provider.UpdatedAt = time.Now()

	if err := uow.ProviderRepository().Upsert(ctx, provider); err != nil {
		return nil, err
	}

	res := s.mapper.ToProviderResponse(provider)
	return &res, nil
}

func (s *subscriptionService) toResponse(ctx context.Context, uow unitofwork.UnitOfWork, sub *entity.Subscription) *dto.SubscriptionResponse {
	providerSlug := ""
	if sub.ProviderID != nil {
		if prov, err := uow.ProviderRepository().FindByID(ctx, *sub.ProviderID); err == nil && prov != nil {
			providerSlug = prov.Slug
		}
	}
	return s.mapper.ToResponse(sub, providerSlug)
}

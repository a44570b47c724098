package service

import (
	"context"
	"crypto/sha512"
	"errors"
	"fmt"
	"time"

	"subtrackr-be/internal/config"
	"subtrackr-be/internal/dto"
	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/repository/specification"
	"subtrackr-be/internal/repository/unitofwork"
	"subtrackr-be/pkg/events"
	pktNats "subtrackr-be/pkg/nats"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
)

// premiumPlans is the static catalog of the tracker's own paid tiers.
var premiumPlans = []dto.MembershipPlanResponse{
	{
		Slug:        "premium-monthly",
		Name:        "Premium Monthly",
		Price:       4.99,
		Description: "Unlimited tracked subscriptions and automated cancellations",
		Features:    []string{"Unlimited subscriptions", "Automated cancellation", "Priority retries"},
	},
	{
		Slug:        "premium-yearly",
		Name:        "Premium Yearly",
		Price:       49.99,
		Description: "Premium, billed once a year",
		Features:    []string{"Unlimited subscriptions", "Automated cancellation", "Priority retries", "2 months free"},
	},
}

type IPaymentService interface {
	GetPlans(ctx context.Context) ([]dto.MembershipPlanResponse, error)
	Checkout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	GetStatus(ctx context.Context, userId uuid.UUID) (*dto.MembershipStatusResponse, error)
	HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error
}

type paymentService struct {
	uowFactory     unitofwork.RepositoryFactory
	eventPublisher *pktNats.Publisher
	cfg            config.MidtransConfig
}

func NewPaymentService(uowFactory unitofwork.RepositoryFactory, eventPublisher *pktNats.Publisher, cfg config.MidtransConfig) IPaymentService {
	return &paymentService{
		uowFactory:     uowFactory,
		eventPublisher: eventPublisher,
		cfg:            cfg,
	}
}

func (s *paymentService) GetPlans(_ context.Context) ([]dto.MembershipPlanResponse, error) {
	return premiumPlans, nil
}

func findPlan(slug string) *dto.MembershipPlanResponse {
	for i := range premiumPlans {
		if premiumPlans[i].Slug == slug {
			return &premiumPlans[i]
		}
	}
	return nil
}

func (s *paymentService) Checkout(ctx context.Context, userId uuid.UUID, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	plan := findPlan(req.PlanSlug)
	if plan == nil {
		return nil, errors.New("plan not found")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errors.New("user not found")
	}

	periodEnd := time.Now().AddDate(0, 1, 0)
	if plan.Slug == "premium-yearly" {
		periodEnd = time.Now().AddDate(1, 0, 0)
	}

	membership := &entity.Membership{
		Id:                 uuid.New(),
		UserId:             userId,
		PlanSlug:           plan.Slug,
		Price:              plan.Price,
		Status:             entity.MembershipStatusInactive,
		PaymentStatus:      entity.MembershipPaymentPending,
		CurrentPeriodStart: time.Now(),
		CurrentPeriodEnd:   periodEnd,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}

	if err := uow.MembershipRepository().Create(ctx, membership); err != nil {
		return nil, err
	}

	// External call stays outside any DB transaction.
	var sClient snap.Client
	env := midtrans.Sandbox
	if s.cfg.IsProduction {
		env = midtrans.Production
	}
	sClient.New(s.cfg.ServerKey, env)

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  membership.Id.String(),
			GrossAmt: int64(plan.Price * 100),
		},
		CreditCard: &snap.CreditCardDetails{Secure: true},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.FirstName,
			LName: req.LastName,
			Email: req.Email,
			Phone: req.Phone,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    plan.Slug,
				Price: int64(plan.Price * 100),
				Qty:   1,
				Name:  plan.Name,
			},
		},
		EnabledPayments: snap.AllSnapPaymentType,
	}

	snapResp, midErr := sClient.CreateTransaction(snapReq)
	if midErr != nil {
		return nil, fmt.Errorf("midtrans error: %v", midErr.GetMessage())
	}

	return &dto.CheckoutResponse{
		MembershipId:    membership.Id,
		SnapToken:       snapResp.Token,
		SnapRedirectUrl: snapResp.RedirectURL,
	}, nil
}

func (s *paymentService) GetStatus(ctx context.Context, userId uuid.UUID) (*dto.MembershipStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	membership, err := uow.MembershipRepository().FindActiveByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	if membership == nil || membership.CurrentPeriodEnd.Before(time.Now()) {
		return &dto.MembershipStatusResponse{IsPremium: false}, nil
	}
	periodEnd := membership.CurrentPeriodEnd
	return &dto.MembershipStatusResponse{
		IsPremium:        true,
		PlanSlug:         membership.PlanSlug,
		PaymentStatus:    string(membership.PaymentStatus),
		CurrentPeriodEnd: &periodEnd,
	}, nil
}

func (s *paymentService) HandleNotification(ctx context.Context, req *dto.MidtransWebhookRequest) error {
	if s.cfg.ServerKey == "" {
		return fmt.Errorf("server configuration error")
	}

	// Midtrans signature = SHA512(order_id + status_code + gross_amount + server_key)
	signatureInput := req.OrderId + req.StatusCode + req.GrossAmount + s.cfg.ServerKey
	expectedSignature := fmt.Sprintf("%x", sha512.Sum512([]byte(signatureInput)))
	if req.SignatureKey != expectedSignature {
		return fmt.Errorf("invalid signature")
	}

	membershipId, err := uuid.Parse(req.OrderId)
	if err != nil {
		return fmt.Errorf("invalid order id format")
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	membership, err := uow.MembershipRepository().FindOne(ctx, specification.ByID{ID: membershipId})
	if err != nil {
		return err
	}
	if membership == nil {
		return fmt.Errorf("membership not found")
	}

	switch req.TransactionStatus {
	case "capture", "settlement":
		if req.FraudStatus != "" && req.FraudStatus != "accept" {
			membership.PaymentStatus = entity.MembershipPaymentFailed
		} else {
			membership.PaymentStatus = entity.MembershipPaymentPaid
			membership.Status = entity.MembershipStatusActive
		}
	case "deny", "cancel", "expire", "failure":
		membership.PaymentStatus = entity.MembershipPaymentFailed
	case "pending":
		membership.PaymentStatus = entity.MembershipPaymentPending
	default:
		return nil
	}
	membership.UpdatedAt = time.Now()

	if err := uow.MembershipRepository().Update(ctx, membership); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if membership.Status == entity.MembershipStatusActive && s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: "MEMBERSHIP_ACTIVATED",
			Data: map[string]interface{}{
				"user_id":     membership.UserId.String(),
				"plan_slug":   membership.PlanSlug,
				"entity_type": "membership",
				"entity_id":   membership.Id.String(),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			fmt.Printf("[WARN] Failed to publish MEMBERSHIP_ACTIVATED event: %v\n", err)
		}
	}

	return nil
}

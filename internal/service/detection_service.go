package service

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/repository/specification"
	"subtrackr-be/internal/repository/unitofwork"
	"subtrackr-be/pkg/detect"
	"subtrackr-be/pkg/events"
	pktNats "subtrackr-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

type IDetectionService interface {
	Consume(ctx context.Context) error
}

type detectionService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	detector       *detect.Detector
	eventPublisher *pktNats.Publisher
}

func NewDetectionService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	detector *detect.Detector,
	eventPublisher *pktNats.Publisher,
) IDetectionService {
	return &detectionService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		detector:       detector,
		eventPublisher: eventPublisher,
	}
}

func (s *detectionService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (s *detectionService) processMessage(ctx context.Context, msg *message.Message) {
	var payload ScanRequestedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal scan message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	log.Printf("[INFO] Running subscription scan for user %s", payload.UserId)

	uow := s.uowFactory.NewUnitOfWork(ctx)

	transactions, err := uow.TransactionRepository().FindByUser(ctx, payload.UserId)
	if err != nil {
		log.Printf("[ERROR] Failed to load transactions for %s: %v", payload.UserId, err)
		msg.Nack()
		return
	}

	candidates := s.detector.Detect(transactions)
	if len(candidates) == 0 {
		log.Printf("[INFO] No recurring patterns found for user %s", payload.UserId)
		msg.Ack()
		return
	}

	existing, err := uow.SubscriptionRepository().FindAll(ctx, specification.ByUserID{UserID: payload.UserId})
	if err != nil {
		log.Printf("[ERROR] Failed to load subscriptions: %v", err)
		msg.Nack()
		return
	}
	known := make(map[string]bool)
	for _, sub := range existing {
		known[detect.NormalizeMerchant(sub.MerchantName)] = true
	}

	if err := uow.Begin(ctx); err != nil {
		log.Printf("[ERROR] Failed to begin transaction: %v", err)
		msg.Nack()
		return
	}
	defer uow.Rollback()

	var created []*entity.Subscription
	for _, candidate := range candidates {
		key := detect.NormalizeMerchant(candidate.MerchantName)
		if known[key] {
			continue
		}

		sub := &entity.Subscription{
			ID:              uuid.New(),
			UserID:          payload.UserId,
			MerchantName:    candidate.MerchantName,
			Amount:          candidate.Amount,
			Currency:        candidate.Currency,
			BillingInterval: candidate.BillingInterval,
			NextDueDate:     &candidate.NextDueDate,
			Status:          entity.SubscriptionStatusActive,
			Source:          "detected",
			Confidence:      candidate.Confidence,
			CreatedAt:       time.Now(),
			UpdatedAt:       time.Now(),
		}

		// Link the capability registry entry if one matches the merchant.
		slug := strings.ReplaceAll(key, " ", "-")
		if prov, err := uow.ProviderRepository().FindBySlug(ctx, slug); err == nil && prov != nil {
			sub.ProviderID = &prov.ID
		}

		if err := uow.SubscriptionRepository().Create(ctx, sub); err != nil {
			log.Printf("[ERROR] Failed to store detected subscription: %v", err)
			msg.Nack()
			return
		}
		created = append(created, sub)
		known[key] = true
	}

	if err := uow.Commit(); err != nil {
		log.Printf("[ERROR] Failed to commit detection results: %v", err)
		msg.Nack()
		return
	}

	// Notifications are auxiliary, failures must not requeue the scan.
	if s.eventPublisher != nil {
		for _, sub := range created {
			evt := events.NewSubscriptionDetected(sub.ID, sub.UserID, sub.MerchantName, sub.Confidence, time.Now())
			if err := s.eventPublisher.Publish(ctx, evt); err != nil {
				log.Printf("[WARN] Failed to publish SUBSCRIPTION_DETECTED event: %v", err)
			}
		}
	}

	log.Printf("[SUCCESS] Scan stored %d new subscriptions for user %s", len(created), payload.UserId)
	msg.Ack()
}

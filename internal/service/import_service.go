package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"subtrackr-be/internal/dto"
	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/pkg/logger"
	"subtrackr-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScanRequestedMessage is the work-queue payload handed to the detection
// worker after a transaction batch lands.
type ScanRequestedMessage struct {
	UserId uuid.UUID `json:"user_id"`
}

type IImportService interface {
	ImportTransactions(ctx context.Context, userID uuid.UUID, req *dto.ImportTransactionsRequest) (*dto.ImportTransactionsResponse, error)
	ListTransactions(ctx context.Context, userID uuid.UUID) ([]*dto.TransactionResponse, error)
}

type importService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	logger           logger.ILogger
}

func NewImportService(uowFactory unitofwork.RepositoryFactory, publisherService IPublisherService, log logger.ILogger) IImportService {
	return &importService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		logger:           log,
	}
}

// ImportTransactions normalizes and stores a batch of bank transactions,
// then queues a detection scan for the user. Parsing failures reject the
// whole batch so a partial import never skews detection.
func (s *importService) ImportTransactions(ctx context.Context, userID uuid.UUID, req *dto.ImportTransactionsRequest) (*dto.ImportTransactionsResponse, error) {
	transactions := make([]*entity.Transaction, 0, len(req.Transactions))
	for i, item := range req.Transactions {
		postedAt, err := time.Parse(time.RFC3339, item.PostedAt)
		if err != nil {
			// Bank exports often use date-only stamps.
			postedAt, err = time.Parse("2006-01-02", item.PostedAt)
			if err != nil {
				return nil, fmt.Errorf("transaction %d: unparseable posted_at %q", i, item.PostedAt)
			}
		}

		transactions = append(transactions, &entity.Transaction{
			ID:           uuid.New(),
			UserID:       userID,
			MerchantName: item.MerchantName,
			Amount:       decimal.NewFromFloat(item.Amount),
			Currency:     item.Currency,
			PostedAt:     postedAt,
			CreatedAt:    time.Now(),
		})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.TransactionRepository().CreateBatch(ctx, transactions); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(ScanRequestedMessage{UserId: userID})
	if err != nil {
		return nil, err
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		return nil, err
	}

	s.logger.Info("Import", "Transaction batch accepted", map[string]interface{}{
		"user_id": userID.String(),
		"count":   len(transactions),
	})

	return &dto.ImportTransactionsResponse{
		Accepted: len(transactions),
		Message:  "Transactions accepted, subscription scan queued",
	}, nil
}

func (s *importService) ListTransactions(ctx context.Context, userID uuid.UUID) ([]*dto.TransactionResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	transactions, err := uow.TransactionRepository().FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		res = append(res, &dto.TransactionResponse{
			Id:           tx.ID,
			MerchantName: tx.MerchantName,
			Amount:       tx.Amount.StringFixed(2),
			Currency:     tx.Currency,
			PostedAt:     tx.PostedAt,
		})
	}
	return res, nil
}

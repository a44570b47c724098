package implementation

import (
	"context"

	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/model"
	"subtrackr-be/internal/repository/contract"
	"subtrackr-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionRepositoryImpl struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *gorm.DB) contract.TransactionRepository {
	return &transactionRepositoryImpl{db: db}
}

func (r *transactionRepositoryImpl) CreateBatch(ctx context.Context, transactions []*entity.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	var ms []*model.Transaction
	for _, t := range transactions {
		ms = append(ms, &model.Transaction{
			ID:           t.ID,
			UserID:       t.UserID,
			MerchantName: t.MerchantName,
			Amount:       t.Amount,
			Currency:     t.Currency,
			PostedAt:     t.PostedAt,
		})
	}
	return r.db.WithContext(ctx).CreateInBatches(ms, 200).Error
}

func (r *transactionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Transaction, error) {
	var ms []*model.Transaction
	query := r.db.WithContext(ctx)

	for _, spec := range specs {
		query = spec.Apply(query)
	}

	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.mapAll(ms), nil
}

func (r *transactionRepositoryImpl) FindByUser(ctx context.Context, userId uuid.UUID) ([]*entity.Transaction, error) {
	var ms []*model.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userId).
		Order("posted_at ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return r.mapAll(ms), nil
}

func (r *transactionRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).Count(&count).Error
	return count, err
}

func (r *transactionRepositoryImpl) mapAll(ms []*model.Transaction) []*entity.Transaction {
	var out []*entity.Transaction
	for _, m := range ms {
		out = append(out, &entity.Transaction{
			ID:           m.ID,
			UserID:       m.UserID,
			MerchantName: m.MerchantName,
			Amount:       m.Amount,
			Currency:     m.Currency,
			PostedAt:     m.PostedAt,
			CreatedAt:    m.CreatedAt,
		})
	}
	return out
}

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

type subscriptionRepositoryImpl struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) contract.SubscriptionRepository {
	return &subscriptionRepositoryImpl{db: db}
}

func (r *subscriptionRepositoryImpl) Create(ctx context.Context, subscription *entity.Subscription) error {
	return r.db.WithContext(ctx).Create(r.mapToModel(subscription)).Error
}

func (r *subscriptionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error) {
	var ms model.Subscription
	query := r.db.WithContext(ctx)

	for _, spec := range specs {
		query = spec.Apply(query)
	}

	if err := query.First(&ms).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.mapToEntity(&ms), nil
}

func (r *subscriptionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error) {
	var mss []*model.Subscription
	query := r.db.WithContext(ctx)

	for _, spec := range specs {
		query = spec.Apply(query)
	}

	if err := query.Find(&mss).Error; err != nil {
		return nil, err
	}

	var subscriptions []*entity.Subscription
	for _, ms := range mss {
		subscriptions = append(subscriptions, r.mapToEntity(ms))
	}
	return subscriptions, nil
}

func (r *subscriptionRepositoryImpl) Update(ctx context.Context, subscription *entity.Subscription) error {
	return r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("id = ?", subscription.ID).
		Updates(map[string]interface{}{
			"merchant_name":    subscription.MerchantName,
			"amount":           subscription.Amount,
			"currency":         subscription.Currency,
			"billing_interval": string(subscription.BillingInterval),
			"next_due_date":    subscription.NextDueDate,
			"status":           string(subscription.Status),
			"provider_id":      subscription.ProviderID,
			"confidence":       subscription.Confidence,
		}).Error
}

func (r *subscriptionRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.SubscriptionStatus) error {
	return r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("id = ?", id).
		Update("status", string(status)).Error
}

func (r *subscriptionRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Subscription{}, id).Error
}

func (r *subscriptionRepositoryImpl) mapToModel(e *entity.Subscription) *model.Subscription {
	return &model.Subscription{
		ID:              e.ID,
		UserID:          e.UserID,
		ProviderID:      e.ProviderID,
		MerchantName:    e.MerchantName,
		Amount:          e.Amount,
		Currency:        e.Currency,
		BillingInterval: string(e.BillingInterval),
		NextDueDate:     e.NextDueDate,
		Status:          string(e.Status),
		Source:          e.Source,
		Confidence:      e.Confidence,
	}
}

func (r *subscriptionRepositoryImpl) mapToEntity(m *model.Subscription) *entity.Subscription {
	return &entity.Subscription{
		ID:              m.ID,
		UserID:          m.UserID,
		ProviderID:      m.ProviderID,
		MerchantName:    m.MerchantName,
		Amount:          m.Amount,
		Currency:        m.Currency,
		BillingInterval: entity.BillingInterval(m.BillingInterval),
		NextDueDate:     m.NextDueDate,
		Status:          entity.SubscriptionStatus(m.Status),
		Source:          m.Source,
		Confidence:      m.Confidence,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

package contract

import (
	"context"

	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/repository/specification"

	"github.com/google/uuid"
)

// SubscriptionRepository defines operations for tracked subscriptions
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *entity.Subscription) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Subscription, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Subscription, error)
	Update(ctx context.Context, subscription *entity.Subscription) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.SubscriptionStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TransactionRepository defines operations for imported bank transactions
type TransactionRepository interface {
	CreateBatch(ctx context.Context, transactions []*entity.Transaction) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Transaction, error)
	FindByUser(ctx context.Context, userId uuid.UUID) ([]*entity.Transaction, error)
	Count(ctx context.Context) (int64, error)
}

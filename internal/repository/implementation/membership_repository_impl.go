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

type membershipRepositoryImpl struct {
	db *gorm.DB
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *gorm.DB) contract.MembershipRepository {
	return &membershipRepositoryImpl{db: db}
}

func (r *membershipRepositoryImpl) Create(ctx context.Context, membership *entity.Membership) error {
	m := &model.Membership{
		Id:                    membership.Id,
		UserId:                membership.UserId,
		PlanSlug:              membership.PlanSlug,
		Price:                 membership.Price,
		Status:                string(membership.Status),
		PaymentStatus:         string(membership.PaymentStatus),
		CurrentPeriodStart:    membership.CurrentPeriodStart,
		CurrentPeriodEnd:      membership.CurrentPeriodEnd,
		MidtransTransactionId: membership.MidtransTransactionId,
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *membershipRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Membership, error) {
	var mm model.Membership
	query := r.db.WithContext(ctx)

	for _, spec := range specs {
		query = spec.Apply(query)
	}

	if err := query.First(&mm).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.mapToEntity(&mm), nil
}

func (r *membershipRepositoryImpl) FindActiveByUser(ctx context.Context, userId uuid.UUID) (*entity.Membership, error) {
	var mm model.Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userId, "active").
		Order("created_at DESC").
		First(&mm).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.mapToEntity(&mm), nil
}

func (r *membershipRepositoryImpl) Update(ctx context.Context, membership *entity.Membership) error {
	return r.db.WithContext(ctx).Model(&model.Membership{}).
		Where("id = ?", membership.Id).
		Updates(map[string]interface{}{
			"status":                  string(membership.Status),
			"payment_status":          string(membership.PaymentStatus),
			"current_period_start":    membership.CurrentPeriodStart,
			"current_period_end":      membership.CurrentPeriodEnd,
			"midtrans_transaction_id": membership.MidtransTransactionId,
		}).Error
}

func (r *membershipRepositoryImpl) mapToEntity(m *model.Membership) *entity.Membership {
	return &entity.Membership{
		Id:                    m.Id,
		UserId:                m.UserId,
		PlanSlug:              m.PlanSlug,
		Price:                 m.Price,
		Status:                entity.MembershipStatus(m.Status),
		PaymentStatus:         entity.MembershipPaymentStatus(m.PaymentStatus),
		CurrentPeriodStart:    m.CurrentPeriodStart,
		CurrentPeriodEnd:      m.CurrentPeriodEnd,
		MidtransTransactionId: m.MidtransTransactionId,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

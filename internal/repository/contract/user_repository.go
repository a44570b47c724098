package contract

import (
	"context"

	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/repository/specification"

	"github.com/google/uuid"
)

// UserRepository defines operations for user accounts
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// MembershipRepository defines operations for premium memberships
type MembershipRepository interface {
	Create(ctx context.Context, membership *entity.Membership) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Membership, error)
	FindActiveByUser(ctx context.Context, userId uuid.UUID) (*entity.Membership, error)
	Update(ctx context.Context, membership *entity.Membership) error
}

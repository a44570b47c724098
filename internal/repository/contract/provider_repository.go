package contract

import (
	"context"

	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/repository/specification"

	"github.com/google/uuid"
)

// ProviderRepository defines operations for the capability registry
type ProviderRepository interface {
	Upsert(ctx context.Context, provider *entity.Provider) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Provider, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Provider, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Provider, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Provider, error)
}

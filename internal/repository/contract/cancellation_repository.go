package contract

import (
	"context"
	"time"

	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/repository/specification"

	"github.com/google/uuid"
)

// CancellationRepository defines operations for cancellation requests and
// their automation log.
type CancellationRepository interface {
	Create(ctx context.Context, request *entity.CancellationRequest) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CancellationRequest, error)
	FindOneWithLog(ctx context.Context, id uuid.UUID) (*entity.CancellationRequest, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CancellationRequest, error)
	Update(ctx context.Context, request *entity.CancellationRequest) error

	// TransitionToProcessing performs the single-writer gate: one atomic
	// UPDATE that moves an eligible request into processing, bumping the
	// attempt counter. It reports false when the request was not eligible
	// (already processing, terminal, or its retry is not yet due).
	TransitionToProcessing(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)

	// FindDueForRetry returns failed requests whose next_retry_at has
	// elapsed, highest priority first.
	FindDueForRetry(ctx context.Context, now time.Time, limit int) ([]*entity.CancellationRequest, error)

	AppendAttempt(ctx context.Context, attempt *entity.CancellationAttempt) error
	CountAttempts(ctx context.Context, requestID uuid.UUID) (int64, error)

	DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error
}

package implementation

import (
	"context"
	"encoding/json"
	"time"

	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/model"
	"subtrackr-be/internal/repository/contract"
	"subtrackr-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type cancellationRepositoryImpl struct {
	db *gorm.DB
}

// NewCancellationRepository creates a new cancellation repository
func NewCancellationRepository(db *gorm.DB) contract.CancellationRepository {
	return &cancellationRepositoryImpl{db: db}
}

func (r *cancellationRepositoryImpl) Create(ctx context.Context, request *entity.CancellationRequest) error {
	return r.db.WithContext(ctx).Create(r.mapToModel(request)).Error
}

func (r *cancellationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.CancellationRequest, error) {
	var mr model.CancellationRequest
	query := r.db.WithContext(ctx)

	for _, spec := range specs {
		query = spec.Apply(query)
	}

	if err := query.First(&mr).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}

	return r.mapToEntity(&mr), nil
}

// FindOneWithLog returns a request with its automation log in attempt order.
func (r *cancellationRepositoryImpl) FindOneWithLog(ctx context.Context, id uuid.UUID) (*entity.CancellationRequest, error) {
	req, err := r.FindOne(ctx, specification.ByID{ID: id})
	if err != nil || req == nil {
		return req, err
	}

	var attempts []*model.CancellationAttempt
	err = r.db.WithContext(ctx).
		Where("request_id = ?", id).
		Order("attempt_number ASC, created_at ASC").
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}

	for _, a := range attempts {
		req.AutomationLog = append(req.AutomationLog, *r.mapAttemptToEntity(a))
	}
	return req, nil
}

func (r *cancellationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.CancellationRequest, error) {
	var mrs []*model.CancellationRequest
	query := r.db.WithContext(ctx)

	for _, spec := range specs {
		query = spec.Apply(query)
	}

	if err := query.Find(&mrs).Error; err != nil {
		return nil, err
	}

	var requests []*entity.CancellationRequest
	for _, mr := range mrs {
		requests = append(requests, r.mapToEntity(mr))
	}
	return requests, nil
}

func (r *cancellationRepositoryImpl) Update(ctx context.Context, request *entity.CancellationRequest) error {
	updates := map[string]interface{}{
		"status":            string(request.Status),
		"method":            string(request.Method),
		"priority":          string(request.Priority),
		"attempts":          request.Attempts,
		"max_attempts":      request.MaxAttempts,
		"last_attempt_at":   request.LastAttemptAt,
		"next_retry_at":     request.NextRetryAt,
		"confirmation_code": request.ConfirmationCode,
		"refund_amount":     request.RefundAmount,
		"effective_date":    request.EffectiveDate,
		"error_code":        request.ErrorCode,
		"error_message":     request.ErrorMessage,
		"user_confirmed":    request.UserConfirmed,
		"completed_at":      request.CompletedAt,
	}
	if request.ManualInstructions != nil {
		raw, err := json.Marshal(request.ManualInstructions)
		if err != nil {
			return err
		}
		updates["manual_instructions"] = datatypes.JSON(raw)
	}

	return r.db.WithContext(ctx).Model(&model.CancellationRequest{}).
		Where("id = ?", request.ID).
		Updates(updates).Error
}

// TransitionToProcessing is the optimistic-concurrency gate for dispatch.
// The WHERE clause only matches a request that is pending, or failed with a
// due retry, so concurrent dispatchers cannot both claim the same request and
// a terminal request is never re-executed.
func (r *cancellationRepositoryImpl) TransitionToProcessing(ctx context.Context, id uuid.UUID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.CancellationRequest{}).
		Where("id = ? AND (status = ? OR (status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?))",
			id, "pending", "failed", now).
		Updates(map[string]interface{}{
			"status":          "processing",
			"attempts":        gorm.Expr("attempts + 1"),
			"last_attempt_at": now,
			"next_retry_at":   nil,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *cancellationRepositoryImpl) FindDueForRetry(ctx context.Context, now time.Time, limit int) ([]*entity.CancellationRequest, error) {
	var mrs []*model.CancellationRequest
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", "failed", now).
		Order("CASE priority WHEN 'high' THEN 0 WHEN 'normal' THEN 1 ELSE 2 END, next_retry_at ASC").
		Limit(limit).
		Find(&mrs).Error
	if err != nil {
		return nil, err
	}

	var requests []*entity.CancellationRequest
	for _, mr := range mrs {
		requests = append(requests, r.mapToEntity(mr))
	}
	return requests, nil
}

func (r *cancellationRepositoryImpl) AppendAttempt(ctx context.Context, attempt *entity.CancellationAttempt) error {
	ma := &model.CancellationAttempt{
		ID:            attempt.ID,
		RequestID:     attempt.RequestID,
		AttemptNumber: attempt.AttemptNumber,
		Method:        string(attempt.Method),
		Step:          attempt.Step,
		Status:        attempt.Status,
		ErrorCode:     attempt.ErrorCode,
		ErrorMessage:  attempt.ErrorMessage,
	}
	return r.db.WithContext(ctx).Create(ma).Error
}

func (r *cancellationRepositoryImpl) CountAttempts(ctx context.Context, requestID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CancellationAttempt{}).
		Where("request_id = ?", requestID).
		Count(&count).Error
	return count, err
}

func (r *cancellationRepositoryImpl) DeleteAllByUserIdUnscoped(ctx context.Context, userId uuid.UUID) error {
	return r.db.WithContext(ctx).Unscoped().Where("user_id = ?", userId).Delete(&model.CancellationRequest{}).Error
}

func (r *cancellationRepositoryImpl) mapToModel(e *entity.CancellationRequest) *model.CancellationRequest {
	m := &model.CancellationRequest{
		ID:               e.ID,
		UserID:           e.UserID,
		SubscriptionID:   e.SubscriptionID,
		ProviderID:       e.ProviderID,
		Status:           string(e.Status),
		Method:           string(e.Method),
		Priority:         string(e.Priority),
		Attempts:         e.Attempts,
		MaxAttempts:      e.MaxAttempts,
		LastAttemptAt:    e.LastAttemptAt,
		NextRetryAt:      e.NextRetryAt,
		ConfirmationCode: e.ConfirmationCode,
		RefundAmount:     e.RefundAmount,
		EffectiveDate:    e.EffectiveDate,
		ErrorCode:        e.ErrorCode,
		ErrorMessage:     e.ErrorMessage,
		UserConfirmed:    e.UserConfirmed,
		CompletedAt:      e.CompletedAt,
	}
	if e.ManualInstructions != nil {
		if raw, err := json.Marshal(e.ManualInstructions); err == nil {
			m.ManualInstructions = datatypes.JSON(raw)
		}
	}
	return m
}

func (r *cancellationRepositoryImpl) mapToEntity(m *model.CancellationRequest) *entity.CancellationRequest {
	e := &entity.CancellationRequest{
		ID:               m.ID,
		UserID:           m.UserID,
		SubscriptionID:   m.SubscriptionID,
		ProviderID:       m.ProviderID,
		Status:           entity.RequestStatus(m.Status),
		Method:           entity.CancellationMethod(m.Method),
		Priority:         entity.RequestPriority(m.Priority),
		Attempts:         m.Attempts,
		MaxAttempts:      m.MaxAttempts,
		LastAttemptAt:    m.LastAttemptAt,
		NextRetryAt:      m.NextRetryAt,
		ConfirmationCode: m.ConfirmationCode,
		RefundAmount:     m.RefundAmount,
		EffectiveDate:    m.EffectiveDate,
		ErrorCode:        m.ErrorCode,
		ErrorMessage:     m.ErrorMessage,
		UserConfirmed:    m.UserConfirmed,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		CompletedAt:      m.CompletedAt,
	}
	if len(m.ManualInstructions) > 0 {
		var mi entity.ManualInstructions
		if err := json.Unmarshal(m.ManualInstructions, &mi); err == nil {
			e.ManualInstructions = &mi
		}
	}
	return e
}

func (r *cancellationRepositoryImpl) mapAttemptToEntity(m *model.CancellationAttempt) *entity.CancellationAttempt {
	return &entity.CancellationAttempt{
		ID:            m.ID,
		RequestID:     m.RequestID,
		AttemptNumber: m.AttemptNumber,
		Method:        entity.CancellationMethod(m.Method),
		Step:          m.Step,
		Status:        m.Status,
		ErrorCode:     m.ErrorCode,
		ErrorMessage:  m.ErrorMessage,
		CreatedAt:     m.CreatedAt,
	}
}

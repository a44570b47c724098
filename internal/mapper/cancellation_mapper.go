package mapper

import (
	"subtrackr-be/internal/dto"
	"subtrackr-be/internal/entity"
	"subtrackr-be/pkg/cancellation"
)

type CancellationMapper struct{}

func NewCancellationMapper() *CancellationMapper {
	return &CancellationMapper{}
}

func (m *CancellationMapper) ToStatusResponse(req *entity.CancellationRequest) *dto.CancellationStatusResponse {
	if req == nil {
		return nil
	}

	res := &dto.CancellationStatusResponse{
		Id:              req.ID,
		SubscriptionId:  req.SubscriptionID,
		MerchantName:    req.Subscription.MerchantName,
		Status:          string(req.Status),
		Method:          string(req.Method),
		Priority:        string(req.Priority),
		Attempts:        req.Attempts,
		MaxAttempts:     req.MaxAttempts,
		LastAttemptAt:   req.LastAttemptAt,
		NextRetryAt:     req.NextRetryAt,
		Progress:        cancellation.ProgressFor(req.Status, req.Attempts, req.MaxAttempts),
		ProgressMessage: cancellation.ProgressMessage(req.Status, req.Method, req.Attempts, req.MaxAttempts),

		ConfirmationCode: req.ConfirmationCode,
		RefundAmount:     req.RefundAmount,
		EffectiveDate:    req.EffectiveDate,
		ErrorCode:        req.ErrorCode,
		ErrorMessage:     req.ErrorMessage,

		CreatedAt:   req.CreatedAt,
		CompletedAt: req.CompletedAt,
	}

	if req.ManualInstructions != nil {
		res.ManualInstructions = &dto.ManualInstructionsResponse{
			Steps:        req.ManualInstructions.Steps,
			ContactPhone: req.ManualInstructions.ContactPhone,
			ContactEmail: req.ManualInstructions.ContactEmail,
			WebsiteURL:   req.ManualInstructions.WebsiteURL,
			Notes:        req.ManualInstructions.Notes,
		}
	}

	for _, attempt := range req.AutomationLog {
		res.AutomationLog = append(res.AutomationLog, dto.CancellationAttemptResponse{
			AttemptNumber: attempt.AttemptNumber,
			Method:        string(attempt.Method),
			Step:          attempt.Step,
			Status:        attempt.Status,
			ErrorCode:     attempt.ErrorCode,
			ErrorMessage:  attempt.ErrorMessage,
			CreatedAt:     attempt.CreatedAt,
		})
	}

	return res
}

func (m *CancellationMapper) ToListItem(req *entity.CancellationRequest) dto.CancellationListItemResponse {
	return dto.CancellationListItemResponse{
		Id:             req.ID,
		SubscriptionId: req.SubscriptionID,
		MerchantName:   req.Subscription.MerchantName,
		Status:         string(req.Status),
		Method:         string(req.Method),
		Attempts:       req.Attempts,
		Progress:       cancellation.ProgressFor(req.Status, req.Attempts, req.MaxAttempts),
		CreatedAt:      req.CreatedAt,
		CompletedAt:    req.CompletedAt,
	}
}

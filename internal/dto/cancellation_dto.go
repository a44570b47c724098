package dto

import (
	"time"

	"github.com/google/uuid"
)

// --- Creating a Cancellation Request ---

// CreateCancellationRequest for a user starting a cancellation
type CreateCancellationRequest struct {
	SubscriptionId uuid.UUID `json:"subscription_id" validate:"required"`
	Priority       string    `json:"priority,omitempty" validate:"omitempty,oneof=low normal high"`
}

// CreateCancellationResponse after the request is accepted
type CreateCancellationResponse struct {
	RequestId uuid.UUID `json:"request_id"`
	Status    string    `json:"status"`
	Method    string    `json:"method"`
	Message   string    `json:"message"`
}

// --- Status & History ---

// ManualInstructionsResponse is the normalized instruction block shown when
// automation is unavailable or exhausted.
type ManualInstructionsResponse struct {
	Steps        []string `json:"steps"`
	ContactPhone string   `json:"contact_phone,omitempty"`
	ContactEmail string   `json:"contact_email,omitempty"`
	WebsiteURL   string   `json:"website_url,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// CancellationAttemptResponse is one entry of the automation log
type CancellationAttemptResponse struct {
	AttemptNumber int       `json:"attempt_number"`
	Method        string    `json:"method"`
	Step          string    `json:"step"`
	Status        string    `json:"status"`
	ErrorCode     *string   `json:"error_code,omitempty"`
	ErrorMessage  *string   `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// CancellationStatusResponse is the full detail view of one request
type CancellationStatusResponse struct {
	Id             uuid.UUID `json:"id"`
	SubscriptionId uuid.UUID `json:"subscription_id"`
	MerchantName   string    `json:"merchant_name"`
	Status         string    `json:"status"`
	Method         string    `json:"method"`
	Priority       string    `json:"priority"`

	Attempts      int        `json:"attempts"`
	MaxAttempts   int        `json:"max_attempts"`
	LastAttemptAt *time.Time `json:"last_attempt_at,omitempty"`
	NextRetryAt   *time.Time `json:"next_retry_at,omitempty"`

	Progress        int    `json:"progress"`
	ProgressMessage string `json:"progress_message"`

	ConfirmationCode   *string                       `json:"confirmation_code,omitempty"`
	RefundAmount       *float64                      `json:"refund_amount,omitempty"`
	EffectiveDate      *time.Time                    `json:"effective_date,omitempty"`
	ErrorCode          *string                       `json:"error_code,omitempty"`
	ErrorMessage       *string                       `json:"error_message,omitempty"`
	ManualInstructions *ManualInstructionsResponse   `json:"manual_instructions,omitempty"`
	AutomationLog      []CancellationAttemptResponse `json:"automation_log,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// CancellationListItemResponse is the compact list view
type CancellationListItemResponse struct {
	Id             uuid.UUID  `json:"id"`
	SubscriptionId uuid.UUID  `json:"subscription_id"`
	MerchantName   string     `json:"merchant_name"`
	Status         string     `json:"status"`
	Method         string     `json:"method"`
	Attempts       int        `json:"attempts"`
	Progress       int        `json:"progress"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// --- User Actions ---

// ConfirmManualRequest is the user's report after following manual steps
type ConfirmManualRequest struct {
	WasSuccessful    bool       `json:"was_successful"`
	ConfirmationCode *string    `json:"confirmation_code,omitempty" validate:"omitempty,max=100"`
	EffectiveDate    *time.Time `json:"effective_date,omitempty"`
	RefundAmount     *float64   `json:"refund_amount,omitempty" validate:"omitempty,gte=0"`
}

// CancellationActionResponse is returned by retry and confirm endpoints
type CancellationActionResponse struct {
	RequestId uuid.UUID `json:"request_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
}

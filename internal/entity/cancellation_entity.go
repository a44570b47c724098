package entity

import (
	"time"

	"github.com/google/uuid"
)

// RequestStatus represents the lifecycle state of a cancellation request.
type RequestStatus string

// CancellationMethod is the mechanism used to attempt a cancellation.
type CancellationMethod string

// RequestPriority influences scheduling order for retries.
type RequestPriority string

const (
	RequestStatusPending        RequestStatus = "pending"
	RequestStatusProcessing     RequestStatus = "processing"
	RequestStatusCompleted      RequestStatus = "completed"
	RequestStatusFailed         RequestStatus = "failed"
	RequestStatusRequiresManual RequestStatus = "requires_manual"
	RequestStatusCancelled      RequestStatus = "cancelled"

	MethodAPI           CancellationMethod = "api"
	MethodWebAutomation CancellationMethod = "web_automation"
	MethodManual        CancellationMethod = "manual"

	PriorityLow    RequestPriority = "low"
	PriorityNormal RequestPriority = "normal"
	PriorityHigh   RequestPriority = "high"
)

// IsTerminal reports whether no further dispatch may change the request.
// requires_manual is terminal for the automated pipeline but still waits
// for a user confirmation, so it is not included here.
func (s RequestStatus) IsTerminal() bool {
	return s == RequestStatusCompleted || s == RequestStatusCancelled
}

// IsDispatchable reports whether a dispatch may pick the request up.
func (s RequestStatus) IsDispatchable() bool {
	return s == RequestStatusPending || s == RequestStatusFailed
}

// ManualInstructions is the single normalized shape shown to the user when
// automation is unavailable or exhausted. Provider rows may carry several
// legacy template shapes; they are collapsed into this one at the boundary.
type ManualInstructions struct {
	Steps        []string `json:"steps"`
	ContactPhone string   `json:"contact_phone,omitempty"`
	ContactEmail string   `json:"contact_email,omitempty"`
	WebsiteURL   string   `json:"website_url,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// CancellationRequest is one user-initiated attempt to cancel a subscription.
type CancellationRequest struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	SubscriptionID uuid.UUID
	ProviderID     *uuid.UUID

	Status   RequestStatus
	Method   CancellationMethod
	Priority RequestPriority

	Attempts      int
	MaxAttempts   int
	LastAttemptAt *time.Time
	NextRetryAt   *time.Time

	ConfirmationCode   *string
	RefundAmount       *float64
	EffectiveDate      *time.Time
	ErrorCode          *string
	ErrorMessage       *string
	ManualInstructions *ManualInstructions
	UserConfirmed      bool

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time

	// Populated by detail queries.
	Subscription  Subscription
	AutomationLog []CancellationAttempt
}

// CancellationAttempt is one entry of the ordered automation log.
type CancellationAttempt struct {
	ID            uuid.UUID
	RequestID     uuid.UUID
	AttemptNumber int
	Method        CancellationMethod
	Step          string
	Status        string
	ErrorCode     *string
	ErrorMessage  *string
	CreatedAt     time.Time
}

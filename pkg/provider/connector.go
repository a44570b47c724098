package provider

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SubscriptionContext carries everything a connector needs to attempt a
// cancellation against the external provider.
type SubscriptionContext struct {
	RequestID      uuid.UUID
	SubscriptionID uuid.UUID
	UserID         uuid.UUID
	ProviderSlug   string
	MerchantName   string
	AccountEmail   string
}

// Outcome is the single contract every cancellation mechanism reports back.
// A failed attempt is data, not an error: the orchestrator turns it into a
// retry or a manual escalation.
type Outcome struct {
	Success          bool
	ConfirmationCode string
	EffectiveDate    *time.Time
	RefundAmount     *float64
	ErrorCode        string
	ErrorMessage     string
}

// Connector executes one cancellation mechanism (api or web_automation) for
// one provider. Implementations live outside this module; tests register
// fakes.
type Connector interface {
	// Method returns the mechanism this connector implements.
	Method() string

	// AttemptCancel performs one cancellation attempt. It never returns a
	// Go error: every failure mode is encoded in the Outcome.
	AttemptCancel(ctx context.Context, sub SubscriptionContext) Outcome
}

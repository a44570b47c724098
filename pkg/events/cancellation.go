package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeCancellationProgress  = "CANCELLATION_PROGRESS"
	TypeCancellationRequested = "CANCELLATION_REQUESTED"
	TypeSubscriptionDetected  = "SUBSCRIPTION_DETECTED"
)

// NewCancellationProgress builds the bus event for one lifecycle transition
// of a cancellation request. Consumers rely on occurred_at for ordering.
func NewCancellationProgress(requestId, userId uuid.UUID, status, message string, progress, attempts int, occurredAt time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeCancellationProgress,
		Data: map[string]interface{}{
			"request_id":  requestId.String(),
			"user_id":     userId.String(),
			"status":      status,
			"message":     message,
			"progress":    progress,
			"attempts":    attempts,
			"entity_type": "cancellation_request",
			"entity_id":   requestId.String(),
			"occurred_at": occurredAt,
		},
		OccurredAt: occurredAt,
	}
}

// NewCancellationRequested marks the creation of a new request.
func NewCancellationRequested(requestId, subscriptionId, userId uuid.UUID, method string, occurredAt time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeCancellationRequested,
		Data: map[string]interface{}{
			"request_id":      requestId.String(),
			"subscription_id": subscriptionId.String(),
			"user_id":         userId.String(),
			"method":          method,
			"entity_type":     "cancellation_request",
			"entity_id":       requestId.String(),
			"occurred_at":     occurredAt,
		},
		OccurredAt: occurredAt,
	}
}

// NewSubscriptionDetected announces a subscription surfaced by the detector.
func NewSubscriptionDetected(subscriptionId, userId uuid.UUID, merchantName string, confidence float64, occurredAt time.Time) BaseEvent {
	return BaseEvent{
		Type: TypeSubscriptionDetected,
		Data: map[string]interface{}{
			"subscription_id": subscriptionId.String(),
			"user_id":         userId.String(),
			"merchant_name":   merchantName,
			"confidence":      confidence,
			"entity_type":     "subscription",
			"entity_id":       subscriptionId.String(),
			"occurred_at":     occurredAt,
		},
		OccurredAt: occurredAt,
	}
}

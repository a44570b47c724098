package cancellation

import (
	"context"
	"fmt"
	"time"

	"subtrackr-be/internal/entity"

	"github.com/google/uuid"
)

// ProgressEvent is one ordered status update for a cancellation request.
// Events are emitted in state-transition order and Progress never decreases
// for the same request: 0 at pending, 100 at any terminal state.
type ProgressEvent struct {
	RequestID  uuid.UUID            `json:"request_id"`
	UserID     uuid.UUID            `json:"user_id"`
	Status     entity.RequestStatus `json:"status"`
	Message    string               `json:"message"`
	Progress   int                  `json:"progress"`
	Attempts   int                  `json:"attempts"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// ProgressSink receives progress events. Implemented by the notification
// service (inbox + websocket + NATS) in the application wiring.
type ProgressSink interface {
	Publish(ctx context.Context, event ProgressEvent)
}

// ProgressFor maps a request state to a percentage. The scale is carved so
// that the value is non-decreasing along every path the state machine
// allows: each attempt advances the bar, requires_manual parks at 90, and
// the terminal states are 100.
func ProgressFor(status entity.RequestStatus, attempts, maxAttempts int) int {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	switch status {
	case entity.RequestStatusPending:
		return 0
	case entity.RequestStatusProcessing:
		done := attempts - 1
		if done < 0 {
			done = 0
		}
		return capProgress(10 + (80*done)/maxAttempts)
	case entity.RequestStatusFailed:
		return capProgress(10 + (80*attempts)/maxAttempts)
	case entity.RequestStatusRequiresManual:
		return 90
	case entity.RequestStatusCompleted, entity.RequestStatusCancelled:
		return 100
	}
	return 0
}

func capProgress(p int) int {
	if p > 90 {
		return 90
	}
	return p
}

// ProgressMessage renders the user-facing line for a state. Every status has
// a renderable message so the progress UI never dead-ends.
func ProgressMessage(status entity.RequestStatus, method entity.CancellationMethod, attempts, maxAttempts int) string {
	switch status {
	case entity.RequestStatusPending:
		return "Cancellation request received"
	case entity.RequestStatusProcessing:
		switch method {
		case entity.MethodAPI:
			return fmt.Sprintf("Contacting the provider (attempt %d of %d)", attempts, maxAttempts)
		case entity.MethodWebAutomation:
			return fmt.Sprintf("Running automated cancellation (attempt %d of %d)", attempts, maxAttempts)
		default:
			return "Preparing cancellation instructions"
		}
	case entity.RequestStatusFailed:
		return fmt.Sprintf("Attempt %d of %d did not succeed, a retry is scheduled", attempts, maxAttempts)
	case entity.RequestStatusRequiresManual:
		return "Automated cancellation was not possible, manual steps are ready for you"
	case entity.RequestStatusCompleted:
		return "Subscription cancelled"
	case entity.RequestStatusCancelled:
		return "Cancellation request closed"
	}
	return string(status)
}

// EventFor builds the progress event for a request in its current state.
func EventFor(req *entity.CancellationRequest, now time.Time) ProgressEvent {
	return ProgressEvent{
		RequestID:  req.ID,
		UserID:     req.UserID,
		Status:     req.Status,
		Message:    ProgressMessage(req.Status, req.Method, req.Attempts, req.MaxAttempts),
		Progress:   ProgressFor(req.Status, req.Attempts, req.MaxAttempts),
		Attempts:   req.Attempts,
		OccurredAt: now,
	}
}

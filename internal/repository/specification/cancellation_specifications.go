package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BySubscriptionID filters cancellation requests for one subscription
type BySubscriptionID struct {
	SubscriptionID uuid.UUID
}

func (s BySubscriptionID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("subscription_id = ?", s.SubscriptionID)
}

// StatusIn filters by a set of statuses
type StatusIn struct {
	Statuses []string
}

func (s StatusIn) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status IN ?", s.Statuses)
}

// NonTerminal matches requests the automated pipeline may still touch.
// requires_manual is included: it still awaits user confirmation, and at
// most one such request may exist per subscription.
type NonTerminal struct{}

func (s NonTerminal) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status NOT IN ?", []string{"completed", "cancelled"})
}

// RetryDue matches failed requests whose scheduled retry has elapsed
type RetryDue struct {
	Now time.Time
}

func (s RetryDue) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", "failed", s.Now)
}

// PostedBetween filters transactions by posting window
type PostedBetween struct {
	From time.Time
	To   time.Time
}

func (s PostedBetween) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("posted_at >= ? AND posted_at < ?", s.From, s.To)
}

package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CancellationRequest GORM model for subscription cancellation requests
type CancellationRequest struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	SubscriptionID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProviderID     *uuid.UUID `gorm:"type:uuid;index"`

	Status   string `gorm:"type:varchar(30);default:'pending';index"` // pending, processing, completed, failed, requires_manual, cancelled
	Method   string `gorm:"type:varchar(20);not null"`                // api, web_automation, manual
	Priority string `gorm:"type:varchar(10);default:'normal'"`

	Attempts      int `gorm:"not null;default:0"`
	MaxAttempts   int `gorm:"not null;default:3"`
	LastAttemptAt *time.Time
	NextRetryAt   *time.Time `gorm:"index"`

	ConfirmationCode   *string `gorm:"type:varchar(100)"`
	RefundAmount       *float64
	EffectiveDate      *time.Time
	ErrorCode          *string        `gorm:"type:varchar(100)"`
	ErrorMessage       *string        `gorm:"type:text"`
	ManualInstructions datatypes.JSON `gorm:"type:jsonb"`
	UserConfirmed      bool           `gorm:"default:false"`

	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	CompletedAt *time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`

	// Relations
	Subscription Subscription `gorm:"foreignKey:SubscriptionID"`
	User         User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (CancellationRequest) TableName() string {
	return "cancellation_requests"
}

// CancellationAttempt GORM model for the ordered automation log
type CancellationAttempt struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID     uuid.UUID `gorm:"type:uuid;not null;index:idx_cancellation_attempts_request"`
	AttemptNumber int       `gorm:"not null"`
	Method        string    `gorm:"type:varchar(20);not null"`
	Step          string    `gorm:"type:varchar(100);not null"`
	Status        string    `gorm:"type:varchar(30);not null"` // succeeded, failed
	ErrorCode     *string   `gorm:"type:varchar(100)"`
	ErrorMessage  *string   `gorm:"type:text"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
}

func (CancellationAttempt) TableName() string {
	return "cancellation_attempts"
}

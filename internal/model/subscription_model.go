package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Subscription GORM model for detected/manual recurring payments
type Subscription struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index:idx_subscriptions_user_status,priority:1"`
	ProviderID *uuid.UUID `gorm:"type:uuid;index"`

	MerchantName    string          `gorm:"type:varchar(200);not null;index"`
	Amount          decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency        string          `gorm:"type:varchar(3);default:'USD'"`
	BillingInterval string          `gorm:"type:varchar(20);not null"` // weekly, monthly, quarterly, yearly
	NextDueDate     *time.Time
	Status          string `gorm:"type:varchar(20);default:'active';index:idx_subscriptions_user_status,priority:2"`

	Source     string  `gorm:"type:varchar(20);default:'detected'"` // detected, manual
	Confidence float64 `gorm:"default:0"`

	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `gorm:"index"`

	// Relations
	User     User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Provider *Provider `gorm:"foreignKey:ProviderID"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// Transaction GORM model for imported bank transactions
type Transaction struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_transactions_user_posted,priority:1"`
	MerchantName string          `gorm:"type:varchar(200);not null;index"`
	Amount       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency     string          `gorm:"type:varchar(3);default:'USD'"`
	PostedAt     time.Time       `gorm:"not null;index:idx_transactions_user_posted,priority:2"`
	CreatedAt    time.Time       `gorm:"autoCreateTime"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (Transaction) TableName() string {
	return "transactions"
}

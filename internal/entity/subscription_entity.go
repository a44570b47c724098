package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SubscriptionStatus string
type BillingInterval string

const (
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"
	SubscriptionStatusArchived  SubscriptionStatus = "archived"

	BillingIntervalWeekly    BillingInterval = "weekly"
	BillingIntervalMonthly   BillingInterval = "monthly"
	BillingIntervalQuarterly BillingInterval = "quarterly"
	BillingIntervalYearly    BillingInterval = "yearly"
)

// Subscription is a detected or manually entered recurring payment.
type Subscription struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ProviderID *uuid.UUID

	MerchantName    string
	Amount          decimal.Decimal
	Currency        string
	BillingInterval BillingInterval
	NextDueDate     *time.Time
	Status          SubscriptionStatus

	// detected vs manual entry
	Source     string
	Confidence float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Transaction is one normalized bank transaction used by the detector.
type Transaction struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	MerchantName string
	Amount       decimal.Decimal
	Currency     string
	PostedAt     time.Time
	CreatedAt    time.Time
}

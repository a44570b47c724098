package dto

import (
	"time"

	"github.com/google/uuid"
)

// --- Subscriptions ---

// CreateSubscriptionRequest for manually tracked subscriptions
type CreateSubscriptionRequest struct {
	MerchantName    string  `json:"merchant_name" validate:"required,min=2,max=120"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	Currency        string  `json:"currency" validate:"required,len=3"`
	BillingInterval string  `json:"billing_interval" validate:"required,oneof=weekly monthly quarterly yearly"`
	NextDueDate     *string `json:"next_due_date,omitempty"`
}

// UpdateSubscriptionRequest edits a tracked subscription
type UpdateSubscriptionRequest struct {
	MerchantName    *string  `json:"merchant_name,omitempty" validate:"omitempty,min=2,max=120"`
	Amount          *float64 `json:"amount,omitempty" validate:"omitempty,gt=0"`
	BillingInterval *string  `json:"billing_interval,omitempty" validate:"omitempty,oneof=weekly monthly quarterly yearly"`
	Status          *string  `json:"status,omitempty" validate:"omitempty,oneof=active cancelled archived"`
}

// SubscriptionResponse is the standard subscription view
type SubscriptionResponse struct {
	Id              uuid.UUID  `json:"id"`
	MerchantName    string     `json:"merchant_name"`
	Amount          string     `json:"amount"`
	Currency        string     `json:"currency"`
	BillingInterval string     `json:"billing_interval"`
	NextDueDate     *time.Time `json:"next_due_date,omitempty"`
	Status          string     `json:"status"`
	Source          string     `json:"source"`
	Confidence      float64    `json:"confidence,omitempty"`
	ProviderSlug    string     `json:"provider_slug,omitempty"`
	Cancellable     bool       `json:"cancellable"`
	CreatedAt       time.Time  `json:"created_at"`
}

// --- Transaction Import ---

// ImportTransactionItem is one normalized bank transaction
type ImportTransactionItem struct {
	MerchantName string  `json:"merchant_name" validate:"required"`
	Amount       float64 `json:"amount" validate:"required"`
	Currency     string  `json:"currency" validate:"required,len=3"`
	PostedAt     string  `json:"posted_at" validate:"required"`
}

// ImportTransactionsRequest is a batch of transactions to scan
type ImportTransactionsRequest struct {
	Transactions []ImportTransactionItem `json:"transactions" validate:"required,min=1,max=5000,dive"`
}

// ImportTransactionsResponse acknowledges the batch
type ImportTransactionsResponse struct {
	Accepted int    `json:"accepted"`
	Message  string `json:"message"`
}

// TransactionResponse is one stored bank transaction
type TransactionResponse struct {
	Id           uuid.UUID `json:"id"`
	MerchantName string    `json:"merchant_name"`
	Amount       string    `json:"amount"`
	Currency     string    `json:"currency"`
	PostedAt     time.Time `json:"posted_at"`
}

// DetectedSubscriptionResponse is one candidate from a detection run
type DetectedSubscriptionResponse struct {
	SubscriptionId  uuid.UUID `json:"subscription_id"`
	MerchantName    string    `json:"merchant_name"`
	Amount          string    `json:"amount"`
	BillingInterval string    `json:"billing_interval"`
	Confidence      float64   `json:"confidence"`
}

package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	UserRoleUser  = "user"
	UserRoleAdmin = "admin"

	UserStatusActive  = "active"
	UserStatusBlocked = "blocked"
)

type User struct {
	Id           uuid.UUID
	Email        string
	FullName     string
	PasswordHash *string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type MembershipStatus string
type MembershipPaymentStatus string

const (
	MembershipStatusActive   MembershipStatus = "active"
	MembershipStatusInactive MembershipStatus = "inactive"
	MembershipStatusCanceled MembershipStatus = "canceled"

	MembershipPaymentPending MembershipPaymentStatus = "pending"
	MembershipPaymentPaid    MembershipPaymentStatus = "success"
	MembershipPaymentFailed  MembershipPaymentStatus = "failed"
)

// Membership is the user's premium plan of the tracker itself, distinct
// from the external Subscriptions the product tracks for the user.
type Membership struct {
	Id                    uuid.UUID
	UserId                uuid.UUID
	PlanSlug              string
	Price                 float64
	Status                MembershipStatus
	PaymentStatus         MembershipPaymentStatus
	CurrentPeriodStart    time.Time
	CurrentPeriodEnd      time.Time
	MidtransTransactionId *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

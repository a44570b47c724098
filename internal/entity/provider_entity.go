package entity

import (
	"time"

	"github.com/google/uuid"
)

// Provider is one row of the capability registry: which cancellation
// mechanisms a merchant supports and how a user can cancel by hand.
type Provider struct {
	ID   uuid.UUID
	Slug string
	Name string

	SupportsAPI           bool
	APIConfigured         bool
	SupportsWebAutomation bool
	AutomationRegistered  bool

	ManualSteps  []string
	ContactPhone string
	ContactEmail string
	WebsiteURL   string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Capabilities collapses the registry flags into what the method selector
// actually consumes. A method is usable only when the provider both declares
// support and has the integration wired.
func (p *Provider) Capabilities() ProviderCapabilities {
	if p == nil {
		return ProviderCapabilities{}
	}
	return ProviderCapabilities{
		APIAvailable:           p.SupportsAPI && p.APIConfigured,
		WebAutomationAvailable: p.SupportsWebAutomation && p.AutomationRegistered,
	}
}

// ProviderCapabilities are the prerequisite flags the method selector reads.
type ProviderCapabilities struct {
	APIAvailable           bool
	WebAutomationAvailable bool
}

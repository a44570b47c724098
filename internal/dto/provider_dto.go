package dto

import (
	"github.com/google/uuid"
)

// ProviderResponse is one entry of the public capability registry
type ProviderResponse struct {
	Id                    uuid.UUID `json:"id"`
	Slug                  string    `json:"slug"`
	Name                  string    `json:"name"`
	SupportsAPI           bool      `json:"supports_api"`
	SupportsWebAutomation bool      `json:"supports_web_automation"`
	PreferredMethod       string    `json:"preferred_method"`
	WebsiteURL            string    `json:"website_url,omitempty"`
}

// UpsertProviderRequest creates or updates a capability registry entry
type UpsertProviderRequest struct {
	Slug                  string   `json:"slug" validate:"required,lowercase"`
	Name                  string   `json:"name" validate:"required"`
	SupportsAPI           bool     `json:"supports_api"`
	APIConfigured         bool     `json:"api_configured"`
	SupportsWebAutomation bool     `json:"supports_web_automation"`
	AutomationRegistered  bool     `json:"automation_registered"`
	ManualSteps           []string `json:"manual_steps" validate:"omitempty,dive,required"`
	ContactPhone          string   `json:"contact_phone"`
	ContactEmail          string   `json:"contact_email" validate:"omitempty,email"`
	WebsiteURL            string   `json:"website_url" validate:"omitempty,url"`
}

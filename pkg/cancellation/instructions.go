package cancellation

import (
	"fmt"

	"subtrackr-be/internal/entity"
)

// BuildManualInstructions collapses whatever the provider registry carries
// into the single normalized ManualInstructions shape. Providers without a
// curated step list get a generic fallback, so the result always has at
// least one step.
func BuildManualInstructions(provider *entity.Provider, merchantName string) *entity.ManualInstructions {
	if provider == nil {
		return genericInstructions(providerDisplayName(nil, merchantName))
	}

	mi := &entity.ManualInstructions{
		Steps:        provider.ManualSteps,
		ContactPhone: provider.ContactPhone,
		ContactEmail: provider.ContactEmail,
		WebsiteURL:   provider.WebsiteURL,
	}

	if len(mi.Steps) == 0 {
		fallback := genericInstructions(providerDisplayName(provider, merchantName))
		mi.Steps = fallback.Steps
		mi.Notes = fallback.Notes
	}
	return mi
}

func providerDisplayName(provider *entity.Provider, merchantName string) string {
	if provider != nil && provider.Name != "" {
		return provider.Name
	}
	if merchantName != "" {
		return merchantName
	}
	return "provider"
}

func genericInstructions(name string) *entity.ManualInstructions {
	return &entity.ManualInstructions{
		Steps: []string{
			fmt.Sprintf("Log in to your %s account", name),
			"Open the account or billing settings page",
			"Look for a \"Cancel subscription\" or \"Manage plan\" option and follow the prompts",
			"Save any confirmation number you receive",
			"Return here and confirm whether the cancellation succeeded",
		},
		Notes: "If you cannot find a cancellation option, contact the provider's support and ask them to cancel the subscription for you.",
	}
}

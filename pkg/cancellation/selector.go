package cancellation

import (
	"subtrackr-be/internal/entity"
)

// SelectMethod picks the cancellation mechanism for a provider, preferring
// direct API, then web automation, then manual. Manual is the universal
// fallback: it has no prerequisites and is returned for unknown providers,
// so selection never fails.
func SelectMethod(caps entity.ProviderCapabilities) entity.CancellationMethod {
	if caps.APIAvailable {
		return entity.MethodAPI
	}
	if caps.WebAutomationAvailable {
		return entity.MethodWebAutomation
	}
	return entity.MethodManual
}

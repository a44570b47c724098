package mapper

import (
	"subtrackr-be/internal/dto"
	"subtrackr-be/internal/entity"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) ToResponse(sub *entity.Subscription, providerSlug string) *dto.SubscriptionResponse {
	if sub == nil {
		return nil
	}
	return &dto.SubscriptionResponse{
		Id:              sub.ID,
		MerchantName:    sub.MerchantName,
		Amount:          sub.Amount.StringFixed(2),
		Currency:        sub.Currency,
		BillingInterval: string(sub.BillingInterval),
		NextDueDate:     sub.NextDueDate,
		Status:          string(sub.Status),
		Source:          sub.Source,
		Confidence:      sub.Confidence,
		ProviderSlug:    providerSlug,
		Cancellable:     sub.Status == entity.SubscriptionStatusActive,
		CreatedAt:       sub.CreatedAt,
	}
}

func (m *SubscriptionMapper) ToProviderResponse(p *entity.Provider) dto.ProviderResponse {
	caps := p.Capabilities()
	preferred := "manual"
	if caps.APIAvailable {
		preferred = "api"
	} else if caps.WebAutomationAvailable {
		preferred = "web_automation"
	}
	return dto.ProviderResponse{
		Id:                    p.ID,
		Slug:                  p.Slug,
		Name:                  p.Name,
		SupportsAPI:           caps.APIAvailable,
		SupportsWebAutomation: caps.WebAutomationAvailable,
		PreferredMethod:       preferred,
		WebsiteURL:            p.WebsiteURL,
	}
}

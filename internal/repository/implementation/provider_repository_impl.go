package implementation

import (
	"context"
	"encoding/json"

	"subtrackr-be/internal/entity"
	"subtrackr-be/internal/model"
	"subtrackr-be/internal/repository/contract"
	"subtrackr-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type providerRepositoryImpl struct {
	db *gorm.DB
}

// NewProviderRepository creates a new provider capability registry repository
func NewProviderRepository(db *gorm.DB) contract.ProviderRepository {
	return &providerRepositoryImpl{db: db}
}

func (r *providerRepositoryImpl) Upsert(ctx context.Context, provider *entity.Provider) error {
	m := r.mapToModel(provider)
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "supports_api", "api_configured",
			"supports_web_automation", "automation_registered",
			"manual_steps", "contact_phone", "contact_email", "website_url",
			"updated_at",
		}),
	}).Create(m).Error
}

func (r *providerRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Provider, error) {
	var mp model.Provider
	query := r.db.WithContext(ctx)

	for _, spec := range specs {
		query = spec.Apply(query)
	}

	if err := query.First(&mp).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return r.mapToEntity(&mp), nil
}

func (r *providerRepositoryImpl) FindBySlug(ctx context.Context, slug string) (*entity.Provider, error) {
	return r.FindOne(ctx, specification.Filter("slug", slug))
}

func (r *providerRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.Provider, error) {
	return r.FindOne(ctx, specification.ByID{ID: id})
}

func (r *providerRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Provider, error) {
	var mps []*model.Provider
	query := r.db.WithContext(ctx)

	for _, spec := range specs {
		query = spec.Apply(query)
	}

	if err := query.Find(&mps).Error; err != nil {
		return nil, err
	}

	var providers []*entity.Provider
	for _, mp := range mps {
		providers = append(providers, r.mapToEntity(mp))
	}
	return providers, nil
}

func (r *providerRepositoryImpl) mapToModel(e *entity.Provider) *model.Provider {
	m := &model.Provider{
		ID:                    e.ID,
		Slug:                  e.Slug,
		Name:                  e.Name,
		SupportsAPI:           e.SupportsAPI,
		APIConfigured:         e.APIConfigured,
		SupportsWebAutomation: e.SupportsWebAutomation,
		AutomationRegistered:  e.AutomationRegistered,
		ContactPhone:          e.ContactPhone,
		ContactEmail:          e.ContactEmail,
		WebsiteURL:            e.WebsiteURL,
	}
	if raw, err := json.Marshal(e.ManualSteps); err == nil {
		m.ManualSteps = datatypes.JSON(raw)
	}
	return m
}

func (r *providerRepositoryImpl) mapToEntity(m *model.Provider) *entity.Provider {
	e := &entity.Provider{
		ID:                    m.ID,
		Slug:                  m.Slug,
		Name:                  m.Name,
		SupportsAPI:           m.SupportsAPI,
		APIConfigured:         m.APIConfigured,
		SupportsWebAutomation: m.SupportsWebAutomation,
		AutomationRegistered:  m.AutomationRegistered,
		ContactPhone:          m.ContactPhone,
		ContactEmail:          m.ContactEmail,
		WebsiteURL:            m.WebsiteURL,
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
	if len(m.ManualSteps) > 0 {
		_ = json.Unmarshal(m.ManualSteps, &e.ManualSteps)
	}
	return e
}

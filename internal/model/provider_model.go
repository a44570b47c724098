package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Provider GORM model: the cancellation capability registry
type Provider struct {
	ID   uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Slug string    `gorm:"type:varchar(100);unique;not null"`
	Name string    `gorm:"type:varchar(200);not null"`

	SupportsAPI           bool `gorm:"default:false"`
	APIConfigured         bool `gorm:"default:false"`
	SupportsWebAutomation bool `gorm:"default:false"`
	AutomationRegistered  bool `gorm:"default:false"`

	ManualSteps  datatypes.JSON `gorm:"type:jsonb"` // []string
	ContactPhone string         `gorm:"type:varchar(50)"`
	ContactEmail string         `gorm:"type:varchar(200)"`
	WebsiteURL   string         `gorm:"type:varchar(500)"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Provider) TableName() string {
	return "providers"
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// EligibilityCriteriaKey is the metadata key holding a university's default eligibility criteria.
const EligibilityCriteriaKey = "eligibilityCriteria"

type University struct {
	ID             string            `gorm:"primaryKey;size:36;not null" json:"id"`
	Name           string            `gorm:"size:255;not null" json:"name"`
	Code           string            `gorm:"size:32;uniqueIndex;not null" json:"code"`
	Description    string            `gorm:"type:text" json:"description,omitempty"`
	Location       string            `gorm:"size:255" json:"location,omitempty"`
	Country        string            `gorm:"size:64" json:"country,omitempty"`
	Website        string            `gorm:"size:255" json:"website,omitempty"`
	ApplicationFee decimal.Decimal   `gorm:"type:decimal(10,2);not null" json:"application_fee"`
	IsActive       bool              `gorm:"not null;default:true" json:"is_active"`
	Metadata       datatypes.JSONMap `json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

// EligibilityCriteria returns the criteria map stored in metadata, if any.
func (u *University) EligibilityCriteria() map[string]interface{} {
	if u == nil || u.Metadata == nil {
		return nil
	}
	if c, ok := u.Metadata[EligibilityCriteriaKey].(map[string]interface{}); ok {
		return c
	}
	return nil
}

package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Theme is a curated bundle of publications sold as one package.
type Theme struct {
	ID           uint                      `gorm:"primaryKey" json:"id"`
	Title        string                    `gorm:"size:200;not null" json:"title"`
	Category     string                    `gorm:"size:100;index" json:"category"`
	Description  string                    `gorm:"type:text" json:"description"`
	Publications datatypes.JSONSlice[uint] `json:"publications"`
	PriceCents   int64                     `gorm:"not null;default:0" json:"price_cents"`
	Moderation
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (t *Theme) GetID() uint { return t.ID }

func (t *Theme) DisplayName() string { return t.Title }

// ClearIdentity drops the fields the database assigns on insert.
func (t *Theme) ClearIdentity() {
	t.ID = 0
	t.CreatedAt = time.Time{}
	t.UpdatedAt = time.Time{}
}

func (t *Theme) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title is required")
	}
	if t.PriceCents < 0 {
		return NewValidationError("price_cents must not be negative")
	}
	return nil
}

package models

import (
	"strings"
	"time"
)

// Powerlist is a nomination for a yearly ranked list.
type Powerlist struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	NomineeName  string `gorm:"size:200;not null;index" json:"nominee_name"`
	Company      string `gorm:"size:200" json:"company"`
	Position     string `gorm:"size:200" json:"position"`
	Category     string `gorm:"size:100;index" json:"category"`
	Year         int    `gorm:"index" json:"year"`
	ProfileURL   string `gorm:"size:500" json:"profile_url"`
	Achievements string `gorm:"type:text" json:"achievements"`
	Moderation
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Powerlist) GetID() uint { return p.ID }

func (p *Powerlist) DisplayName() string { return p.NomineeName }

// ClearIdentity drops the fields the database assigns on insert.
func (p *Powerlist) ClearIdentity() {
	p.ID = 0
	p.CreatedAt = time.Time{}
	p.UpdatedAt = time.Time{}
}

func (p *Powerlist) Validate() error {
	if strings.TrimSpace(p.NomineeName) == "" {
		return NewValidationError("nominee_name is required")
	}
	if strings.TrimSpace(p.Category) == "" {
		return NewValidationError("category is required")
	}
	if p.Year != 0 && (p.Year < 1900 || p.Year > 2200) {
		return NewValidationError("year is out of range")
	}
	return nil
}

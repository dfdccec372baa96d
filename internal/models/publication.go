package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Publication is a media outlet offering paid placements.
type Publication struct {
	ID             uint                        `gorm:"primaryKey" json:"id"`
	Name           string                      `gorm:"size:200;not null;index" json:"name"`
	WebsiteURL     string                      `gorm:"size:500;not null" json:"website_url"`
	PriceCents     int64                       `gorm:"not null;default:0" json:"price_cents"`
	Currency       string                      `gorm:"size:3;not null;default:'USD'" json:"currency"`
	Region         string                      `gorm:"size:100" json:"region"`
	Genres         datatypes.JSONSlice[string] `json:"genres"`
	DomainAuth     int                         `json:"domain_authority"`
	DomainRating   int                         `json:"domain_rating"`
	TurnaroundDays int                         `json:"turnaround_days"`
	Sponsored      bool                        `json:"sponsored"`
	DoFollow       bool                        `json:"do_follow"`
	Moderation
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Publication) GetID() uint { return p.ID }

func (p *Publication) DisplayName() string { return p.Name }

// ClearIdentity drops the fields the database assigns on insert.
func (p *Publication) ClearIdentity() {
	p.ID = 0
	p.CreatedAt = time.Time{}
	p.UpdatedAt = time.Time{}
}

func (p *Publication) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return NewValidationError("name is required")
	}
	if strings.TrimSpace(p.WebsiteURL) == "" {
		return NewValidationError("website_url is required")
	}
	if p.PriceCents < 0 {
		return NewValidationError("price_cents must not be negative")
	}
	if p.DomainAuth < 0 || p.DomainAuth > 100 || p.DomainRating < 0 || p.DomainRating > 100 {
		return NewValidationError("domain scores must be between 0 and 100")
	}
	if p.Currency == "" {
		p.Currency = "USD"
	}
	return nil
}

package models

import (
	"strings"
	"time"
)

// Website is a site submitted for listing after its contact email is verified.
type Website struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"size:200;not null" json:"name"`
	URL             string     `gorm:"size:500;not null;index" json:"url"`
	ContactEmail    string     `gorm:"size:255;not null" json:"contact_email"`
	Category        string     `gorm:"size:100" json:"category"`
	MonthlyTraffic  int64      `json:"monthly_traffic"`
	Country         string     `gorm:"size:100" json:"country"`
	Description     string     `gorm:"type:text" json:"description"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	Moderation
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w *Website) GetID() uint { return w.ID }

func (w *Website) DisplayName() string { return w.Name }

// ClearIdentity drops the fields the database assigns on insert.
func (w *Website) ClearIdentity() {
	w.ID = 0
	w.CreatedAt = time.Time{}
	w.UpdatedAt = time.Time{}
}

func (w *Website) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return NewValidationError("name is required")
	}
	if strings.TrimSpace(w.URL) == "" {
		return NewValidationError("url is required")
	}
	if strings.TrimSpace(w.ContactEmail) == "" {
		return NewValidationError("contact_email is required")
	}
	if w.MonthlyTraffic < 0 {
		return NewValidationError("monthly_traffic must not be negative")
	}
	return nil
}

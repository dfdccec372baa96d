package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Reporter is a journalist profile listed for outreach.
type Reporter struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"size:200;not null;index" json:"name"`
	Email       string            `gorm:"size:255" json:"email"`
	Outlet      string            `gorm:"size:200" json:"outlet"`
	Beat        string            `gorm:"size:100" json:"beat"`
	Country     string            `gorm:"size:100" json:"country"`
	SocialLinks datatypes.JSONMap `json:"social_links"`
	Bio         string            `gorm:"type:text" json:"bio"`
	Moderation
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Reporter) GetID() uint { return r.ID }

func (r *Reporter) DisplayName() string { return r.Name }

// ClearIdentity drops the fields the database assigns on insert.
func (r *Reporter) ClearIdentity() {
	r.ID = 0
	r.CreatedAt = time.Time{}
	r.UpdatedAt = time.Time{}
}

func (r *Reporter) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return NewValidationError("name is required")
	}
	if strings.TrimSpace(r.Outlet) == "" {
		return NewValidationError("outlet is required")
	}
	return nil
}

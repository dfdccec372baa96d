package models

import (
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Career is a job listing submitted for publication on the marketplace.
type Career struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	Title        string                      `gorm:"size:200;not null" json:"title"`
	Company      string                      `gorm:"size:200;not null;index" json:"company"`
	Location     string                      `gorm:"size:200" json:"location"`
	JobType      string                      `gorm:"size:50" json:"job_type"`
	SalaryRange  string                      `gorm:"size:100" json:"salary_range"`
	Description  string                      `gorm:"type:text" json:"description"`
	ApplyURL     string                      `gorm:"size:500" json:"apply_url"`
	Requirements datatypes.JSONSlice[string] `json:"requirements"`
	Moderation
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Career) GetID() uint { return c.ID }

func (c *Career) DisplayName() string { return c.Title }

// ClearIdentity drops the fields the database assigns on insert.
func (c *Career) ClearIdentity() {
	c.ID = 0
	c.CreatedAt = time.Time{}
	c.UpdatedAt = time.Time{}
}

// Validate checks the payload fields required to list a career.
func (c *Career) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return NewValidationError("title is required")
	}
	if strings.TrimSpace(c.Company) == "" {
		return NewValidationError("company is required")
	}
	if len(c.Title) > 200 {
		return NewValidationError("title too long (max 200 characters)")
	}
	return nil
}

// Package models defines the persistent entities and shared error types.
package models

import (
	"slices"
	"time"
)

// Status is the moderation state of a submission.
type Status string

const (
	// StatusDraft is an owner-editable submission not yet queued for review.
	StatusDraft Status = "draft"
	// StatusPending is awaiting admin review.
	StatusPending Status = "pending"
	// StatusApproved is published.
	StatusApproved Status = "approved"
	// StatusRejected was denied by an admin.
	StatusRejected Status = "rejected"
	// StatusActive is a legacy published state still present in imported rows.
	StatusActive Status = "active"
)

// PublishedStatuses are the states visible to anonymous callers.
var PublishedStatuses = []Status{StatusApproved, StatusActive}

// IsPreReview reports whether the owner may still edit or delete the row.
func (s Status) IsPreReview() bool {
	return s == StatusDraft || s == StatusPending
}

// IsPublished reports whether the row is visible to the public.
func (s Status) IsPublished() bool {
	return slices.Contains(PublishedStatuses, s)
}

// ModerationColumns lists the columns owned by the moderation workflow.
// Payload updates never write them.
var ModerationColumns = []string{
	"status",
	"submitted_by",
	"submitted_by_admin",
	"approved_at",
	"approved_by",
	"rejected_at",
	"rejected_by",
	"rejection_reason",
	"admin_comments",
	"is_active",
}

// Moderation is the review state embedded in every moderated entity.
type Moderation struct {
	Status           Status     `gorm:"type:varchar(20);not null;index" json:"status"`
	SubmittedBy      *uint      `gorm:"index" json:"submitted_by"`
	SubmittedByAdmin *uint      `json:"submitted_by_admin"`
	ApprovedAt       *time.Time `json:"approved_at"`
	ApprovedBy       *uint      `json:"approved_by"`
	RejectedAt       *time.Time `json:"rejected_at"`
	RejectedBy       *uint      `json:"rejected_by"`
	RejectionReason  *string    `gorm:"type:text" json:"rejection_reason"`
	AdminComments    *string    `gorm:"type:text" json:"admin_comments"`
	IsActive         bool       `gorm:"not null;default:true;index" json:"is_active"`
}

// ModerationState exposes the embedded state to the moderation engine.
func (m *Moderation) ModerationState() *Moderation {
	return m
}

// IsOwnedBy reports whether the row was submitted by the given user.
func (m *Moderation) IsOwnedBy(userID uint) bool {
	return userID != 0 && m.SubmittedBy != nil && *m.SubmittedBy == userID
}

// Moderatable is implemented by every entity that goes through review.
type Moderatable interface {
	GetID() uint
	DisplayName() string
	ClearIdentity()
	ModerationState() *Moderation
	Validate() error
}

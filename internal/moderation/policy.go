// Package moderation implements the review workflow shared by every submission type:
// the approve/reject state machine, visibility rules and the bulk runner.
package moderation

import (
	"slices"

	"marketplace/internal/authz"
	"marketplace/internal/models"
)

// MaxBulkIDs caps the number of ids accepted by one bulk request.
const MaxBulkIDs = 500

// Policy is the per-entity configuration of the workflow.
type Policy struct {
	// Entity is the singular key used in notification types, e.g. "publication".
	Entity string
	// Plural is the route and cache segment, e.g. "publications".
	Plural string
	// Label is the human name used in messages.
	Label string

	Statuses     []models.Status
	UserStatus   models.Status
	AdminDefault models.Status
	BulkMinLevel authz.Level

	AllowHardDelete bool
	RateLimitCreate bool
	CaptchaOnCreate bool
	RequireEmailOTP bool

	SearchColumns []string
}

// Allows reports whether s is a legal status for the entity.
func (p Policy) Allows(s models.Status) bool {
	return slices.Contains(p.Statuses, s)
}

// HasDraft reports whether owners can hold a submission before queuing it.
func (p Policy) HasDraft() bool {
	return p.Allows(models.StatusDraft)
}

var (
	withDraft    = []models.Status{models.StatusDraft, models.StatusPending, models.StatusApproved, models.StatusRejected}
	withoutDraft = []models.Status{models.StatusPending, models.StatusApproved, models.StatusRejected}
)

var (
	CareerPolicy = Policy{
		Entity: "career", Plural: "careers", Label: "Career",
		Statuses:      withoutDraft,
		UserStatus:    models.StatusPending,
		AdminDefault:  models.StatusPending,
		BulkMinLevel:  authz.LevelNone,
		SearchColumns: []string{"title", "company", "location"},
	}

	PublicationPolicy = Policy{
		Entity: "publication", Plural: "publications", Label: "Publication",
		Statuses:        withDraft,
		UserStatus:      models.StatusDraft,
		AdminDefault:    models.StatusApproved,
		BulkMinLevel:    authz.LevelContentManager,
		AllowHardDelete: true,
		RateLimitCreate: true,
		CaptchaOnCreate: true,
		SearchColumns:   []string{"name", "region", "website_url"},
	}

	ReporterPolicy = Policy{
		Entity: "reporter", Plural: "reporters", Label: "Reporter",
		Statuses:      withoutDraft,
		UserStatus:    models.StatusPending,
		AdminDefault:  models.StatusPending,
		BulkMinLevel:  authz.LevelNone,
		SearchColumns: []string{"name", "outlet", "beat"},
	}

	ThemePolicy = Policy{
		Entity: "theme", Plural: "themes", Label: "Theme",
		Statuses:      withDraft,
		UserStatus:    models.StatusDraft,
		AdminDefault:  models.StatusApproved,
		BulkMinLevel:  authz.LevelNone,
		SearchColumns: []string{"title", "category"},
	}

	PowerlistPolicy = Policy{
		Entity: "powerlist", Plural: "powerlists", Label: "Powerlist nomination",
		Statuses:        withoutDraft,
		UserStatus:      models.StatusPending,
		AdminDefault:    models.StatusApproved,
		BulkMinLevel:    authz.LevelEditor,
		RateLimitCreate: true,
		CaptchaOnCreate: true,
		SearchColumns:   []string{"nominee_name", "company", "category"},
	}

	WebsitePolicy = Policy{
		Entity: "website", Plural: "websites", Label: "Website",
		Statuses:        withoutDraft,
		UserStatus:      models.StatusPending,
		AdminDefault:    models.StatusApproved,
		BulkMinLevel:    authz.LevelNone,
		CaptchaOnCreate: true,
		RequireEmailOTP: true,
		SearchColumns:   []string{"name", "url", "category"},
	}
)

// Policies returns every entity policy in route order.
func Policies() []Policy {
	return []Policy{CareerPolicy, PublicationPolicy, ReporterPolicy, ThemePolicy, PowerlistPolicy, WebsitePolicy}
}

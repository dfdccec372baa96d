package moderation

import (
	"marketplace/internal/models"
	"marketplace/internal/repository"
)

// Actor is the caller identity resolved by the auth middleware.
// An admin-shaped request without AdminID is not an admin.
type Actor struct {
	UserID    uint
	AdminID   uint
	AdminRole string
}

// IsAdmin reports whether the actor carries a resolvable admin identity.
func (a Actor) IsAdmin() bool { return a.AdminID != 0 }

// IsAuthenticated reports whether any identity was resolved.
func (a Actor) IsAuthenticated() bool { return a.UserID != 0 || a.AdminID != 0 }

func (a Actor) kind() string {
	switch {
	case a.IsAdmin():
		return "admin:" + a.AdminRole
	case a.UserID != 0:
		return "user"
	default:
		return "anonymous"
	}
}

// ListQuery carries the caller-controlled list parameters.
type ListQuery struct {
	Limit       int
	Offset      int
	Search      string
	Status      models.Status
	ShowDeleted bool
}

// Page is one page of a listing.
type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// canView decides whether actor may read a row in state m.
func canView(actor Actor, m *models.Moderation, resource string, id uint) error {
	if actor.IsAdmin() {
		return nil
	}
	if !m.IsActive {
		return models.NewNotFoundError(resource, id)
	}
	if m.Status.IsPublished() || m.IsOwnedBy(actor.UserID) {
		return nil
	}
	return models.NewForbiddenError("you do not have access to this submission")
}

// canMutate decides whether actor may update or delete a row in state m.
func canMutate(actor Actor, m *models.Moderation, resource string, id uint) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.UserID == 0 {
		return models.NewUnauthorizedError("authentication required")
	}
	if !m.IsActive {
		return models.NewNotFoundError(resource, id)
	}
	if !m.IsOwnedBy(actor.UserID) {
		return models.NewForbiddenError("you can only modify your own submissions")
	}
	if !m.Status.IsPreReview() {
		return models.NewForbiddenError("cannot update approved/rejected submissions")
	}
	return nil
}

// listFilter builds the repository filter for actor. The second result selects
// the dedicated deleted-rows query.
func listFilter(actor Actor, q ListQuery, p Policy) (repository.ListFilter, bool) {
	f := repository.ListFilter{
		Search:        q.Search,
		SearchColumns: p.SearchColumns,
		Limit:         q.Limit,
		Offset:        q.Offset,
	}
	if !actor.IsAdmin() {
		f.Statuses = models.PublishedStatuses
		return f, false
	}
	if q.Status != "" {
		f.Statuses = []models.Status{q.Status}
	}
	return f, q.ShowDeleted
}

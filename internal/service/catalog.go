package service

import (
	"time"

	"marketplace/internal/captcha"
	"marketplace/internal/models"
	"marketplace/internal/moderation"
	"marketplace/internal/repository"

	"gorm.io/gorm"
)

// CatalogDeps are the collaborators shared by every submission service.
type CatalogDeps struct {
	DB           *gorm.DB
	Dispatcher   moderation.Dispatcher
	Captcha      *captcha.Gate
	Websites     *WebsiteVerification
	ListCacheTTL time.Duration
}

// Catalog holds one submission service per moderated entity.
type Catalog struct {
	Careers      *SubmissionService[models.Career, *models.Career]
	Publications *SubmissionService[models.Publication, *models.Publication]
	Reporters    *SubmissionService[models.Reporter, *models.Reporter]
	Themes       *SubmissionService[models.Theme, *models.Theme]
	Powerlists   *SubmissionService[models.Powerlist, *models.Powerlist]
	Websites     *SubmissionService[models.Website, *models.Website]
}

// NewCatalog builds the services for all six entities.
func NewCatalog(d CatalogDeps) *Catalog {
	var websiteOpts []SubmissionOption[models.Website, *models.Website]
	if d.Websites != nil {
		websiteOpts = append(websiteOpts,
			WithVerify[models.Website, *models.Website](d.Websites.Verify),
			WithUpdateGuard[models.Website, *models.Website](d.Websites.GuardUpdate),
		)
	}

	return &Catalog{
		Careers:      newSubmissionService[models.Career](d, moderation.CareerPolicy),
		Publications: newSubmissionService[models.Publication](d, moderation.PublicationPolicy),
		Reporters:    newSubmissionService[models.Reporter](d, moderation.ReporterPolicy),
		Themes:       newSubmissionService[models.Theme](d, moderation.ThemePolicy),
		Powerlists:   newSubmissionService[models.Powerlist](d, moderation.PowerlistPolicy),
		Websites:     newSubmissionService[models.Website](d, moderation.WebsitePolicy, websiteOpts...),
	}
}

func newSubmissionService[T any, P moderation.Entity[T]](d CatalogDeps, policy moderation.Policy, opts ...SubmissionOption[T, P]) *SubmissionService[T, P] {
	repo := repository.NewModeratedRepository[T](d.DB, policy.Label)
	engine := moderation.NewEngine[T, P](policy, repo, d.Dispatcher)
	all := []SubmissionOption[T, P]{
		WithCaptcha[T, P](d.Captcha),
		WithListCache[T, P](d.ListCacheTTL),
	}
	return NewSubmissionService(engine, append(all, opts...)...)
}

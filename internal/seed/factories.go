// Package seed provides helpers to create demo submissions for every
// moderated entity. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"strings"
	"time"

	"marketplace/internal/models"
	"marketplace/internal/moderation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultPassword is the password given to every seeded account.
const DefaultPassword = "Passw0rd!seed"

var (
	jobTypes   = []string{"full-time", "part-time", "contract", "freelance", "internship"}
	genres     = []string{"business", "technology", "finance", "lifestyle", "health", "sports", "entertainment", "crypto"}
	beats      = []string{"markets", "startups", "policy", "culture", "science", "media"}
	categories = []string{"media", "technology", "finance", "marketing", "public relations"}
	rejections = []string{
		"duplicate listing",
		"could not verify the details provided",
		"outside the marketplace guidelines",
		"incomplete information",
	}
)

// Factory builds submissions with plausible content and moderation history.
type Factory struct {
	db    *gorm.DB
	opts  Options
	faker *gofakeit.Faker
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory bound to db. A zero opts.RandSeed picks a random seed.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	return &Factory{db: db, opts: opts, faker: gofakeit.New(opts.RandSeed), nextID: 1000}
}

// CreateUser persists a submitter account.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := &models.User{
		Name:  f.faker.Name(),
		Email: strings.ToLower(fmt.Sprintf("%s.%d@example.com", f.faker.Username(), f.faker.Number(1000, 9999))),
	}
	if err := f.setPassword(&user.Password); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(user)
	}
	return user, f.persist(user, &user.ID)
}

// CreateAdmin persists a reviewer account with role.
func (f *Factory) CreateAdmin(role string, overrides ...func(*models.Admin)) (*models.Admin, error) {
	admin := &models.Admin{
		Name:     f.faker.Name(),
		Email:    fmt.Sprintf("%s.%d@marketplace.local", role, f.faker.Number(1000, 9999)),
		Role:     role,
		IsActive: true,
	}
	if err := f.setPassword(&admin.Password); err != nil {
		return nil, err
	}
	for _, override := range overrides {
		override(admin)
	}
	return admin, f.persist(admin, &admin.ID)
}

func (f *Factory) setPassword(dst *string) error {
	if f.opts.SkipBcrypt {
		*dst = DefaultPassword
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.MinCost)
	if err != nil {
		return err
	}
	*dst = string(hash)
	return nil
}

// Stamp gives m a random state legal for policy. Approved and rejected rows
// carry the reviewer and timestamps the workflow would have written.
func (f *Factory) Stamp(m *models.Moderation, policy moderation.Policy, owner *models.User, reviewer *models.Admin) {
	m.Status = policy.Statuses[f.faker.Number(0, len(policy.Statuses)-1)]
	m.IsActive = f.faker.Number(1, 10) > 1
	if owner != nil {
		m.SubmittedBy = &owner.ID
	}

	decidedAt := f.createdAt().Add(time.Duration(f.faker.Number(1, 72)) * time.Hour)
	switch m.Status {
	case models.StatusApproved:
		m.ApprovedAt = &decidedAt
		if reviewer != nil {
			m.ApprovedBy = &reviewer.ID
		}
	case models.StatusRejected:
		reason := rejections[f.faker.Number(0, len(rejections)-1)]
		m.RejectedAt = &decidedAt
		m.RejectionReason = &reason
		if reviewer != nil {
			m.RejectedBy = &reviewer.ID
		}
	}
}

// createdAt spreads rows over the last MaxDays days.
func (f *Factory) createdAt() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.faker.Number(0, maxDays*24*60)) * time.Minute
	return time.Now().UTC().Add(-back)
}

func (f *Factory) BuildCareer() *models.Career {
	return &models.Career{
		Title:        f.faker.JobTitle(),
		Company:      f.faker.Company(),
		Location:     f.faker.City(),
		JobType:      jobTypes[f.faker.Number(0, len(jobTypes)-1)],
		SalaryRange:  fmt.Sprintf("$%dk-$%dk", f.faker.Number(40, 80), f.faker.Number(90, 180)),
		Description:  f.faker.Paragraph(1, 3, 12, " "),
		ApplyURL:     f.faker.URL(),
		Requirements: datatypes.JSONSlice[string]{f.faker.HackerPhrase(), f.faker.HackerPhrase()},
		CreatedAt:    f.createdAt(),
	}
}

func (f *Factory) BuildPublication() *models.Publication {
	return &models.Publication{
		Name:           f.faker.Company() + " " + f.faker.RandomString([]string{"Times", "Journal", "Post", "Review", "Weekly"}),
		WebsiteURL:     "https://" + f.faker.DomainName(),
		PriceCents:     int64(f.faker.Number(50, 5000)) * 100,
		Currency:       "USD",
		Region:         f.faker.Country(),
		Genres:         datatypes.JSONSlice[string]{genres[f.faker.Number(0, len(genres)-1)]},
		DomainAuth:     f.faker.Number(10, 95),
		DomainRating:   f.faker.Number(10, 95),
		TurnaroundDays: f.faker.Number(1, 14),
		Sponsored:      f.faker.Bool(),
		DoFollow:       f.faker.Bool(),
		CreatedAt:      f.createdAt(),
	}
}

func (f *Factory) BuildReporter() *models.Reporter {
	return &models.Reporter{
		Name:    f.faker.Name(),
		Email:   strings.ToLower(f.faker.Email()),
		Outlet:  f.faker.Company() + " News",
		Beat:    beats[f.faker.Number(0, len(beats)-1)],
		Country: f.faker.Country(),
		SocialLinks: datatypes.JSONMap{
			"twitter": "https://x.com/" + f.faker.Username(),
		},
		Bio:       f.faker.Sentence(14),
		CreatedAt: f.createdAt(),
	}
}

func (f *Factory) BuildTheme() *models.Theme {
	return &models.Theme{
		Title:       capitalize(f.faker.BuzzWord()) + " Spotlight",
		Category:    categories[f.faker.Number(0, len(categories)-1)],
		Description: f.faker.Sentence(16),
		PriceCents:  int64(f.faker.Number(100, 2500)) * 100,
		CreatedAt:   f.createdAt(),
	}
}

func (f *Factory) BuildPowerlist() *models.Powerlist {
	return &models.Powerlist{
		NomineeName:  f.faker.Name(),
		Company:      f.faker.Company(),
		Position:     f.faker.JobTitle(),
		Category:     categories[f.faker.Number(0, len(categories)-1)],
		Year:         f.faker.Number(2018, time.Now().Year()),
		ProfileURL:   f.faker.URL(),
		Achievements: f.faker.Paragraph(1, 2, 10, " "),
		CreatedAt:    f.createdAt(),
	}
}

func (f *Factory) BuildWebsite() *models.Website {
	domain := f.faker.DomainName()
	verified := f.createdAt()
	return &models.Website{
		Name:            f.faker.Company(),
		URL:             "https://" + domain,
		ContactEmail:    "editor@" + domain,
		Category:        genres[f.faker.Number(0, len(genres)-1)],
		MonthlyTraffic:  int64(f.faker.Number(1_000, 5_000_000)),
		Country:         f.faker.Country(),
		Description:     f.faker.Sentence(12),
		EmailVerifiedAt: &verified,
		CreatedAt:       f.createdAt(),
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// persist writes row unless running dry, in which case it only assigns a synthetic id.
func (f *Factory) persist(row any, id *uint) error {
	if f.opts.DryRun {
		f.nextID++
		*id = f.nextID
		log.Printf("[dry-run] %T id=%d (no DB write)", row, *id)
		return nil
	}
	return f.db.Create(row).Error
}

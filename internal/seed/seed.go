package seed

import (
	"fmt"
	"log"

	"marketplace/internal/authz"
	"marketplace/internal/database"
	"marketplace/internal/models"
	"marketplace/internal/moderation"

	"gorm.io/gorm"
)

// Options configure a seeding run.
type Options struct {
	Users     int
	PerEntity int
	MaxDays   int
	RandSeed  int64

	SkipBcrypt bool
	DryRun     bool
}

// Result counts what a run created.
type Result struct {
	Users    int
	Admins   int
	ByEntity map[string]int
}

// Seeder populates a database with demo submissions.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

// NewSeeder returns a seeder writing to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.Users <= 0 {
		opts.Users = 10
	}
	if opts.PerEntity < 0 {
		opts.PerEntity = 0
	}
	return &Seeder{db: db, factory: NewFactory(db, opts), opts: opts}
}

// ClearAll removes every seeded table's rows.
func (s *Seeder) ClearAll() error {
	if s.opts.DryRun {
		log.Println("[dry-run] ClearAll skipped")
		return nil
	}
	log.Println("🗑️  Clearing existing data...")
	return s.db.Transaction(func(tx *gorm.DB) error {
		tables := database.PersistentModels()
		// Reverse registry order so dependents go first.
		for i := len(tables) - 1; i >= 0; i-- {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(tables[i]).Error; err != nil {
				return fmt.Errorf("clear %T: %w", tables[i], err)
			}
		}
		return nil
	})
}

// Run creates the submitter accounts, one reviewer per role, and PerEntity
// submissions of every type in mixed moderation states.
func (s *Seeder) Run() (*Result, error) {
	res := &Result{ByEntity: map[string]int{}}

	users := make([]*models.User, 0, s.opts.Users)
	for range s.opts.Users {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	res.Users = len(users)
	log.Printf("✓ %d submitters created", res.Users)

	var reviewers []*models.Admin
	for _, role := range []string{authz.RoleSuperAdmin, authz.RoleContentManager, authz.RoleEditor, authz.RoleModerator} {
		a, err := s.factory.CreateAdmin(role)
		if err != nil {
			return nil, fmt.Errorf("create %s admin: %w", role, err)
		}
		reviewers = append(reviewers, a)
	}
	res.Admins = len(reviewers)

	f := s.factory
	steps := []struct {
		policy moderation.Policy
		run    func(moderation.Policy) (int, error)
	}{
		{moderation.CareerPolicy, func(p moderation.Policy) (int, error) {
			return seedEntity(s, p, users, reviewers, f.BuildCareer)
		}},
		{moderation.PublicationPolicy, func(p moderation.Policy) (int, error) {
			return seedEntity(s, p, users, reviewers, f.BuildPublication)
		}},
		{moderation.ReporterPolicy, func(p moderation.Policy) (int, error) {
			return seedEntity(s, p, users, reviewers, f.BuildReporter)
		}},
		{moderation.ThemePolicy, func(p moderation.Policy) (int, error) {
			return seedEntity(s, p, users, reviewers, f.BuildTheme)
		}},
		{moderation.PowerlistPolicy, func(p moderation.Policy) (int, error) {
			return seedEntity(s, p, users, reviewers, f.BuildPowerlist)
		}},
		{moderation.WebsitePolicy, func(p moderation.Policy) (int, error) {
			return seedEntity(s, p, users, reviewers, f.BuildWebsite)
		}},
	}
	for _, step := range steps {
		n, err := step.run(step.policy)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", step.policy.Plural, err)
		}
		res.ByEntity[step.policy.Plural] = n
		log.Printf("✓ %d %s created", n, step.policy.Plural)
	}

	log.Println("🎉 Database seeding completed successfully!")
	return res, nil
}

func seedEntity[T any, P moderation.Entity[T]](s *Seeder, policy moderation.Policy, users []*models.User, reviewers []*models.Admin, build func() *T) (int, error) {
	f := s.factory
	for range s.opts.PerEntity {
		item := build()
		var owner *models.User
		if len(users) > 0 {
			owner = users[f.faker.Number(0, len(users)-1)]
		}
		var reviewer *models.Admin
		if len(reviewers) > 0 {
			reviewer = reviewers[f.faker.Number(0, len(reviewers)-1)]
		}
		state := P(item).ModerationState()
		f.Stamp(state, policy, owner, reviewer)

		var id uint
		if err := f.persist(item, &id); err != nil {
			return 0, err
		}
		if s.opts.DryRun || state.IsActive {
			continue
		}
		// is_active has a column default, so a false value is dropped on insert.
		if err := s.db.Model(item).Update("is_active", false).Error; err != nil {
			return 0, err
		}
	}
	return s.opts.PerEntity, nil
}

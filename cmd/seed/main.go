// Command main runs the database seeder for the marketplace.
package main

import (
	"context"
	"flag"
	"log"

	"marketplace/internal/bootstrap"
	"marketplace/internal/config"
	"marketplace/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 25, "Number of submitter accounts to create")
	perEntity := flag.Int("per-entity", 40, "Number of submissions to create for each entity")
	maxDays := flag.Int("max-days", 90, "Spread created_at over this many days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Build rows without writing them")
	randSeed := flag.Int64("seed", 0, "Random seed (0 picks one)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d submissions per entity, clean=%v\n", *numUsers, *perEntity, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, _, err := bootstrap.InitRuntime(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	s := seed.NewSeeder(db, seed.Options{
		Users:     *numUsers,
		PerEntity: *perEntity,
		MaxDays:   *maxDays,
		RandSeed:  *randSeed,
		DryRun:    *dryRun,
	})

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	if _, err := s.Run(); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All seeded accounts have the password: %s", seed.DefaultPassword)
}

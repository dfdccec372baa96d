// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"

	"marketplace/internal/config"
	"marketplace/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	switch cmd := strings.ToLower(strings.TrimSpace(flag.Arg(0))); cmd {
	case "up":
		db, err := database.Connect(cfg)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		if err := database.Migrate(context.Background(), db); err != nil {
			return err
		}
		log.Printf("schema up to date (%d models)", len(database.PersistentModels()))
	case "status":
		status := database.GetSchemaStatus(cfg)
		log.Printf("env=%s auto_migrate_on_boot=%t models=%d", status.Environment, status.WillRunAutoMigrate, status.Models)
	default:
		return usage()
	}
	return nil
}

// Package main provides admin account management for the marketplace.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"marketplace/internal/authz"
	"marketplace/internal/bootstrap"
	"marketplace/internal/config"
	"marketplace/internal/database"
	"marketplace/internal/models"
	"marketplace/internal/repository"
	"marketplace/internal/service"

	"gorm.io/gorm"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin create <email> <role> [name]   - Create an admin (password from ADMIN_PASSWORD)")
	fmt.Println("  go run ./cmd/admin set-role <email> <role>        - Change an admin's role")
	fmt.Println("  go run ./cmd/admin disable <email>                - Disable an admin account")
	fmt.Println("  go run ./cmd/admin enable <email>                 - Re-enable an admin account")
	fmt.Println("  go run ./cmd/admin list                           - List all admins")
	fmt.Println()
	fmt.Println("Roles: super_admin, content_manager, editor, registration_manager, moderator, other")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	ctx := context.Background()
	admins := repository.NewAdminRepository(db)

	switch os.Args[1] {
	case "set-role", "disable", "enable":
		if err := bootstrap.InitOperatorCache(cfg); err != nil {
			log.Fatalf("Refusing to change admin access: %v", err)
		}
	}

	switch command := os.Args[1]; command {
	case "create":
		requireArgs(4)
		name := "Administrator"
		if len(os.Args) > 4 {
			name = os.Args[4]
		}
		createAdmin(ctx, cfg, db, admins, os.Args[2], os.Args[3], name)

	case "set-role":
		requireArgs(4)
		admin := lookup(ctx, admins, os.Args[2])
		if !authz.IsKnownRole(os.Args[3]) {
			log.Fatalf("Unknown role: %s", os.Args[3])
		}
		update(ctx, admins, admin, os.Args[3], admin.IsActive)

	case "disable":
		requireArgs(3)
		admin := lookup(ctx, admins, os.Args[2])
		update(ctx, admins, admin, admin.Role, false)

	case "enable":
		requireArgs(3)
		admin := lookup(ctx, admins, os.Args[2])
		update(ctx, admins, admin, admin.Role, true)

	case "list":
		listAdmins(db)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		usage()
		os.Exit(1)
	}
}

func requireArgs(n int) {
	if len(os.Args) < n {
		usage()
		os.Exit(1)
	}
}

func createAdmin(ctx context.Context, cfg *config.Config, db *gorm.DB, admins repository.AdminRepository, email, role, name string) {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("ADMIN_PASSWORD must be set")
	}

	auth := service.NewAuthService(repository.NewUserRepository(db), admins, nil, cfg.JWTSecret)
	admin, err := auth.CreateAdmin(ctx, name, email, password, role)
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}
	fmt.Printf("Created %s (ID: %d) as %s\n", admin.Email, admin.ID, admin.Role)
}

func lookup(ctx context.Context, admins repository.AdminRepository, email string) *models.Admin {
	admin, err := admins.GetByEmail(ctx, email)
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			fmt.Printf("Admin %s not found\n", email)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}
	return admin
}

// update changes role and status. The cached copy is dropped so running
// servers pick up the change on the next request.
func update(ctx context.Context, admins repository.AdminRepository, admin *models.Admin, role string, active bool) {
	if admin.Role == role && admin.IsActive == active {
		fmt.Printf("%s is already %s (active: %t)\n", admin.Email, role, active)
		return
	}
	if err := admins.UpdateRole(ctx, admin.ID, role, active); err != nil {
		log.Fatalf("Failed to update admin: %v", err)
	}
	fmt.Printf("Updated %s (ID: %d): role=%s active=%t\n", admin.Email, admin.ID, role, active)
}

func listAdmins(db *gorm.DB) {
	var admins []models.Admin
	if err := db.Order("id").Find(&admins).Error; err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}

	if len(admins) == 0 {
		fmt.Println("No admins found")
		return
	}

	fmt.Println("─────────────────────────────────────")
	for _, admin := range admins {
		fmt.Printf("ID: %d | Email: %s | Role: %s | Active: %t\n", admin.ID, admin.Email, admin.Role, admin.IsActive)
	}
	fmt.Println("─────────────────────────────────────")
}

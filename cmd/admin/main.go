// Package main provides admin management utilities for FashFolio.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"fashfolio/internal/bootstrap"
	"fashfolio/internal/config"
	"fashfolio/internal/models"
	"fashfolio/internal/repository"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin promote <user_key>   - Promote user to admin")
		fmt.Println("  go run ./cmd/admin demote <user_key>    - Demote user from admin")
		fmt.Println("  go run ./cmd/admin list-admins          - List all admins")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	store, err := bootstrap.OpenStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer func() { _ = store.Close(ctx) }()

	users := store.Repos.Users
	command := os.Args[1]

	switch command {
	case "promote", "demote":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <user_key>\n", command)
			os.Exit(1)
		}
		setAdmin(ctx, users, os.Args[2], command == "promote")

	case "list-admins":
		listAdmins(ctx, users)

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

func setAdmin(ctx context.Context, users repository.UserRepository, key string, admin bool) {
	user, err := users.GetByExternalID(ctx, key)
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			fmt.Printf("User %s not found\n", key)
			os.Exit(1)
		}
		log.Fatalf("Store error: %v", err)
	}

	if user.IsAdmin == admin {
		fmt.Printf("User %s (%s) already has admin=%v\n", user.Username, key, admin)
		return
	}

	if err := users.SetAdmin(ctx, key, admin); err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}

	verb := "promoted"
	if !admin {
		verb = "demoted"
	}
	fmt.Printf("Successfully %s %s (%s)\n", verb, user.Username, key)
}

func listAdmins(ctx context.Context, users repository.UserRepository) {
	all, err := users.List(ctx, 0)
	if err != nil {
		log.Fatalf("Failed to fetch users: %v", err)
	}

	fmt.Println("Current Admins:")
	found := false
	for _, u := range all {
		if !u.IsAdmin {
			continue
		}
		found = true
		fmt.Printf("Key: %s | Username: %s | Email: %s\n", u.ExternalID, u.Username, u.Email)
	}
	if !found {
		fmt.Println("No admins found in the system")
	}
}

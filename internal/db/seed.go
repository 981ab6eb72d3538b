package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/geocoder89/fieldops/internal/config"
	"github.com/geocoder89/fieldops/internal/domain/client"
	"github.com/geocoder89/fieldops/internal/domain/user"
	"github.com/geocoder89/fieldops/internal/security"
)

type AdminStore interface {
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	CreateUser(ctx context.Context, u user.User) (user.User, error)
}

type ClientSeeder interface {
	EnsureClient(ctx context.Context, name, address string) (client.Client, error)
}

// DefaultClients are created by SeedClients.
var DefaultClients = []client.Client{
	{Name: "ABC Corp", Address: "123 Main St, New York, NY"},
	{Name: "XYZ Ltd", Address: "456 Elm St, San Francisco, CA"},
	{Name: "Global Tech", Address: "789 Oak St, Chicago, IL"},
}

// EnsureAdminUser creates the bootstrap admin from ADMIN_EMAIL and
// ADMIN_PASSWORD. It is a no-op when either is unset or the email exists.
func EnsureAdminUser(ctx context.Context, store AdminStore, cfg config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := store.GetUserByEmail(ctx, cfg.AdminEmail)
	if err == nil {
		return nil
	}

	if !errors.Is(err, user.ErrNotFound) {
		return err
	}

	hash, err := security.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}

	u := user.User{
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         user.RoleAdmin,
	}
	if cfg.AdminName != "" {
		name := cfg.AdminName
		u.Name = &name
	}

	created, err := store.CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}

	slog.Info("admin user created", "user_id", created.ID, "email", created.Email)
	return nil
}

func SeedClients(ctx context.Context, store ClientSeeder) error {
	for _, c := range DefaultClients {
		if _, err := store.EnsureClient(ctx, c.Name, c.Address); err != nil {
			return fmt.Errorf("seed client %q: %w", c.Name, err)
		}
	}
	return nil
}

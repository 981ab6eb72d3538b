package user

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEngineer Role = "engineer"
)

func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleEngineer
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         Role      `json:"role"`
	Name         *string   `json:"name"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`
}

// DisplayName is the name shown next to records a user owns: the profile
// name when set, otherwise the local part of the email address.
func (u User) DisplayName() string {
	return DisplayName(u.Name, u.Email)
}

func DisplayName(name *string, email string) string {
	if name != nil && strings.TrimSpace(*name) != "" {
		return *name
	}

	local, _, _ := strings.Cut(email, "@")

	return local
}

// TeamMember is the shape engineers see when filtering team work.
type TeamMember struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// EngineerStats is one row of the admin dashboard.
type EngineerStats struct {
	ID               int64  `json:"id"`
	Email            string `json:"email"`
	InteractionCount int    `json:"interaction_count"`
}

// DeleteResult reports what a cascading user delete removed.
type DeleteResult struct {
	User         User
	Interactions int64
	ServiceLogs  int64
}

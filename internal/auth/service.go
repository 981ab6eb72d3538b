package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/geocoder89/fieldops/internal/apperr"
	"github.com/geocoder89/fieldops/internal/domain/user"
	"github.com/geocoder89/fieldops/internal/security"
)

type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUserByID(ctx context.Context, id int64) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
}

type Service struct {
	users  UserStore
	tokens *Manager
}

func NewService(users UserStore, tokens *Manager) *Service {
	return &Service{users: users, tokens: tokens}
}

type RegisterInput struct {
	Email    string
	Password string
	Role     user.Role
	Name     string
}

type LoginResult struct {
	AccessToken string    `json:"access_token"`
	Role        user.Role `json:"role"`
	UserID      string    `json:"user_id"`
}

var errBadCredentials = apperr.Auth("invalid_credentials", "Bad username or password")

// bcrypt only reads the first 72 bytes of its input and refuses longer ones.
const maxPasswordBytes = 72

var errPasswordTooLong = apperr.Validation("password_too_long", "Password must be at most 72 bytes")

func (s *Service) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	email := strings.TrimSpace(in.Email)

	if email == "" || in.Password == "" {
		return user.User{}, apperr.Validation("missing_fields", "Missing email or password")
	}

	if len(in.Password) > maxPasswordBytes {
		return user.User{}, errPasswordTooLong
	}

	role := in.Role
	if role == "" {
		role = user.RoleEngineer
	}
	if !role.IsValid() {
		return user.User{}, apperr.Validation("invalid_role", "Role must be 'admin' or 'engineer'")
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return user.User{}, apperr.Conflict("email_taken", "User already exists")
	}
	if !errors.Is(err, user.ErrNotFound) {
		return user.User{}, apperr.Internal("Could not create user", err)
	}

	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return user.User{}, apperr.Internal("Could not create user", err)
	}

	u := user.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if name := strings.TrimSpace(in.Name); name != "" {
		u.Name = &name
	}

	created, err := s.users.CreateUser(ctx, u)
	if err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, user.ErrEmailTaken) {
			return user.User{}, apperr.Conflict("email_taken", "User already exists")
		}
		return user.User{}, apperr.Internal("Could not create user", err)
	}

	return created, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	found, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return LoginResult{}, errBadCredentials
		}
		return LoginResult{}, apperr.Internal("Could not log in", err)
	}

	if err := security.CheckPassword(found.PasswordHash, password); err != nil {
		return LoginResult{}, errBadCredentials
	}

	token, err := s.tokens.GenerateAccessToken(found.ID, found.Role)
	if err != nil {
		return LoginResult{}, apperr.Internal("Could not generate access token", err)
	}

	return LoginResult{
		AccessToken: token,
		Role:        found.Role,
		UserID:      strconv.FormatInt(found.ID, 10),
	}, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error {
	found, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return apperr.NotFound("not_found", "User not found")
		}
		return apperr.Internal("Could not change password", err)
	}

	if oldPassword == "" || newPassword == "" {
		return apperr.Validation("missing_fields", "Old and new passwords required")
	}

	if len(newPassword) > maxPasswordBytes {
		return errPasswordTooLong
	}

	if err := security.CheckPassword(found.PasswordHash, oldPassword); err != nil {
		return apperr.Auth("invalid_credentials", "Incorrect old password")
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return apperr.Internal("Could not change password", err)
	}

	if err := s.users.UpdatePasswordHash(ctx, found.ID, hash); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return apperr.NotFound("not_found", "User not found")
		}
		return apperr.Internal("Could not change password", fmt.Errorf("update hash: %w", err))
	}

	return nil
}

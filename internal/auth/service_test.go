package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/fieldops/internal/apperr"
	"github.com/geocoder89/fieldops/internal/domain/user"
	"github.com/geocoder89/fieldops/internal/security"
	"go.uber.org/goleak"
	"golang.org/x/crypto/bcrypt"
)

func TestMain(m *testing.M) {
	security.Cost = bcrypt.MinCost
	goleak.VerifyTestMain(m)
}

// fakeUsers is an in-memory UserStore keyed by id.
type fakeUsers struct {
	mu        sync.Mutex
	nextID    int64
	byID      map[int64]user.User
	createErr error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byID: make(map[int64]user.User)}
}

func (f *fakeUsers) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return user.User{}, f.createErr
	}
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return user.User{}, user.ErrEmailTaken
		}
	}
	f.nextID++
	u.ID = f.nextID
	u.CreatedAt = time.Now().UTC()
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id int64) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byID {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (f *fakeUsers) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PasswordHash = hash
	f.byID[id] = u
	return nil
}

func (f *fakeUsers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

func newTestService() (*Service, *fakeUsers, *Manager) {
	users := newFakeUsers()
	tokens := NewManager("test-secret-key", time.Hour)
	return NewService(users, tokens), users, tokens
}

func TestRegisterThenLoginCarriesStoredRole(t *testing.T) {
	ctx := context.Background()

	for _, role := range []user.Role{user.RoleAdmin, user.RoleEngineer, ""} {
		svc, users, tokens := newTestService()

		created, err := svc.Register(ctx, RegisterInput{Email: "someone@example.com", Password: "pw-123", Role: role})
		if err != nil {
			t.Fatalf("Register(%q): %v", role, err)
		}

		stored, _ := users.GetUserByID(ctx, created.ID)
		if stored.PasswordHash == "pw-123" {
			t.Fatalf("password stored in plaintext")
		}

		res, err := svc.Login(ctx, "someone@example.com", "pw-123")
		if err != nil {
			t.Fatalf("Login: %v", err)
		}

		claims, err := tokens.VerifyAccessToken(res.AccessToken)
		if err != nil {
			t.Fatalf("VerifyAccessToken: %v", err)
		}

		if claims.Role != stored.Role || res.Role != stored.Role {
			t.Fatalf("token role %q / response role %q, stored %q", claims.Role, res.Role, stored.Role)
		}
		if res.UserID != strconv.FormatInt(stored.ID, 10) {
			t.Fatalf("user_id = %q, want %d", res.UserID, stored.ID)
		}
	}
}

func TestRegisterDefaultsToEngineer(t *testing.T) {
	svc, _, _ := newTestService()

	u, err := svc.Register(context.Background(), RegisterInput{Email: "e@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != user.RoleEngineer {
		t.Fatalf("role = %q, want engineer", u.Role)
	}
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "missing email", in: RegisterInput{Password: "pw"}},
		{name: "blank email", in: RegisterInput{Email: "   ", Password: "pw"}},
		{name: "missing password", in: RegisterInput{Email: "a@example.com"}},
		{name: "unknown role", in: RegisterInput{Email: "a@example.com", Password: "pw", Role: "superuser"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, users, _ := newTestService()

			_, err := svc.Register(context.Background(), tt.in)
			if apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if users.count() != 0 {
				t.Fatalf("no user should be created")
			}
		})
	}
}

func TestRegisterDuplicateEmailIsConflict(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "pw"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	_, err := svc.Register(ctx, RegisterInput{Email: "dup@example.com", Password: "other", Role: user.RoleAdmin})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
	if users.count() != 1 {
		t.Fatalf("user table mutated: %d users", users.count())
	}
}

func TestRegisterMapsRacingUniqueViolation(t *testing.T) {
	svc, users, _ := newTestService()
	users.createErr = user.ErrEmailTaken

	_, err := svc.Register(context.Background(), RegisterInput{Email: "race@example.com", Password: "pw"})
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterStoreFailureIsInternal(t *testing.T) {
	svc, users, _ := newTestService()
	users.createErr = errors.New("db down")

	_, err := svc.Register(context.Background(), RegisterInput{Email: "x@example.com", Password: "pw"})
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("expected internal, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "eng@example.com", Password: "hunter22"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for _, tc := range []struct{ email, password string }{
		{"eng@example.com", "hunter2"},
		{"eng@example.com", "hunter222"},
		{"eng@example.com", "Hunter22"},
		{"eng@example.com", ""},
		{"nobody@example.com", "hunter22"},
	} {
		_, err := svc.Login(ctx, tc.email, tc.password)
		if apperr.KindOf(err) != apperr.KindAuth {
			t.Fatalf("Login(%q, %q): expected auth error, got %v", tc.email, tc.password, err)
		}
	}
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: "cp@example.com", Password: "old-pw"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := svc.ChangePassword(ctx, u.ID, "wrong", "new-pw"); apperr.KindOf(err) != apperr.KindAuth {
		t.Fatalf("wrong old password: expected auth error, got %v", err)
	}

	if err := svc.ChangePassword(ctx, u.ID, "", "new-pw"); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("missing old password: expected validation error, got %v", err)
	}

	if err := svc.ChangePassword(ctx, 999, "old-pw", "new-pw"); apperr.KindOf(err) != apperr.KindNotFound {
		t.Fatalf("unknown user: expected not found, got %v", err)
	}

	if err := svc.ChangePassword(ctx, u.ID, "old-pw", "new-pw"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}

	if _, err := svc.Login(ctx, "cp@example.com", "old-pw"); apperr.KindOf(err) != apperr.KindAuth {
		t.Fatalf("old password should no longer work")
	}
	if _, err := svc.Login(ctx, "cp@example.com", "new-pw"); err != nil {
		t.Fatalf("new password should work: %v", err)
	}
}

func TestPasswordLimitCountsBytes(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	// 40 runes, 80 bytes
	long := strings.Repeat("é", 40)

	_, err := svc.Register(ctx, RegisterInput{Email: "utf8@example.com", Password: long})
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if users.count() != 0 {
		t.Fatalf("no user should be created")
	}

	exact := strings.Repeat("é", 36)
	u, err := svc.Register(ctx, RegisterInput{Email: "utf8@example.com", Password: exact})
	if err != nil {
		t.Fatalf("72-byte password should be accepted: %v", err)
	}

	if err := svc.ChangePassword(ctx, u.ID, exact, long); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("change to long password: expected validation error, got %v", err)
	}
	if _, err := svc.Login(ctx, "utf8@example.com", exact); err != nil {
		t.Fatalf("old password should still work: %v", err)
	}
}

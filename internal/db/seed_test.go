package db

import (
	"context"
	"testing"

	"github.com/geocoder89/fieldops/internal/config"
	"github.com/geocoder89/fieldops/internal/domain/client"
	"github.com/geocoder89/fieldops/internal/domain/user"
	"github.com/geocoder89/fieldops/internal/security"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeSeedStore struct {
	users   map[string]user.User
	clients map[string]client.Client
}

func newFakeSeedStore() *fakeSeedStore {
	return &fakeSeedStore{users: map[string]user.User{}, clients: map[string]client.Client{}}
}

func (f *fakeSeedStore) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	u, ok := f.users[email]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (f *fakeSeedStore) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	u.ID = int64(len(f.users) + 1)
	f.users[u.Email] = u
	return u, nil
}

func (f *fakeSeedStore) EnsureClient(ctx context.Context, name, address string) (client.Client, error) {
	if c, ok := f.clients[name]; ok {
		return c, nil
	}
	c := client.Client{ID: int64(len(f.clients) + 1), Name: name, Address: address}
	f.clients[name] = c
	return c, nil
}

func TestEnsureAdminUser(t *testing.T) {
	security.Cost = bcrypt.MinCost
	ctx := context.Background()
	store := newFakeSeedStore()

	require.NoError(t, EnsureAdminUser(ctx, store, config.Config{}))
	require.Empty(t, store.users)

	cfg := config.Config{AdminEmail: "admin@example.com", AdminPassword: "s3cret", AdminName: "Admin"}
	require.NoError(t, EnsureAdminUser(ctx, store, cfg))
	require.NoError(t, EnsureAdminUser(ctx, store, cfg))
	require.Len(t, store.users, 1)

	admin := store.users["admin@example.com"]
	require.Equal(t, user.RoleAdmin, admin.Role)
	require.NotEqual(t, "s3cret", admin.PasswordHash)
	require.NoError(t, security.CheckPassword(admin.PasswordHash, "s3cret"))
}

func TestSeedClientsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newFakeSeedStore()

	require.NoError(t, SeedClients(ctx, store))
	require.NoError(t, SeedClients(ctx, store))
	require.Len(t, store.clients, len(DefaultClients))
	require.Equal(t, "123 Main St, New York, NY", store.clients["ABC Corp"].Address)
}

func TestMigrateSQLiteIsRepeatable(t *testing.T) {
	sqlDB, err := OpenSQLite(context.Background(), "file:migrate-repeat?mode=memory&cache=shared")
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, MigrateSQLite(sqlDB))
	require.NoError(t, MigrateSQLite(sqlDB))

	var n int
	require.NoError(t, sqlDB.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users','clients','service_logs','interactions')`).Scan(&n))
	require.Equal(t, 4, n)
}

func TestPgx5URL(t *testing.T) {
	require.Equal(t, "pgx5://u:p@h:5432/db?sslmode=disable", pgx5URL("postgres://u:p@h:5432/db?sslmode=disable"))
	require.Equal(t, "pgx5://h/db", pgx5URL("postgresql://h/db"))
	require.Equal(t, "pgx5://h/db", pgx5URL("pgx5://h/db"))
}

func TestSQLiteDSNAddsPragmas(t *testing.T) {
	require.Equal(t, "app.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("app.db"))
	require.Equal(t, "file:x?mode=memory&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", sqliteDSN("file:x?mode=memory"))
}

func TestSQLitePragmasHoldOnFreshConnections(t *testing.T) {
	sqlDB, err := OpenSQLite(context.Background(), "file:pragma-conns?mode=memory&cache=shared")
	require.NoError(t, err)
	defer sqlDB.Close()

	// no idle connections: every query below runs on a newly opened one
	sqlDB.SetMaxIdleConns(0)

	for i := 0; i < 3; i++ {
		var fk, busy int
		require.NoError(t, sqlDB.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
		require.NoError(t, sqlDB.QueryRow(`PRAGMA busy_timeout`).Scan(&busy))
		require.Equal(t, 1, fk)
		require.Equal(t, 5000, busy)
	}
}

// Package repo declares the persistence contract shared by the postgres and
// sqlite backends. Handlers and the auth service depend on the narrow
// interfaces; cmd/api wires a concrete Store.
package repo

import (
	"context"

	"github.com/geocoder89/fieldops/internal/domain/client"
	"github.com/geocoder89/fieldops/internal/domain/interaction"
	"github.com/geocoder89/fieldops/internal/domain/servicelog"
	"github.com/geocoder89/fieldops/internal/domain/user"
)

type Users interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	GetUserByID(ctx context.Context, id int64) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	// UpdateUserName sets the profile name; nil clears it.
	UpdateUserName(ctx context.Context, id int64, name *string) error
	ListUsersByRole(ctx context.Context, role user.Role) ([]user.User, error)
	// ListEngineerStats returns every engineer with the number of
	// interactions currently assigned to them.
	ListEngineerStats(ctx context.Context) ([]user.EngineerStats, error)
	// DeleteUserCascade removes the user's interactions, service logs and
	// the user row in one transaction.
	DeleteUserCascade(ctx context.Context, id int64) (user.DeleteResult, error)
}

type Clients interface {
	ListClients(ctx context.Context) ([]client.Client, error)
	CreateClient(ctx context.Context, name, address string) (client.Client, error)
	// EnsureClient returns the client with this exact name, creating it
	// with address when missing.
	EnsureClient(ctx context.Context, name, address string) (client.Client, error)
}

type ServiceLogs interface {
	CreateServiceLog(ctx context.Context, l servicelog.ServiceLog) (servicelog.ServiceLog, error)
	ListServiceLogs(ctx context.Context) ([]servicelog.View, error)
}

type Interactions interface {
	// CreateInteraction resolves in.ClientName to a client (creating one
	// with the placeholder address if needed) and inserts the interaction
	// in the same transaction.
	CreateInteraction(ctx context.Context, in interaction.CreateInput) (interaction.Interaction, error)
	GetInteraction(ctx context.Context, id int64) (interaction.Interaction, error)
	ListInteractions(ctx context.Context, f interaction.Filter) ([]interaction.View, error)
	UpdateInteractionStatus(ctx context.Context, id int64, status interaction.Status) error
	ReassignInteraction(ctx context.Context, id, engineerID int64) error
}

type Store interface {
	Users
	Clients
	ServiceLogs
	Interactions

	Ping(ctx context.Context) error
	Close() error
}

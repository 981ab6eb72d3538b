package postgres

import (
	"context"

	"github.com/geocoder89/fieldops/internal/domain/client"
	"github.com/jackc/pgx/v5"
)

func scanClient(row pgx.Row) (client.Client, error) {
	var c client.Client
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.CreatedAt)
	return c, err
}

func (s *Store) ListClients(ctx context.Context) ([]client.Client, error) {
	clients := make([]client.Client, 0)

	err := s.observe("clients.list", func() error {
		rows, err := s.pool.Query(ctx, `SELECT id, name, address, created_at FROM clients ORDER BY id`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			c, err := scanClient(rows)
			if err != nil {
				return err
			}
			clients = append(clients, c)
		}
		return rows.Err()
	})

	return clients, err
}

func (s *Store) CreateClient(ctx context.Context, name, address string) (client.Client, error) {
	var c client.Client

	err := s.observe("clients.create", func() error {
		var err error
		c, err = scanClient(s.pool.QueryRow(ctx,
			`INSERT INTO clients (name, address) VALUES ($1, $2)
			 RETURNING id, name, address, created_at`,
			name, address,
		))
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return client.Client{}, client.ErrNameTaken
		}
		return client.Client{}, err
	}

	return c, nil
}

func (s *Store) EnsureClient(ctx context.Context, name, address string) (client.Client, error) {
	var c client.Client

	err := s.observe("clients.ensure", func() error {
		var err error
		c, err = ensureClient(ctx, s.pool, name, address)
		return err
	})

	return c, err
}

// ensureClient inserts the client unless the name exists and then reads
// the row back, so concurrent callers converge on one client.
func ensureClient(ctx context.Context, q querier, name, address string) (client.Client, error) {
	if _, err := q.Exec(ctx,
		`INSERT INTO clients (name, address) VALUES ($1, $2)
		 ON CONFLICT (name) DO NOTHING`,
		name, address,
	); err != nil {
		return client.Client{}, err
	}

	return scanClient(q.QueryRow(ctx, `SELECT id, name, address, created_at FROM clients WHERE name = $1`, name))
}

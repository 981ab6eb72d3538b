package sqlite

import (
	"context"
	"time"

	"github.com/geocoder89/fieldops/internal/domain/client"
)

func scanClient(row interface{ Scan(...any) error }) (client.Client, error) {
	var (
		c       client.Client
		created int64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Address, &created); err != nil {
		return client.Client{}, err
	}
	c.CreatedAt = fromUnix(created)
	return c, nil
}

func (s *Store) ListClients(ctx context.Context) ([]client.Client, error) {
	clients := make([]client.Client, 0)

	err := s.observe("clients.list", func() error {
		rows, err := s.db.QueryContext(ctx, `SELECT id, name, address, created_at FROM clients ORDER BY id`)
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
	c := client.Client{Name: name, Address: address, CreatedAt: time.Now().UTC()}

	err := s.observe("clients.create", func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO clients (name, address, created_at) VALUES (?, ?, ?)`,
			c.Name, c.Address, toUnix(c.CreatedAt),
		)
		if err != nil {
			return err
		}
		c.ID, err = res.LastInsertId()
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
		c, err = ensureClient(ctx, s.db, name, address)
		return err
	})

	return c, err
}

// ensureClient inserts the client unless the name exists and then reads
// the row back, so concurrent callers converge on one client.
func ensureClient(ctx context.Context, q querier, name, address string) (client.Client, error) {
	_, err := q.ExecContext(ctx,
		`INSERT INTO clients (name, address, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (name) DO NOTHING`,
		name, address, toUnix(time.Now()),
	)
	if err != nil {
		return client.Client{}, err
	}

	return scanClient(q.QueryRowContext(ctx, `SELECT id, name, address, created_at FROM clients WHERE name = ?`, name))
}

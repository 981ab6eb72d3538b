package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/geocoder89/fieldops/internal/domain/client"
	"github.com/geocoder89/fieldops/internal/domain/interaction"
	"github.com/geocoder89/fieldops/internal/domain/user"
)

func (s *Store) CreateInteraction(ctx context.Context, in interaction.CreateInput) (interaction.Interaction, error) {
	var created interaction.Interaction

	err := s.observe("interactions.create", func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			ok, err := exists(ctx, tx, `SELECT 1 FROM users WHERE id = ?`, in.EngineerID)
			if err != nil {
				return err
			}
			if !ok {
				return user.ErrNotFound
			}

			c, err := ensureClient(ctx, tx, in.ClientName, client.PlaceholderAddress)
			if err != nil {
				return err
			}

			it := interaction.NewFromCreateInput(in, c.ID)
			res, err := tx.ExecContext(ctx,
				`INSERT INTO interactions (engineer_id, client_id, interaction_type, direction, summary, status, timestamp)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				it.EngineerID, it.ClientID, it.Type, it.Direction, it.Summary, it.Status, toUnix(it.Timestamp),
			)
			if err != nil {
				return err
			}
			if it.ID, err = res.LastInsertId(); err != nil {
				return err
			}

			created = it
			return nil
		})
	})
	if err != nil {
		return interaction.Interaction{}, err
	}

	return created, nil
}

func (s *Store) GetInteraction(ctx context.Context, id int64) (interaction.Interaction, error) {
	var (
		it interaction.Interaction
		ts int64
	)

	err := s.observe("interactions.get", func() error {
		return s.db.QueryRowContext(ctx,
			`SELECT id, engineer_id, client_id, interaction_type, direction, summary, status, timestamp
			 FROM interactions WHERE id = ?`, id,
		).Scan(&it.ID, &it.EngineerID, &it.ClientID, &it.Type, &it.Direction, &it.Summary, &it.Status, &ts)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return interaction.Interaction{}, interaction.ErrNotFound
		}
		return interaction.Interaction{}, err
	}

	it.Timestamp = fromUnix(ts)
	return it, nil
}

func (s *Store) ListInteractions(ctx context.Context, f interaction.Filter) ([]interaction.View, error) {
	query := `
		SELECT i.id, i.engineer_id, i.client_id, i.interaction_type, i.direction, i.summary, i.status, i.timestamp,
		       u.name, u.email, c.name
		FROM interactions i
		LEFT JOIN users u ON u.id = i.engineer_id
		LEFT JOIN clients c ON c.id = i.client_id`

	where := make([]string, 0, 2)
	args := make([]any, 0, 2)

	if f.ClientID != nil {
		where = append(where, "i.client_id = ?")
		args = append(args, *f.ClientID)
	}
	if f.EngineerID != nil {
		where = append(where, "i.engineer_id = ?")
		args = append(args, *f.EngineerID)
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY i.timestamp DESC, i.id DESC"

	out := make([]interaction.View, 0)

	err := s.observe("interactions.list", func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				v                 interaction.View
				ts                int64
				engName, engEmail sql.NullString
				clientName        sql.NullString
			)
			if err := rows.Scan(&v.ID, &v.EngineerID, &v.ClientID, &v.Type, &v.Direction, &v.Summary, &v.Status, &ts,
				&engName, &engEmail, &clientName); err != nil {
				return err
			}
			v.Timestamp = fromUnix(ts)
			v.EngineerName = engineerName(engName, engEmail)
			v.ClientName = clientNameOrUnknown(clientName)
			out = append(out, v)
		}
		return rows.Err()
	})

	return out, err
}

func (s *Store) UpdateInteractionStatus(ctx context.Context, id int64, status interaction.Status) error {
	return s.observe("interactions.update_status", func() error {
		res, err := s.db.ExecContext(ctx, `UPDATE interactions SET status = ? WHERE id = ?`, status, id)
		if err != nil {
			return err
		}
		return affectedOrNotFound(res, interaction.ErrNotFound)
	})
}

func (s *Store) ReassignInteraction(ctx context.Context, id, engineerID int64) error {
	return s.observe("interactions.reassign", func() error {
		res, err := s.db.ExecContext(ctx, `UPDATE interactions SET engineer_id = ? WHERE id = ?`, engineerID, id)
		if err != nil {
			return err
		}
		return affectedOrNotFound(res, interaction.ErrNotFound)
	})
}

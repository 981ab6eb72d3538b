package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/geocoder89/fieldops/internal/domain/client"
	"github.com/geocoder89/fieldops/internal/domain/interaction"
	"github.com/geocoder89/fieldops/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

func (s *Store) CreateInteraction(ctx context.Context, in interaction.CreateInput) (interaction.Interaction, error) {
	var created interaction.Interaction

	err := s.observe("interactions.create", func() error {
		return s.inTx(ctx, func(tx pgx.Tx) error {
			ok, err := exists(ctx, tx, `SELECT 1 FROM users WHERE id = $1`, in.EngineerID)
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
			if err := tx.QueryRow(ctx,
				`INSERT INTO interactions (engineer_id, client_id, interaction_type, direction, summary, status, timestamp)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)
				 RETURNING id`,
				it.EngineerID, it.ClientID, it.Type, it.Direction, it.Summary, it.Status, it.Timestamp,
			).Scan(&it.ID); err != nil {
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
	var it interaction.Interaction

	err := s.observe("interactions.get", func() error {
		return s.pool.QueryRow(ctx,
			`SELECT id, engineer_id, client_id, interaction_type, direction, summary, status, timestamp
			 FROM interactions WHERE id = $1`, id,
		).Scan(&it.ID, &it.EngineerID, &it.ClientID, &it.Type, &it.Direction, &it.Summary, &it.Status, &it.Timestamp)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return interaction.Interaction{}, interaction.ErrNotFound
		}
		return interaction.Interaction{}, err
	}

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
		args = append(args, *f.ClientID)
		where = append(where, "i.client_id = $"+strconv.Itoa(len(args)))
	}
	if f.EngineerID != nil {
		args = append(args, *f.EngineerID)
		where = append(where, "i.engineer_id = $"+strconv.Itoa(len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY i.timestamp DESC, i.id DESC"

	out := make([]interaction.View, 0)

	err := s.observe("interactions.list", func() error {
		rows, err := s.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				v                 interaction.View
				engName, engEmail *string
				clientName        *string
			)
			if err := rows.Scan(&v.ID, &v.EngineerID, &v.ClientID, &v.Type, &v.Direction, &v.Summary, &v.Status, &v.Timestamp,
				&engName, &engEmail, &clientName); err != nil {
				return err
			}
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
		tag, err := s.pool.Exec(ctx, `UPDATE interactions SET status = $1 WHERE id = $2`, status, id)
		if err != nil {
			return err
		}
		return rowsOrNotFound(tag, interaction.ErrNotFound)
	})
}

func (s *Store) ReassignInteraction(ctx context.Context, id, engineerID int64) error {
	return s.observe("interactions.reassign", func() error {
		tag, err := s.pool.Exec(ctx, `UPDATE interactions SET engineer_id = $1 WHERE id = $2`, engineerID, id)
		if err != nil {
			return err
		}
		return rowsOrNotFound(tag, interaction.ErrNotFound)
	})
}

package postgres

import (
	"context"

	"github.com/geocoder89/fieldops/internal/domain/client"
	"github.com/geocoder89/fieldops/internal/domain/servicelog"
	"github.com/geocoder89/fieldops/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

func (s *Store) CreateServiceLog(ctx context.Context, l servicelog.ServiceLog) (servicelog.ServiceLog, error) {
	err := s.observe("service_logs.create", func() error {
		return s.inTx(ctx, func(tx pgx.Tx) error {
			ok, err := exists(ctx, tx, `SELECT 1 FROM users WHERE id = $1`, l.EngineerID)
			if err != nil {
				return err
			}
			if !ok {
				return user.ErrNotFound
			}

			ok, err = exists(ctx, tx, `SELECT 1 FROM clients WHERE id = $1`, l.ClientID)
			if err != nil {
				return err
			}
			if !ok {
				return client.ErrNotFound
			}

			return tx.QueryRow(ctx,
				`INSERT INTO service_logs (engineer_id, client_id, description, lat, long, timestamp)
				 VALUES ($1, $2, $3, $4, $5, $6)
				 RETURNING id`,
				l.EngineerID, l.ClientID, l.Description, l.Lat, l.Long, l.Timestamp,
			).Scan(&l.ID)
		})
	})
	if err != nil {
		return servicelog.ServiceLog{}, err
	}

	return l, nil
}

func (s *Store) ListServiceLogs(ctx context.Context) ([]servicelog.View, error) {
	logs := make([]servicelog.View, 0)

	err := s.observe("service_logs.list", func() error {
		rows, err := s.pool.Query(ctx, `
			SELECT l.id, l.engineer_id, l.client_id, l.description, l.lat, l.long, l.timestamp,
			       u.name, u.email, c.name
			FROM service_logs l
			LEFT JOIN users u ON u.id = l.engineer_id
			LEFT JOIN clients c ON c.id = l.client_id
			ORDER BY l.timestamp DESC, l.id DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				v                 servicelog.View
				engName, engEmail *string
				clientName        *string
			)
			if err := rows.Scan(&v.ID, &v.EngineerID, &v.ClientID, &v.Description, &v.Lat, &v.Long, &v.Timestamp,
				&engName, &engEmail, &clientName); err != nil {
				return err
			}
			v.EngineerName = engineerName(engName, engEmail)
			v.ClientName = clientNameOrUnknown(clientName)
			logs = append(logs, v)
		}
		return rows.Err()
	})

	return logs, err
}

func engineerName(name, email *string) string {
	if email == nil {
		return "Unknown"
	}
	return user.DisplayName(name, *email)
}

func clientNameOrUnknown(name *string) string {
	if name == nil {
		return "Unknown"
	}
	return *name
}

package sqlite

import (
	"context"
	"database/sql"

	"github.com/geocoder89/fieldops/internal/domain/client"
	"github.com/geocoder89/fieldops/internal/domain/servicelog"
	"github.com/geocoder89/fieldops/internal/domain/user"
)

func (s *Store) CreateServiceLog(ctx context.Context, l servicelog.ServiceLog) (servicelog.ServiceLog, error) {
	err := s.observe("service_logs.create", func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			ok, err := exists(ctx, tx, `SELECT 1 FROM users WHERE id = ?`, l.EngineerID)
			if err != nil {
				return err
			}
			if !ok {
				return user.ErrNotFound
			}

			ok, err = exists(ctx, tx, `SELECT 1 FROM clients WHERE id = ?`, l.ClientID)
			if err != nil {
				return err
			}
			if !ok {
				return client.ErrNotFound
			}

			res, err := tx.ExecContext(ctx,
				`INSERT INTO service_logs (engineer_id, client_id, description, lat, long, timestamp)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				l.EngineerID, l.ClientID, l.Description, l.Lat, l.Long, toUnix(l.Timestamp),
			)
			if err != nil {
				return err
			}
			l.ID, err = res.LastInsertId()
			return err
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
		rows, err := s.db.QueryContext(ctx, `
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
				ts                int64
				engName, engEmail sql.NullString
				clientName        sql.NullString
			)
			if err := rows.Scan(&v.ID, &v.EngineerID, &v.ClientID, &v.Description, &v.Lat, &v.Long, &ts,
				&engName, &engEmail, &clientName); err != nil {
				return err
			}
			v.Timestamp = fromUnix(ts)
			v.EngineerName = engineerName(engName, engEmail)
			v.ClientName = clientNameOrUnknown(clientName)
			logs = append(logs, v)
		}
		return rows.Err()
	})

	return logs, err
}

func engineerName(name, email sql.NullString) string {
	if !email.Valid {
		return "Unknown"
	}
	var n *string
	if name.Valid {
		n = &name.String
	}
	return user.DisplayName(n, email.String)
}

func clientNameOrUnknown(name sql.NullString) string {
	if !name.Valid {
		return "Unknown"
	}
	return name.String
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/geocoder89/fieldops/internal/domain/user"
)

const userColumns = `id, email, password_hash, role, name, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (user.User, error) {
	var (
		u                user.User
		name             sql.NullString
		created, updated int64
	)

	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &name, &created, &updated); err != nil {
		return user.User{}, err
	}

	if name.Valid {
		u.Name = &name.String
	}
	u.CreatedAt = fromUnix(created)
	u.UpdatedAt = fromUnix(updated)

	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	err := s.observe("users.create", func() error {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO users (email, password_hash, role, name, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			u.Email, u.PasswordHash, u.Role, u.Name, toUnix(now), toUnix(now),
		)
		if err != nil {
			return err
		}
		u.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailTaken
		}
		return user.User{}, err
	}

	return u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := s.observe("users.get_by_id", func() error {
		var err error
		u, err = scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := s.observe("users.get_by_email", func() error {
		var err error
		u, err = scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return s.observe("users.update_password", func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
			hash, toUnix(time.Now()), id,
		)
		if err != nil {
			return err
		}
		return affectedOrNotFound(res, user.ErrNotFound)
	})
}

func (s *Store) UpdateUserName(ctx context.Context, id int64, name *string) error {
	var col sql.NullString
	if name != nil {
		col = sql.NullString{String: *name, Valid: true}
	}

	return s.observe("users.update_name", func() error {
		res, err := s.db.ExecContext(ctx,
			`UPDATE users SET name = ?, updated_at = ? WHERE id = ?`,
			col, toUnix(time.Now()), id,
		)
		if err != nil {
			return err
		}
		return affectedOrNotFound(res, user.ErrNotFound)
	})
}

func (s *Store) ListUsersByRole(ctx context.Context, role user.Role) ([]user.User, error) {
	users := make([]user.User, 0)

	err := s.observe("users.list_by_role", func() error {
		rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY id`, role)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			users = append(users, u)
		}
		return rows.Err()
	})

	return users, err
}

func (s *Store) ListEngineerStats(ctx context.Context) ([]user.EngineerStats, error) {
	stats := make([]user.EngineerStats, 0)

	err := s.observe("users.engineer_stats", func() error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT u.id, u.email, COUNT(i.id)
			FROM users u
			LEFT JOIN interactions i ON i.engineer_id = u.id
			WHERE u.role = ?
			GROUP BY u.id, u.email
			ORDER BY u.id`, user.RoleEngineer)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var st user.EngineerStats
			if err := rows.Scan(&st.ID, &st.Email, &st.InteractionCount); err != nil {
				return err
			}
			stats = append(stats, st)
		}
		return rows.Err()
	})

	return stats, err
}

func (s *Store) DeleteUserCascade(ctx context.Context, id int64) (user.DeleteResult, error) {
	var result user.DeleteResult

	err := s.observe("users.delete_cascade", func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			u, err := scanUser(tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return user.ErrNotFound
				}
				return err
			}
			result.User = u

			res, err := tx.ExecContext(ctx, `DELETE FROM interactions WHERE engineer_id = ?`, id)
			if err != nil {
				return err
			}
			if result.Interactions, err = res.RowsAffected(); err != nil {
				return err
			}

			res, err = tx.ExecContext(ctx, `DELETE FROM service_logs WHERE engineer_id = ?`, id)
			if err != nil {
				return err
			}
			if result.ServiceLogs, err = res.RowsAffected(); err != nil {
				return err
			}

			res, err = tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
			if err != nil {
				return err
			}
			return affectedOrNotFound(res, user.ErrNotFound)
		})
	})
	if err != nil {
		return user.DeleteResult{}, err
	}

	return result, nil
}

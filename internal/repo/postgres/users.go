package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/fieldops/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, password_hash, role, name, created_at, updated_at`

func scanUser(row pgx.Row) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Name, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	err := s.observe("users.create", func() error {
		return s.pool.QueryRow(ctx,
			`INSERT INTO users (email, password_hash, role, name, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			u.Email, u.PasswordHash, u.Role, u.Name, u.CreatedAt, u.UpdatedAt,
		).Scan(&u.ID)
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
		u, err = scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
		u, err = scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (s *Store) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return s.observe("users.update_password", func() error {
		tag, err := s.pool.Exec(ctx,
			`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`, hash, id)
		if err != nil {
			return err
		}
		return rowsOrNotFound(tag, user.ErrNotFound)
	})
}

func (s *Store) UpdateUserName(ctx context.Context, id int64, name *string) error {
	return s.observe("users.update_name", func() error {
		tag, err := s.pool.Exec(ctx,
			`UPDATE users SET name = $1, updated_at = now() WHERE id = $2`, name, id)
		if err != nil {
			return err
		}
		return rowsOrNotFound(tag, user.ErrNotFound)
	})
}

func (s *Store) ListUsersByRole(ctx context.Context, role user.Role) ([]user.User, error) {
	users := make([]user.User, 0)

	err := s.observe("users.list_by_role", func() error {
		rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY id`, role)
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
		rows, err := s.pool.Query(ctx, `
			SELECT u.id, u.email, COUNT(i.id)
			FROM users u
			LEFT JOIN interactions i ON i.engineer_id = u.id
			WHERE u.role = $1
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
		return s.inTx(ctx, func(tx pgx.Tx) error {
			// lock the user row so a concurrent insert cannot attach new records
			u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id))
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return user.ErrNotFound
				}
				return err
			}
			result.User = u

			tag, err := tx.Exec(ctx, `DELETE FROM interactions WHERE engineer_id = $1`, id)
			if err != nil {
				return err
			}
			result.Interactions = tag.RowsAffected()

			tag, err = tx.Exec(ctx, `DELETE FROM service_logs WHERE engineer_id = $1`, id)
			if err != nil {
				return err
			}
			result.ServiceLogs = tag.RowsAffected()

			tag, err = tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
			if err != nil {
				return err
			}
			return rowsOrNotFound(tag, user.ErrNotFound)
		})
	})
	if err != nil {
		return user.DeleteResult{}, err
	}

	return result, nil
}

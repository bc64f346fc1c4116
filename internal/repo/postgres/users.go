package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/todohub/internal/domain/user"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, email, password_hash, full_name, created_at, updated_at`

type UsersRepo struct {
	metered
	pool *pgxpool.Pool
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{metered: metered{prom: prom}, pool: pool}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	err := r.observe("users.create", func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO users (username, email, password_hash, full_name)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at, updated_at`,
			u.Username, u.Email, u.PasswordHash, u.FullName,
		).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	})

	if err != nil {
		if IsUniqueViolation(err) {
			switch constraintName(err) {
			case "users_username_key":
				return user.User{}, user.ErrUsernameTaken
			case "users_email_key":
				return user.User{}, user.ErrEmailTaken
			}
			return user.User{}, user.ErrDuplicateUser
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_username", `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UsersRepo) UpdateFullName(ctx context.Context, id int64, fullName string) (user.User, error) {
	return r.getOne(ctx, "users.update_full_name", `
		UPDATE users
		SET full_name = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns, id, fullName)
}

func (r *UsersRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.observe("users.update_password", func() error {
		tag, err := r.pool.Exec(ctx, `
			UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1
		`, id, hash)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, args ...any) (user.User, error) {
	var u user.User

	err := r.observe(op, func() error {
		return scanUser(r.pool.QueryRow(ctx, query, args...), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

func scanUser(row scanner, u *user.User) error {
	return row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

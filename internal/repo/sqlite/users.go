package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/geocoder89/todohub/internal/domain/user"
)

const userColumns = `id, username, email, password_hash, full_name, created_at, updated_at`

type UsersRepo struct {
	db *DB
}

func NewUsersRepo(db *DB) *UsersRepo {
	return &UsersRepo{db: db}
}

func (r *UsersRepo) Create(ctx context.Context, u user.User) (user.User, error) {
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	err := r.db.observe("users.create", func() error {
		return r.db.QueryRowContext(ctx, `
			INSERT INTO users (username, email, password_hash, full_name, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING id`,
			u.Username, u.Email, u.PasswordHash, u.FullName, u.CreatedAt, u.UpdatedAt,
		).Scan(&u.ID)
	})

	if err != nil {
		switch {
		case violates(err, "users.username"):
			return user.User{}, user.ErrUsernameTaken
		case violates(err, "users.email"):
			return user.User{}, user.ErrEmailTaken
		case isUniqueViolation(err):
			return user.User{}, user.ErrDuplicateUser
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (user.User, error) {
	return r.getOne(ctx, "users.get_by_id", `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_username", `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (user.User, error) {
	return r.getOne(ctx, "users.get_by_email", `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *UsersRepo) UpdateFullName(ctx context.Context, id int64, fullName string) (user.User, error) {
	return r.getOne(ctx, "users.update_full_name", `
		UPDATE users
		SET full_name = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+userColumns, fullName, time.Now().UTC(), id)
}

func (r *UsersRepo) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	return r.db.observe("users.update_password", func() error {
		res, err := r.db.ExecContext(ctx, `
			UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?
		`, hash, time.Now().UTC(), id)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return user.ErrNotFound
		}
		return nil
	})
}

func (r *UsersRepo) getOne(ctx context.Context, op, query string, args ...any) (user.User, error) {
	var u user.User

	err := r.db.observe(op, func() error {
		return r.db.QueryRowContext(ctx, query, args...).Scan(
			&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.FullName, &u.CreatedAt, &u.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return u, nil
}

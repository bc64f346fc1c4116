package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/geocoder89/todohub/internal/domain/collab"
	"github.com/geocoder89/todohub/internal/domain/todo"
)

const grantColumns = `c.id, c.list_id, c.user_id, u.username, c.permission, c.invited_at, c.accepted_at`

type CollaboratorsRepo struct {
	db *DB
}

func NewCollaboratorsRepo(db *DB) *CollaboratorsRepo {
	return &CollaboratorsRepo{db: db}
}

func (r *CollaboratorsRepo) GetGrant(ctx context.Context, listID, userID int64) (collab.Grant, error) {
	var g collab.Grant

	err := r.db.observe("collaborators.get", func() error {
		return scanGrant(r.db.QueryRowContext(ctx, `
			SELECT `+grantColumns+`
			FROM list_collaborators c
			JOIN users u ON u.id = c.user_id
			WHERE c.list_id = ? AND c.user_id = ?`, listID, userID), &g)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return collab.Grant{}, collab.ErrGrantNotFound
		}
		return collab.Grant{}, err
	}

	return g, nil
}

// CreateGrant inserts the grant unless the (list, user) pair already has
// one, in which case the stored grant comes back with created=false.
func (r *CollaboratorsRepo) CreateGrant(ctx context.Context, g collab.Grant) (collab.Grant, bool, error) {
	if g.InvitedAt.IsZero() {
		g.InvitedAt = time.Now().UTC()
	}

	var n int64
	err := r.db.observe("collaborators.create", func() error {
		res, err := r.db.ExecContext(ctx, `
			INSERT INTO list_collaborators (list_id, user_id, permission, invited_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (list_id, user_id) DO NOTHING`,
			g.ListID, g.UserID, string(g.Permission), g.InvitedAt,
		)
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})

	if err != nil {
		if isForeignKeyViolation(err) {
			return collab.Grant{}, false, r.missingParent(ctx, g.ListID)
		}
		return collab.Grant{}, false, err
	}

	stored, err := r.GetGrant(ctx, g.ListID, g.UserID)
	if err != nil {
		return collab.Grant{}, false, err
	}
	return stored, n > 0, nil
}

// missingParent tells which side of a grant insert did not exist.
func (r *CollaboratorsRepo) missingParent(ctx context.Context, listID int64) error {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM todo_lists WHERE id = ?`, listID).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return todo.ErrListNotFound
	case err != nil:
		return err
	default:
		return collab.ErrNoSuchUser
	}
}

func (r *CollaboratorsRepo) ListGrants(ctx context.Context, listID int64) ([]collab.Grant, error) {
	out := make([]collab.Grant, 0)

	err := r.db.observe("collaborators.list", func() error {
		rows, err := r.db.QueryContext(ctx, `
			SELECT `+grantColumns+`
			FROM list_collaborators c
			JOIN users u ON u.id = c.user_id
			WHERE c.list_id = ?
			ORDER BY c.invited_at ASC, c.id ASC`, listID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var g collab.Grant
			if err := scanGrant(rows, &g); err != nil {
				return err
			}
			out = append(out, g)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func scanGrant(row scanner, g *collab.Grant) error {
	var perm string

	err := row.Scan(&g.ID, &g.ListID, &g.UserID, &g.Username, &perm, &g.InvitedAt, &g.AcceptedAt)
	g.Permission = collab.Permission(perm)
	return err
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/todohub/internal/domain/collab"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const grantColumns = `c.id, c.list_id, c.user_id, u.username, c.permission, c.invited_at, c.accepted_at`

type CollaboratorsRepo struct {
	metered
	pool *pgxpool.Pool
}

func NewCollaboratorsRepo(pool *pgxpool.Pool, prom *observability.Prom) *CollaboratorsRepo {
	return &CollaboratorsRepo{metered: metered{prom: prom}, pool: pool}
}

func (r *CollaboratorsRepo) GetGrant(ctx context.Context, listID, userID int64) (collab.Grant, error) {
	var g collab.Grant

	err := r.observe("collaborators.get", func() error {
		return scanGrant(r.pool.QueryRow(ctx, `
			SELECT `+grantColumns+`
			FROM list_collaborators c
			JOIN users u ON u.id = c.user_id
			WHERE c.list_id = $1 AND c.user_id = $2`, listID, userID), &g)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return collab.Grant{}, collab.ErrGrantNotFound
		}
		return collab.Grant{}, err
	}

	return g, nil
}

// CreateGrant inserts the grant unless one exists for the same list and
// user; the existing row is returned untouched with created=false.
func (r *CollaboratorsRepo) CreateGrant(ctx context.Context, g collab.Grant) (collab.Grant, bool, error) {
	if g.InvitedAt.IsZero() {
		g.InvitedAt = time.Now().UTC()
	}

	err := r.observe("collaborators.create", func() error {
		return r.pool.QueryRow(ctx, `
			INSERT INTO list_collaborators (list_id, user_id, permission, invited_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (list_id, user_id) DO NOTHING
			RETURNING id, invited_at, accepted_at`,
			g.ListID, g.UserID, string(g.Permission), g.InvitedAt,
		).Scan(&g.ID, &g.InvitedAt, &g.AcceptedAt)
	})

	switch {
	case err == nil:
		return g, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		existing, err := r.GetGrant(ctx, g.ListID, g.UserID)
		if err != nil {
			return collab.Grant{}, false, err
		}
		return existing, false, nil
	case IsForeignKeyViolation(err):
		if constraintName(err) == "list_collaborators_user_id_fkey" {
			return collab.Grant{}, false, collab.ErrNoSuchUser
		}
		return collab.Grant{}, false, todo.ErrListNotFound
	default:
		return collab.Grant{}, false, err
	}
}

func (r *CollaboratorsRepo) ListGrants(ctx context.Context, listID int64) ([]collab.Grant, error) {
	out := make([]collab.Grant, 0)

	err := r.observe("collaborators.list", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+grantColumns+`
			FROM list_collaborators c
			JOIN users u ON u.id = c.user_id
			WHERE c.list_id = $1
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

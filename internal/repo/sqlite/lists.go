package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/geocoder89/todohub/internal/domain/collab"
	"github.com/geocoder89/todohub/internal/domain/todo"
)

const (
	listColumns = `l.id, l.title, l.description, l.owner_id, l.created_at, l.updated_at`
	listFields  = `id, title, description, owner_id, created_at, updated_at`
)

type ListsRepo struct {
	db    *DB
	items *ItemsRepo
}

func NewListsRepo(db *DB) *ListsRepo {
	return &ListsRepo{db: db, items: NewItemsRepo(db)}
}

func (r *ListsRepo) Create(ctx context.Context, ownerID int64, req todo.CreateListRequest) (todo.List, error) {
	now := time.Now().UTC()
	l := todo.List{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     ownerID,
		Items:       []todo.Item{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := r.db.observe("lists.create", func() error {
		return r.db.QueryRowContext(ctx, `
			INSERT INTO todo_lists (title, description, owner_id, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id`,
			l.Title, l.Description, l.OwnerID, l.CreatedAt, l.UpdatedAt,
		).Scan(&l.ID)
	})
	if err != nil {
		return todo.List{}, err
	}

	return l, nil
}

// GetByID returns the list row without its items.
func (r *ListsRepo) GetByID(ctx context.Context, id int64) (todo.List, error) {
	var l todo.List

	err := r.db.observe("lists.get_by_id", func() error {
		return scanList(r.db.QueryRowContext(ctx, `SELECT `+listColumns+` FROM todo_lists l WHERE l.id = ?`, id), &l)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return todo.List{}, todo.ErrListNotFound
		}
		return todo.List{}, err
	}

	return l, nil
}

func (r *ListsRepo) GetWithItems(ctx context.Context, id int64) (todo.List, error) {
	l, err := r.GetByID(ctx, id)
	if err != nil {
		return todo.List{}, err
	}

	l.Items, err = r.items.ListByList(ctx, id)
	if err != nil {
		return todo.List{}, err
	}
	return l, nil
}

// ListForUser fetches every list together with the requester's own grant
// on it, keeps the ones the requester owns or holds a grant on, then
// attaches their items.
func (r *ListsRepo) ListForUser(ctx context.Context, userID int64) ([]todo.List, error) {
	var candidates []todo.List
	grants := make(map[int64][]collab.Grant)

	err := r.db.observe("lists.list_for_user", func() error {
		rows, err := r.db.QueryContext(ctx, `
			SELECT `+listColumns+`,
				c.id, c.user_id, c.permission, c.invited_at, c.accepted_at
			FROM todo_lists l
			LEFT JOIN list_collaborators c ON c.list_id = l.id AND c.user_id = ?
			ORDER BY l.created_at ASC, l.id ASC`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var l todo.List
			var grantID, grantUser sql.NullInt64
			var perm sql.NullString
			var invitedAt sql.NullTime
			var acceptedAt *time.Time

			err := rows.Scan(
				&l.ID, &l.Title, &l.Description, &l.OwnerID, &l.CreatedAt, &l.UpdatedAt,
				&grantID, &grantUser, &perm, &invitedAt, &acceptedAt,
			)
			if err != nil {
				return err
			}

			if grantID.Valid {
				grants[l.ID] = append(grants[l.ID], collab.Grant{
					ID:         grantID.Int64,
					ListID:     l.ID,
					UserID:     grantUser.Int64,
					Permission: collab.Permission(perm.String),
					InvitedAt:  invitedAt.Time,
					AcceptedAt: acceptedAt,
				})
			}
			candidates = append(candidates, l)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	visible := collab.FilterVisible(candidates, grants, userID)
	if len(visible) == 0 {
		return visible, nil
	}

	ids := make([]int64, len(visible))
	for i, l := range visible {
		ids[i] = l.ID
	}

	byList, err := r.items.listByLists(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range visible {
		visible[i].Items = byList[visible[i].ID]
		if visible[i].Items == nil {
			visible[i].Items = []todo.Item{}
		}
	}

	return visible, nil
}

func (r *ListsRepo) Update(ctx context.Context, id int64, req todo.UpdateListRequest) (todo.List, error) {
	var sets []string
	var args []any

	if req.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *req.Title)
	}

	if req.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *req.Description)
	}

	if len(sets) == 0 {
		return r.GetWithItems(ctx, id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := `UPDATE todo_lists SET ` + strings.Join(sets, ", ") + ` WHERE id = ? RETURNING ` + listFields

	var l todo.List
	err := r.db.observe("lists.update", func() error {
		return scanList(r.db.QueryRowContext(ctx, query, args...), &l)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return todo.List{}, todo.ErrListNotFound
		}
		return todo.List{}, err
	}

	l.Items, err = r.items.ListByList(ctx, id)
	if err != nil {
		return todo.List{}, err
	}
	return l, nil
}

// Delete removes the list when requesterID owns it, together with its items
// and grants.
func (r *ListsRepo) Delete(ctx context.Context, listID, requesterID int64) error {
	return r.db.observe("lists.delete", func() error {
		res, err := r.db.ExecContext(ctx, `DELETE FROM todo_lists WHERE id = ? AND owner_id = ?`, listID, requesterID)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		var ownerID int64
		err = r.db.QueryRowContext(ctx, `SELECT owner_id FROM todo_lists WHERE id = ?`, listID).Scan(&ownerID)
		if errors.Is(err, sql.ErrNoRows) {
			return todo.ErrListNotFound
		}
		if err != nil {
			return err
		}
		return collab.ErrForbidden
	})
}

func scanList(row scanner, l *todo.List) error {
	return row.Scan(&l.ID, &l.Title, &l.Description, &l.OwnerID, &l.CreatedAt, &l.UpdatedAt)
}

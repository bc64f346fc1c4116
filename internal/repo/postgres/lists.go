package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/todohub/internal/domain/collab"
	"github.com/geocoder89/todohub/internal/domain/todo"
	"github.com/geocoder89/todohub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listColumns = `id, title, description, owner_id, created_at, updated_at`

type ListsRepo struct {
	metered
	pool  *pgxpool.Pool
	items *ItemsRepo
}

func NewListsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ListsRepo {
	return &ListsRepo{
		metered: metered{prom: prom},
		pool:    pool,
		items:   NewItemsRepo(pool, prom),
	}
}

func (r *ListsRepo) Create(ctx context.Context, ownerID int64, req todo.CreateListRequest) (todo.List, error) {
	var l todo.List

	err := r.observe("lists.create", func() error {
		return scanList(r.pool.QueryRow(ctx, `
			INSERT INTO todo_lists (title, description, owner_id)
			VALUES ($1, $2, $3)
			RETURNING `+listColumns,
			req.Title, req.Description, ownerID,
		), &l)
	})
	if err != nil {
		return todo.List{}, err
	}

	l.Items = []todo.Item{}
	return l, nil
}

// GetByID returns the list row without its items.
func (r *ListsRepo) GetByID(ctx context.Context, id int64) (todo.List, error) {
	var l todo.List

	err := r.observe("lists.get_by_id", func() error {
		return scanList(r.pool.QueryRow(ctx, `SELECT `+listColumns+` FROM todo_lists WHERE id = $1`, id), &l)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return todo.List{}, todo.ErrListNotFound
		}
		return todo.List{}, err
	}

	return l, nil
}

// GetWithItems returns the list and all its items.
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

// ListForUser returns every list the user owns or collaborates on, with
// items attached.
func (r *ListsRepo) ListForUser(ctx context.Context, userID int64) ([]todo.List, error) {
	out := make([]todo.List, 0)

	err := r.observe("lists.list_for_user", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+listColumns+`
			FROM todo_lists l
			WHERE l.owner_id = $1
			   OR EXISTS (
					SELECT 1 FROM list_collaborators c
					WHERE c.list_id = l.id AND c.user_id = $1
			   )
			ORDER BY l.created_at ASC, l.id ASC`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var l todo.List
			if err := scanList(rows, &l); err != nil {
				return err
			}
			l.Items = []todo.Item{}
			out = append(out, l)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return out, nil
	}

	ids := make([]int64, len(out))
	for i, l := range out {
		ids[i] = l.ID
	}

	byList, err := r.items.listByLists(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range out {
		if items, ok := byList[out[i].ID]; ok {
			out[i].Items = items
		}
	}

	return out, nil
}

func (r *ListsRepo) Update(ctx context.Context, id int64, req todo.UpdateListRequest) (todo.List, error) {
	var sets []string
	var args []interface{}

	argsPosition := 1

	if req.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", argsPosition))
		args = append(args, *req.Title)
		argsPosition++
	}

	if req.Description != nil {
		sets = append(sets, fmt.Sprintf("description = $%d", argsPosition))
		args = append(args, *req.Description)
		argsPosition++
	}

	if len(sets) == 0 {
		return r.GetWithItems(ctx, id)
	}

	sets = append(sets, "updated_at = NOW()")
	query := fmt.Sprintf(`UPDATE todo_lists SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), argsPosition, listColumns)
	args = append(args, id)

	var l todo.List
	err := r.observe("lists.update", func() error {
		return scanList(r.pool.QueryRow(ctx, query, args...), &l)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

// Delete removes the list when requesterID owns it. Items and grants go
// with it through ON DELETE CASCADE.
func (r *ListsRepo) Delete(ctx context.Context, listID, requesterID int64) error {
	return r.observe("lists.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM todo_lists WHERE id = $1 AND owner_id = $2`, listID, requesterID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() > 0 {
			return nil
		}

		var ownerID int64
		err = r.pool.QueryRow(ctx, `SELECT owner_id FROM todo_lists WHERE id = $1`, listID).Scan(&ownerID)
		if errors.Is(err, pgx.ErrNoRows) {
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

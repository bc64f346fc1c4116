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

const itemColumns = `id, list_id, title, description, status, assigned_to, created_at, updated_at`

type ItemsRepo struct {
	metered
	pool *pgxpool.Pool
}

func NewItemsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ItemsRepo {
	return &ItemsRepo{metered: metered{prom: prom}, pool: pool}
}

func (r *ItemsRepo) Create(ctx context.Context, req todo.CreateItemRequest) (todo.Item, error) {
	var it todo.Item

	err := r.observe("items.create", func() error {
		return scanItem(r.pool.QueryRow(ctx, `
			INSERT INTO todo_items (list_id, title, description, status)
			VALUES ($1, $2, $3, $4)
			RETURNING `+itemColumns,
			req.ListID, req.Title, req.Description, string(req.InitialStatus()),
		), &it)
	})
	if err != nil {
		if IsForeignKeyViolation(err) {
			return todo.Item{}, todo.ErrListNotFound
		}
		return todo.Item{}, err
	}

	return it, nil
}

func (r *ItemsRepo) GetByID(ctx context.Context, id int64) (todo.Item, error) {
	var it todo.Item

	err := r.observe("items.get_by_id", func() error {
		return scanItem(r.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM todo_items WHERE id = $1`, id), &it)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return todo.Item{}, todo.ErrItemNotFound
		}
		return todo.Item{}, err
	}

	return it, nil
}

func (r *ItemsRepo) ListByList(ctx context.Context, listID int64) ([]todo.Item, error) {
	byList, err := r.listByLists(ctx, []int64{listID})
	if err != nil {
		return nil, err
	}

	if items, ok := byList[listID]; ok {
		return items, nil
	}
	return []todo.Item{}, nil
}

func (r *ItemsRepo) listByLists(ctx context.Context, listIDs []int64) (map[int64][]todo.Item, error) {
	out := make(map[int64][]todo.Item, len(listIDs))

	err := r.observe("items.list_by_lists", func() error {
		rows, err := r.pool.Query(ctx, `
			SELECT `+itemColumns+`
			FROM todo_items
			WHERE list_id = ANY($1)
			ORDER BY created_at ASC, id ASC`, listIDs)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var it todo.Item
			if err := scanItem(rows, &it); err != nil {
				return err
			}
			out[it.ListID] = append(out[it.ListID], it)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// Update applies the allow-listed fields present in req. Fields left nil are
// not touched.
func (r *ItemsRepo) Update(ctx context.Context, id int64, req todo.UpdateItemRequest) (todo.Item, error) {
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

	if req.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, string(*req.Status))
		argsPosition++
	}

	if req.AssignedTo.Set {
		sets = append(sets, fmt.Sprintf("assigned_to = $%d", argsPosition))
		args = append(args, req.AssignedTo.Ptr())
		argsPosition++
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = NOW()")
	query := fmt.Sprintf(`UPDATE todo_items SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), argsPosition, itemColumns)
	args = append(args, id)

	var it todo.Item
	err := r.observe("items.update", func() error {
		return scanItem(r.pool.QueryRow(ctx, query, args...), &it)
	})
	if err != nil {
		return todo.Item{}, mapItemErr(err)
	}

	return it, nil
}

// Assign sets or, with a nil userID, clears the item's assignee.
func (r *ItemsRepo) Assign(ctx context.Context, id int64, userID *int64) (todo.Item, error) {
	var it todo.Item

	err := r.observe("items.assign", func() error {
		return scanItem(r.pool.QueryRow(ctx, `
			UPDATE todo_items
			SET assigned_to = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING `+itemColumns, id, userID), &it)
	})
	if err != nil {
		return todo.Item{}, mapItemErr(err)
	}

	return it, nil
}

func (r *ItemsRepo) Delete(ctx context.Context, id int64) error {
	return r.observe("items.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM todo_items WHERE id = $1`, id)
		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return todo.ErrItemNotFound
		}
		return nil
	})
}

func mapItemErr(err error) error {
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return todo.ErrItemNotFound
	case IsForeignKeyViolation(err):
		return collab.ErrNoSuchUser
	default:
		return err
	}
}

func scanItem(row scanner, it *todo.Item) error {
	var status string

	err := row.Scan(
		&it.ID,
		&it.ListID,
		&it.Title,
		&it.Description,
		&status,
		&it.AssignedTo,
		&it.CreatedAt,
		&it.UpdatedAt,
	)
	it.Status = todo.Status(status)
	return err
}

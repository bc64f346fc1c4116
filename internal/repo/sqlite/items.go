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

const itemColumns = `id, list_id, title, description, status, assigned_to, created_at, updated_at`

type ItemsRepo struct {
	db *DB
}

func NewItemsRepo(db *DB) *ItemsRepo {
	return &ItemsRepo{db: db}
}

func (r *ItemsRepo) Create(ctx context.Context, req todo.CreateItemRequest) (todo.Item, error) {
	now := time.Now().UTC()

	var it todo.Item
	err := r.db.observe("items.create", func() error {
		return scanItem(r.db.QueryRowContext(ctx, `
			INSERT INTO todo_items (list_id, title, description, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING `+itemColumns,
			req.ListID, req.Title, req.Description, string(req.InitialStatus()), now, now,
		), &it)
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return todo.Item{}, todo.ErrListNotFound
		}
		return todo.Item{}, err
	}

	return it, nil
}

func (r *ItemsRepo) GetByID(ctx context.Context, id int64) (todo.Item, error) {
	var it todo.Item

	err := r.db.observe("items.get_by_id", func() error {
		return scanItem(r.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM todo_items WHERE id = ?`, id), &it)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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

	args := make([]any, len(listIDs))
	for i, id := range listIDs {
		args[i] = id
	}

	err := r.db.observe("items.list_by_lists", func() error {
		rows, err := r.db.QueryContext(ctx, `
			SELECT `+itemColumns+`
			FROM todo_items
			WHERE list_id IN (`+placeholders(len(listIDs))+`)
			ORDER BY created_at ASC, id ASC`, args...)
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

// Update applies the allow-listed fields present in req.
func (r *ItemsRepo) Update(ctx context.Context, id int64, req todo.UpdateItemRequest) (todo.Item, error) {
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

	if req.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*req.Status))
	}

	if req.AssignedTo.Set {
		sets = append(sets, "assigned_to = ?")
		args = append(args, req.AssignedTo.Ptr())
	}

	if len(sets) == 0 {
		return r.GetByID(ctx, id)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	query := `UPDATE todo_items SET ` + strings.Join(sets, ", ") + ` WHERE id = ? RETURNING ` + itemColumns

	var it todo.Item
	err := r.db.observe("items.update", func() error {
		return scanItem(r.db.QueryRowContext(ctx, query, args...), &it)
	})
	if err != nil {
		return todo.Item{}, mapItemErr(err)
	}

	return it, nil
}

// Assign sets or, with a nil userID, clears the item's assignee.
func (r *ItemsRepo) Assign(ctx context.Context, id int64, userID *int64) (todo.Item, error) {
	var it todo.Item

	err := r.db.observe("items.assign", func() error {
		return scanItem(r.db.QueryRowContext(ctx, `
			UPDATE todo_items
			SET assigned_to = ?, updated_at = ?
			WHERE id = ?
			RETURNING `+itemColumns, userID, time.Now().UTC(), id), &it)
	})
	if err != nil {
		return todo.Item{}, mapItemErr(err)
	}

	return it, nil
}

func (r *ItemsRepo) Delete(ctx context.Context, id int64) error {
	return r.db.observe("items.delete", func() error {
		res, err := r.db.ExecContext(ctx, `DELETE FROM todo_items WHERE id = ?`, id)
		if err != nil {
			return err
		}

		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return todo.ErrItemNotFound
		}
		return nil
	})
}

func mapItemErr(err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return todo.ErrItemNotFound
	case isForeignKeyViolation(err):
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

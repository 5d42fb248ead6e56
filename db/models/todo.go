package models

import (
	"context"
	"fmt"
	"time"

	"github.com/nrednav/cuid2"

	"go.hackfix.me/switchyard/db/types"
)

// Todo is a single task in the todo list.
type Todo struct {
	ID        string    `json:"id"`
	TaskName  string    `json:"taskName"`
	IsDone    bool      `json:"isDone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Save stores the todo in the database. A new todo is assigned a random ID.
func (t *Todo) Save(ctx context.Context, d types.Querier, update bool) error {
	timeNow := d.TimeNow().UTC()
	if update {
		if t.ID == "" {
			return types.InvalidInputError{Msg: "todo ID must be set"}
		}

		res, err := d.ExecContext(ctx,
			`UPDATE todos SET updated_at = ?, task_name = ?, is_done = ? WHERE id = ?`,
			timeNow, t.TaskName, t.IsDone, t.ID)
		if err != nil {
			return types.Err("todo", fmt.Sprintf("ID '%s'", t.ID), err)
		}
		if err = expectOne(res, "todo", fmt.Sprintf("ID '%s'", t.ID)); err != nil {
			return err
		}
		t.UpdatedAt = timeNow

		return nil
	}

	if t.TaskName == "" {
		return types.InvalidInputError{Msg: "todo task name must be set"}
	}
	if t.ID == "" {
		t.ID = cuid2.Generate()
	}
	_, err := d.ExecContext(ctx,
		`INSERT INTO todos (id, created_at, updated_at, task_name, is_done)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID, timeNow, timeNow, t.TaskName, t.IsDone)
	if err != nil {
		return types.Err("todo", fmt.Sprintf("ID '%s'", t.ID), err)
	}
	t.CreatedAt = timeNow
	t.UpdatedAt = timeNow

	return nil
}

// Load the todo from the database by its ID.
func (t *Todo) Load(ctx context.Context, d types.Querier) error {
	if t.ID == "" {
		return types.InvalidInputError{Msg: "todo ID must be set"}
	}

	todos, err := Todos(ctx, d, types.NewFilter("id = ?", []any{t.ID}))
	if err != nil {
		return err
	}
	if len(todos) == 0 {
		return types.NoResultError{ModelName: "todo", ID: fmt.Sprintf("ID '%s'", t.ID)}
	}
	*t = *todos[0]

	return nil
}

// Delete removes the todo from the database. It returns an error if the todo
// doesn't exist.
func (t *Todo) Delete(ctx context.Context, d types.Querier) error {
	if t.ID == "" {
		return types.InvalidInputError{Msg: "todo ID must be set"}
	}

	res, err := d.ExecContext(ctx, `DELETE FROM todos WHERE id = ?`, t.ID)
	if err != nil {
		return types.Err("todo", fmt.Sprintf("ID '%s'", t.ID), err)
	}

	return expectOne(res, "todo", fmt.Sprintf("ID '%s'", t.ID))
}

// Todos returns todos from the database, newest first. An optional filter can
// be passed to limit the results.
func Todos(ctx context.Context, d types.Querier, filter *types.Filter) (todos []*Todo, rerr error) {
	where, args, limit := filterClauses(filter)
	query := fmt.Sprintf(`SELECT id, created_at, updated_at, task_name, is_done
		FROM todos WHERE %s
		ORDER BY created_at DESC, rowid DESC%s`, where, limit)

	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.LoadError{ModelName: "todos", Err: err}
	}
	defer func() {
		if err = rows.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("failed closing todos rows: %w", err)
		}
	}()

	todos = make([]*Todo, 0)
	for rows.Next() {
		var t Todo
		err = rows.Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt, &t.TaskName, &t.IsDone)
		if err != nil {
			return nil, types.ScanError{ModelName: "todo", Err: err}
		}
		todos = append(todos, &t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating over todos rows: %w", err)
	}

	return todos, nil
}

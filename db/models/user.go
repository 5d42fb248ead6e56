package models

import (
	"context"
	"fmt"
	"time"

	"go.hackfix.me/switchyard/db/types"
)

// User is an API client that authenticates with a bearer token. Only the hash
// of the token is stored.
type User struct {
	ID        uint64
	CreatedAt time.Time
	UpdatedAt time.Time
	Name      string
	Role      string
	TokenHash []byte
}

// Save stores the user data in the database. When updating, the user is
// looked up by ID or Name, and its role and token hash are replaced if set.
func (u *User) Save(ctx context.Context, d types.Querier, update bool) error {
	timeNow := d.TimeNow().UTC()
	if update { //nolint:nestif // It's fine.
		filter, filterStr, err := u.filter("")
		if err != nil {
			return err
		}

		set := "updated_at = ?"
		args := []any{timeNow}
		if u.Role != "" {
			set += ", role = ?"
			args = append(args, u.Role)
		}
		if len(u.TokenHash) > 0 {
			set += ", token_hash = ?"
			args = append(args, u.TokenHash)
		}
		args = append(args, filter.Args...)

		updateStmt := fmt.Sprintf(`UPDATE users SET %s WHERE %s`, set, filter.Where)
		res, err := d.ExecContext(ctx, updateStmt, args...)
		if err != nil {
			return types.Err("user", filterStr, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed getting affected rows: %w", err)
		}
		if n == 0 {
			return types.NoResultError{ModelName: "user", ID: filterStr}
		}
		if n > 1 {
			return types.IntegrityError{Msg: fmt.Sprintf("updated %d users", n)}
		}
		u.UpdatedAt = timeNow
	} else {
		if u.Name == "" || u.Role == "" || len(u.TokenHash) == 0 {
			return types.InvalidInputError{Msg: "user name, role and token hash are required"}
		}
		insertStmt := `INSERT INTO users
		(id, created_at, updated_at, name, role, token_hash)
		VALUES (NULL, ?, ?, ?, ?, ?)`
		res, err := d.ExecContext(ctx, insertStmt, timeNow, timeNow, u.Name, u.Role, u.TokenHash)
		if err != nil {
			return types.Err("user", fmt.Sprintf("name '%s'", u.Name), err)
		}

		u.ID, err = lastInsertID(res)
		if err != nil {
			return err
		}
		u.CreatedAt = timeNow
		u.UpdatedAt = timeNow
	}

	return nil
}

// Load the user data from the database. Either the user ID, Name or TokenHash
// must be set for the lookup.
func (u *User) Load(ctx context.Context, d types.Querier) error {
	filter, filterStr, err := u.filter("u.")
	if err != nil {
		return err
	}

	users, err := Users(ctx, d, filter)
	if err != nil {
		return err
	}

	if len(users) == 0 {
		return types.NoResultError{ModelName: "user", ID: filterStr}
	}

	// This is dodgy, but the unique constraints on users.id, users.name and
	// users.token_hash should return only a single result.
	if len(users) > 1 {
		panic(fmt.Sprintf("users query returned more than 1 user: %d", len(users)))
	}
	*u = *users[0]

	return nil
}

// Delete removes the user data from the database. Either the user ID or Name
// must be set for the lookup. It returns an error if the user doesn't exist.
func (u *User) Delete(ctx context.Context, d types.Querier) error {
	filter, filterStr, err := u.filter("")
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(`DELETE FROM users WHERE %s`, filter.Where)

	res, err := d.ExecContext(ctx, stmt, filter.Args...)
	if err != nil {
		return types.Err("user", filterStr, err)
	}

	var n int64
	if n, err = res.RowsAffected(); err != nil {
		return fmt.Errorf("failed getting affected rows: %w", err)
	} else if n == 0 {
		return types.NoResultError{ModelName: "user", ID: filterStr}
	}

	return nil
}

func (u *User) filter(prefix string) (*types.Filter, string, error) {
	switch {
	case u.ID != 0:
		return types.NewFilter(prefix+"id = ?", []any{u.ID}), fmt.Sprintf("ID %d", u.ID), nil
	case u.Name != "":
		return types.NewFilter(prefix+"name = ?", []any{u.Name}), fmt.Sprintf("name '%s'", u.Name), nil
	case len(u.TokenHash) > 0:
		return types.NewFilter(prefix+"token_hash = ?", []any{u.TokenHash}), "token", nil
	default:
		return nil, "", types.InvalidInputError{Msg: "either user ID, Name or token must be set"}
	}
}

// Users returns one or more users from the database. An optional filter can be
// passed to limit the results.
func Users(ctx context.Context, d types.Querier, filter *types.Filter) (users []*User, rerr error) {
	query := `SELECT u.id, u.created_at, u.updated_at, u.name, u.role, u.token_hash
		FROM users u %s
		ORDER BY u.name ASC`

	where := "1=1"
	args := []any{}
	if filter != nil {
		where = filter.Where
		args = filter.Args
	}

	query = fmt.Sprintf(query, fmt.Sprintf("WHERE %s", where))

	rows, err := d.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, types.LoadError{ModelName: "users", Err: err}
	}
	defer func() {
		if err = rows.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("failed closing users rows: %w", err)
		}
	}()

	users = make([]*User, 0)
	for rows.Next() {
		var u User
		err = rows.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.Name, &u.Role, &u.TokenHash)
		if err != nil {
			return nil, types.ScanError{ModelName: "user", Err: err}
		}
		users = append(users, &u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating over users rows: %w", err)
	}

	return users, nil
}

package queries

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.hackfix.me/switchyard/db/types"
)

// GetAllTables returns a map of all table names in the database that contain user data.
func GetAllTables(ctx context.Context, d types.Querier) (_ map[string]struct{}, rerr error) {
	allTables := make(map[string]struct{})
	rows, err := d.QueryContext(ctx, `SELECT name FROM sqlite_master WHERE type = 'table'`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err = rows.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	for rows.Next() {
		var name string
		err = rows.Scan(&name)
		if err != nil {
			return nil, err
		}

		// Exclude internal tables
		if !strings.HasPrefix(name, "_") && !strings.HasPrefix(name, "sqlite_") {
			allTables[name] = struct{}{}
		}
	}

	return allTables, rows.Err()
}

// Version returns the application version the database was initialized with.
// If the returned sql.Null value is invalid, it indicates that the database
// hasn't been initialized.
func Version(ctx context.Context, d types.Querier) (sql.Null[string], error) {
	var version sql.Null[string]
	err := d.QueryRowContext(ctx, `SELECT version FROM _meta`).
		Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return version, err
	}

	return version, nil
}

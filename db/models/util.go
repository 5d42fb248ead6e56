package models

import (
	"database/sql"
	"fmt"

	"go.hackfix.me/switchyard/db/types"
)

func lastInsertID(result sql.Result) (uint64, error) {
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID: %w", err)
	}

	if id < 0 {
		return 0, fmt.Errorf("invalid negative ID from database: %d", id)
	}

	return uint64(id), nil
}

// expectOne checks that the statement affected exactly one row.
func expectOne(result sql.Result, modelName, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed getting affected rows: %w", err)
	}
	if n == 0 {
		return types.NoResultError{ModelName: modelName, ID: id}
	}
	if n > 1 {
		return types.IntegrityError{Msg: fmt.Sprintf("affected %d %s rows", n, modelName)}
	}

	return nil
}

func filterClauses(filter *types.Filter) (where string, args []any, limit string) {
	where = "1=1"
	if filter == nil {
		return where, nil, ""
	}
	if filter.Where != "" {
		where, args = filter.Where, filter.Args
	}
	if filter.Limit > 0 {
		limit = fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	return where, args, limit
}

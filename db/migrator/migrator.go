package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"
)

// Direction is the direction in which migrations are applied.
type Direction string

// Migration directions.
const (
	MigrationUp   Direction = "up"
	MigrationDown Direction = "down"
)

// Migration is a single schema change, with the SQL to apply and roll it back.
type Migration struct {
	ID   string
	Name string
	Up   string
	Down string
}

// DB is the database the migrations run on.
type DB interface {
	NewContext() context.Context
	TimeNow() time.Time
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var fileRx = regexp.MustCompile(`^(\d+)-([\w-]+)\.(up|down)\.sql$`)

// LoadMigrations reads migration files from the root of fsys. Files must be
// named `{id}-{name}.{up|down}.sql`, and every migration must have both an
// up and a down file. Migrations are returned sorted by ID.
func LoadMigrations(fsys fs.FS) ([]*Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("failed reading migrations directory: %w", err)
	}

	byID := map[string]*Migration{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := fileRx.FindStringSubmatch(e.Name())
		if m == nil {
			return nil, fmt.Errorf("invalid migration file name '%s'", e.Name())
		}
		data, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("failed reading migration file '%s': %w", e.Name(), err)
		}

		id, name, dir := m[1], m[2], Direction(m[3])
		mig, ok := byID[id]
		if !ok {
			mig = &Migration{ID: id, Name: name}
			byID[id] = mig
		} else if mig.Name != name {
			return nil, fmt.Errorf("conflicting names for migration %s: '%s' and '%s'", id, mig.Name, name)
		}

		if dir == MigrationUp {
			mig.Up = string(data)
		} else {
			mig.Down = string(data)
		}
	}

	migrations := make([]*Migration, 0, len(byID))
	for _, mig := range byID {
		if strings.TrimSpace(mig.Up) == "" || strings.TrimSpace(mig.Down) == "" {
			return nil, fmt.Errorf("migration %s-%s must have both up and down SQL", mig.ID, mig.Name)
		}
		migrations = append(migrations, mig)
	}
	slices.SortFunc(migrations, func(a, b *Migration) int {
		return strings.Compare(a.ID, b.ID)
	})

	return migrations, nil
}

// RunMigrations applies migrations in the given direction, up to and including
// the migration with ID to, or all of them if to is "all". Each migration runs
// in its own transaction, and its state is recorded in the _migrations table.
func RunMigrations(d DB, migrations []*Migration, dir Direction, to string, logger *slog.Logger) error {
	ctx := d.NewContext()

	_, err := d.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed creating migrations table: %w", err)
	}

	applied, err := appliedMigrations(ctx, d)
	if err != nil {
		return err
	}

	plan, err := createPlan(migrations, applied, dir, to)
	if err != nil {
		return err
	}

	for _, mig := range plan {
		if err := runMigration(ctx, d, mig, dir); err != nil {
			return err
		}
		logger.Debug("applied migration", "id", mig.ID, "name", mig.Name, "direction", dir)
	}

	return nil
}

func createPlan(
	migrations []*Migration, applied map[string]struct{}, dir Direction, to string,
) ([]*Migration, error) {
	if to != "all" && !slices.ContainsFunc(migrations, func(m *Migration) bool { return m.ID == to }) {
		return nil, fmt.Errorf("unknown migration ID '%s'", to)
	}

	var plan []*Migration
	switch dir {
	case MigrationUp:
		for _, m := range migrations {
			if _, ok := applied[m.ID]; !ok {
				plan = append(plan, m)
			}
			if m.ID == to {
				break
			}
		}
	case MigrationDown:
		for _, m := range slices.Backward(migrations) {
			if _, ok := applied[m.ID]; ok {
				plan = append(plan, m)
			}
			if m.ID == to {
				break
			}
		}
	default:
		return nil, fmt.Errorf("invalid migration direction '%s'", dir)
	}

	return plan, nil
}

func runMigration(ctx context.Context, d DB, mig *Migration, dir Direction) (rerr error) {
	tx, err := d.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed starting transaction: %w", err)
	}
	defer func() {
		if rerr != nil {
			_ = tx.Rollback()
		}
	}()

	stmt := mig.Up
	if dir == MigrationDown {
		stmt = mig.Down
	}
	if _, err = tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed running migration %s-%s %s: %w", mig.ID, mig.Name, dir, err)
	}

	if dir == MigrationUp {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO _migrations (id, name, applied_at) VALUES (?, ?, ?)`,
			mig.ID, mig.Name, d.TimeNow().UTC())
	} else {
		_, err = tx.ExecContext(ctx, `DELETE FROM _migrations WHERE id = ?`, mig.ID)
	}
	if err != nil {
		return fmt.Errorf("failed recording migration %s-%s: %w", mig.ID, mig.Name, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed committing migration %s-%s: %w", mig.ID, mig.Name, err)
	}

	return nil
}

func appliedMigrations(ctx context.Context, d DB) (_ map[string]struct{}, rerr error) {
	rows, err := d.QueryContext(ctx, `SELECT id FROM _migrations`)
	if err != nil {
		return nil, fmt.Errorf("failed loading applied migrations: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("failed closing migrations rows: %w", err)
		}
	}()

	applied := map[string]struct{}{}
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed scanning migration ID: %w", err)
		}
		applied[id] = struct{}{}
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating over migrations rows: %w", err)
	}

	return applied, nil
}

package persistence

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/input-output-hk/quaestor/src/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type migration struct {
	Version int
	Name    string
	Up      string
}

func loadMigrations() ([]migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, err
	}

	migrations := make([]migration, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		m := migration{Name: entry.Name()}
		if _, err := fmt.Sscanf(m.Name, "%d_", &m.Version); err != nil {
			return nil, errors.WithMessagef(err, "Invalid migration file name %q", m.Name)
		}
		if content, err := migrationsFS.ReadFile("migrations/" + m.Name); err != nil {
			return nil, err
		} else {
			m.Up = string(content)
		}
		migrations = append(migrations, m)
	}

	slices.SortFunc(migrations, func(a, b migration) bool { return a.Version < b.Version })
	return migrations, nil
}

// Migrate applies all embedded migrations newer than the recorded schema version in one transaction.
func Migrate(ctx context.Context, db config.PgxIface) error {
	migrations, err := loadMigrations()
	if err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version integer NOT NULL)`); err != nil {
			return errors.WithMessage(err, "Could not create schema_version")
		}

		var current int
		if err := tx.QueryRow(ctx, `SELECT COALESCE(max(version), 0) FROM schema_version`).Scan(&current); err != nil {
			return errors.WithMessage(err, "Could not read schema_version")
		}

		for _, m := range migrations {
			if m.Version <= current {
				continue
			}
			if _, err := tx.Exec(ctx, m.Up); err != nil {
				return errors.WithMessagef(err, "While applying migration %q", m.Name)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, m.Version); err != nil {
				return errors.WithMessage(err, "Could not update schema_version")
			}
		}

		return nil
	})
}

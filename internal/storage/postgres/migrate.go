package postgres

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"yamdb/proj/migrations"
)

// Migrate applies every embedded *.up.sql file in lexical order.
// The statements are idempotent, so running it against a migrated
// database is a no-op.
func (db *PostgresDB) Migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		sql, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return err
		}
		if strings.TrimSpace(string(sql)) == "" {
			continue
		}
		if _, err := db.Conn.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("applying %s: %w", name, err)
		}
	}
	return nil
}

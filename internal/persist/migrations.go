package persist

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

// journalSchema holds the sessions and journal_entries tables, one goose
// file per schema version.
//
//go:embed migrations/*.sql
var journalSchema embed.FS

func journalMigrations() (fs.FS, error) {
	return fs.Sub(journalSchema, "migrations")
}

// MigrateJournal brings the journal schema up to the latest version and
// returns the versions it applied. An up-to-date schema applies nothing.
func (db *DB) MigrateJournal(ctx context.Context) ([]int64, error) {
	fsys, err := journalMigrations()
	if err != nil {
		return nil, err
	}

	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, sqlDB, fsys)
	if err != nil {
		return nil, fmt.Errorf("journal migrations: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate journal: %w", err)
	}

	applied := make([]int64, 0, len(results))
	for _, r := range results {
		applied = append(applied, r.Source.Version)
	}
	if len(applied) > 0 {
		db.log.Info("journal schema migrated", zap.Int64s("versions", applied))
	}
	return applied, nil
}

// Package migrations carries the embedded DDL for both storage backends and
// applies it in lexical order. All statements are idempotent
// (CREATE ... IF NOT EXISTS), so reapplying on startup is safe.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	chstore "arb-backtest-lab/internal/storage/clickhouse"
	"arb-backtest-lab/internal/storage/postgres"
)

// PostgresFS embeds all PostgreSQL migration files.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds all ClickHouse migration files.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS

// RunPostgresMigrations applies the embedded postgres DDL to the pool.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) error {
	return apply(ctx, PostgresFS, "postgres", func(ctx context.Context, stmt string) error {
		_, err := pool.Exec(ctx, stmt)
		return err
	})
}

// RunClickhouseMigrations applies the embedded clickhouse DDL to the
// connection.
func RunClickhouseMigrations(ctx context.Context, conn *chstore.Conn) error {
	return apply(ctx, ClickhouseFS, "clickhouse", func(ctx context.Context, stmt string) error {
		return conn.Exec(ctx, stmt)
	})
}

// apply runs every .sql file under dir in lexical order through exec.
func apply(ctx context.Context, fsys embed.FS, dir string, exec func(context.Context, string) error) error {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return fmt.Errorf("read embedded %s migrations: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		data, err := fs.ReadFile(fsys, dir+"/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		stmt := strings.TrimSpace(string(data))
		if stmt == "" {
			continue
		}
		if err := exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}
	return nil
}

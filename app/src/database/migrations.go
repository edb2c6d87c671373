package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"amplification-report/app/src/infra"
)

const defaultMigrationsDir = "app/resources/db/migrations"

// ResolveMigrationsDir returns MIGRATIONS_DIR when set, otherwise the
// migrations bundled under app/resources.
func ResolveMigrationsDir() string {
	if dir := strings.TrimSpace(os.Getenv("MIGRATIONS_DIR")); dir != "" {
		return dir
	}
	return defaultMigrationsDir
}

// ApplyMigrations executes every *.sql file in dir in lexical order. Each file
// is sent as a single statement batch, so migrations must be idempotent.
func ApplyMigrations(ctx context.Context, runner CommandRunner, dsn, dir string, logger *infra.Logger) error {
	if strings.TrimSpace(dir) == "" {
		return errors.New("migrations directory is not specified")
	}

	names, err := migrationFiles(dir)
	if err != nil {
		return err
	}

	if len(names) == 0 {
		if logger != nil {
			logger.Printf(ctx, "no migrations found in %s", dir)
		}
		return nil
	}

	for _, name := range names {
		contents, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %q: %w", name, err)
		}

		statements := strings.TrimSpace(string(contents))
		if statements == "" {
			if logger != nil {
				logger.Printf(ctx, "skipping empty migration %s", name)
			}
			continue
		}

		if _, err := runner.Exec(ctx, dsn, statements); err != nil {
			return fmt.Errorf("apply migration %q: %w", name, err)
		}

		if logger != nil {
			logger.Printf(ctx, "migration %s applied", name)
		}
	}

	if logger != nil {
		logger.Println(ctx, "migrations applied successfully")
	}

	return nil
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations directory %q: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	slices.Sort(names)

	return names, nil
}

package main

import (
	_ "amplification-report/app/src/infra/utils/autoload"
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amplification-report/app/src/database"
	"amplification-report/app/src/infra"
)

func main() {
	migrationsDir := flag.String("dir", database.ResolveMigrationsDir(), "directory with SQL migration files")
	waitTimeout := flag.Duration("wait", 30*time.Second, "how long to wait for the database to accept connections")
	flag.Parse()

	cfg, logger := initEnvironment()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checkDatabaseConnection(ctx, cfg, logger, *waitTimeout)
	if err := runMigrations(ctx, cfg, logger, *migrationsDir, database.NewSQLRunner()); err != nil {
		logger.Fatalf(ctx, "migrate: %v", err)
	}
}

// initEnvironment загружает конфигурацию и логгер.
func initEnvironment() (infra.Config, *infra.Logger) {
	cfg := infra.LoadConfig()
	logger := infra.NewLogger(os.Stderr, "amplify-migrate")
	return cfg, logger
}

// checkDatabaseConnection ждёт, пока БД начнёт принимать соединения.
func checkDatabaseConnection(ctx context.Context, cfg infra.Config, logger *infra.Logger, timeout time.Duration) {
	if !database.ShouldCheckDatabase(cfg) {
		logger.Fatalf(ctx, "database is not configured: set DB_DSN or DB_HOST")
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := database.WaitForDatabase(waitCtx, cfg, logger); err != nil {
		logger.Fatalf(ctx, "database connectivity check failed: %v", err)
	}
}

// runMigrations строит DSN и применяет миграции через переданный runner.
func runMigrations(ctx context.Context, cfg infra.Config, logger *infra.Logger, migrationsDir string, runner database.CommandRunner) error {
	defer runner.Close()

	dsn, err := database.BuildDatabaseDSN(cfg)
	if err != nil {
		return err
	}

	return database.ApplyMigrations(ctx, runner, dsn, migrationsDir, logger)
}

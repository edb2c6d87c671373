// Command amplify aggregates the per-process memory reports of an MPI run and
// prints the PCDN / CDN amplification ratio.
package main

import (
	_ "amplification-report/app/src/infra/utils/autoload"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"amplification-report/app/src/cache"
	"amplification-report/app/src/core"
	"amplification-report/app/src/database"
	"amplification-report/app/src/domain"
	"amplification-report/app/src/infra"
	"amplification-report/app/src/shared/constants"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one aggregation and returns the process exit code. The report
// goes to stdout, logs and errors to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := infra.ParseArgs(infra.LoadConfig(), args, stderr)
	switch {
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	case err != nil:
		fmt.Fprintf(stderr, "amplify: %v\n", err)
		return exitUsage
	}

	runID := constants.NewRunID()
	ctx = infra.WithRunID(ctx, runID)
	logger := infra.NewLogger(stderr, "amplify")
	infra.LogConfig(ctx, logger, cfg)

	template, err := core.ParseTemplate(cfg.FilenameTemplate)
	if err != nil {
		fmt.Fprintf(stderr, "amplify: --prefix: %v\n", err)
		return exitUsage
	}
	merge, err := core.ParseMergeMode(cfg.MergeMode)
	if err != nil {
		fmt.Fprintf(stderr, "amplify: --merge: %v\n", err)
		return exitUsage
	}

	aggregator := core.NewReportAggregator(
		template,
		core.NewCollector(template, merge, logger),
		core.NewReporter(stdout),
		logger,
	)

	result, err := aggregator.Run(ctx, runID, cfg.ProcessCount)
	writeMetrics(ctx, cfg, logger)
	if err != nil {
		logger.Errorf(ctx, "aggregation failed: %v", err)
		fmt.Fprintf(stderr, "amplify: %v\n", err)
		return exitFailure
	}

	if err := publish(ctx, cfg, logger, result); err != nil {
		logger.Errorf(ctx, "publish failed: %v", err)
		fmt.Fprintf(stderr, "amplify: %v\n", err)
		return exitFailure
	}

	return exitOK
}

func writeMetrics(ctx context.Context, cfg infra.Config, logger *infra.Logger) {
	if cfg.MetricsFile == "" {
		return
	}
	if err := infra.WriteTextfile(cfg.MetricsFile); err != nil {
		logger.Errorf(ctx, "write metrics file %s: %v", cfg.MetricsFile, err)
	}
}

// publish hands the run to Postgres (--save) and Redis (--publish).
func publish(ctx context.Context, cfg infra.Config, logger *infra.Logger, result domain.Run) error {
	if !cfg.Save && !cfg.Publish {
		return nil
	}

	var (
		writer   domain.RunWriter
		runCache domain.RunCache
	)

	if cfg.Save {
		if !database.ShouldCheckDatabase(cfg) {
			return errors.New("--save needs DB_DSN or DB_HOST")
		}
		repo, cleanup, err := database.SetupRepository(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("setup repository: %w", err)
		}
		defer cleanup()
		writer = repo
	}

	if cfg.Publish {
		if cfg.RedisAddr == "" {
			return errors.New("--publish needs REDIS_ADDR")
		}
		redisCache := cache.NewRedisRunCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, time.Duration(cfg.RedisTTLSeconds)*time.Second)
		defer redisCache.Close()
		runCache = redisCache
	}

	return core.NewRunPublisher(writer, runCache, logger).Publish(ctx, result)
}

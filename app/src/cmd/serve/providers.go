package main

import (
	"context"
	"io"
	"time"

	"amplification-report/app/src/cache"
	"amplification-report/app/src/core"
	dbpostgres "amplification-report/app/src/database"
	"amplification-report/app/src/domain"
	"amplification-report/app/src/infra"
)

func provideConfig() infra.Config {
	return infra.LoadConfig()
}

func provideServiceName() string {
	return "amplify-serve"
}

func provideLogger(out io.Writer, serviceName string) *infra.Logger {
	return infra.NewLogger(out, serviceName)
}

// provideRepository returns a nil reader when no database is configured; the
// service then answers from Redis alone.
func provideRepository(ctx context.Context, cfg infra.Config, logger *infra.Logger) (domain.RunReader, func(), error) {
	if !dbpostgres.ShouldCheckDatabase(cfg) {
		logger.Println(ctx, "database not configured, serving from cache only")
		return nil, func() {}, nil
	}

	if err := dbpostgres.WaitForDatabase(ctx, cfg, logger); err != nil {
		logger.Printf(ctx, "database connectivity check failed: %v", err)
	} else {
		logger.Println(ctx, "database connectivity check succeeded")
	}

	repo, cleanup, err := dbpostgres.SetupRepository(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return repo, cleanup, nil
}

func provideCache(ctx context.Context, cfg infra.Config, logger *infra.Logger) (domain.RunCache, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Println(ctx, "redis not configured, run cache disabled")
		return nil, func() {}, nil
	}

	runCache := cache.NewRedisRunCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, time.Duration(cfg.RedisTTLSeconds)*time.Second)
	if err := runCache.Ping(ctx); err != nil {
		logger.Printf(ctx, "redis ping failed, continuing: %v", err)
	}

	cleanup := func() {
		if err := runCache.Close(); err != nil {
			logger.Printf(ctx, "failed to close redis client: %v", err)
		}
	}
	return runCache, cleanup, nil
}

func provideRunService(repo domain.RunReader, runCache domain.RunCache, logger *infra.Logger) domain.RunService {
	return core.NewRunService(repo, runCache, logger)
}

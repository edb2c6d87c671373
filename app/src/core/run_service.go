package core

import (
	"context"
	"errors"

	"amplification-report/app/src/domain"
)

// RunService answers run queries from the cache first and falls back to the
// repository.
type RunService struct {
	repo   domain.RunReader
	cache  domain.RunCache
	logger Logger
}

func NewRunService(repo domain.RunReader, cache domain.RunCache, logger Logger) *RunService {
	return &RunService{repo: repo, cache: cache, logger: logger}
}

func (s *RunService) RunByID(ctx context.Context, id string) (domain.Run, error) {
	if s.cache != nil {
		run, err := s.cache.ByID(ctx, id)
		if err == nil {
			return run, nil
		}
		s.cacheMiss(ctx, "run "+id, err)
	}

	if s.repo == nil {
		return domain.Run{}, domain.ErrNotFound
	}
	return s.repo.RunByID(ctx, id)
}

func (s *RunService) LatestRun(ctx context.Context) (domain.Run, error) {
	if s.cache != nil {
		run, err := s.cache.Latest(ctx)
		if err == nil {
			return run, nil
		}
		s.cacheMiss(ctx, "latest run", err)
	}

	if s.repo == nil {
		return domain.Run{}, domain.ErrNotFound
	}
	return s.repo.LatestRun(ctx)
}

// RecentRuns lists up to limit runs, newest first. Only the cache keeps this
// history; without one the list is empty.
func (s *RunService) RecentRuns(ctx context.Context, limit int) ([]domain.Run, error) {
	if s.cache == nil {
		return []domain.Run{}, nil
	}
	return s.cache.Recent(ctx, limit)
}

func (s *RunService) cacheMiss(ctx context.Context, what string, err error) {
	if s.logger == nil || errors.Is(err, domain.ErrNotFound) {
		return
	}
	s.logger.Printf(ctx, "run cache lookup for %s failed: %v", what, err)
}

var _ domain.RunService = (*RunService)(nil)

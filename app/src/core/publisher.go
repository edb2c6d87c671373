package core

import (
	"context"
	"errors"
	"fmt"

	"amplification-report/app/src/domain"
	"amplification-report/app/src/infra"
)

// RunPublisher hands a finished run to the durable store and the cache. Either
// sink may be nil.
type RunPublisher struct {
	repo   domain.RunWriter
	cache  domain.RunCache
	logger Logger
}

func NewRunPublisher(repo domain.RunWriter, cache domain.RunCache, logger Logger) *RunPublisher {
	return &RunPublisher{repo: repo, cache: cache, logger: logger}
}

// Publish writes run to every configured sink. A failing sink does not stop
// the others; all failures are returned together.
func (p *RunPublisher) Publish(ctx context.Context, run domain.Run) error {
	var errs []error

	if p.repo != nil {
		err := p.repo.SaveRun(ctx, run)
		infra.RecordPublish("postgres", err)
		if err != nil {
			errs = append(errs, fmt.Errorf("save run: %w", err))
		} else {
			p.log(ctx, "run stored in postgres")
		}
	}

	if p.cache != nil {
		err := p.cache.Publish(ctx, run)
		infra.RecordPublish("redis", err)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish run: %w", err))
		} else {
			p.log(ctx, "run published to redis")
		}
	}

	return errors.Join(errs...)
}

func (p *RunPublisher) log(ctx context.Context, format string, v ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Printf(ctx, format, v...)
}

package domain

import "context"

// RunWriter persists completed aggregation runs.
type RunWriter interface {
	SaveRun(ctx context.Context, run Run) error
}

// RunReader exposes the queries used by the run service.
type RunReader interface {
	RunByID(ctx context.Context, id string) (Run, error)
	LatestRun(ctx context.Context) (Run, error)
}

// RunRepository aggregates the write and read capabilities of the durable store.
type RunRepository interface {
	RunWriter
	RunReader
}

// RunCache keeps recently published runs close to the query surface.
type RunCache interface {
	Publish(ctx context.Context, run Run) error
	ByID(ctx context.Context, id string) (Run, error)
	Latest(ctx context.Context) (Run, error)
	Recent(ctx context.Context, limit int) ([]Run, error)
}

// RunService describes the behaviour exposed to transport layers.
type RunService interface {
	RunByID(ctx context.Context, id string) (Run, error)
	LatestRun(ctx context.Context) (Run, error)
	RecentRuns(ctx context.Context, limit int) ([]Run, error)
}

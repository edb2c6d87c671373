package core

import "context"

// Logger is the logging surface core components need; *infra.Logger satisfies it.
type Logger interface {
	Printf(ctx context.Context, format string, v ...any)
	Println(ctx context.Context, v ...any)
}

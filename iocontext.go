package azure

import (
	"context"
	"time"
)

const defaultConcurrency = 4

// IOContext carries the execution settings shared by a filesystem and every
// handle it opens.
type IOContext struct {
	// Context bounds every store request. Nil means context.Background().
	Context context.Context

	// RequestTimeout limits a single store request. Zero means no limit.
	RequestTimeout time.Duration

	// Concurrency limits the number of parallel range requests issued by
	// File.ReadRanges. Values below one use the default.
	Concurrency int
}

// DefaultIOContext returns the settings used when none are supplied.
func DefaultIOContext() IOContext {
	return IOContext{
		Context:     context.Background(),
		Concurrency: defaultConcurrency,
	}
}

// request derives the context for one store request.
func (c IOContext) request() (context.Context, context.CancelFunc) {
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if c.RequestTimeout > 0 {
		return context.WithTimeout(ctx, c.RequestTimeout)
	}
	return context.WithCancel(ctx)
}

func (c IOContext) concurrency() int {
	if c.Concurrency < 1 {
		return defaultConcurrency
	}
	return c.Concurrency
}

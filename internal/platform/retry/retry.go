// Package retry waits for dependencies to become reachable at startup.
// Request paths never retry.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DefaultMaxElapsed bounds how long Init keeps trying.
const DefaultMaxElapsed = 20 * time.Second

// Init calls fn with exponential backoff until it succeeds, ctx ends, or
// maxElapsed passes. A non-positive maxElapsed uses DefaultMaxElapsed.
func Init(ctx context.Context, maxElapsed time.Duration, fn func(context.Context) error) error {
	if maxElapsed <= 0 {
		maxElapsed = DefaultMaxElapsed
	}
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.Multiplier = 2.0
	exp.MaxInterval = 5 * time.Second
	exp.RandomizationFactor = 0.5
	exp.Reset()

	type unit struct{}
	op := func() (unit, error) {
		return unit{}, fn(ctx)
	}

	_, err := backoff.Retry(
		ctx,
		op,
		backoff.WithBackOff(exp),
		backoff.WithMaxElapsedTime(maxElapsed),
	)
	return err
}

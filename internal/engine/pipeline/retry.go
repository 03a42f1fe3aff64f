package pipeline

import (
	"context"
	"time"

	"leadflow/internal/pkg/errors"
)

// withRetry runs fn up to attempts times with a fixed delay between tries.
// Only upstream failures retry; validation and auth errors are
// deterministic, so repeating them cannot help.
func withRetry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if !errors.IsKind(err, errors.KindUpstream) {
			return err
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

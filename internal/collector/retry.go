package collector

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// retry calls fn up to maxAttempts times with exponential backoff starting at
// baseDelay. ErrDataUnavailable is final and returned immediately.
func retry(ctx context.Context, maxAttempts int, baseDelay time.Duration, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var err error
	delay := baseDelay

	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = fn()
		if err == nil || errors.Is(err, ErrDataUnavailable) {
			return err
		}
		if attempt < maxAttempts-1 {
			log.Warn().Err(err).Int("attempt", attempt+1).Dur("backoff", delay).Msg("fetch failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return err
}

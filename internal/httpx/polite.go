package httpx

import (
	"context"
	"time"
)

// Pause blocks for the politeness delay d between outbound requests. It
// returns early with ctx.Err() if the run is being shut down.
func Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

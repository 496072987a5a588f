package gantt

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/time/rate"
)

// Replay prints the timeline to w paced in virtual time: each tick the
// timeline advances takes 1/ticksPerSecond of wall time. A non-positive
// rate prints everything at once.
func Replay(ctx context.Context, w io.Writer, entries []Entry, ticksPerSecond float64) error {
	if ticksPerSecond <= 0 {
		return Write(w, entries)
	}

	limiter := rate.NewLimiter(rate.Limit(ticksPerSecond), 1)
	now := 0
	for _, e := range entries {
		for ; now < e.Tick; now++ {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, e.String()); err != nil {
			return err
		}
	}
	return nil
}

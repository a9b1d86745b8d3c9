package abc

import (
	"context"
	"fmt"
	"time"

	"opscheck/internal/check"
	"opscheck/pkg/logging"

	"golang.org/x/sync/errgroup"
)

// Run executes every check requested in req against the ABC system. All
// calls are issued concurrently; Run waits until each one has settled
// (succeeded or exhausted its retries) and never aborts siblings on a
// failure. The returned result holds exactly one entry per requested kind,
// in requested order.
func (c *Client) Run(ctx context.Context, req check.Request) check.Result {
	start := time.Now()

	entries := make([]check.Entry, len(req.Kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range req.Kinds {
		i, kind := i, kind
		if !kind.Valid() {
			entries[i] = check.Entry{Kind: kind, Err: fmt.Sprintf("unknown check kind: %s", kind)}
			continue
		}
		g.Go(func() error {
			payload, err := c.call(gctx, kind, req.Logs)
			if err != nil {
				logging.Error("ABCClient", err, "Check %s failed", kind)
				entries[i] = check.Entry{Kind: kind, Err: err.Error()}
			} else {
				entries[i] = check.Entry{Kind: kind, Payload: payload}
			}
			// Failures are recorded per kind, never propagated: a failed
			// check must not cancel the sibling calls.
			return nil
		})
	}
	_ = g.Wait()

	elapsed := time.Since(start)

	failed := 0
	for _, e := range entries {
		if !e.OK() {
			failed++
		}
	}

	logging.Info("ABCClient", "Ran %d checks in %s with %d errors",
		len(entries), elapsed.Round(time.Millisecond), failed)

	return check.Result{
		Entries:   entries,
		Performed: len(entries),
		Failed:    failed,
		Elapsed:   elapsed,
		ElapsedMS: float64(elapsed.Microseconds()) / 1000.0,
		Timestamp: time.Now().UTC(),
	}
}

// call dispatches one check kind to its endpoint. Only the logs check is
// parameterized; the rest are plain reads.
func (c *Client) call(ctx context.Context, kind check.Kind, logs check.LogQuery) (interface{}, error) {
	switch kind {
	case check.KindHealth:
		return c.CheckHealth(ctx)
	case check.KindUsers:
		return c.GetUserStatus(ctx)
	case check.KindServices:
		return c.GetServices(ctx)
	case check.KindLogs:
		return c.QueryLogs(ctx, logs)
	case check.KindMetrics:
		return c.GetMetrics(ctx)
	default:
		return nil, fmt.Errorf("unknown check kind: %s", kind)
	}
}

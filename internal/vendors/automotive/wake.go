package automotive

import (
	"context"
	"time"

	"voltbridge/internal/core"
)

// wakeState tracks the orchestrator through its lifecycle:
// Sleeping -> Waking -> Polling -> {Online | TimedOut}
type wakeState int

const (
	stateSleeping wakeState = iota
	stateWaking
	statePolling
	stateOnline
	stateTimedOut
)

// wakeOrchestrator wakes a sleeping vehicle and polls its state until it
// reports online or the wall-clock budget elapses. The wake request is
// fire-and-forget; only transport failure aborts the sequence. Overlapping
// wake attempts for the same vehicle are independent: wasteful, not unsafe.
type wakeOrchestrator struct {
	clock    Clock
	interval time.Duration
	budget   time.Duration
	wake     func(ctx context.Context) error
	status   func(ctx context.Context) (*core.DeviceSummary, error)
}

// run drives the state machine to completion. It blocks the caller for up
// to the full budget; context cancellation aborts the poll early.
func (o *wakeOrchestrator) run(ctx context.Context) (*core.DeviceSummary, error) {
	state := stateSleeping
	deadline := o.clock.Now().Add(o.budget)

	var summary *core.DeviceSummary

	for {
		switch state {
		case stateSleeping:
			state = stateWaking

		case stateWaking:
			if err := o.wake(ctx); err != nil {
				return nil, err
			}
			state = statePolling

		case statePolling:
			fresh, err := o.status(ctx)
			if err != nil {
				return nil, err
			}
			if fresh.State == core.StateOnline {
				summary = fresh
				state = stateOnline
				break
			}
			if err := o.clock.Sleep(ctx, o.interval); err != nil {
				return nil, err
			}
			if !o.clock.Now().Before(deadline) {
				state = stateTimedOut
			}

		case stateOnline:
			return summary, nil

		case stateTimedOut:
			return nil, &core.TimeoutError{Budget: o.budget}
		}
	}
}

// wakeAndWait builds and runs the orchestrator against one vehicle
func (c *Client) wakeAndWait(ctx context.Context, accessToken, deviceID string) (*core.DeviceSummary, error) {
	o := &wakeOrchestrator{
		clock:    c.clock,
		interval: wakePollInterval,
		budget:   wakeBudget,
		wake: func(ctx context.Context) error {
			return c.sendWake(ctx, accessToken, deviceID)
		},
		status: func(ctx context.Context) (*core.DeviceSummary, error) {
			return c.fetchSummary(ctx, accessToken, deviceID)
		},
	}

	return o.run(ctx)
}

package automotive

import (
	"context"
	"errors"
	"testing"
	"time"

	"voltbridge/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(clock *MockClock, wake func(ctx context.Context) error, status func(ctx context.Context) (*core.DeviceSummary, error)) *wakeOrchestrator {
	return &wakeOrchestrator{
		clock:    clock,
		interval: wakePollInterval,
		budget:   wakeBudget,
		wake:     wake,
		status:   status,
	}
}

func TestWakeOrchestrator_WakesAfterPolling(t *testing.T) {
	clock := &MockClock{CurrentTime: time.Now()}
	start := clock.CurrentTime

	wakeCalls := 0
	statusCalls := 0

	o := newTestOrchestrator(clock,
		func(ctx context.Context) error {
			wakeCalls++
			return nil
		},
		func(ctx context.Context) (*core.DeviceSummary, error) {
			statusCalls++
			if statusCalls < 4 {
				return &core.DeviceSummary{ID: "veh-1", State: core.StateAsleep}, nil
			}
			return &core.DeviceSummary{ID: "veh-1", State: core.StateOnline}, nil
		})

	summary, err := o.run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.StateOnline, summary.State)

	assert.Equal(t, 1, wakeCalls)
	assert.Equal(t, 4, statusCalls)
	assert.Equal(t, 3, clock.Sleeps)

	elapsed := clock.CurrentTime.Sub(start)
	assert.Equal(t, 3*wakePollInterval, elapsed)
	assert.Less(t, elapsed, wakeBudget)
}

func TestWakeOrchestrator_TimesOutAtBudget(t *testing.T) {
	clock := &MockClock{CurrentTime: time.Now()}
	start := clock.CurrentTime

	o := newTestOrchestrator(clock,
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) (*core.DeviceSummary, error) {
			return &core.DeviceSummary{ID: "veh-1", State: core.StateAsleep}, nil
		})

	_, err := o.run(context.Background())

	var timeout *core.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, wakeBudget, timeout.Budget)

	// The poll loop runs for the full budget, never less
	assert.Equal(t, wakeBudget, clock.CurrentTime.Sub(start))
}

func TestWakeOrchestrator_WakeFailureAborts(t *testing.T) {
	clock := &MockClock{CurrentTime: time.Now()}
	statusCalls := 0

	o := newTestOrchestrator(clock,
		func(ctx context.Context) error {
			return &core.TransportError{Op: "wake", Err: errors.New("connection refused")}
		},
		func(ctx context.Context) (*core.DeviceSummary, error) {
			statusCalls++
			return nil, nil
		})

	_, err := o.run(context.Background())

	var transport *core.TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, 0, statusCalls)
}

func TestWakeOrchestrator_ContextCancelled(t *testing.T) {
	clock := &MockClock{CurrentTime: time.Now()}

	ctx, cancel := context.WithCancel(context.Background())

	o := newTestOrchestrator(clock,
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) (*core.DeviceSummary, error) {
			// Caller gives up while the vehicle is still waking
			cancel()
			return &core.DeviceSummary{ID: "veh-1", State: core.StateAsleep}, nil
		})

	_, err := o.run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWakeOrchestrator_StatusFailurePropagates(t *testing.T) {
	clock := &MockClock{CurrentTime: time.Now()}

	o := newTestOrchestrator(clock,
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) (*core.DeviceSummary, error) {
			return nil, &core.VendorError{Vendor: core.VendorAutomotive, Status: 500, Message: "internal error"}
		})

	_, err := o.run(context.Background())

	var vendorErr *core.VendorError
	assert.ErrorAs(t, err, &vendorErr)
}

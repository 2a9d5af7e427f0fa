package automotive

import (
	"context"
	"time"
)

// Clock interface abstracts time operations for testing
type Clock interface {
	// Now returns the current time
	Now() time.Time
	// Sleep pauses for d, returning early with the context error if the
	// context is cancelled first
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock implements Clock using the real system time
type RealClock struct{}

// Now returns the current time
func (RealClock) Now() time.Time {
	return time.Now()
}

// Sleep pauses for d or until ctx is done
func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MockClock implements Clock for testing; Sleep advances the mocked time
// instantly instead of blocking
type MockClock struct {
	CurrentTime time.Time
	Sleeps      int
}

// Now returns the mocked current time
func (m *MockClock) Now() time.Time {
	return m.CurrentTime
}

// Sleep advances the mocked time by d without blocking
func (m *MockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.CurrentTime = m.CurrentTime.Add(d)
	m.Sleeps++
	return nil
}

// Advance moves the mocked time forward by the given duration
func (m *MockClock) Advance(d time.Duration) {
	m.CurrentTime = m.CurrentTime.Add(d)
}

// Ensure implementations satisfy the interface
var (
	_ Clock = RealClock{}
	_ Clock = (*MockClock)(nil)
)

package vendors

import (
	"context"

	"voltbridge/internal/core"
	"voltbridge/internal/session"

	json "github.com/goccy/go-json"
)

// Client is the interface every vendor integration implements. Clients are
// stateless: credentials live in the Store passed with each call, which in
// the server is bound to the current request's cookie jar.
type Client interface {
	// Name returns the unique vendor name (e.g. "automotive", "solar")
	Name() string

	// Connected reports whether a credential is stored for this vendor
	Connected(store session.Store) bool

	// ExchangeCode trades an OAuth authorization code for tokens and
	// persists them. The client secret must never appear in errors or logs.
	ExchangeCode(ctx context.Context, store session.Store, code string) error

	// Refresh renews the access token using the stored refresh token.
	// Returns false when no refresh token is stored or the vendor rejects
	// the call; it never fails loudly.
	Refresh(ctx context.Context, store session.Store) bool

	// ListDevices fetches fresh device summaries. A missing credential is
	// reported as core.ErrNotConnected, not a failure.
	ListDevices(ctx context.Context, store session.Store) ([]core.DeviceSummary, error)

	// GetDetail fetches one device's full data payload, returned verbatim
	// as the vendor sent it
	GetDetail(ctx context.Context, store session.Store, deviceID string) (json.RawMessage, error)
}

// Commander is an optional interface for vendors whose devices accept
// remote commands
type Commander interface {
	Client

	// SendCommand posts a named command to a device. A vendor-level
	// failure inside a 2xx response is still an error, carrying the
	// vendor's reason string.
	SendCommand(ctx context.Context, store session.Store, deviceID, command string) error
}

// Waker is an optional interface for vendors whose devices sleep and must
// be woken before full data is available
type Waker interface {
	Client

	// Wake wakes a device and blocks until it reports online or the wake
	// budget elapses, returning the fresh device summary on success
	Wake(ctx context.Context, store session.Store, deviceID string) (*core.DeviceSummary, error)
}

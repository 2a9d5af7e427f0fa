package automotive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"voltbridge/internal/core"
	"voltbridge/internal/session"
	"voltbridge/internal/vendors"

	json "github.com/goccy/go-json"
)

const (
	// defaultExpiresIn is applied when the vendor omits expires_in
	defaultExpiresIn = 86400 * time.Second

	wakePollInterval = 2 * time.Second
	wakeBudget       = 30 * time.Second
)

// errTokenInvalid marks a vendor token-invalid response internally so the
// listing path can run its single refresh-and-retry. It never crosses the
// package boundary.
var errTokenInvalid = errors.New("vendor reported the access token as invalid")

func isTokenInvalid(err error) bool {
	return errors.Is(err, errTokenInvalid)
}

// Config contains the automotive vendor API configuration
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scope        string
	Audience     string
	TokenURL     string
	BaseURL      string
}

// Client implements the vendors.Client interface for the automotive
// telematics cloud. It is stateless; credentials live in the Store passed
// with each call.
type Client struct {
	config     Config
	httpClient *http.Client
	clock      Clock
	logger     *slog.Logger
}

// NewClient creates a new automotive client
func NewClient(config Config, logger *slog.Logger) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		clock:  RealClock{},
		logger: logger,
	}
}

// Name returns the vendor name
func (c *Client) Name() string {
	return core.VendorAutomotive
}

// Connected reports whether a credential is stored
func (c *Client) Connected(store session.Store) bool {
	_, ok := store.Get(core.VendorAutomotive)
	return ok
}

// ExchangeCode trades an authorization code for tokens and persists them
func (c *Client) ExchangeCode(ctx context.Context, store session.Store, code string) error {
	if code == "" {
		return &core.ValidationError{Msg: "authorization code is required"}
	}

	body := map[string]string{
		"grant_type":    "authorization_code",
		"client_id":     c.config.ClientID,
		"client_secret": c.config.ClientSecret,
		"code":          code,
		"redirect_uri":  c.config.RedirectURI,
	}
	if c.config.Scope != "" {
		body["scope"] = c.config.Scope
	}
	if c.config.Audience != "" {
		body["audience"] = c.config.Audience
	}

	token, err := c.requestToken(ctx, body)
	if err != nil {
		return err
	}

	cred := &core.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    c.clock.Now().Add(expiry(token.ExpiresIn)),
	}

	if err := store.Set(core.VendorAutomotive, cred); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	return nil
}

// Refresh renews the access token using the stored refresh token. Returns
// false when no refresh token is stored or the vendor rejects the call.
// The refresh response carries no authorized-device list, so the
// previously stored list is always preserved.
func (c *Client) Refresh(ctx context.Context, store session.Store) bool {
	cred, ok := store.Get(core.VendorAutomotive)
	if !ok || cred.RefreshToken == "" {
		return false
	}

	body := map[string]string{
		"grant_type":    "refresh_token",
		"client_id":     c.config.ClientID,
		"refresh_token": cred.RefreshToken,
	}

	token, err := c.requestToken(ctx, body)
	if err != nil {
		c.logger.Warn("Token refresh failed",
			"component", "automotive",
			"error", err,
		)
		return false
	}

	updated := &core.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    c.clock.Now().Add(expiry(token.ExpiresIn)),
		DeviceIDs:    cred.DeviceIDs,
	}
	if updated.RefreshToken == "" {
		updated.RefreshToken = cred.RefreshToken
	}

	if err := store.Set(core.VendorAutomotive, updated); err != nil {
		c.logger.Warn("Failed to store refreshed credential",
			"component", "automotive",
			"error", err,
		)
		return false
	}

	return true
}

// ListDevices fetches fresh vehicle summaries. A vendor token-invalid
// response triggers exactly one refresh-and-retry; if the retry also
// fails the account is treated as not connected.
func (c *Client) ListDevices(ctx context.Context, store session.Store) ([]core.DeviceSummary, error) {
	cred, ok := store.Get(core.VendorAutomotive)
	if !ok || cred.AccessToken == "" {
		return nil, core.ErrNotConnected
	}

	// Bounded loop, never recursion: at most one refresh-and-retry
	for attempt := 0; attempt < 2; attempt++ {
		summaries, err := c.fetchVehicles(ctx, cred.AccessToken)
		if err == nil {
			return summaries, nil
		}

		if !isTokenInvalid(err) {
			return nil, err
		}
		if attempt > 0 || !c.Refresh(ctx, store) {
			return nil, core.ErrNotConnected
		}

		cred, ok = store.Get(core.VendorAutomotive)
		if !ok || cred.AccessToken == "" {
			return nil, core.ErrNotConnected
		}
	}

	return nil, core.ErrNotConnected
}

// GetDetail fetches a vehicle's full data payload, waking the vehicle
// first when it is not online
func (c *Client) GetDetail(ctx context.Context, store session.Store, deviceID string) (json.RawMessage, error) {
	cred, ok := store.Get(core.VendorAutomotive)
	if !ok || cred.AccessToken == "" {
		return nil, core.ErrUnauthorized
	}

	summary, err := c.fetchSummary(ctx, cred.AccessToken, deviceID)
	if err != nil {
		return nil, err
	}

	if summary.State != core.StateOnline {
		if _, err := c.wakeAndWait(ctx, cred.AccessToken, deviceID); err != nil {
			return nil, err
		}
	}

	return c.fetchData(ctx, cred.AccessToken, deviceID)
}

// SendCommand posts a named command to a vehicle. The vendor encodes
// command-level failure inside a 2xx envelope, so result=false is a
// failure carrying the vendor's reason.
func (c *Client) SendCommand(ctx context.Context, store session.Store, deviceID, command string) error {
	if command == "" {
		return &core.ValidationError{Msg: "command name is required"}
	}

	cred, ok := store.Get(core.VendorAutomotive)
	if !ok || cred.AccessToken == "" {
		return core.ErrUnauthorized
	}

	url := fmt.Sprintf("%s/api/1/vehicles/%s/command/%s", c.config.BaseURL, deviceID, command)
	respBody, status, err := c.doBearer(ctx, "POST", url, cred.AccessToken, map[string]any{})
	if err != nil {
		return err
	}

	var envelope commandEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return &core.TransportError{Op: "parse command response", Err: err}
	}

	if status != http.StatusOK {
		return &core.VendorError{Vendor: core.VendorAutomotive, Status: status, Message: envelope.Error}
	}

	if !envelope.Response.Result {
		reason := envelope.Response.Reason
		if reason == "" {
			reason = fmt.Sprintf("command %s was rejected by the vehicle", command)
		}
		return &core.VendorError{Vendor: core.VendorAutomotive, Message: reason}
	}

	return nil
}

// Wake wakes a sleeping vehicle and blocks until it reports online or the
// wake budget elapses
func (c *Client) Wake(ctx context.Context, store session.Store, deviceID string) (*core.DeviceSummary, error) {
	cred, ok := store.Get(core.VendorAutomotive)
	if !ok || cred.AccessToken == "" {
		return nil, core.ErrUnauthorized
	}

	return c.wakeAndWait(ctx, cred.AccessToken, deviceID)
}

// requestToken posts to the token endpoint and normalizes the response.
// The request body is never logged: it carries the client secret.
func (c *Client) requestToken(ctx context.Context, body map[string]string) (*tokenResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.TokenURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &core.TransportError{Op: "token request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.TransportError{Op: "read token response", Err: err}
	}

	var token tokenResponse
	if err := json.Unmarshal(respBody, &token); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, &core.VendorError{Vendor: core.VendorAutomotive, Status: resp.StatusCode}
		}
		return nil, &core.TransportError{Op: "parse token response", Err: err}
	}

	if resp.StatusCode != http.StatusOK || token.AccessToken == "" {
		message := token.ErrorDescription
		if message == "" {
			message = token.Error
		}
		return nil, &core.VendorError{Vendor: core.VendorAutomotive, Status: resp.StatusCode, Message: message}
	}

	return &token, nil
}

// fetchVehicles retrieves the vehicle list
func (c *Client) fetchVehicles(ctx context.Context, accessToken string) ([]core.DeviceSummary, error) {
	url := fmt.Sprintf("%s/api/1/vehicles", c.config.BaseURL)
	respBody, status, err := c.doBearer(ctx, "GET", url, accessToken, nil)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized {
		return nil, errTokenInvalid
	}

	var envelope listEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &core.TransportError{Op: "parse vehicle list", Err: err}
	}

	if status != http.StatusOK {
		return nil, &core.VendorError{Vendor: core.VendorAutomotive, Status: status, Message: envelope.Error}
	}

	summaries := make([]core.DeviceSummary, 0, len(envelope.Response))
	for _, v := range envelope.Response {
		summaries = append(summaries, core.DeviceSummary{
			ID:          v.IDS,
			DisplayName: v.DisplayName,
			State:       core.ParseDeviceState(v.State),
		})
	}

	return summaries, nil
}

// fetchSummary retrieves a single vehicle's summary, including its state
func (c *Client) fetchSummary(ctx context.Context, accessToken, deviceID string) (*core.DeviceSummary, error) {
	url := fmt.Sprintf("%s/api/1/vehicles/%s", c.config.BaseURL, deviceID)
	respBody, status, err := c.doBearer(ctx, "GET", url, accessToken, nil)
	if err != nil {
		return nil, err
	}

	var envelope summaryEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &core.TransportError{Op: "parse vehicle summary", Err: err}
	}

	if status != http.StatusOK || envelope.Response == nil {
		return nil, &core.VendorError{Vendor: core.VendorAutomotive, Status: status, Message: envelope.Error}
	}

	return &core.DeviceSummary{
		ID:          envelope.Response.IDS,
		DisplayName: envelope.Response.DisplayName,
		State:       core.ParseDeviceState(envelope.Response.State),
	}, nil
}

// fetchData retrieves the full vehicle data payload verbatim
func (c *Client) fetchData(ctx context.Context, accessToken, deviceID string) (json.RawMessage, error) {
	url := fmt.Sprintf("%s/api/1/vehicles/%s/vehicle_data", c.config.BaseURL, deviceID)
	respBody, status, err := c.doBearer(ctx, "GET", url, accessToken, nil)
	if err != nil {
		return nil, err
	}

	var envelope dataEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &core.TransportError{Op: "parse vehicle data", Err: err}
	}

	if status != http.StatusOK || envelope.Response == nil {
		return nil, &core.VendorError{Vendor: core.VendorAutomotive, Status: status, Message: envelope.Error}
	}

	return envelope.Response, nil
}

// sendWake fires the wake request; the response body is ignored beyond
// transport-level failure
func (c *Client) sendWake(ctx context.Context, accessToken, deviceID string) error {
	url := fmt.Sprintf("%s/api/1/vehicles/%s/wake_up", c.config.BaseURL, deviceID)
	_, _, err := c.doBearer(ctx, "POST", url, accessToken, nil)
	return err
}

// doBearer performs an authenticated request and returns the raw body and
// status. Vendor-level errors are left for the caller to interpret.
func (c *Client) doBearer(ctx context.Context, method, url, accessToken string, body any) ([]byte, int, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &core.TransportError{Op: "vendor request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &core.TransportError{Op: "read vendor response", Err: err}
	}

	return respBody, resp.StatusCode, nil
}

func expiry(expiresIn int) time.Duration {
	if expiresIn <= 0 {
		return defaultExpiresIn
	}
	return time.Duration(expiresIn) * time.Second
}

// Ensure Client satisfies the vendor interfaces
var (
	_ vendors.Client    = (*Client)(nil)
	_ vendors.Commander = (*Client)(nil)
	_ vendors.Waker     = (*Client)(nil)
)

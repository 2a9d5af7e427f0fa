package solar

import (
	"bytes"
	"context"
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

	listPageSize = 100
)

// Config contains the solar vendor API configuration
type Config struct {
	AppKey      string
	SecretKey   string
	RedirectURI string
	TokenURL    string
	BaseURL     string
}

// Client implements the vendors.Client interface for the solar-inverter
// monitoring cloud
type Client struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewClient creates a new solar client
func NewClient(config Config, logger *slog.Logger) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
		now:    time.Now,
	}
}

// Name returns the vendor name
func (c *Client) Name() string {
	return core.VendorSolar
}

// Connected reports whether a credential is stored
func (c *Client) Connected(store session.Store) bool {
	_, ok := store.Get(core.VendorSolar)
	return ok
}

// ExchangeCode trades an authorization code for tokens and persists them
// together with the authorized plant list.
//
// On an HTTP-level failure this returns a DiagnosticError carrying the raw
// response body: the vendor gateway is known to answer with HTML error
// pages, and surfacing them verbatim is the documented debugging aid.
func (c *Client) ExchangeCode(ctx context.Context, store session.Store, code string) error {
	if code == "" {
		return &core.ValidationError{Msg: "authorization code is required"}
	}

	body := map[string]string{
		"grant_type":   "authorization_code",
		"appkey":       c.config.AppKey,
		"code":         code,
		"redirect_uri": c.config.RedirectURI,
	}

	token, err := c.requestToken(ctx, body)
	if err != nil {
		return err
	}

	cred := &core.Credential{
		AccessToken:  token.ResultData.AccessToken,
		RefreshToken: token.ResultData.RefreshToken,
		ExpiresAt:    c.now().Add(expiry(token.ResultData.ExpiresIn)),
		DeviceIDs:    token.ResultData.AuthPsList,
	}

	if err := store.Set(core.VendorSolar, cred); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}

	return nil
}

// Refresh renews the access token using the stored refresh token. A
// non-empty auth_ps_list in the response overwrites the stored plant list;
// an absent or empty one preserves it, because the vendor omits the field
// on refresh without meaning "no authorized plants".
func (c *Client) Refresh(ctx context.Context, store session.Store) bool {
	cred, ok := store.Get(core.VendorSolar)
	if !ok || cred.RefreshToken == "" {
		return false
	}

	body := map[string]string{
		"grant_type":    "refresh_token",
		"appkey":        c.config.AppKey,
		"refresh_token": cred.RefreshToken,
	}

	token, err := c.requestToken(ctx, body)
	if err != nil {
		c.logger.Warn("Token refresh failed",
			"component", "solar",
			"error", err,
		)
		return false
	}

	updated := &core.Credential{
		AccessToken:  token.ResultData.AccessToken,
		RefreshToken: token.ResultData.RefreshToken,
		ExpiresAt:    c.now().Add(expiry(token.ResultData.ExpiresIn)),
		DeviceIDs:    cred.DeviceIDs,
	}
	if len(token.ResultData.AuthPsList) > 0 {
		updated.DeviceIDs = token.ResultData.AuthPsList
	}
	if updated.RefreshToken == "" {
		updated.RefreshToken = cred.RefreshToken
	}

	if err := store.Set(core.VendorSolar, updated); err != nil {
		c.logger.Warn("Failed to store refreshed credential",
			"component", "solar",
			"error", err,
		)
		return false
	}

	return true
}

// ListDevices fetches fresh plant summaries. The vendor's token-invalid
// result code triggers exactly one refresh-and-retry; if the retry also
// fails the account is treated as not connected.
func (c *Client) ListDevices(ctx context.Context, store session.Store) ([]core.DeviceSummary, error) {
	cred, ok := store.Get(core.VendorSolar)
	if !ok || cred.AccessToken == "" {
		return nil, core.ErrNotConnected
	}

	// Bounded loop, never recursion: at most one refresh-and-retry
	for attempt := 0; attempt < 2; attempt++ {
		summaries, tokenInvalid, err := c.fetchPlants(ctx, cred.AccessToken)
		if err != nil {
			return nil, err
		}
		if !tokenInvalid {
			return summaries, nil
		}
		if attempt > 0 || !c.Refresh(ctx, store) {
			return nil, core.ErrNotConnected
		}

		cred, ok = store.Get(core.VendorSolar)
		if !ok || cred.AccessToken == "" {
			return nil, core.ErrNotConnected
		}
	}

	return nil, core.ErrNotConnected
}

// GetDetail fetches one plant's detail payload verbatim
func (c *Client) GetDetail(ctx context.Context, store session.Store, deviceID string) (json.RawMessage, error) {
	cred, ok := store.Get(core.VendorSolar)
	if !ok || cred.AccessToken == "" {
		return nil, core.ErrUnauthorized
	}

	url := fmt.Sprintf("%s/openapi/getPowerStationDetail", c.config.BaseURL)
	body := map[string]string{
		"appkey": c.config.AppKey,
		"ps_id":  deviceID,
	}

	respBody, status, err := c.doRequest(ctx, url, cred.AccessToken, body)
	if err != nil {
		return nil, err
	}

	var envelope detailEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &core.TransportError{Op: "parse plant detail", Err: err}
	}

	if status != http.StatusOK || envelope.ResultCode != resultCodeOK {
		return nil, &core.VendorError{Vendor: core.VendorSolar, Status: status, Message: envelope.ResultMsg}
	}

	return envelope.ResultData, nil
}

// requestToken posts to the token endpoint. The secret key travels in the
// x-access-key header and never appears in errors or logs.
func (c *Client) requestToken(ctx context.Context, body map[string]string) (*tokenEnvelope, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.TokenURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-access-key", c.config.SecretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &core.TransportError{Op: "token request", Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.TransportError{Op: "read token response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		// Diagnostic throw path: keep the raw body attached
		return nil, &core.DiagnosticError{
			Err:     fmt.Errorf("solar token request failed with status %d", resp.StatusCode),
			RawBody: string(respBody),
		}
	}

	var envelope tokenEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, &core.TransportError{Op: "parse token response", Err: err}
	}

	if envelope.ResultCode != resultCodeOK {
		return nil, &core.VendorError{Vendor: core.VendorSolar, Message: envelope.ResultMsg}
	}

	return &envelope, nil
}

// fetchPlants retrieves the plant list. The second return reports the
// vendor's token-invalid result code.
func (c *Client) fetchPlants(ctx context.Context, accessToken string) ([]core.DeviceSummary, bool, error) {
	url := fmt.Sprintf("%s/openapi/getPowerStationList", c.config.BaseURL)
	body := map[string]any{
		"appkey":  c.config.AppKey,
		"curPage": 1,
		"size":    listPageSize,
	}

	respBody, status, err := c.doRequest(ctx, url, accessToken, body)
	if err != nil {
		return nil, false, err
	}

	var envelope listEnvelope
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, false, &core.TransportError{Op: "parse plant list", Err: err}
	}

	if envelope.ResultCode == resultCodeTokenInvalid {
		return nil, true, nil
	}
	if status != http.StatusOK || envelope.ResultCode != resultCodeOK {
		return nil, false, &core.VendorError{Vendor: core.VendorSolar, Status: status, Message: envelope.ResultMsg}
	}

	summaries := make([]core.DeviceSummary, 0, len(envelope.ResultData.DataList))
	for _, p := range envelope.ResultData.DataList {
		summaries = append(summaries, core.DeviceSummary{
			ID:          p.PsID,
			DisplayName: p.PsName,
			State:       plantState(p.PsStatus),
		})
	}

	return summaries, false, nil
}

// doRequest performs an authenticated vendor call
func (c *Client) doRequest(ctx context.Context, url, accessToken string, body any) ([]byte, int, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-access-key", c.config.SecretKey)

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

// plantState maps the vendor's numeric plant status onto device states.
// 1 is connected and reporting; 0 is offline.
func plantState(status int) core.DeviceState {
	switch status {
	case 1:
		return core.StateOnline
	case 0:
		return core.StateOffline
	default:
		return core.StateUnknown
	}
}

func expiry(expiresIn int) time.Duration {
	if expiresIn <= 0 {
		return defaultExpiresIn
	}
	return time.Duration(expiresIn) * time.Second
}

// Ensure Client satisfies the vendor interface
var _ vendors.Client = (*Client)(nil)

package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"voltbridge/internal/metrics"
	"voltbridge/internal/session"
	"voltbridge/internal/vendors"
	"voltbridge/internal/vendors/automotive"
	"voltbridge/internal/vendors/solar"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMasterKey = "dGVzdC1tYXN0ZXIta2V5LTMyLWJ5dGVzLWxvbmchISE="

// newVendorServer fakes the automotive cloud: token endpoint, vehicle list,
// and a recorder for the Authorization header the list call received
func newVendorServer(t *testing.T) (*httptest.Server, *string) {
	t.Helper()

	var listAuth string

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/v3/token", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"t1","refresh_token":"r1","expires_in":3600}`))
	})
	mux.HandleFunc("/api/1/vehicles", func(w http.ResponseWriter, r *http.Request) {
		listAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"response":[{"id_s":"veh-1","display_name":"Roadster","state":"online"}],"count":1}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &listAuth
}

func newTestRouter(t *testing.T, vendorURL string) *gin.Engine {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	codec, err := session.NewCodec(testMasterKey)
	require.NoError(t, err)

	registry := vendors.NewRegistry()
	require.NoError(t, registry.Register(automotive.NewClient(automotive.Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		RedirectURI:  "https://example.com/callback",
		TokenURL:     vendorURL + "/oauth2/v3/token",
		BaseURL:      vendorURL,
	}, logger)))
	require.NoError(t, registry.Register(solar.NewClient(solar.Config{
		AppKey:    "test-app-key",
		SecretKey: "test-secret-key",
		TokenURL:  vendorURL + "/openapi/apiManage/token",
		BaseURL:   vendorURL,
	}, logger)))

	promRegistry := prometheus.NewRegistry()

	return NewRouter(RouterConfig{
		Registry:      registry,
		Codec:         codec,
		SecureCookies: false,
		Logger:        logger,
		Metrics:       metrics.New(promRegistry),
		PromGatherer:  promRegistry,
	})
}

// carryCookies copies the cookies a previous response set onto a request
func carryCookies(w *httptest.ResponseRecorder, req *http.Request) {
	for _, cookie := range w.Result().Cookies() {
		if cookie.MaxAge < 0 {
			continue
		}
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestRouter_Health(t *testing.T) {
	server, _ := newVendorServer(t)
	router := newTestRouter(t, server.URL)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"UP"`)
}

func TestRouter_Metrics(t *testing.T) {
	server, _ := newVendorServer(t)
	router := newTestRouter(t, server.URL)

	// Generate one request first so the counters exist
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "voltbridge_http_requests_total")
}

func TestRouter_UnknownVendor(t *testing.T) {
	server, _ := newVendorServer(t)
	router := newTestRouter(t, server.URL)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/v1/unknown/status", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, false, envelope["success"])
	assert.NotEmpty(t, envelope["error"])
}

func TestRouter_ExchangeThenListDevices(t *testing.T) {
	server, listAuth := newVendorServer(t)
	router := newTestRouter(t, server.URL)

	// Exchange the code; tokens land in encrypted cookies
	exchange := httptest.NewRequest("POST", "/v1/automotive/exchange", strings.NewReader(`{"code":"abc123"}`))
	exchange.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, exchange)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, true, envelope["success"])

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	for _, cookie := range cookies {
		assert.True(t, cookie.HttpOnly)
		assert.NotContains(t, cookie.Value, "t1")
	}

	// Status now reports connected
	status := httptest.NewRequest("GET", "/v1/automotive/status", nil)
	carryCookies(w, status)
	sw := httptest.NewRecorder()
	router.ServeHTTP(sw, status)

	require.Equal(t, http.StatusOK, sw.Code)
	statusEnvelope := decodeEnvelope(t, sw)
	assert.Equal(t, true, statusEnvelope["data"].(map[string]any)["connected"])

	// The device list call uses the exchanged token
	list := httptest.NewRequest("GET", "/v1/automotive/devices", nil)
	carryCookies(w, list)
	lw := httptest.NewRecorder()
	router.ServeHTTP(lw, list)

	require.Equal(t, http.StatusOK, lw.Code, lw.Body.String())
	listEnvelope := decodeEnvelope(t, lw)
	assert.Equal(t, true, listEnvelope["success"])

	devices := listEnvelope["data"].([]any)
	require.Len(t, devices, 1)
	assert.Equal(t, "veh-1", devices[0].(map[string]any)["id"])

	assert.Equal(t, "Bearer t1", *listAuth)
}

func TestRouter_ExchangeBadJSON(t *testing.T) {
	server, _ := newVendorServer(t)
	router := newTestRouter(t, server.URL)

	req := httptest.NewRequest("POST", "/v1/automotive/exchange", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, false, envelope["success"])
}

func TestRouter_ExchangeWrongContentType(t *testing.T) {
	server, _ := newVendorServer(t)
	router := newTestRouter(t, server.URL)

	req := httptest.NewRequest("POST", "/v1/automotive/exchange", strings.NewReader(`code=abc123`))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestRouter_DevicesNotConnected(t *testing.T) {
	server, _ := newVendorServer(t)
	router := newTestRouter(t, server.URL)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/v1/automotive/devices", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, false, envelope["success"])
}

func TestRouter_Disconnect(t *testing.T) {
	server, _ := newVendorServer(t)
	router := newTestRouter(t, server.URL)

	exchange := httptest.NewRequest("POST", "/v1/automotive/exchange", strings.NewReader(`{"code":"abc123"}`))
	exchange.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, exchange)
	require.Equal(t, http.StatusOK, w.Code)

	disconnect := httptest.NewRequest("POST", "/v1/automotive/disconnect", nil)
	carryCookies(w, disconnect)
	dw := httptest.NewRecorder()
	router.ServeHTTP(dw, disconnect)

	require.Equal(t, http.StatusOK, dw.Code)
	envelope := decodeEnvelope(t, dw)
	assert.Equal(t, false, envelope["data"].(map[string]any)["connected"])

	// Disconnecting expires the vendor's cookies
	expired := 0
	for _, cookie := range dw.Result().Cookies() {
		if cookie.MaxAge < 0 {
			expired++
		}
	}
	assert.Equal(t, 3, expired)
}

func TestRouter_SolarWakeUnsupported(t *testing.T) {
	server, _ := newVendorServer(t)
	router := newTestRouter(t, server.URL)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/v1/solar/devices/ps-100/wake", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	envelope := decodeEnvelope(t, w)
	assert.Equal(t, false, envelope["success"])
	assert.Contains(t, envelope["error"], "does not support")
}

func TestRouter_SolarCommandUnsupported(t *testing.T) {
	server, _ := newVendorServer(t)
	router := newTestRouter(t, server.URL)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/v1/solar/devices/ps-100/command/restart", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

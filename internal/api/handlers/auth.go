package handlers

import (
	"log/slog"

	"voltbridge/internal/core"
	"voltbridge/internal/metrics"
	"voltbridge/internal/vendors"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles vendor authentication requests
type AuthHandler struct {
	registry *vendors.Registry
	stores   StoreFactory
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(registry *vendors.Registry, stores StoreFactory, logger *slog.Logger, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		registry: registry,
		stores:   stores,
		logger:   logger,
		metrics:  m,
	}
}

type exchangeRequest struct {
	Code string `json:"code"`
}

// ExchangeCode trades an OAuth authorization code for vendor tokens
// POST /v1/:vendor/exchange
func (h *AuthHandler) ExchangeCode(c *gin.Context) {
	client, ok := resolveClient(c, h.registry)
	if !ok {
		return
	}

	var req exchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, nil, &core.ValidationError{Msg: "request body must be JSON with a code field"})
		return
	}

	store := h.stores(c)
	err := client.ExchangeCode(c.Request.Context(), store, req.Code)
	h.metrics.ObserveVendorCall(client.Name(), "exchange_code", err)

	if err != nil {
		h.logger.Warn("Code exchange failed",
			"component", "api",
			"request_id", c.GetString("X-Request-ID"),
			"vendor", client.Name(),
			"error", err,
		)
		respond(c, nil, err)
		return
	}

	h.logger.Info("Vendor account connected",
		"component", "api",
		"vendor", client.Name(),
	)
	respond(c, gin.H{"connected": true}, nil)
}

// Status reports whether a credential is stored for the vendor
// GET /v1/:vendor/status
func (h *AuthHandler) Status(c *gin.Context) {
	client, ok := resolveClient(c, h.registry)
	if !ok {
		return
	}

	store := h.stores(c)
	respond(c, gin.H{"connected": client.Connected(store)}, nil)
}

// Disconnect clears one vendor's credentials without ending the rest of
// the session
// POST /v1/:vendor/disconnect
func (h *AuthHandler) Disconnect(c *gin.Context) {
	client, ok := resolveClient(c, h.registry)
	if !ok {
		return
	}

	store := h.stores(c)
	store.Clear(client.Name())

	h.logger.Info("Vendor account disconnected",
		"component", "api",
		"vendor", client.Name(),
	)
	respond(c, gin.H{"connected": false}, nil)
}

// Logout clears every vendor's credentials
// POST /v1/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	store := h.stores(c)
	for _, name := range h.registry.List() {
		store.Clear(name)
	}

	h.logger.Info("Session logged out", "component", "api")
	respond(c, gin.H{"connected": false}, nil)
}

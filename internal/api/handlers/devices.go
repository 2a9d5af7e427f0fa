package handlers

import (
	"log/slog"
	"sync"
	"time"

	"voltbridge/internal/core"
	"voltbridge/internal/metrics"
	"voltbridge/internal/vendors"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
)

// DevicesHandler handles device listing, detail, wake and command requests
type DevicesHandler struct {
	registry *vendors.Registry
	stores   StoreFactory
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewDevicesHandler creates a new devices handler
func NewDevicesHandler(registry *vendors.Registry, stores StoreFactory, logger *slog.Logger, m *metrics.Metrics) *DevicesHandler {
	return &DevicesHandler{
		registry: registry,
		stores:   stores,
		logger:   logger,
		metrics:  m,
	}
}

// deviceWithDetail pairs a device summary with its full data payload, or
// the per-device error when the detail fetch failed
type deviceWithDetail struct {
	Device core.DeviceSummary `json:"device"`
	Data   json.RawMessage    `json:"data,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// List returns fresh device summaries for a vendor
// GET /v1/:vendor/devices
func (h *DevicesHandler) List(c *gin.Context) {
	client, ok := resolveClient(c, h.registry)
	if !ok {
		return
	}

	store := h.stores(c)
	devices, err := client.ListDevices(c.Request.Context(), store)
	h.metrics.ObserveVendorCall(client.Name(), "list_devices", err)

	respond(c, devices, err)
}

// ListDetails lists devices and fetches every device's detail payload
// concurrently, recombining results by stable device index
// GET /v1/:vendor/devices/details
func (h *DevicesHandler) ListDetails(c *gin.Context) {
	client, ok := resolveClient(c, h.registry)
	if !ok {
		return
	}

	store := h.stores(c)
	ctx := c.Request.Context()

	devices, err := client.ListDevices(ctx, store)
	h.metrics.ObserveVendorCall(client.Name(), "list_devices", err)
	if err != nil {
		respond(c, nil, err)
		return
	}

	results := make([]deviceWithDetail, len(devices))
	var wg sync.WaitGroup
	for i, device := range devices {
		results[i].Device = device

		wg.Add(1)
		go func(i int, deviceID string) {
			defer wg.Done()

			data, err := client.GetDetail(ctx, store, deviceID)
			h.metrics.ObserveVendorCall(client.Name(), "get_detail", err)
			if err != nil {
				results[i].Error = err.Error()
				return
			}
			results[i].Data = data
		}(i, device.ID)
	}
	wg.Wait()

	respond(c, results, nil)
}

// GetDetail returns one device's full data payload, waking automotive
// devices first when they are asleep
// GET /v1/:vendor/devices/:id
func (h *DevicesHandler) GetDetail(c *gin.Context) {
	client, ok := resolveClient(c, h.registry)
	if !ok {
		return
	}

	store := h.stores(c)
	data, err := client.GetDetail(c.Request.Context(), store, c.Param("id"))
	h.metrics.ObserveVendorCall(client.Name(), "get_detail", err)

	respond(c, data, err)
}

// Wake wakes a sleeping device and waits for it to come online
// POST /v1/:vendor/devices/:id/wake
func (h *DevicesHandler) Wake(c *gin.Context) {
	client, ok := resolveClient(c, h.registry)
	if !ok {
		return
	}

	waker, ok := client.(vendors.Waker)
	if !ok {
		respond(c, nil, &core.ValidationError{Msg: "vendor does not support waking devices"})
		return
	}

	store := h.stores(c)
	start := time.Now()
	summary, err := waker.Wake(c.Request.Context(), store, c.Param("id"))
	h.metrics.WakeDuration.Observe(time.Since(start).Seconds())
	h.metrics.ObserveVendorCall(client.Name(), "wake", err)

	respond(c, summary, err)
}

// Command posts a named command to a device
// POST /v1/:vendor/devices/:id/command/:name
func (h *DevicesHandler) Command(c *gin.Context) {
	client, ok := resolveClient(c, h.registry)
	if !ok {
		return
	}

	commander, ok := client.(vendors.Commander)
	if !ok {
		respond(c, nil, &core.ValidationError{Msg: "vendor does not support device commands"})
		return
	}

	store := h.stores(c)
	command := c.Param("name")
	err := commander.SendCommand(c.Request.Context(), store, c.Param("id"), command)
	h.metrics.ObserveVendorCall(client.Name(), "send_command", err)

	if err != nil {
		h.logger.Warn("Device command failed",
			"component", "api",
			"vendor", client.Name(),
			"command", command,
			"error", err,
		)
	}
	respond(c, gin.H{"command": command}, err)
}

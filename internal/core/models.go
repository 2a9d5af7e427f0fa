package core

import (
	"time"
)

// Vendor names used as store keys and route segments
const (
	VendorAutomotive = "automotive"
	VendorSolar      = "solar"
)

// DeviceState is the vendor-reported availability of a device
type DeviceState string

const (
	StateOnline  DeviceState = "online"
	StateAsleep  DeviceState = "asleep"
	StateOffline DeviceState = "offline"
	StateUnknown DeviceState = "unknown"
)

// ParseDeviceState maps a vendor state string onto the known states.
// Anything unrecognised degrades to StateUnknown.
func ParseDeviceState(s string) DeviceState {
	switch DeviceState(s) {
	case StateOnline, StateAsleep, StateOffline:
		return DeviceState(s)
	default:
		return StateUnknown
	}
}

// Credential holds one vendor's stored tokens and authorization metadata.
// It is only ever written by a successful code exchange or refresh for that
// vendor, and never shared between vendors.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	DeviceIDs    []string  `json:"device_ids,omitempty"`
}

// Expired reports whether the access token has passed its expiry
func (c *Credential) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && now.After(c.ExpiresAt)
}

// DeviceSummary is one entry of a vendor listing call. It is fetched fresh
// on every call and never cached.
type DeviceSummary struct {
	ID          string      `json:"id"`
	DisplayName string      `json:"display_name"`
	State       DeviceState `json:"state"`
}

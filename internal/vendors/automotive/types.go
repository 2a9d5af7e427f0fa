package automotive

import (
	json "github.com/goccy/go-json"
)

// tokenResponse is the vendor token endpoint payload for both code
// exchange and refresh
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	ExpiresIn        int    `json:"expires_in"`
	TokenType        string `json:"token_type"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// vehicleSummary is one entry of the vehicle list envelope
type vehicleSummary struct {
	IDS         string `json:"id_s"`
	VIN         string `json:"vin"`
	DisplayName string `json:"display_name"`
	State       string `json:"state"`
}

// listEnvelope wraps the vehicle list; the vendor nests every payload
// under "response"
type listEnvelope struct {
	Response []vehicleSummary `json:"response"`
	Count    int              `json:"count"`
	Error    string           `json:"error"`
}

// summaryEnvelope wraps a single vehicle summary
type summaryEnvelope struct {
	Response *vehicleSummary `json:"response"`
	Error    string          `json:"error"`
}

// dataEnvelope wraps the full vehicle data payload, which is passed
// through verbatim
type dataEnvelope struct {
	Response json.RawMessage `json:"response"`
	Error    string          `json:"error"`
}

// commandEnvelope is the double-layer command result: HTTP success with
// result=false is still a failure, and the reason string matters
type commandEnvelope struct {
	Response struct {
		Result bool   `json:"result"`
		Reason string `json:"reason"`
	} `json:"response"`
	Error string `json:"error"`
}

package solar

import (
	json "github.com/goccy/go-json"
)

// Vendor result codes. Everything other than resultCodeOK is a failure;
// resultCodeTokenInvalid is the distinguished "token invalid" code that
// triggers the single refresh-and-retry on listing calls.
const (
	resultCodeOK           = "1"
	resultCodeTokenInvalid = "010"
)

// tokenEnvelope is the token endpoint payload for both code exchange and
// refresh. The vendor nests everything under result_data and signals
// errors through the string result_code.
type tokenEnvelope struct {
	ResultCode string `json:"result_code"`
	ResultMsg  string `json:"result_msg"`
	ResultData struct {
		AccessToken  string   `json:"access_token"`
		RefreshToken string   `json:"refresh_token"`
		ExpiresIn    int      `json:"expires_in"`
		AuthPsList   []string `json:"auth_ps_list"`
	} `json:"result_data"`
}

// plantSummary is one entry of the plant list
type plantSummary struct {
	PsID     string `json:"ps_id"`
	PsName   string `json:"ps_name"`
	PsStatus int    `json:"ps_status"`
}

// listEnvelope wraps the plant list under result_data.data_list
type listEnvelope struct {
	ResultCode string `json:"result_code"`
	ResultMsg  string `json:"result_msg"`
	ResultData struct {
		DataList []plantSummary `json:"data_list"`
	} `json:"result_data"`
}

// detailEnvelope wraps the plant detail payload, passed through verbatim
type detailEnvelope struct {
	ResultCode string          `json:"result_code"`
	ResultMsg  string          `json:"result_msg"`
	ResultData json.RawMessage `json:"result_data"`
}

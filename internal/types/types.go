// Package types holds the JSON shapes of the HTTP API.
package types

import (
	"encoding/json"
	"time"
)

type CreateCampaignRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// AmountRequest carries a donate or withdraw amount. Amount is a SOL decimal
// ("0.2") unless Lamports is set, in which case it is a lamport integer. Both
// JSON numbers and strings are accepted.
type AmountRequest struct {
	Amount   json.Number `json:"amount"`
	Lamports bool        `json:"lamports,omitempty"`
}

type LookupRequest struct {
	Owners []string `json:"owners"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend,omitempty"`
	Time    string `json:"time"`
}

func NowRFC3339() string { return time.Now().UTC().Format(time.RFC3339) }

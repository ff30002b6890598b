package ecommerce

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/vinted"
)

// VintedAPIError is a Vinted response with status >= 400, as relayed by the plugin
type VintedAPIError struct {
	Op          string
	Status      int
	Code        int
	MessageCode string
	Message     string
}

func newVintedAPIError(op string, status int, body []byte) *VintedAPIError {
	e := &VintedAPIError{Op: op, Status: status}
	var payload VintedErrorBody
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		e.Code = payload.Code
		e.MessageCode = payload.MessageCode
		e.Message = payload.Message
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func (e *VintedAPIError) Error() string {
	return fmt.Sprintf("vinted: %s: HTTP %d: %s", e.Op, e.Status, e.Message)
}

// Unwrap maps 404 to vinted.ErrItemNotFound
func (e *VintedAPIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return vinted.ErrItemNotFound
	}
	return nil
}

// IsRateLimited reports a 429
func (e *VintedAPIError) IsRateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// IsSessionExpired reports that the seller's Vinted session is no longer valid
func (e *VintedAPIError) IsSessionExpired() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// Retryable implements the job handler retry classification.
// An expired session is retried: the extension renews it when the Vinted tab reloads.
func (e *VintedAPIError) Retryable() bool {
	return e.IsRateLimited() || e.IsSessionExpired() || e.Status >= http.StatusInternalServerError
}

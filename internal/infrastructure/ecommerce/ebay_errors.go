package ecommerce

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/matthiasrib29/StoFlow-sub000/internal/domain/ebay"
)

// EbayAPIError is an eBay response with status >= 400
type EbayAPIError struct {
	Op          string
	Status      int
	ErrorID     int
	Message     string
	LongMessage string
}

// eBay REST APIs return {"errors":[...]}; the OAuth endpoint returns
// {"error":"...","error_description":"..."}
type ebayErrorBody struct {
	Errors []struct {
		ErrorID     int    `json:"errorId"`
		Domain      string `json:"domain"`
		Category    string `json:"category"`
		Message     string `json:"message"`
		LongMessage string `json:"longMessage"`
	} `json:"errors"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func newEbayAPIError(op string, status int, body []byte) *EbayAPIError {
	e := &EbayAPIError{Op: op, Status: status}
	var payload ebayErrorBody
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		switch {
		case len(payload.Errors) > 0:
			first := payload.Errors[0]
			e.ErrorID = first.ErrorID
			e.Message = first.Message
			e.LongMessage = first.LongMessage
		case payload.Error != "":
			e.Message = payload.Error
			e.LongMessage = payload.ErrorDescription
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func (e *EbayAPIError) Error() string {
	if e.ErrorID != 0 {
		return fmt.Sprintf("ebay: %s: HTTP %d: %d %s", e.Op, e.Status, e.ErrorID, e.Message)
	}
	return fmt.Sprintf("ebay: %s: HTTP %d: %s", e.Op, e.Status, e.Message)
}

// Unwrap maps 404 to ebay.ErrResourceNotFound
func (e *EbayAPIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return ebay.ErrResourceNotFound
	}
	return nil
}

// Retryable implements the job handler retry classification: 429 and 5xx
func (e *EbayAPIError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

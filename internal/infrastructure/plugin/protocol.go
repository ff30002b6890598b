// Package plugin bridges backend calls to the Stoflow browser extension over a
// WebSocket. The extension executes requests inside the seller's Vinted session
// and answers on the same socket, correlated by request id.
package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Frame types
const (
	FrameRequest  = "request"
	FrameResponse = "response"
	FrameHello    = "hello"
)

// Request kinds
const (
	KindAPIRequest  = "api_request"
	KindUploadPhoto = "upload_photo"
)

// PluginRequest is a call executed by the extension
type PluginRequest struct {
	Kind   string            `json:"kind"`
	Method string            `json:"method,omitempty"`
	Path   string            `json:"path,omitempty"`
	Query  map[string]string `json:"query,omitempty"`
	Body   any               `json:"body,omitempty"`
	// ImageURL is the picture to upload for KindUploadPhoto
	ImageURL string `json:"image_url,omitempty"`
}

// Operation names the request for logs and metrics
func (r PluginRequest) Operation() string {
	if r.Kind == KindUploadPhoto {
		return KindUploadPhoto
	}
	return r.Method + " " + r.Path
}

// PluginResponse is the extension's answer. Status is the HTTP status Vinted returned.
type PluginResponse struct {
	RequestID string          `json:"request_id"`
	Status    int             `json:"status"`
	Body      json.RawMessage `json:"body,omitempty"`
	// Error is set when the extension could not execute the request at all
	Error string `json:"error,omitempty"`
}

// Decode unmarshals the response body into v
func (r *PluginResponse) Decode(v any) error {
	if len(r.Body) == 0 {
		return errors.New("plugin: empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("plugin: decode response: %w", err)
	}
	return nil
}

// outbound frame
type requestFrame struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
	PluginRequest
}

// inbound frame; responses carry the PluginResponse fields inline
type inboundFrame struct {
	Type string `json:"type"`
	PluginResponse
	Version string `json:"version,omitempty"`
}

package plugin

import "errors"

var (
	// ErrPluginNotConnected is returned when the user has no plugin session
	ErrPluginNotConnected = errors.New("plugin: not connected")
	// ErrPluginTimeout is returned when no response arrived in time
	ErrPluginTimeout = errors.New("plugin: request timed out")
	// ErrPluginDisconnected is returned when the session dropped while waiting
	ErrPluginDisconnected = errors.New("plugin: disconnected")
	// ErrPluginFailed is returned when the extension reports it could not run the request
	ErrPluginFailed = errors.New("plugin: request failed")
)

// PluginError wraps a bridge failure. All bridge failures are transient from
// the job's point of view: the user may reconnect the extension.
type PluginError struct {
	Op  string
	Err error
}

func (e *PluginError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PluginError) Unwrap() error { return e.Err }

// Retryable implements the job handler retry classification
func (e *PluginError) Retryable() bool { return true }

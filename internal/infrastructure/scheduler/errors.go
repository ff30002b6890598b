package scheduler

import "errors"

var (
	// ErrInvalidConfig is returned when the runner configuration is invalid
	ErrInvalidConfig = errors.New("invalid scheduler configuration")

	// errJobCancelled is the cancellation cause set by the cancellation watcher
	errJobCancelled = errors.New("job cancelled")
)

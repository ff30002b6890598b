package job

// Status is the lifecycle state of a marketplace job
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// AllStatuses lists every job status
func AllStatuses() []Status {
	return []Status{StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled, StatusExpired}
}

// IsValid checks the status code
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusRunning, StatusCompleted, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// IsFinal reports whether no further transition is possible without an explicit retry
func (s Status) IsFinal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusExpired:
		return true
	}
	return false
}

// IsActive is the opposite of IsFinal
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusRunning
}

func (s Status) String() string {
	return string(s)
}

// TerminalStatuses lists the final statuses
func TerminalStatuses() []Status {
	return []Status{StatusCompleted, StatusFailed, StatusCancelled, StatusExpired}
}

// BatchStatus is the aggregated state of a batch
type BatchStatus string

const (
	BatchStatusPending         BatchStatus = "PENDING"
	BatchStatusRunning         BatchStatus = "RUNNING"
	BatchStatusCompleted       BatchStatus = "COMPLETED"
	BatchStatusPartiallyFailed BatchStatus = "PARTIALLY_FAILED"
	BatchStatusFailed          BatchStatus = "FAILED"
	BatchStatusCancelled       BatchStatus = "CANCELLED"
)

// IsFinal reports whether the batch has settled
func (s BatchStatus) IsFinal() bool {
	switch s {
	case BatchStatusCompleted, BatchStatusPartiallyFailed, BatchStatusFailed, BatchStatusCancelled:
		return true
	}
	return false
}

func (s BatchStatus) String() string {
	return string(s)
}

// IsValid checks the batch status code
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchStatusPending, BatchStatusRunning, BatchStatusCompleted,
		BatchStatusPartiallyFailed, BatchStatusFailed, BatchStatusCancelled:
		return true
	}
	return false
}

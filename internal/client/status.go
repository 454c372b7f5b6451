package client

import (
	"encoding/json"
	"strings"
)

// Status is a delivery's lifecycle state. The backend sends upper-case
// names; they are normalized on decode and anything unrecognized becomes
// StatusUnknown.
type Status string

const (
	StatusPending      Status = "pending"
	StatusInProgress   Status = "in_progress"
	StatusPendingRetry Status = "pending_retry"
	StatusCompleted    Status = "completed"
	StatusFailed       Status = "failed"
	StatusUnknown      Status = "unknown"
)

// ParseStatus normalizes a backend status string.
func ParseStatus(s string) Status {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending
	case StatusInProgress:
		return StatusInProgress
	case StatusPendingRetry:
		return StatusPendingRetry
	case StatusCompleted:
		return StatusCompleted
	case StatusFailed:
		return StatusFailed
	default:
		return StatusUnknown
	}
}

// Terminal reports whether no further delivery attempts will happen.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Retryable reports whether a manual retry makes sense. Deliveries still
// pending or in flight are left to the backend.
func (s Status) Retryable() bool {
	return s == StatusFailed || s == StatusPendingRetry
}

// Label is the upper-case wire form, e.g. "PENDING_RETRY".
func (s Status) Label() string {
	if s == "" {
		return strings.ToUpper(string(StatusUnknown))
	}
	return strings.ToUpper(string(s))
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*s = StatusUnknown
		return nil
	}
	*s = ParseStatus(raw)
	return nil
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Label())
}

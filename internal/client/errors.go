package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidSubscription is returned by request validation before anything
// is sent.
var ErrInvalidSubscription = errors.New("invalid subscription")

// TransportError reports a network failure or a non-2xx response.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int

	// Detail is the backend's "detail" message, verbatim.
	Detail string

	Err error
}

func (e *TransportError) Error() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	default:
		return fmt.Sprintf("%s %s: unexpected status %d", e.Method, e.URL, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.StatusCode == 404
}

// parseDetail extracts "detail" from an error body. String details are
// returned as-is; structured ones (validation errors) as their JSON text.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(envelope.Detail, &text); err == nil {
		return text
	}
	if string(envelope.Detail) == "null" {
		return ""
	}
	return string(envelope.Detail)
}

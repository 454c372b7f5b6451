package trigger

import (
	"encoding/json"
	"errors"
	"net/http"
)

var (
	// ErrInvalidTarget is returned when the base URL or subscription id
	// cannot address an ingestion endpoint.
	ErrInvalidTarget = errors.New("trigger: base URL and a positive subscription id are required")

	// ErrEventTypeRequired is returned when no event type is given.
	ErrEventTypeRequired = errors.New("trigger: event type is required")
)

// IngestPath is the ingestion route prefix; the subscription id follows it.
const IngestPath = "/webhooks/ingest/"

// Params describes one manual trigger.
type Params struct {
	// BaseURL is the delivery service API root, e.g. "http://localhost:8000".
	BaseURL        string
	SubscriptionID int64
	EventType      string

	// Payload is any JSON value: a Go value, JSON text, or raw JSON bytes.
	Payload any

	// Secret keys the signature. It is not retained in the SignedRequest.
	Secret string
}

// Envelope is the request body accepted by the ingestion endpoint.
type Envelope struct {
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// SignedRequest is a fully assembled ingestion request.
type SignedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte

	// Signature is the bare hex digest over the canonical payload.
	Signature string

	SubscriptionID int64
	EventType      string
}

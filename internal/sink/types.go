package sink

import (
	"encoding/json"
	"time"

	"github.com/mattjoyce/hookctl/internal/storage"
)

// Response messages, matching the delivery service.
const (
	msgAccepted            = "Webhook accepted"
	msgNotSubscribed       = "Event type not subscribed"
	msgSubscriptionMissing = "Subscription not found"
	msgDeliveryMissing     = "Delivery not found"
	msgTooLarge            = "Payload too large"
	msgInvalidBody         = "Invalid request body"
	msgSignatureRequired   = "Signature required"
	msgInvalidSignature    = "Invalid signature"
	msgInternal            = "Internal server error"
)

// ingestRequest is the body of POST /webhooks/ingest/{id}. Payload must be
// a JSON object; event_type may be omitted.
type ingestRequest struct {
	EventType *string         `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

type ingestResponse struct {
	Message    string `json:"message"`
	DeliveryID *int64 `json:"delivery_id,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// deliveryView renders a capture in the delivery service's delivery shape,
// so client.Delivery decodes it unchanged.
type deliveryView struct {
	ID             int64           `json:"id"`
	CaptureID      string          `json:"capture_id"`
	SubscriptionID int64           `json:"subscription_id"`
	Status         string          `json:"status"`
	EventType      string          `json:"event_type"`
	AttemptCount   int             `json:"attempt_count"`
	CreatedAt      string          `json:"created_at"`
	LastAttempt    string          `json:"last_attempt"`
	NextRetry      *string         `json:"next_retry"`
	Payload        json.RawMessage `json:"payload,omitempty"`
	Signature      string          `json:"signature,omitempty"`
	Attempts       []attemptView   `json:"attempts"`
}

type attemptView struct {
	AttemptNumber int    `json:"attempt_number"`
	Timestamp     string `json:"timestamp"`
	StatusCode    int    `json:"status_code"`
	Outcome       string `json:"outcome"`
}

func newDeliveryView(c storage.Capture, detailed bool) deliveryView {
	ts := c.CreatedAt.UTC().Format(time.RFC3339Nano)
	v := deliveryView{
		ID:             c.ID,
		CaptureID:      c.CaptureID,
		SubscriptionID: c.SubscriptionID,
		Status:         "COMPLETED",
		EventType:      c.EventType,
		AttemptCount:   1,
		CreatedAt:      ts,
		LastAttempt:    ts,
		Attempts:       []attemptView{},
	}
	if detailed {
		v.Payload = c.Payload
		v.Signature = c.Signature
		v.Attempts = []attemptView{{AttemptNumber: 1, Timestamp: ts, StatusCode: 202, Outcome: "success"}}
	}
	return v
}

package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Timestamp accepts the backend's ISO-8601 variants, with or without zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) *Timestamp {
	return &Timestamp{Time: t}
}

// Subscription is a registered webhook target.
type Subscription struct {
	ID         int64      `json:"id"`
	TargetURL  string     `json:"target_url"`
	EventTypes []string   `json:"event_types"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  Timestamp  `json:"created_at"`
	UpdatedAt  *Timestamp `json:"updated_at"`
}

// SubscriptionCreate is the body of POST /subscriptions/.
type SubscriptionCreate struct {
	TargetURL  string   `json:"target_url"`
	SecretKey  string   `json:"secret_key"`
	EventTypes []string `json:"event_types"`
}

// Validate applies the checks the backend would reject anyway.
func (s SubscriptionCreate) Validate() error {
	if err := validateTargetURL(s.TargetURL); err != nil {
		return err
	}
	if s.SecretKey == "" {
		return fmt.Errorf("%w: secret_key is required", ErrInvalidSubscription)
	}
	if len(s.EventTypes) == 0 {
		return fmt.Errorf("%w: at least one event type is required", ErrInvalidSubscription)
	}
	return nil
}

// SubscriptionUpdate is the body of PUT /subscriptions/{id}.
type SubscriptionUpdate struct {
	TargetURL  string   `json:"target_url"`
	EventTypes []string `json:"event_types,omitempty"`
}

// Validate checks the target URL.
func (s SubscriptionUpdate) Validate() error {
	return validateTargetURL(s.TargetURL)
}

func validateTargetURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: target_url must be an absolute http(s) URL", ErrInvalidSubscription)
	}
	return nil
}

// Delivery is one ingested event and its delivery progress.
type Delivery struct {
	ID             int64             `json:"id"`
	SubscriptionID int64             `json:"subscription_id"`
	Status         Status            `json:"status"`
	EventType      string            `json:"event_type"`
	AttemptCount   int               `json:"attempt_count"`
	CreatedAt      *Timestamp        `json:"created_at,omitempty"`
	LastAttempt    *Timestamp        `json:"last_attempt"`
	NextRetry      *Timestamp        `json:"next_retry"`
	Payload        json.RawMessage   `json:"payload,omitempty"`
	Attempts       []DeliveryAttempt `json:"attempts,omitempty"`
}

// DeliveryAttempt is a single POST to the subscription's target.
type DeliveryAttempt struct {
	AttemptNumber int        `json:"attempt_number"`
	Timestamp     *Timestamp `json:"timestamp"`
	StatusCode    *int       `json:"status_code"`
	Outcome       string     `json:"outcome"`
	ErrorDetails  *string    `json:"error_details,omitempty"`
}

// IngestResult is the ingestion endpoint's response.
type IngestResult struct {
	Message    string `json:"message"`
	DeliveryID *int64 `json:"delivery_id,omitempty"`
}

// Accepted reports whether the backend created a delivery. Filtered event
// types are acknowledged without one.
func (r IngestResult) Accepted() bool {
	return r.DeliveryID != nil
}

// Health is the body of GET /health.
type Health struct {
	Status string `json:"status"`
}

// SubscriptionSummary pairs a subscription with its most recent deliveries.
type SubscriptionSummary struct {
	Subscription Subscription
	Deliveries   []Delivery
}

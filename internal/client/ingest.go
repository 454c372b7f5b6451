package client

import (
	"context"
	"errors"
	"strings"

	"github.com/mattjoyce/hookctl/internal/trigger"
)

// Ingest sends a signed request exactly once. The request's own URL is
// used, so it must have been built against this client's base URL or
// another reachable one.
func (c *Client) Ingest(ctx context.Context, sr *trigger.SignedRequest) (*IngestResult, error) {
	if sr == nil {
		return nil, errors.New("ingest: nil request")
	}

	req, err := sr.HTTPRequest(ctx)
	if err != nil {
		return nil, &TransportError{Method: sr.Method, URL: sr.URL, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	var result IngestResult
	if err := c.send(req, &result); err != nil {
		return nil, err
	}

	logger := c.logger.With("subscription_id", sr.SubscriptionID, "event_type", sr.EventType)
	if result.DeliveryID != nil {
		logger.Info("webhook accepted", "delivery_id", *result.DeliveryID)
	} else {
		logger.Info("webhook acknowledged", "message", strings.TrimSpace(result.Message))
	}
	return &result, nil
}

// Trigger builds a signed request against this client's base URL and sends it.
func (c *Client) Trigger(ctx context.Context, p trigger.Params) (*trigger.SignedRequest, *IngestResult, error) {
	if p.BaseURL == "" {
		p.BaseURL = c.baseURL
	}
	sr, err := trigger.Build(p)
	if err != nil {
		return nil, nil, err
	}
	result, err := c.Ingest(ctx, sr)
	return sr, result, err
}

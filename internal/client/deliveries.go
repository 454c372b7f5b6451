package client

import (
	"context"
	"fmt"
	"net/http"
)

// ListDeliveries returns every delivery the service knows about.
func (c *Client) ListDeliveries(ctx context.Context) ([]Delivery, error) {
	var deliveries []Delivery
	if err := c.do(ctx, http.MethodGet, "/webhooks/deliveries", nil, &deliveries); err != nil {
		return nil, err
	}
	return deliveries, nil
}

// GetDelivery fetches one delivery with its attempt log.
func (c *Client) GetDelivery(ctx context.Context, id int64) (*Delivery, error) {
	var d Delivery
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/webhooks/deliveries/%d", id), nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// RetryDelivery asks the service to re-queue a delivery. The response
// message is returned as-is.
func (c *Client) RetryDelivery(ctx context.Context, id int64) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/webhooks/deliveries/%d/retry", id), nil, &resp); err != nil {
		return "", err
	}
	c.logger.Info("delivery retry requested", "delivery_id", id)
	return resp.Message, nil
}

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// ListSubscriptions pages through registered subscriptions.
func (c *Client) ListSubscriptions(ctx context.Context, skip, limit int) ([]Subscription, error) {
	q := url.Values{}
	q.Set("skip", strconv.Itoa(max(skip, 0)))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var subs []Subscription
	if err := c.do(ctx, http.MethodGet, "/subscriptions/?"+q.Encode(), nil, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// CreateSubscription validates s and registers it.
func (c *Client) CreateSubscription(ctx context.Context, s SubscriptionCreate) (*Subscription, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var created Subscription
	if err := c.do(ctx, http.MethodPost, "/subscriptions/", s, &created); err != nil {
		return nil, err
	}
	c.logger.Info("subscription created", "subscription_id", created.ID, "target_url", created.TargetURL)
	return &created, nil
}

// GetSubscription fetches one subscription.
func (c *Client) GetSubscription(ctx context.Context, id int64) (*Subscription, error) {
	var sub Subscription
	if err := c.do(ctx, http.MethodGet, subscriptionPath(id), nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSubscription replaces the target URL and, when given, the event types.
func (c *Client) UpdateSubscription(ctx context.Context, id int64, u SubscriptionUpdate) (*Subscription, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	var sub Subscription
	if err := c.do(ctx, http.MethodPut, subscriptionPath(id), u, &sub); err != nil {
		return nil, err
	}
	c.logger.Info("subscription updated", "subscription_id", id)
	return &sub, nil
}

// DeleteSubscription removes a subscription.
func (c *Client) DeleteSubscription(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, subscriptionPath(id), nil, nil); err != nil {
		return err
	}
	c.logger.Info("subscription deleted", "subscription_id", id)
	return nil
}

// RecentDeliveries lists the latest deliveries for one subscription.
func (c *Client) RecentDeliveries(ctx context.Context, id int64, limit int) ([]Delivery, error) {
	path := subscriptionPath(id) + "/recent-deliveries"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var deliveries []Delivery
	if err := c.do(ctx, http.MethodGet, path, nil, &deliveries); err != nil {
		return nil, err
	}
	return deliveries, nil
}

func subscriptionPath(id int64) string {
	return fmt.Sprintf("/subscriptions/%d", id)
}

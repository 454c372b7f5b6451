package client

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// overviewParallelism bounds concurrent recent-deliveries fetches.
const overviewParallelism = 4

// Overview lists the first page of subscriptions and fetches each one's
// recent deliveries concurrently. Results keep the subscription order.
// The first failure cancels the remaining fetches.
func (c *Client) Overview(ctx context.Context, limit int) ([]SubscriptionSummary, error) {
	subs, err := c.ListSubscriptions(ctx, 0, 0)
	if err != nil {
		return nil, err
	}

	out := make([]SubscriptionSummary, len(subs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(overviewParallelism)

	for i, sub := range subs {
		out[i].Subscription = sub
		g.Go(func() error {
			deliveries, err := c.RecentDeliveries(gctx, sub.ID, limit)
			if err != nil {
				return err
			}
			out[i].Deliveries = deliveries
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mattjoyce/hookctl/internal/signing"
	"github.com/mattjoyce/hookctl/internal/trigger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL + "/")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListSubscriptions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/subscriptions/", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("skip"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		io.WriteString(w, `[{"id":1,"target_url":"https://a.example/hook","event_types":["order.shipped"],"is_active":true,"created_at":"2024-05-01T12:00:00.123456","updated_at":null}]`)
	})

	subs, err := c.ListSubscriptions(context.Background(), 5, 10)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, int64(1), subs[0].ID)
	assert.Equal(t, []string{"order.shipped"}, subs[0].EventTypes)
	assert.True(t, subs[0].IsActive)
	assert.Equal(t, 2024, subs[0].CreatedAt.Year())
	assert.Nil(t, subs[0].UpdatedAt)
}

func TestCreateSubscription(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body SubscriptionCreate
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "topsecret", body.SecretKey)

		writeJSON(w, http.StatusCreated, map[string]any{
			"id": 7, "target_url": body.TargetURL, "event_types": body.EventTypes,
			"is_active": true, "created_at": "2024-05-01T12:00:00Z",
		})
	})

	sub, err := c.CreateSubscription(context.Background(), SubscriptionCreate{
		TargetURL:  "https://a.example/hook",
		SecretKey:  "topsecret",
		EventTypes: []string{"order.shipped"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), sub.ID)
}

func TestCreateSubscription_ValidatesBeforeSending(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	tests := []struct {
		name string
		in   SubscriptionCreate
	}{
		{"relative url", SubscriptionCreate{TargetURL: "/hook", SecretKey: "s", EventTypes: []string{"a"}}},
		{"ftp url", SubscriptionCreate{TargetURL: "ftp://a.example", SecretKey: "s", EventTypes: []string{"a"}}},
		{"missing secret", SubscriptionCreate{TargetURL: "https://a.example", EventTypes: []string{"a"}}},
		{"no event types", SubscriptionCreate{TargetURL: "https://a.example", SecretKey: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateSubscription(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrInvalidSubscription)
		})
	}
	assert.Zero(t, calls.Load())
}

func TestUpdateAndDeleteSubscription(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/subscriptions/3", r.URL.Path)
		switch r.Method {
		case http.MethodPut:
			var body map[string]any
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "https://b.example/hook", body["target_url"])
			assert.NotContains(t, body, "event_types")
			writeJSON(w, http.StatusOK, map[string]any{"id": 3, "target_url": body["target_url"], "created_at": "2024-05-01T12:00:00Z"})
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	})

	sub, err := c.UpdateSubscription(context.Background(), 3, SubscriptionUpdate{TargetURL: "https://b.example/hook"})
	require.NoError(t, err)
	assert.Equal(t, "https://b.example/hook", sub.TargetURL)

	require.NoError(t, c.DeleteSubscription(context.Background(), 3))
}

func TestTransportError_Detail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"string detail", http.StatusNotFound, `{"detail":"Subscription not found"}`, "Subscription not found"},
		{"structured detail", http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","target_url"],"msg":"invalid"}]}`, `[{"loc":["body","target_url"],"msg":"invalid"}]`},
		{"no detail", http.StatusInternalServerError, `oops`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := c.GetSubscription(context.Background(), 99)
			var te *TransportError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.status, te.StatusCode)
			assert.Equal(t, tt.wantDetail, te.Detail)
			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, err.Error())
			} else {
				assert.Contains(t, err.Error(), "unexpected status")
			}
			assert.Equal(t, tt.status == http.StatusNotFound, IsNotFound(err))
		})
	}
}

func TestTransportError_Network(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url, WithTimeout(time.Second)).Health(context.Background())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
	assert.Error(t, errors.Unwrap(err))
}

func TestDeliveries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/webhooks/deliveries":
			io.WriteString(w, `[{"id":1,"subscription_id":2,"status":"PENDING_RETRY","event_type":"a","attempt_count":2,"last_attempt":"2024-05-01T12:00:00","next_retry":"2024-05-01T12:05:00+00:00"}]`)
		case r.Method == http.MethodGet && r.URL.Path == "/webhooks/deliveries/1":
			io.WriteString(w, `{"id":1,"subscription_id":2,"status":"failed","event_type":"a","attempt_count":1,"attempts":[{"attempt_number":1,"timestamp":"2024-05-01T12:00:00","status_code":500,"outcome":"failed","error_details":"boom"}]}`)
		case r.Method == http.MethodPost && r.URL.Path == "/webhooks/deliveries/1/retry":
			io.WriteString(w, `{"message":"Delivery 1 queued for retry"}`)
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	list, err := c.ListDeliveries(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, StatusPendingRetry, list[0].Status)
	require.NotNil(t, list[0].NextRetry)
	assert.Equal(t, 5, list[0].NextRetry.Minute())

	d, err := c.GetDelivery(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, d.Status)
	require.Len(t, d.Attempts, 1)
	require.NotNil(t, d.Attempts[0].StatusCode)
	assert.Equal(t, 500, *d.Attempts[0].StatusCode)

	msg, err := c.RetryDelivery(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Delivery 1 queued for retry", msg)
}

func TestIngest(t *testing.T) {
	var gotSig, gotBody string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webhooks/ingest/4", r.URL.Path)
		gotSig = r.Header.Get(signing.HeaderName)
		data, _ := io.ReadAll(r.Body)
		gotBody = string(data)
		writeJSON(w, http.StatusAccepted, map[string]any{"message": "Webhook accepted", "delivery_id": 12})
	})

	sr, result, err := c.Trigger(context.Background(), trigger.Params{
		SubscriptionID: 4,
		EventType:      "order.shipped",
		Payload:        `{"status":"shipped","order_id":42}`,
		Secret:         "topsecret",
	})
	require.NoError(t, err)
	assert.True(t, result.Accepted())
	assert.Equal(t, int64(12), *result.DeliveryID)
	assert.Equal(t, signing.FormatHeader(sr.Signature), gotSig)
	assert.Equal(t, `{"event_type":"order.shipped","payload":{"order_id":42,"status":"shipped"}}`, gotBody)
}

func TestIngest_NotSubscribed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Event type not subscribed"})
	})

	_, result, err := c.Trigger(context.Background(), trigger.Params{
		SubscriptionID: 4, EventType: "other", Payload: `{}`, Secret: "s",
	})
	require.NoError(t, err)
	assert.False(t, result.Accepted())
	assert.Equal(t, "Event type not subscribed", result.Message)
}

func TestIngest_SingleAttempt(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Invalid signature"})
	})

	_, _, err := c.Trigger(context.Background(), trigger.Params{
		SubscriptionID: 4, EventType: "a", Payload: `{}`, Secret: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, "Invalid signature", err.Error())
	assert.Equal(t, int32(1), calls.Load())
}

func TestOverview(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/subscriptions/":
			io.WriteString(w, `[{"id":1,"target_url":"https://a","created_at":"2024-05-01T12:00:00"},{"id":2,"target_url":"https://b","created_at":"2024-05-01T12:00:00"}]`)
		case "/subscriptions/1/recent-deliveries":
			assert.Equal(t, "3", r.URL.Query().Get("limit"))
			io.WriteString(w, `[{"id":10,"subscription_id":1,"status":"COMPLETED"}]`)
		case "/subscriptions/2/recent-deliveries":
			io.WriteString(w, `[]`)
		default:
			http.NotFound(w, r)
		}
	})

	summaries, err := c.Overview(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, int64(1), summaries[0].Subscription.ID)
	require.Len(t, summaries[0].Deliveries, 1)
	assert.Equal(t, StatusCompleted, summaries[0].Deliveries[0].Status)
	assert.Empty(t, summaries[1].Deliveries)
}

func TestOverview_PropagatesError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/subscriptions/":
			io.WriteString(w, `[{"id":1,"target_url":"https://a","created_at":"2024-05-01T12:00:00"}]`)
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "database unavailable"})
		}
	})

	_, err := c.Overview(context.Background(), 5)
	require.Error(t, err)
	assert.Equal(t, "database unavailable", err.Error())
}

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"COMPLETED":     StatusCompleted,
		"pending_retry": StatusPendingRetry,
		"In_Progress":   StatusInProgress,
		"PENDING":       StatusPending,
		"failed":        StatusFailed,
		"exploded":      StatusUnknown,
		"":              StatusUnknown,
	}
	keys := make([]string, 0, len(tests))
	for k := range tests {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, in := range keys {
		assert.Equal(t, tests[in], ParseStatus(in), "ParseStatus(%q)", in)
	}

	data, err := json.Marshal(StatusPendingRetry)
	require.NoError(t, err)
	assert.Equal(t, `"PENDING_RETRY"`, string(data))
	assert.True(t, StatusFailed.Terminal())
	assert.False(t, StatusPendingRetry.Terminal())

	assert.True(t, StatusFailed.Retryable())
	assert.True(t, StatusPendingRetry.Retryable())
	for _, s := range []Status{StatusPending, StatusInProgress, StatusCompleted, StatusUnknown} {
		assert.False(t, s.Retryable(), s)
	}
}

func TestTimestamp_Unmarshal(t *testing.T) {
	for _, in := range []string{
		`"2024-05-01T12:00:00Z"`,
		`"2024-05-01T12:00:00.5+02:00"`,
		`"2024-05-01T12:00:00"`,
		`"2024-05-01T12:00:00.123456"`,
		`"2024-05-01 12:00:00"`,
	} {
		var ts Timestamp
		require.NoError(t, json.Unmarshal([]byte(in), &ts), in)
		assert.Equal(t, 2024, ts.Year(), in)
	}

	var ts Timestamp
	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
}

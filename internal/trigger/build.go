package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/mattjoyce/hookctl/internal/signing"
)

// Build assembles a signed ingestion request.
//
// The signature covers the canonical payload only, not the envelope. On
// error the returned request is nil.
func Build(p Params) (*SignedRequest, error) {
	base := strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if base == "" || p.SubscriptionID <= 0 {
		return nil, ErrInvalidTarget
	}

	eventType := strings.TrimSpace(p.EventType)
	if eventType == "" {
		return nil, ErrEventTypeRequired
	}

	signed, err := signing.SignPayload(p.Payload, p.Secret)
	if err != nil {
		return nil, err
	}

	body, err := encodeEnvelope(Envelope{
		EventType: eventType,
		Payload:   json.RawMessage(signed.Canonical),
	})
	if err != nil {
		return nil, fmt.Errorf("encode request body: %w", err)
	}

	header := make(http.Header)
	header.Set("Content-Type", "application/json")
	header.Set(signing.HeaderName, signing.FormatHeader(signed.Signature))

	return &SignedRequest{
		Method:         http.MethodPost,
		URL:            base + IngestPath + strconv.FormatInt(p.SubscriptionID, 10),
		Header:         header,
		Body:           body,
		Signature:      signed.Signature,
		SubscriptionID: p.SubscriptionID,
		EventType:      eventType,
	}, nil
}

// HTTPRequest returns a new *http.Request carrying the same method, URL,
// headers and body.
func (r *SignedRequest) HTTPRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bytes.NewReader(r.Body))
	if err != nil {
		return nil, fmt.Errorf("create ingest request: %w", err)
	}
	req.Header = r.Header.Clone()
	return req, nil
}

// Curl renders the request as a copy-pasteable curl command. The body is
// the exact byte sequence that would be sent.
func (r *SignedRequest) Curl() string {
	var b strings.Builder
	fmt.Fprintf(&b, "curl -X %s %s \\\n", r.Method, shellQuote(r.URL))

	names := make([]string, 0, len(r.Header))
	for name := range r.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range r.Header.Values(name) {
			fmt.Fprintf(&b, "  -H %s \\\n", shellQuote(name+": "+value))
		}
	}

	fmt.Fprintf(&b, "  -d %s", shellQuote(string(r.Body)))
	return b.String()
}

func encodeEnvelope(env Envelope) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(env); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// shellQuote wraps s in single quotes for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

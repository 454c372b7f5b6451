package signing

import (
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HMAC-SHA256 of {"order_id":42,"status":"shipped"} keyed by "topsecret".
const orderShippedSignature = "04465016ce664d40a2b7a9def3af47732d846e1f90ffe46a59d54a5baf75c808"

func TestSign_KnownVector(t *testing.T) {
	sig, err := Sign(`{"order_id": 42, "status": "shipped"}`, "topsecret")
	require.NoError(t, err)
	assert.Equal(t, orderShippedSignature, sig)
	assert.Len(t, sig, 64)
	assert.Equal(t, strings.ToLower(sig), sig)
}

func TestSign_Deterministic(t *testing.T) {
	payload := map[string]any{"order_id": 42, "status": "shipped", "items": []any{"a", "b"}}

	first, err := Sign(payload, "topsecret")
	require.NoError(t, err)
	second, err := Sign(payload, "topsecret")
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSign_FormattingIndependent(t *testing.T) {
	compact := `{"a":1,"b":2}`
	pretty := "{\n  \"b\" : 2,\n\n  \"a\": 1\n}\n"

	want, err := Sign(compact, "s3cret")
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload any
	}{
		{name: "pretty printed", payload: pretty},
		{name: "raw bytes", payload: []byte(pretty)},
		{name: "map", payload: map[string]int{"b": 2, "a": 1}},
		{name: "struct", payload: struct {
			B int `json:"b"`
			A int `json:"a"`
		}{B: 2, A: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sign(tt.payload, "s3cret")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestSign_Sensitivity(t *testing.T) {
	base, err := Sign(`{"order_id":42,"status":"shipped"}`, "topsecret")
	require.NoError(t, err)

	tamperedPayload, err := Sign(`{"order_id":43,"status":"shipped"}`, "topsecret")
	require.NoError(t, err)
	assert.NotEqual(t, base, tamperedPayload)

	tamperedSecret, err := Sign(`{"order_id":42,"status":"shipped"}`, "topsecreT")
	require.NoError(t, err)
	assert.NotEqual(t, base, tamperedSecret)
}

func TestSign_Errors(t *testing.T) {
	tests := []struct {
		name          string
		payload       any
		secret        string
		wantPayload   bool
		wantSecretErr bool
	}{
		{name: "malformed json", payload: "{not json", secret: "s", wantPayload: true},
		{name: "empty document", payload: "", secret: "s", wantPayload: true},
		{name: "trailing data", payload: `{"a":1} {"b":2}`, secret: "s", wantPayload: true},
		{name: "trailing garbage", payload: `[1,2]]`, secret: "s", wantPayload: true},
		{name: "unmarshalable value", payload: map[string]any{"f": func() {}}, secret: "s", wantPayload: true},
		{name: "empty secret", payload: `{"a":1}`, secret: "", wantSecretErr: true},
		{name: "empty secret wins over bad payload", payload: "{not json", secret: "", wantSecretErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := Sign(tt.payload, tt.secret)
			require.Error(t, err)
			assert.Empty(t, sig)

			var payloadErr *InvalidPayloadError
			var secretErr *InvalidSecretError
			assert.Equal(t, tt.wantPayload, errors.As(err, &payloadErr), "InvalidPayloadError: %v", err)
			assert.Equal(t, tt.wantSecretErr, errors.As(err, &secretErr), "InvalidSecretError: %v", err)
		})
	}
}

func TestSignCanonical_MatchesSign(t *testing.T) {
	signed, err := SignPayload(`{ "status": "shipped", "order_id": 42 }`, "topsecret")
	require.NoError(t, err)
	assert.Equal(t, `{"order_id":42,"status":"shipped"}`, string(signed.Canonical))

	sig, err := SignCanonical(signed.Canonical, "topsecret")
	require.NoError(t, err)
	assert.Equal(t, signed.Signature, sig)
	assert.Equal(t, orderShippedSignature, sig)

	_, err = SignCanonical(signed.Canonical, "")
	var secretErr *InvalidSecretError
	assert.ErrorAs(t, err, &secretErr)
}

func TestVerify(t *testing.T) {
	secret := "test-secret-key"
	payload := `{"event":"push","repository":"test"}`

	expectedSig, err := Sign(payload, secret)
	require.NoError(t, err)

	tests := []struct {
		name      string
		payload   any
		signature string
		secret    string
		wantErr   bool
	}{
		{
			name:      "valid signature - plain hex",
			payload:   payload,
			signature: expectedSig,
			secret:    secret,
		},
		{
			name:      "valid signature - header format",
			payload:   payload,
			signature: FormatHeader(expectedSig),
			secret:    secret,
		},
		{
			name:      "valid signature - reformatted payload",
			payload:   "{\"repository\": \"test\", \"event\": \"push\"}",
			signature: FormatHeader(expectedSig),
			secret:    secret,
		},
		{
			name:      "invalid signature - wrong signature",
			payload:   payload,
			signature: "sha256=" + strings.Repeat("0", 64),
			secret:    secret,
			wantErr:   true,
		},
		{
			name:      "invalid signature - tampered payload",
			payload:   `{"event":"push","repository":"hacked"}`,
			signature: expectedSig,
			secret:    secret,
			wantErr:   true,
		},
		{
			name:      "invalid signature - wrong secret",
			payload:   payload,
			signature: expectedSig,
			secret:    "wrong-secret",
			wantErr:   true,
		},
		{
			name:      "invalid signature - empty signature",
			payload:   payload,
			signature: "",
			secret:    secret,
			wantErr:   true,
		},
		{
			name:      "invalid signature - malformed hex",
			payload:   payload,
			signature: "sha256=not-valid-hex",
			secret:    secret,
			wantErr:   true,
		},
		{
			name:      "invalid signature - unparseable payload",
			payload:   "{nope",
			signature: expectedSig,
			secret:    secret,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.payload, tt.secret, tt.signature)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			// All failures are the same generic error.
			assert.ErrorIs(t, err, ErrVerification)
		})
	}
}

func TestVerify_EmptySecret(t *testing.T) {
	err := Verify(`{"a":1}`, "", "sha256=00")
	var secretErr *InvalidSecretError
	assert.ErrorAs(t, err, &secretErr)
}

func TestParseSignature(t *testing.T) {
	const hexSig = "3a8f7b2c1d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0c1d2e3f4a5b6c7d8e9f0a"

	tests := []struct {
		name      string
		signature string
		wantErr   bool
	}{
		{name: "sha256 prefix", signature: "sha256=" + hexSig},
		{name: "plain hex", signature: hexSig},
		{name: "surrounding whitespace", signature: "  sha256=" + hexSig + " "},
		{name: "invalid hex", signature: "not-valid-hex", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSignature(tt.signature)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, hexSig, hex.EncodeToString(got))
		})
	}
}

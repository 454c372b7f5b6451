package signing

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{
			name:    "sorts keys recursively",
			payload: `{"z":{"b":1,"a":2},"a":[{"y":1,"x":2}]}`,
			want:    `{"a":[{"x":2,"y":1}],"z":{"a":2,"b":1}}`,
		},
		{
			name:    "strips whitespace",
			payload: "\n\t{ \"a\" : [ 1 , 2 ] }\n",
			want:    `{"a":[1,2]}`,
		},
		{
			name:    "keeps large integers exact",
			payload: `{"n":12345678901234567890}`,
			want:    `{"n":12345678901234567890}`,
		},
		{
			name:    "fraction and exponent use shortest form",
			payload: `{"price":1.50,"exp":1E3,"small":2.5e-7,"big":1.5e21}`,
			want:    `{"big":1.5e+21,"exp":1000,"price":1.5,"small":2.5e-7}`,
		},
		{
			name:    "integral float drops the fraction",
			payload: `{"amount":10.0}`,
			want:    `{"amount":10}`,
		},
		{
			name:    "negative zero",
			payload: `[-0,-0.0]`,
			want:    `[0,0]`,
		},
		{
			name:    "line separators stay raw",
			payload: `{"s":"a\u2028b\u2029c"}`,
			want:    "{\"s\":\"a\u2028b\u2029c\"}",
		},
		{
			name:    "escaped backslash before u2028 text",
			payload: `{"s":"\\u2028"}`,
			want:    `{"s":"\\u2028"}`,
		},
		{
			name:    "does not escape html characters",
			payload: `{"html":"<b>&amp;</b>"}`,
			want:    `{"html":"<b>&amp;</b>"}`,
		},
		{
			name:    "emits utf-8 unescaped",
			payload: `{"name":"café"}`,
			want:    `{"name":"café"}`,
		},
		{
			name:    "array top level",
			payload: `[3, 1, 2]`,
			want:    `[3,1,2]`,
		},
		{
			name:    "string top level",
			payload: `"hello"`,
			want:    `"hello"`,
		},
		{
			name:    "null top level",
			payload: nil,
			want:    `null`,
		},
		{
			name:    "raw message",
			payload: json.RawMessage(`{"b": true, "a": false}`),
			want:    `{"a":false,"b":true}`,
		},
		{
			name:    "go map",
			payload: map[string]any{"status": "shipped", "order_id": 42},
			want:    `{"order_id":42,"status":"shipped"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.payload)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestCanonicalize_Idempotent(t *testing.T) {
	first, err := Canonicalize(`{"b":[1,{"d":4,"c":3}],"a":"x"}`)
	require.NoError(t, err)

	second, err := Canonicalize(first)
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
}

func TestCanonicalize_TextAndValueAgree(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		value any
	}{
		{"integral float", `{"amount":10.0}`, map[string]any{"amount": 10.0}},
		{"integer", `{"amount":10}`, map[string]any{"amount": 10}},
		{"fraction", `{"price":1.50}`, map[string]any{"price": 1.5}},
		{"exponent", `{"n":1E3}`, map[string]any{"n": 1000.0}},
		{"struct", `{"order_id":42.0,"status":"shipped"}`, struct {
			OrderID float64 `json:"order_id"`
			Status  string  `json:"status"`
		}{42, "shipped"}},
		{"line separator", `{"s":"a\u2028b"}`, map[string]any{"s": "a\u2028b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fromText, err := Canonicalize(tt.text)
			require.NoError(t, err)
			fromValue, err := Canonicalize(tt.value)
			require.NoError(t, err)
			assert.Equal(t, string(fromText), string(fromValue))

			sigText, err := Sign(tt.text, "k")
			require.NoError(t, err)
			sigValue, err := Sign(tt.value, "k")
			require.NoError(t, err)
			assert.Equal(t, sigText, sigValue)
		})
	}
}

func TestCanonicalize_NumberSpellingsSignAlike(t *testing.T) {
	want, err := Sign(`{"amount":10}`, "k")
	require.NoError(t, err)
	for _, text := range []string{`{"amount":10.0}`, `{"amount":1e1}`, `{"amount":100E-1}`, `{ "amount" : 10.000 }`} {
		got, err := Sign(text, "k")
		require.NoError(t, err)
		assert.Equal(t, want, got, text)
	}
}

func TestCanonicalize_Errors(t *testing.T) {
	for _, payload := range []any{"{not json", "", "   ", `{"a":1}x`, []byte(`{"a":`), `{"n":1e400}`} {
		_, err := Canonicalize(payload)
		var payloadErr *InvalidPayloadError
		assert.ErrorAs(t, err, &payloadErr, "payload %q", payload)
	}
}

package signing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Canonicalize reduces payload to the byte sequence that gets signed.
//
// Strings, byte slices and json.RawMessage are treated as JSON text and
// parsed. Any other value is marshalled first, so structs and maps with the
// same content canonicalize identically, and a Go value canonicalizes the
// same as its JSON text.
func Canonicalize(payload any) ([]byte, error) {
	raw, err := rawJSON(payload)
	if err != nil {
		return nil, &InvalidPayloadError{Err: err}
	}

	value, err := decodeSingle(raw)
	if err != nil {
		return nil, &InvalidPayloadError{Err: err}
	}
	value, err = normalizeNumbers(value)
	if err != nil {
		return nil, &InvalidPayloadError{Err: err}
	}

	out, err := encodeCompact(value)
	if err != nil {
		return nil, &InvalidPayloadError{Err: err}
	}
	return out, nil
}

func rawJSON(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case string:
		return []byte(p), nil
	case []byte:
		return p, nil
	case json.RawMessage:
		return p, nil
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		return data, nil
	}
}

// decodeSingle parses exactly one JSON value. Numbers come back as
// json.Number for normalizeNumbers.
func decodeSingle(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty document")
		}
		return nil, fmt.Errorf("parse: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return value, nil
}

// normalizeNumbers pins every number to one spelling. Plain integer
// literals keep their digits so large ids survive. Anything with a
// fraction or exponent becomes a float64, which encoding/json writes in
// the ECMAScript shortest form: 10.0 -> 10, 1.50 -> 1.5, 1E3 -> 1000.
func normalizeNumbers(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		for k, elem := range t {
			n, err := normalizeNumbers(elem)
			if err != nil {
				return nil, err
			}
			t[k] = n
		}
	case []any:
		for i, elem := range t {
			n, err := normalizeNumbers(elem)
			if err != nil {
				return nil, err
			}
			t[i] = n
		}
	case json.Number:
		return canonicalNumber(t)
	}
	return v, nil
}

func canonicalNumber(n json.Number) (any, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		if s == "-0" {
			return json.Number("0"), nil
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("number %s out of range", s)
	}
	if f == 0 {
		// -0.0
		f = 0
	}
	return f, nil
}

// encodeCompact relies on encoding/json sorting map keys.
func encodeCompact(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(value); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeLineSeparators undoes encoding/json's \u2028 and \u2029 escapes
// so U+2028 and U+2029 are emitted as raw UTF-8 like every other
// non-ASCII rune. Escape pairs are consumed whole, so an escaped
// backslash followed by "u2028" is left alone.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c != '\\' || i+1 >= len(b) {
			out = append(out, c)
			continue
		}
		if i+5 < len(b) && b[i+1] == 'u' && string(b[i+2:i+5]) == "202" && (b[i+5] == '8' || b[i+5] == '9') {
			if b[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, c, b[i+1])
		i++
	}
	return out
}

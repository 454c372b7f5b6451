// Package signing implements the HMAC-SHA256 scheme used to authenticate
// events submitted to the delivery service's ingestion endpoint.
//
// A payload is reduced to a canonical JSON byte sequence and signed with a
// shared secret. The receiver repeats the canonicalization on the "payload"
// field of the request body and compares signatures in constant time.
//
// # Canonical form
//
//   - exactly one JSON value; trailing data is rejected
//   - object keys sorted by byte order
//   - no insignificant whitespace, no trailing newline
//   - integer literals (no fraction, no exponent) kept digit for digit
//   - every other number in ECMAScript shortest form, as JavaScript's
//     JSON.stringify writes it: 10.0 is 10, 1.50 is 1.5, 1E3 is 1000
//   - '<', '>' and '&' are not escaped; all non-ASCII, U+2028 and U+2029
//     included, is emitted as raw UTF-8
//
// The same value canonicalizes identically whether it arrives as JSON text
// or as a Go value.
//
// # Header
//
// Signatures travel as
//
//	X-Hub-Signature-256: sha256=<64 lowercase hex chars>
//
// # Example
//
//	sig, err := signing.Sign(`{"order_id": 42, "status": "shipped"}`, secret)
//	if err != nil {
//		return err
//	}
//	req.Header.Set(signing.HeaderName, signing.FormatHeader(sig))
package signing

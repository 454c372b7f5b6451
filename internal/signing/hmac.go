package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

const (
	// HeaderName is the HTTP header carrying the signature.
	HeaderName = "X-Hub-Signature-256"

	// Prefix precedes the hex digest in the header value.
	Prefix = "sha256="
)

// Signed pairs a canonical payload with its signature.
type Signed struct {
	Canonical []byte
	Signature string
}

// Sign returns the lowercase hex HMAC-SHA256 of the canonical form of
// payload keyed by secret.
func Sign(payload any, secret string) (string, error) {
	signed, err := SignPayload(payload, secret)
	if err != nil {
		return "", err
	}
	return signed.Signature, nil
}

// SignPayload is Sign that also hands back the canonical bytes, for callers
// that embed them in a request body.
func SignPayload(payload any, secret string) (Signed, error) {
	if secret == "" {
		return Signed{}, &InvalidSecretError{}
	}

	canonical, err := Canonicalize(payload)
	if err != nil {
		return Signed{}, err
	}

	return Signed{
		Canonical: canonical,
		Signature: hex.EncodeToString(computeMAC(canonical, secret)),
	}, nil
}

// SignCanonical signs bytes that are already in canonical form.
func SignCanonical(canonical []byte, secret string) (string, error) {
	if secret == "" {
		return "", &InvalidSecretError{}
	}
	return hex.EncodeToString(computeMAC(canonical, secret)), nil
}

// Verify checks header against the signature of payload.
//
// Accepts "sha256=<hex>" and bare hex. Comparison is constant-time. Every
// mismatch, malformed header or unparseable payload yields ErrVerification.
func Verify(payload any, secret, header string) error {
	if secret == "" {
		return &InvalidSecretError{}
	}
	if header == "" {
		return ErrVerification
	}

	canonical, err := Canonicalize(payload)
	if err != nil {
		return ErrVerification
	}

	actualMAC, err := ParseSignature(header)
	if err != nil {
		return ErrVerification
	}

	if subtle.ConstantTimeCompare(computeMAC(canonical, secret), actualMAC) != 1 {
		return ErrVerification
	}
	return nil
}

// ParseSignature decodes a header value into raw digest bytes.
//
// Supported formats:
//   - "sha256=3a8f..." (X-Hub-Signature-256)
//   - "3a8f..." (plain hex)
func ParseSignature(header string) ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(header), Prefix))
}

// FormatHeader renders a hex signature as a header value.
func FormatHeader(signature string) string {
	return Prefix + signature
}

func computeMAC(message []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return mac.Sum(nil)
}

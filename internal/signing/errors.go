package signing

import (
	"errors"
	"fmt"
)

// ErrVerification is returned for every signature mismatch. It carries no
// detail about which part of the check failed.
var ErrVerification = errors.New("webhook verification failed")

// InvalidPayloadError indicates the payload could not be parsed or
// serialized as JSON.
type InvalidPayloadError struct {
	Err error
}

func (e *InvalidPayloadError) Error() string {
	return fmt.Sprintf("invalid payload: %v", e.Err)
}

func (e *InvalidPayloadError) Unwrap() error {
	return e.Err
}

// InvalidSecretError indicates missing key material.
type InvalidSecretError struct{}

func (e *InvalidSecretError) Error() string {
	return "invalid secret: secret must not be empty"
}

package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

// SignatureSize is the length in bytes of a decoded signature.
const SignatureSize = sha256.Size

var (
	// ErrMalformedSignature is returned by Verify when the provided signature
	// has the expected length but is not valid hex.
	ErrMalformedSignature = errors.New("malformed signature")

	// ErrEmptySecret is returned by Verify when called without a secret.
	ErrEmptySecret = errors.New("signing secret is empty")
)

// Sign computes the HMAC-SHA256 of payload keyed by secret and returns it as
// lowercase hex.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// SignValue serializes v and signs the result. It returns the exact bytes
// that were signed; callers must transmit those bytes unchanged.
//
// Strings, byte slices and json.RawMessage values are treated as already
// serialized and signed as-is. Anything else goes through Canonicalize.
func SignValue(v any, secret string) ([]byte, string, error) {
	body, err := serialize(v)
	if err != nil {
		return nil, "", err
	}
	return body, Sign(body, secret), nil
}

// Verify reports whether signature is the hex HMAC-SHA256 of payload under
// secret.
//
// A signature whose length differs from the expected one yields false with a
// nil error. A signature of the right length that is not hex yields
// ErrMalformedSignature so callers can tell a broken client from a forged one.
func Verify(payload []byte, secret, signature string) (bool, error) {
	if secret == "" {
		return false, ErrEmptySecret
	}

	expectedHex := Sign(payload, secret)
	if len(signature) != len(expectedHex) {
		return false, nil
	}

	expected, err := hex.DecodeString(expectedHex)
	if err != nil {
		return false, fmt.Errorf("decode expected signature: %w", err)
	}
	provided, err := hex.DecodeString(signature)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}

	if len(expected) != len(provided) {
		return false, nil
	}
	return subtle.ConstantTimeCompare(expected, provided) == 1, nil
}

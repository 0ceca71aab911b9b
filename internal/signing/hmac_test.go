package signing

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fooBarSig = "9b1abf7d901bda91325d00f6b397fb0dc257937939b27d4dc67848ab9e08f6c0"

func TestSign_KnownVector(t *testing.T) {
	assert.Equal(t, fooBarSig, Sign([]byte(`{"foo":"bar"}`), "test-secret"))
	assert.Equal(t,
		"2f94a757d2246073e26781d117ce0183ebd87b4d66c460494376d5c37d71985b",
		Sign([]byte("test payload"), "test-secret"))
}

func TestSign_LowercaseHexOfDigestSize(t *testing.T) {
	sig := Sign([]byte("anything"), "k")
	assert.Len(t, sig, 2*SignatureSize)
	assert.Equal(t, strings.ToLower(sig), sig)
}

func TestVerify(t *testing.T) {
	secret := "test-secret"
	body := []byte(`{"foo":"bar"}`)

	tests := []struct {
		name      string
		body      []byte
		signature string
		secret    string
		want      bool
		wantErr   error
	}{
		{
			name:      "valid signature",
			body:      body,
			signature: fooBarSig,
			secret:    secret,
			want:      true,
		},
		{
			name:      "uppercase hex is the same signature",
			body:      body,
			signature: strings.ToUpper(fooBarSig),
			secret:    secret,
			want:      true,
		},
		{
			name:      "truncated by two characters",
			body:      body,
			signature: fooBarSig[:len(fooBarSig)-2],
			secret:    secret,
			want:      false,
		},
		{
			name:      "truncated by one character",
			body:      body,
			signature: fooBarSig[:len(fooBarSig)-1],
			secret:    secret,
			want:      false,
		},
		{
			name:      "extended",
			body:      body,
			signature: fooBarSig + "00",
			secret:    secret,
			want:      false,
		},
		{
			name:      "not hex, wrong length",
			body:      body,
			signature: "invalid-signature",
			secret:    secret,
			want:      false,
		},
		{
			name:      "empty signature",
			body:      body,
			signature: "",
			secret:    secret,
			want:      false,
		},
		{
			name:      "all zero signature",
			body:      body,
			signature: strings.Repeat("0", 64),
			secret:    secret,
			want:      false,
		},
		{
			name:      "tampered body",
			body:      []byte(`{"foo":"baz"}`),
			signature: fooBarSig,
			secret:    secret,
			want:      false,
		},
		{
			name:      "wrong secret",
			body:      body,
			signature: fooBarSig,
			secret:    "other-secret",
			want:      false,
		},
		{
			name:      "not hex, right length",
			body:      body,
			signature: strings.Repeat("zz", 32),
			secret:    secret,
			wantErr:   ErrMalformedSignature,
		},
		{
			name:      "empty secret",
			body:      body,
			signature: fooBarSig,
			secret:    "",
			wantErr:   ErrEmptySecret,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Verify(tt.body, tt.secret, tt.signature)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.False(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestVerify_MalformedErrorHidesSecret(t *testing.T) {
	_, err := Verify([]byte("x"), "super-secret-value", strings.Repeat("g", 64))
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "super-secret-value")
}

func TestSignValue_StructuredAndRaw(t *testing.T) {
	body, sig, err := SignValue(map[string]string{"foo": "bar"}, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, `{"foo":"bar"}`, string(body))
	assert.Equal(t, fooBarSig, sig)

	// Already-serialized input is signed verbatim, whitespace and all.
	raw := `{ "foo" : "bar" }`
	body, sig, err = SignValue(raw, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, raw, string(body))
	assert.Equal(t, Sign([]byte(raw), "test-secret"), sig)
	assert.NotEqual(t, fooBarSig, sig)
}

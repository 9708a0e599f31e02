package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSign(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		payload []byte
	}{
		{name: "event payload", secret: "my-secret-key", payload: []byte(`{"type":"identity.enrolled","data":{"label":"alice"}}`)},
		{name: "empty payload", secret: "my-secret-key", payload: []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signature := Sign(tt.secret, tt.payload)
			assert.Len(t, signature, len("sha256=")+64)
			assert.Contains(t, signature, "sha256=")
			assert.Equal(t, signature, Sign(tt.secret, tt.payload), "signing must be deterministic")
			assert.True(t, Verify(tt.secret, tt.payload, signature), "signature should be valid")
		})
	}
}

func TestVerify(t *testing.T) {
	secret := "test-secret"
	payload := []byte(`{"type":"session.closed"}`)
	validSignature := Sign(secret, payload)

	tests := []struct {
		name      string
		secret    string
		payload   []byte
		signature string
		expected  bool
	}{
		{name: "valid signature", secret: secret, payload: payload, signature: validSignature, expected: true},
		{name: "invalid signature", secret: secret, payload: payload, signature: "sha256=invalid", expected: false},
		{name: "missing prefix", secret: secret, payload: payload, signature: validSignature[len("sha256="):], expected: false},
		{name: "wrong secret", secret: "wrong-secret", payload: payload, signature: validSignature, expected: false},
		{name: "modified payload", secret: secret, payload: []byte(`{"type":"identity.deleted"}`), signature: validSignature, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Verify(tt.secret, tt.payload, tt.signature))
		})
	}
}

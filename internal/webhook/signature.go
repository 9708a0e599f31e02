package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const signaturePrefix = "sha256="

// Sign returns the X-Vigia-Signature value for payload: "sha256=" + hex HMAC-SHA256
func Sign(secret string, payload []byte) string {
	return signaturePrefix + hex.EncodeToString(mac(secret, payload))
}

// Verify is what receivers run against the raw request body
func Verify(secret string, payload []byte, signature string) bool {
	digest, ok := strings.CutPrefix(signature, signaturePrefix)
	if !ok {
		return false
	}
	got, err := hex.DecodeString(digest)
	if err != nil {
		return false
	}
	return hmac.Equal(got, mac(secret, payload))
}

func mac(secret string, payload []byte) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return h.Sum(nil)
}

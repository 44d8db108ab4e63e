// internal/gateway/signature_test.go
package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"event":"charge.success"}`)

	assert.True(t, VerifySignature("sk_test", payload, sign("sk_test", payload)))
	assert.False(t, VerifySignature("sk_test", payload, sign("wrong", payload)))
	assert.False(t, VerifySignature("sk_test", payload, ""))
	assert.False(t, VerifySignature("sk_test", payload, "deadbeef"))

	// Signature over a different body must not verify.
	assert.False(t, VerifySignature("sk_test", []byte(`{"tampered":1}`), sign("sk_test", payload)))
}

// internal/gateway/signature.go
package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// VerifySignature checks the webhook signature header: hex-encoded
// HMAC-SHA512 of the raw payload under the shared secret key.
func (c *Client) VerifySignature(payload []byte, signature string) bool {
	return VerifySignature(c.cfg.SecretKey, payload, signature)
}

func VerifySignature(secret string, payload []byte, signature string) bool {
	if signature == "" {
		return false
	}

	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}

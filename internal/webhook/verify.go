package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// VerifySignature verifies the platform webhook signature using HMAC
// SHA-256 and constant-time comparison. The header digest is base64 in
// normal deliveries and hex in some replay/test modes; both are accepted.
func VerifySignature(payload []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := mac.Sum(nil)

	if decoded, err := base64.StdEncoding.DecodeString(signature); err == nil && hmac.Equal(decoded, expected) {
		return true
	}
	if decoded, err := hex.DecodeString(signature); err == nil && hmac.Equal(decoded, expected) {
		return true
	}
	return false
}

// ValidateSignatureHeader validates the X-Shopify-Hmac-Sha256 header
func ValidateSignatureHeader(header string) error {
	if header == "" {
		return fmt.Errorf("missing X-Shopify-Hmac-Sha256 header")
	}
	return nil
}

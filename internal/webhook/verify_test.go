package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"
)

func signHex(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func signBase64(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":123,"order_number":1029}`)
	secret := "test-secret"

	tests := []struct {
		name      string
		signature string
		want      bool
	}{
		{"valid base64 digest", signBase64(payload, secret), true},
		{"valid hex digest", signHex(payload, secret), true},
		{"wrong secret base64", signBase64(payload, "other"), false},
		{"wrong secret hex", signHex(payload, "other"), false},
		{"garbage", "not-a-digest", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifySignature(payload, tt.signature, secret); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerifySignature_TamperedPayload(t *testing.T) {
	payload := []byte(`{"id":123}`)
	signature := signBase64(payload, "secret")

	if VerifySignature([]byte(`{"id":124}`), signature, "secret") {
		t.Error("VerifySignature should reject a tampered payload")
	}
}

func TestValidateSignatureHeader(t *testing.T) {
	if err := ValidateSignatureHeader(""); err == nil {
		t.Error("ValidateSignatureHeader should reject empty header")
	}
	if err := ValidateSignatureHeader("abc"); err != nil {
		t.Errorf("ValidateSignatureHeader() error = %v, want nil", err)
	}
}

package services

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// SignatureVerifier checks the gateway's HMAC-SHA512 webhook signature.
type SignatureVerifier struct {
	secret []byte
}

func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Sign returns the lower-case hex digest the gateway would send for body.
func (v *SignatureVerifier) Sign(body []byte) string {
	mac := hmac.New(sha512.New, v.secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares in constant time. An empty secret never verifies.
func (v *SignatureVerifier) Verify(body []byte, signature string) bool {
	if len(v.secret) == 0 || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, v.secret)
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

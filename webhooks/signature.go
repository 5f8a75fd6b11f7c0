package webhooks

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"
)

const (
	DefaultSignatureHeader = "X-Talo-Signature"
	signaturePrefix        = "sha256="
)

// VerifySignature reports whether signature is the HMAC-SHA256 of payload
// under secret. The signature may be hex (any case) or base64 and may carry
// a "sha256=" prefix.
func VerifySignature(payload []byte, secret string, signature string) bool {
	if secret == "" {
		return false
	}
	signature = strings.TrimSpace(signature)
	signature = strings.TrimSpace(strings.TrimPrefix(signature, signaturePrefix))
	if signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	expected := mac.Sum(nil)

	for _, decoded := range decodeSignature(signature) {
		if subtle.ConstantTimeCompare(decoded, expected) == 1 {
			return true
		}
	}
	return false
}

// Sign returns the lowercase hex HMAC-SHA256 of payload under secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func decodeSignature(signature string) [][]byte {
	var candidates [][]byte
	if decoded, err := hex.DecodeString(signature); err == nil {
		candidates = append(candidates, decoded)
	}
	for _, encoding := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if decoded, err := encoding.DecodeString(signature); err == nil {
			candidates = append(candidates, decoded)
			break
		}
	}
	return candidates
}

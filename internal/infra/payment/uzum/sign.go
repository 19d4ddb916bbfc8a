package uzum

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// SignatureHeader carries the base64 HMAC-SHA256 of the raw request body.
const SignatureHeader = "X-Signature"

// Sign computes the base64 HMAC-SHA256 digest of body under the shared
// secret. The digest must be computed over the exact raw bytes: re-encoding
// the JSON can reorder keys and invalidate the signature.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks the supplied header value against the recomputed
// digest. hmac.Equal is constant-time.
func VerifySignature(secret, body []byte, supplied string) bool {
	got, err := base64.StdEncoding.DecodeString(supplied)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), got)
}

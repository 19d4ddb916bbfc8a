package payme

import (
	"crypto/subtle"
	"net/http"
)

const merchantLogin = "Paycom"

// Authorized validates the provider's Basic credential pair: login must be
// the fixed merchant login and the password must equal the configured key.
// Comparison is constant-time; a plain equality check would leak the key
// length through timing.
func Authorized(r *http.Request, merchantKey, testKey string) bool {
	login, password, ok := r.BasicAuth()
	if !ok {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(login), []byte(merchantLogin)) != 1 {
		return false
	}
	if constantTimeEqual(password, merchantKey) {
		return true
	}
	return testKey != "" && constantTimeEqual(password, testKey)
}

func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

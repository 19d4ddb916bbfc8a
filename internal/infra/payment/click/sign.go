package click

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// Digest computes the provider's legacy MD5 chain:
//
//	md5(click_trans_id + service_id + secret_key + merchant_trans_id +
//	    [merchant_prepare_id] + amount + action + sign_time)
//
// merchant_prepare_id participates only in the complete step. The amount is
// the exact string the provider sent (two decimal places); re-formatting it
// locally would change the digest.
func Digest(clickTransID, serviceID, secretKey, merchantTransID, merchantPrepareID, amount, action, signTime string) string {
	var b strings.Builder
	b.WriteString(clickTransID)
	b.WriteString(serviceID)
	b.WriteString(secretKey)
	b.WriteString(merchantTransID)
	b.WriteString(merchantPrepareID)
	b.WriteString(amount)
	b.WriteString(action)
	b.WriteString(signTime)
	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// VerifySign checks the supplied signature against the recomputed digest in
// constant time.
func VerifySign(expected, supplied string) bool {
	e := []byte(strings.ToLower(expected))
	s := []byte(strings.ToLower(supplied))
	if len(e) != len(s) {
		return false
	}
	return subtle.ConstantTimeCompare(e, s) == 1
}

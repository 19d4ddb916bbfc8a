package web

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ===== Operator JWT primitives =====

type AuthManager struct {
	secret []byte
	pass   string
	ttl    time.Duration
}

func NewAuthManager(secret, adminPass string, ttl time.Duration) *AuthManager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &AuthManager{secret: []byte(secret), pass: adminPass, ttl: ttl}
}

type operatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// CheckPassword validates the operator password in constant time.
func (a *AuthManager) CheckPassword(pass string) bool {
	if a.pass == "" || len(pass) != len(a.pass) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(pass), []byte(a.pass)) == 1
}

func (a *AuthManager) Mint() (string, error) {
	now := time.Now()
	claims := operatorClaims{
		Role: "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
			Subject:   "operator",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *AuthManager) verify(tokenStr string) bool {
	var claims operatorClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return err == nil && token.Valid && claims.Role == "operator"
}

// Middleware guards operator routes with a Bearer JWT.
func (a *AuthManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.secret) == 0 {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if !a.verify(parts[1]) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

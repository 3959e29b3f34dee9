package main

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	adminSubject  = "admin"
	adminTokenTTL = 12 * time.Hour
	basicRealm    = `Basic realm="Hog Games"`
)

var (
	ErrAdminDisabled = errors.New("admin login not configured")
	ErrBadPassword   = errors.New("invalid password")
)

func secureEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// basicAuth guards every route except /health and CORS preflights when both
// credentials are configured. Otherwise it passes everything through.
func basicAuth(user, pass string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if user == "" || pass == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions || r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}
			u, p, ok := r.BasicAuth()
			// Evaluate both comparisons so timing does not reveal which failed.
			userOK := secureEqual(u, user)
			passOK := secureEqual(p, pass)
			if !ok || !userOK || !passOK {
				w.Header().Set("WWW-Authenticate", basicRealm)
				jsonError(w, "authentication required", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientKey requires X-API-Key to match key when key is set.
func clientKey(key string, reject func(w http.ResponseWriter, r *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !secureEqual(r.Header.Get("X-API-Key"), key) {
				reject(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminAuth issues and verifies HS256 admin tokens.
type AdminAuth struct {
	password string
	secret   []byte
	now      func() time.Time
}

func NewAdminAuth(password, secret string) *AdminAuth {
	return &AdminAuth{password: password, secret: []byte(secret), now: time.Now}
}

// Login checks password and returns a signed token with its expiry.
func (a *AdminAuth) Login(password string) (string, time.Time, error) {
	if a.password == "" || len(a.secret) == 0 {
		return "", time.Time{}, ErrAdminDisabled
	}
	if !secureEqual(password, a.password) {
		return "", time.Time{}, ErrBadPassword
	}
	now := a.now()
	exp := now.Add(adminTokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   adminSubject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

func (a *AdminAuth) verify(tokenString string) error {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return err
	}
	if claims.Subject != adminSubject {
		return errors.New("token subject is not admin")
	}
	return nil
}

// adminTokenHeader carries the admin token when Authorization is taken by
// site basic auth.
const adminTokenHeader = "X-Admin-Token"

func adminTokenFrom(r *http.Request) string {
	if t := r.Header.Get(adminTokenHeader); t != "" {
		return t
	}
	if t, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return t
	}
	return ""
}

// Middleware rejects requests without a valid admin token, read from
// X-Admin-Token or an Authorization bearer.
func (a *AdminAuth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.secret) == 0 {
			jsonError(w, ErrAdminDisabled.Error(), http.StatusServiceUnavailable)
			return
		}
		tokenString := adminTokenFrom(r)
		if tokenString == "" {
			jsonError(w, "missing admin token", http.StatusUnauthorized)
			return
		}
		if err := a.verify(tokenString); err != nil {
			jsonError(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

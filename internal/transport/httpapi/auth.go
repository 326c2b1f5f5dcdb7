package httpapi

import (
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// requireAdmin guards management routes with a bearer token checked against a
// bcrypt hash. An empty hash leaves the routes open.
func requireAdmin(hash []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(hash) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearer(r.Header.Get("Authorization"))
			if !ok || bcrypt.CompareHashAndPassword(hash, []byte(token)) != nil {
				writeJSON(w, http.StatusUnauthorized, envelope{Data: errorBody{Message: "admin token required"}})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearer(h string) (string, bool) {
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(h[len(prefix):]), true
}

// HashAdminToken produces the value for server.admin_token_hash.
func HashAdminToken(token string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/ugcstudio/backend/internal/logging"
)

// AdminBasicAuth gates the admin surface behind HTTP basic auth using
// credentials from the environment. An empty password disables the surface
// entirely rather than leaving it open.
func AdminBasicAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if password == "" {
				logging.FromContext(r.Context()).Error("admin surface disabled: no admin password configured")
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok {
				w.Header().Set("WWW-Authenticate", `Basic realm="Admin Dashboard"`)
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			userMatch := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			passMatch := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1
			if !userMatch || !passMatch {
				logging.FromContext(r.Context()).Warn("admin basic auth rejected", "user", user)
				w.Header().Set("WWW-Authenticate", `Basic realm="Admin Dashboard"`)
				http.Error(w, "Invalid credentials", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

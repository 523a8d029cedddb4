package middleware

import (
	"net/http"
)

const (
	// DefaultMaxBodyBytes caps JSON request bodies (1 MiB).
	DefaultMaxBodyBytes = 1 << 20
	// MaxImageBytes caps uploaded images (5 MiB).
	MaxImageBytes = 5 << 20
)

// MaxBytes limits the request body to maxBytes. Reads past the limit fail with
// *http.MaxBytesError, which handlers report as 413.
func MaxBytes(maxBytes int64) func(http.Handler) http.Handler {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil && r.Body != http.NoBody {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

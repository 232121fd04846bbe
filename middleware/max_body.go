package middleware

import (
	"net/http"

	"familyquest/config"
)

// MaxBodyMiddleware enforces a maximum request body size read from MAX_BODY_BYTES.
// The default of 8 MiB leaves room for base64 proof images.
func MaxBodyMiddleware(next http.Handler) http.Handler {
	max := int64(config.GetInt("MAX_BODY_BYTES", 8<<20))
	if max <= 0 {
		max = 8 << 20
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, max)
		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"familyquest/config"
	"familyquest/logger"
	"familyquest/utils"

	"go.uber.org/zap"
)

func generateRequestID() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}
	return hex.EncodeToString(b)
}

func requestID(r *http.Request) string {
	rid, _ := r.Context().Value(utils.RequestIDKey).(string)
	return rid
}

// SecurityHeadersMiddleware sets response hardening headers. CORS is handled
// by the router.
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	env := config.Getenv("ENV", "development")
	hsts := config.GetBool("SEC_HSTS", false)
	csp := config.Getenv("SEC_CSP", "default-src 'none'; frame-ancestors 'none'; base-uri 'self';")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "no-referrer")
		if env != "development" {
			w.Header().Set("Content-Security-Policy", csp)
		}
		if hsts {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		}
		next.ServeHTTP(w, r)
	})
}

// responseRecorder wraps ResponseWriter to capture status code
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogMiddleware logs one line per request with status and latency.
// Requests slower than METRIC_SLOW_MS are logged at warn level.
func RequestLogMiddleware(next http.Handler) http.Handler {
	slow := time.Duration(config.GetInt("METRIC_SLOW_MS", 800)) * time.Millisecond
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("latency", elapsed),
			zap.String("ip", ClientIP(r)),
			zap.String("request_id", requestID(r)),
		}
		if elapsed > slow {
			logger.L().Warn("slow request", fields...)
			return
		}
		logger.L().Info("request", fields...)
	})
}

// RequestIDMiddleware injects a request id into context and response headers
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := r.Header.Get("X-Request-ID")
		if rid == "" || len(rid) > 64 {
			rid = generateRequestID()
		}
		w.Header().Set("X-Request-ID", rid)
		ctx := context.WithValue(r.Context(), utils.RequestIDKey, rid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TimeoutMiddleware cancels the request context after REQ_TIMEOUT_SEC.
func TimeoutMiddleware(next http.Handler) http.Handler {
	timeout := time.Duration(config.GetInt("REQ_TIMEOUT_SEC", 10)) * time.Second
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RecoveryMiddleware recovers from panics and returns a generic 500.
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				rid := requestID(r)
				logger.L().Error("panic recovered",
					zap.String("request_id", rid),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				utils.WriteJSON(w, http.StatusInternalServerError, utils.APIResponse{
					Success: false,
					Message: "Internal server error",
					Data:    map[string]string{"request_id": rid},
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

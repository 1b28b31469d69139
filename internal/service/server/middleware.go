package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// responseWriter records the status code and body size of a response
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// LoggingMiddleware logs every request, server errors at warn level
func LoggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			level := zapcore.DebugLevel
			if rw.statusCode >= http.StatusInternalServerError {
				level = zapcore.WarnLevel
			}
			if ce := logger.Check(level, "HTTP request"); ce != nil {
				ce.Write(
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Int("status", rw.statusCode),
					zap.Int64("bytes", rw.written),
					zap.Duration("duration", time.Since(start)))
			}
		})
	}
}

// BasicAuthMiddleware protects the control endpoints with HTTP Basic Auth
func BasicAuthMiddleware(username, password string, logger *zap.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			validUser := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			validPass := subtle.ConstantTimeCompare([]byte(pass), []byte(password)) == 1

			if !ok || !validUser || !validPass {
				w.Header().Set("WWW-Authenticate", `Basic realm="diskguard control"`)
				http.Error(w, "Authentication required", http.StatusUnauthorized)
				if ok {
					logger.Warn("failed control authentication attempt",
						zap.String("username", user),
						zap.String("remote_addr", r.RemoteAddr))
				}
				return
			}

			next(w, r)
		}
	}
}

package middleware

import (
	"bytes"
	"net/http"
	"time"

	"label-cabinet/backstage/internal/logging"
)

type respLogger struct {
	http.ResponseWriter
	status int
	buf    *bytes.Buffer
}

func (l *respLogger) WriteHeader(code int) {
	l.status = code
	l.ResponseWriter.WriteHeader(code)
}

func (l *respLogger) Write(b []byte) (int, error) {
	if l.buf.Len() < maxLoggedBody {
		l.buf.Write(b)
	}
	return l.ResponseWriter.Write(b)
}

const maxLoggedBody = 2048

// DebugLogging dumps request headers and the response body at debug level.
// Only mounted outside production. Credentials are never logged.
func DebugLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") != "" {
			next.ServeHTTP(w, r)
			return
		}

		headers := make(map[string]string, len(r.Header))
		for name := range r.Header {
			switch name {
			case "Authorization", "X-Api-Key", "Cookie":
				headers[name] = "[redacted]"
			default:
				headers[name] = r.Header.Get(name)
			}
		}
		logging.Debug("→ request", "method", r.Method, "url", r.URL.String(), "headers", headers)

		buf := &bytes.Buffer{}
		lw := &respLogger{ResponseWriter: w, status: http.StatusOK, buf: buf}

		start := time.Now()
		next.ServeHTTP(lw, r)

		logging.Debug("← response",
			"status", lw.status,
			"duration", time.Since(start).String(),
			"body", buf.String(),
		)
	})
}

package common

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httputil"

	"label-cabinet/backstage/internal/logging"
)

// LogHTTPRequest dumps an outgoing request at debug level. Authorization and
// apikey headers are redacted; the body is restored for the real call.
func LogHTTPRequest(req *http.Request) {
	var bodyCopy []byte
	if req.Body != nil {
		bodyCopy, _ = io.ReadAll(req.Body)
		req.Body = io.NopCloser(bytes.NewReader(bodyCopy))
	}

	clone := req.Clone(req.Context())
	for _, h := range []string{"Authorization", "Apikey"} {
		if clone.Header.Get(h) != "" {
			clone.Header.Set(h, "[redacted]")
		}
	}
	if bodyCopy != nil {
		clone.Body = io.NopCloser(bytes.NewReader(bodyCopy))
	}

	dump, err := httputil.DumpRequestOut(clone, len(bodyCopy) < 4096)
	if err != nil {
		logging.Debug("Failed to dump HTTP request", "error", err)
	} else {
		logging.Debug("Outgoing HTTP request", "dump", string(dump))
	}

	if bodyCopy != nil {
		req.Body = io.NopCloser(bytes.NewReader(bodyCopy))
	}
}

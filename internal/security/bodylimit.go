package security

import (
	"bytes"
	"io"
	"net/http"

	"github.com/noah-isme/backend-stock/internal/common"
)

// DefaultMaxBody caps request payloads when no explicit limit is configured.
const DefaultMaxBody int64 = 1 << 20

// BodyLimit rejects request payloads larger than Max bytes with a 413 JSON error.
// Accepted bodies are buffered so later middleware (idempotency fingerprinting)
// and the handler can both read them.
type BodyLimit struct {
	Max int64
}

func (b BodyLimit) limit() int64 {
	if b.Max <= 0 {
		return DefaultMaxBody
	}
	return b.Max
}

// Middleware applies the limit to every request with a body.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	maxBytes := b.limit()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > maxBytes {
			tooLarge(w, maxBytes)
			return
		}

		buf, err := io.ReadAll(io.LimitReader(r.Body, maxBytes+1))
		_ = r.Body.Close()
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "unable to read request body", nil)
			return
		}
		if int64(len(buf)) > maxBytes {
			tooLarge(w, maxBytes)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(buf))
		r.ContentLength = int64(len(buf))
		next.ServeHTTP(w, r)
	})
}

func tooLarge(w http.ResponseWriter, maxBytes int64) {
	common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large",
		map[string]any{"max_bytes": maxBytes})
}

package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	maxIdempotencyBody   = 1 << 20 // 1 MB
	maxIdempotencyKeyLen = 255

	// idempotencySettleTimeout bounds the release or store after the handler returns.
	idempotencySettleTimeout = 5 * time.Second
)

// pendingMarker occupies a key while its first request is still running.
var pendingMarker = []byte("pending")

// idempotencyEntry stores a completed HTTP response.
type idempotencyEntry struct {
	StatusCode int                 `json:"status_code"`
	Headers    map[string][]string `json:"headers"`
	Body       []byte              `json:"body"`
}

// Idempotency returns middleware that deduplicates mutating requests
// carrying an Idempotency-Key header, backed by a JetStream KV bucket whose
// TTL bounds how long a key is remembered.
//
// Keys are scoped to the caller's caterer, method and path. The first
// request claims the key with Create; a concurrent duplicate gets 409
// until it completes. Responses with status >= 500 release the key so the
// client may retry. Release and store outlive the request context, so a
// client that disconnects or a request that times out still settles its key.
func Idempotency(kv jetstream.KeyValue) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			raw := r.Header.Get(headerIdempotencyKey)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(raw) > maxIdempotencyKeyLen {
				writeError(w, http.StatusBadRequest, "Idempotency-Key too long")
				return
			}
			key := idempotencyKVKey(TenantFromRequest(r), r.Method, r.URL.Path, raw)

			if _, err := kv.Create(r.Context(), key, pendingMarker); err != nil {
				if !errors.Is(err, jetstream.ErrKeyExists) {
					slog.Warn("idempotency: claim failed, serving without dedup", "error", err)
					next.ServeHTTP(w, r)
					return
				}
				replay(w, r, kv, key)
				return
			}

			rec := &responseRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
				body:           &bytes.Buffer{},
			}
			next.ServeHTTP(rec, r)

			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), idempotencySettleTimeout)
			defer cancel()
			if rec.statusCode >= http.StatusInternalServerError || rec.body.Len() > maxIdempotencyBody {
				if err := kv.Delete(ctx, key); err != nil {
					slog.Warn("idempotency: release key failed", "error", err)
				}
				return
			}
			data, err := json.Marshal(idempotencyEntry{
				StatusCode: rec.statusCode,
				Headers:    w.Header().Clone(),
				Body:       rec.body.Bytes(),
			})
			if err == nil {
				_, err = kv.Put(ctx, key, data)
			}
			if err != nil {
				slog.Warn("idempotency: store response failed", "error", err)
			}
		})
	}
}

func replay(w http.ResponseWriter, r *http.Request, kv jetstream.KeyValue, key string) {
	entry, err := kv.Get(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusConflict, "request with this Idempotency-Key is in progress")
		return
	}
	if bytes.Equal(entry.Value(), pendingMarker) {
		writeError(w, http.StatusConflict, "request with this Idempotency-Key is in progress")
		return
	}
	var cached idempotencyEntry
	if err := json.Unmarshal(entry.Value(), &cached); err != nil {
		slog.Warn("idempotency: corrupt cache entry", "error", err)
		writeError(w, http.StatusConflict, "request with this Idempotency-Key is in progress")
		return
	}
	for k, vals := range cached.Headers {
		for _, v := range vals {
			w.Header().Add(k, v)
		}
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(cached.StatusCode)
	_, _ = w.Write(cached.Body)
}

// idempotencyKVKey hashes the scope into a KV-safe key.
func idempotencyKVKey(tenantID, method, path, key string) string {
	h := sha256.New()
	for _, part := range []string{tenantID, method, path, key} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// responseRecorder wraps http.ResponseWriter to capture the response.
type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

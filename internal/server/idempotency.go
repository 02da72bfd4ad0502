package server

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	idempotencyHitHeader = "X-Idempotency-Hit"
)

type cachedResponse struct {
	done    chan struct{}
	stored  bool
	status  int
	body    []byte
	expires time.Time
}

// IdempotencyCache replays the first response produced for an
// Idempotency-Key. Entries are scoped to the request method, path and body,
// so the same key sent with a different payload (another user's commit)
// never sees someone else's response. Concurrent requests with the same
// scope wait for the first to finish. Only 2xx responses are kept.
type IdempotencyCache struct {
	logger *slog.Logger
	ttl    time.Duration
	nowFn  func() time.Time

	mu      sync.Mutex
	entries map[string]*cachedResponse
}

// NewIdempotencyCache keeps responses for ttl.
func NewIdempotencyCache(logger *slog.Logger, ttl time.Duration) *IdempotencyCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &IdempotencyCache{
		logger:  logger,
		ttl:     ttl,
		nowFn:   time.Now,
		entries: make(map[string]*cachedResponse),
	}
}

// Middleware wraps next with key-based replay.
func (c *IdempotencyCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(idempotencyHeader)
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		key, err := scopedKey(header, r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable request body")
			return
		}

		entry, owner := c.claim(key)
		if !owner {
			select {
			case <-entry.done:
			case <-r.Context().Done():
				return
			}
			if entry.stored {
				c.logger.Info("idempotency hit", "key", header)
				w.Header().Set(idempotencyHitHeader, "true")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(entry.status)
				_, _ = w.Write(entry.body)
				return
			}
			// First attempt failed and was evicted.
			next.ServeHTTP(w, r)
			return
		}

		rec := &capturingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		c.settle(key, entry, rec.status, rec.buf.Bytes())
	})
}

// scopedKey digests the header with the request target and body, and
// restores the body for the next handler.
func scopedKey(header string, r *http.Request) (string, error) {
	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(r.Body)
		_ = r.Body.Close()
		if err != nil {
			return "", err
		}
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	h := sha256.New()
	h.Write([]byte(r.Method))
	h.Write([]byte{0})
	h.Write([]byte(r.URL.Path))
	h.Write([]byte{0})
	h.Write(body)
	return header + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

func (c *IdempotencyCache) claim(key string) (*cachedResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFn()
	for k, e := range c.entries {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(c.entries, k)
		}
	}
	if e, ok := c.entries[key]; ok {
		return e, false
	}
	e := &cachedResponse{done: make(chan struct{})}
	c.entries[key] = e
	return e, true
}

func (c *IdempotencyCache) settle(key string, entry *cachedResponse, status int, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if status >= 200 && status < 300 {
		entry.stored = true
		entry.status = status
		entry.body = append([]byte(nil), body...)
		entry.expires = c.nowFn().Add(c.ttl)
	} else {
		delete(c.entries, key)
	}
	close(entry.done)
}

type capturingWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (w *capturingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *capturingWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	return w.ResponseWriter.Write(p)
}

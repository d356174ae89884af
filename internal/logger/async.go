package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer flushes and stops a handler.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// asyncState is shared by an AsyncHandler and every handler derived from it
// through WithAttrs or WithGroup.
type asyncState struct {
	ch      chan asyncRecord
	wg      sync.WaitGroup
	mu      sync.RWMutex // guards closed against sends on a closed channel
	closed  bool
	dropped atomic.Int64
}

type asyncRecord struct {
	handler slog.Handler
	rec     slog.Record
}

// AsyncHandler hands records to a pool of workers over a bounded buffer.
// When the buffer is full, records below slog.LevelError are dropped and
// counted; errors are written synchronously instead. After Close every
// record is written synchronously.
type AsyncHandler struct {
	inner slog.Handler
	state *asyncState
}

// NewAsyncHandler starts workers draining a buffer of chanSize records.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	s := &asyncState{ch: make(chan asyncRecord, chanSize)}
	for range max(workers, 1) {
		s.wg.Add(1)
		go s.drain()
	}
	return &AsyncHandler{inner: inner, state: s}
}

func (s *asyncState) drain() {
	defer s.wg.Done()
	for r := range s.ch {
		_ = r.handler.Handle(context.Background(), r.rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record.
func (h *AsyncHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	s := h.state
	s.mu.RLock()
	if !s.closed {
		select {
		case s.ch <- asyncRecord{handler: h.inner, rec: rec.Clone()}:
			s.mu.RUnlock()
			return nil
		default:
		}
	}
	closed := s.closed
	s.mu.RUnlock()

	if closed || rec.Level >= slog.LevelError {
		return h.inner.Handle(ctx, rec)
	}
	s.dropped.Add(1)
	return nil
}

// WithAttrs returns a handler sharing the buffer and workers.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), state: h.state}
}

// WithGroup returns a handler sharing the buffer and workers.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), state: h.state}
}

// DroppedCount returns the number of records dropped on a full buffer.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.state.dropped.Load()
}

// Close drains the buffer and stops the workers. It is safe to call twice.
func (h *AsyncHandler) Close() {
	s := h.state
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.ch)
	s.mu.Unlock()
	s.wg.Wait()
}

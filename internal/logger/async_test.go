package logger

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
	delay   time.Duration
	block   chan struct{} // when set, Handle waits on it
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	if h.block != nil {
		<-h.block
	}
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	h.mu.Lock()
	h.records = append(h.records, rec)
	h.mu.Unlock()
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.records)
}

func (h *recordingHandler) messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.records))
	for i := range h.records {
		out[i] = h.records[i].Message
	}
	return out
}

func record(level slog.Level, msg string) slog.Record {
	return slog.NewRecord(time.Now(), level, msg, 0)
}

func TestAsyncHandler_CloseFlushes(t *testing.T) {
	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, 1000, 2)

	const total = 200
	for range total {
		_ = ah.Handle(context.Background(), record(slog.LevelInfo, "order recomputed"))
	}
	ah.Close()

	if got := inner.count(); got != total {
		t.Fatalf("records after close = %d, want %d", got, total)
	}
}

func TestAsyncHandler_ConcurrentWrites(t *testing.T) {
	const goroutines, perGoroutine = 50, 100
	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, goroutines*perGoroutine, 4)

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perGoroutine {
				_ = ah.Handle(context.Background(), record(slog.LevelInfo, "payment added"))
			}
		}()
	}
	wg.Wait()
	ah.Close()

	if got := inner.count(); got != goroutines*perGoroutine {
		t.Fatalf("records = %d, want %d", got, goroutines*perGoroutine)
	}
}

func TestAsyncHandler_FullBufferDropsInfoKeepsErrors(t *testing.T) {
	block := make(chan struct{})
	inner := &recordingHandler{block: block}
	ah := NewAsyncHandler(inner, 1, 1)

	// The worker takes the first record and blocks; the second fills the buffer.
	_ = ah.Handle(context.Background(), record(slog.LevelInfo, "first"))
	deadline := time.Now().Add(2 * time.Second)
	for len(ah.state.ch) != 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	_ = ah.Handle(context.Background(), record(slog.LevelInfo, "buffered"))

	for range 10 {
		_ = ah.Handle(context.Background(), record(slog.LevelInfo, "flood"))
	}
	if got := ah.DroppedCount(); got != 10 {
		t.Fatalf("dropped = %d, want 10", got)
	}

	errDone := make(chan struct{})
	go func() {
		_ = ah.Handle(context.Background(), record(slog.LevelError, "commit gap"))
		close(errDone)
	}()
	close(block)
	<-errDone
	ah.Close()

	found := false
	for _, m := range inner.messages() {
		if m == "commit gap" {
			found = true
		}
	}
	if !found {
		t.Fatal("error record was dropped")
	}
	if got := ah.DroppedCount(); got != 10 {
		t.Fatalf("dropped after error = %d, want 10", got)
	}
}

func TestAsyncHandler_AfterCloseIsSynchronous(t *testing.T) {
	inner := &recordingHandler{}
	ah := NewAsyncHandler(inner, 10, 1)
	ah.Close()
	ah.Close()

	derived := ah.WithAttrs([]slog.Attr{slog.String("tenant_id", "t1")})
	if err := derived.Handle(context.Background(), record(slog.LevelInfo, "late")); err != nil {
		t.Fatal(err)
	}
	if got := inner.count(); got != 1 {
		t.Fatalf("records = %d, want 1", got)
	}
}

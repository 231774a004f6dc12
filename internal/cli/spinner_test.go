package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"
)

// syncBuffer is a bytes.Buffer safe for the spinner goroutine and the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSpinnerDrawsMessage(t *testing.T) {
	var buf syncBuffer
	s := startSpinnerTo(context.Background(), &buf, "Rendering card.png...")
	time.Sleep(3 * spinnerTick)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Rendering card.png...") {
		t.Errorf("output %q does not contain the message", out)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Errorf("output %q does not end by clearing the line", out)
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	var buf syncBuffer
	s := startSpinnerTo(context.Background(), &buf, "x")
	s.Stop()
	s.Stop()
}

func TestSpinnerEndsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf syncBuffer
	s := startSpinnerTo(ctx, &buf, "x")
	cancel()

	select {
	case <-s.done:
	case <-time.After(time.Second):
		t.Fatal("spinner still running after context cancellation")
	}
	s.Stop()
}

func TestSpinnerShowsElapsed(t *testing.T) {
	var buf syncBuffer
	s := startSpinnerAt(context.Background(), &buf, "slow", time.Now().Add(-3*time.Second))
	time.Sleep(2 * spinnerTick)
	s.Stop()

	if !strings.Contains(buf.String(), "slow 3s") {
		t.Errorf("output %q does not show elapsed time", buf.String())
	}
}

package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/imprint/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time, rounded to the millisecond.
// Example output: "Rendered 42 documents (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx, or log.Default() if none
// is attached.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}

// =============================================================================
// Debug hooks
// =============================================================================

// logHooks forwards observability events to a logger at debug level.
type logHooks struct {
	logger *log.Logger
}

// registerLogHooks installs logHooks for every event family. It is a no-op
// unless the logger is at debug level.
func registerLogHooks(l *log.Logger) {
	if l.GetLevel() > log.DebugLevel {
		return
	}
	h := logHooks{logger: l}
	observability.SetAssembleHooks(h)
	observability.SetBatchHooks(h)
	observability.SetCacheHooks(h)
	observability.SetHTTPHooks(h)
}

func (h logHooks) OnAssembleStart(_ context.Context, id string, pages int) {
	h.logger.Debug("assemble start", "id", id, "pages", pages)
}

func (h logHooks) OnAssembleComplete(_ context.Context, id string, pages int, d time.Duration, err error) {
	h.logger.Debug("assemble done", "id", id, "pages", pages, "duration", d, "err", err)
}

func (h logHooks) OnPageComposite(_ context.Context, template string, lines int, d time.Duration) {
	h.logger.Debug("page composited", "template", template, "lines", lines, "duration", d)
}

func (h logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h logHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h logHooks) OnRequest(_ context.Context, method, host, path string) {
	h.logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "duration", d)
}

func (h logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

func (h logHooks) OnBatchStart(_ context.Context, batchID string, total int) {
	h.logger.Debug("batch start", "batch", batchID, "total", total)
}

func (h logHooks) OnBatchItem(_ context.Context, batchID string, index int, code string, d time.Duration) {
	h.logger.Debug("batch item", "batch", batchID, "item", index+1, "code", code, "duration", d)
}

func (h logHooks) OnBatchComplete(_ context.Context, batchID string, succeeded, failed int, aborted bool) {
	h.logger.Debug("batch complete", "batch", batchID, "succeeded", succeeded, "failed", failed, "aborted", aborted)
}

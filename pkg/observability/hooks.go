// Package observability provides hooks for metrics, tracing, and logging.
//
// Consumers register hooks at startup and receive events about document
// assembly, batch runs, cache lookups and remote render calls. Libraries
// never depend on a concrete backend:
//
//	func main() {
//	    observability.SetAssembleHooks(&myHooks{})
//	    // ... run application
//	}
//
// Libraries emit events through the registry:
//
//	observability.Assemble().OnAssembleStart(ctx, id, pages)
//	// ... assemble ...
//	observability.Assemble().OnAssembleComplete(ctx, id, pages, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Assemble Hooks
// =============================================================================

// AssembleHooks receives events from the document assembler.
type AssembleHooks interface {
	OnAssembleStart(ctx context.Context, id string, pages int)
	OnAssembleComplete(ctx context.Context, id string, pages int, duration time.Duration, err error)

	// OnPageComposite fires per composited page; carried pages do not fire.
	OnPageComposite(ctx context.Context, template string, lines int, duration time.Duration)
}

// =============================================================================
// Batch Hooks
// =============================================================================

// BatchHooks receives events from the batch runner.
type BatchHooks interface {
	OnBatchStart(ctx context.Context, batchID string, total int)
	// OnBatchItem fires once per finished item; code is empty on success.
	OnBatchItem(ctx context.Context, batchID string, index int, code string, duration time.Duration)
	OnBatchComplete(ctx context.Context, batchID string, succeeded, failed int, aborted bool)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the remote render client.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, host, path string)
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)
	// OnError records a network failure or timeout.
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopAssembleHooks is a no-op implementation of AssembleHooks.
type NoopAssembleHooks struct{}

func (NoopAssembleHooks) OnAssembleStart(context.Context, string, int)                          {}
func (NoopAssembleHooks) OnAssembleComplete(context.Context, string, int, time.Duration, error) {}
func (NoopAssembleHooks) OnPageComposite(context.Context, string, int, time.Duration)           {}

// NoopBatchHooks is a no-op implementation of BatchHooks.
type NoopBatchHooks struct{}

func (NoopBatchHooks) OnBatchStart(context.Context, string, int)                       {}
func (NoopBatchHooks) OnBatchItem(context.Context, string, int, string, time.Duration) {}
func (NoopBatchHooks) OnBatchComplete(context.Context, string, int, int, bool)         {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	assembleHooks AssembleHooks = NoopAssembleHooks{}
	batchHooks    BatchHooks    = NoopBatchHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetAssembleHooks registers assembler hooks. Nil is ignored.
func SetAssembleHooks(h AssembleHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		assembleHooks = h
	}
}

// SetBatchHooks registers batch hooks. Nil is ignored.
func SetBatchHooks(h BatchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		batchHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers HTTP hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Assemble returns the registered assembler hooks.
func Assemble() AssembleHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return assembleHooks
}

// Batch returns the registered batch hooks.
func Batch() BatchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return batchHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	assembleHooks = NoopAssembleHooks{}
	batchHooks = NoopBatchHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}

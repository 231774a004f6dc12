package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	a := NoopAssembleHooks{}
	a.OnAssembleStart(ctx, "42", 2)
	a.OnPageComposite(ctx, "card.png", 3, time.Millisecond)
	a.OnAssembleComplete(ctx, "42", 2, time.Second, nil)

	b := NoopBatchHooks{}
	b.OnBatchStart(ctx, "batch", 5)
	b.OnBatchItem(ctx, "batch", 0, "", time.Second)
	b.OnBatchComplete(ctx, "batch", 4, 1, false)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "artifact")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "127.0.0.1:8000", "/render")
	h.OnResponse(ctx, "POST", "127.0.0.1:8000", "/render", 200, time.Second)
	h.OnError(ctx, "POST", "127.0.0.1:8000", "/render", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Assemble().(NoopAssembleHooks); !ok {
		t.Error("Assemble() should return NoopAssembleHooks by default")
	}
	if _, ok := Batch().(NoopBatchHooks); !ok {
		t.Error("Batch() should return NoopBatchHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	custom := &countingCache{}
	SetCacheHooks(custom)
	if Cache() != custom {
		t.Error("SetCacheHooks should set custom hooks")
	}
	SetCacheHooks(nil)
	if Cache() != custom {
		t.Error("SetCacheHooks(nil) should keep the current hooks")
	}

	Reset()
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Reset should restore NoopCacheHooks")
	}
}

func TestConcurrentAccess(t *testing.T) {
	Reset()
	defer Reset()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetCacheHooks(&countingCache{})
		}()
		go func() {
			defer wg.Done()
			Cache().OnCacheHit(context.Background(), "artifact")
		}()
	}
	wg.Wait()
}

type countingCache struct {
	mu   sync.Mutex
	hits int
}

func (c *countingCache) OnCacheHit(context.Context, string) {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}
func (c *countingCache) OnCacheMiss(context.Context, string)     {}
func (c *countingCache) OnCacheSet(context.Context, string, int) {}

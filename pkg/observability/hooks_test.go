package observability

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Canvas hooks
	c := NoopCanvasHooks{}
	c.OnFrame(ctx, time.Millisecond, 10, 2)
	c.OnPhysicsStep(ctx, 12, time.Millisecond)
	c.OnDrain(ctx, 3, 1, 1)

	// Dispatch hooks
	d := NoopDispatchHooks{}
	d.OnDispatchStart(ctx, "search")
	d.OnDispatchComplete(ctx, "search", time.Second, nil)

	// Cache hooks
	ch := NoopCacheHooks{}
	ch.OnCacheHit(ctx, "search")
	ch.OnCacheMiss(ctx, "visualize")
	ch.OnCacheSet(ctx, "expand", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "localhost:8033", "/api/research")
	h.OnResponse(ctx, "POST", "localhost:8033", "/api/research", 200, time.Second)
	h.OnError(ctx, "POST", "localhost:8033", "/api/research", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Canvas().(NoopCanvasHooks); !ok {
		t.Error("Canvas() should return NoopCanvasHooks by default")
	}
	if _, ok := Dispatch().(NoopDispatchHooks); !ok {
		t.Error("Dispatch() should return NoopDispatchHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customCanvas := &testCanvasHooks{}
	SetCanvasHooks(customCanvas)
	if Canvas() != customCanvas {
		t.Error("SetCanvasHooks should set custom hooks")
	}

	customDispatch := &testDispatchHooks{}
	SetDispatchHooks(customDispatch)
	if Dispatch() != customDispatch {
		t.Error("SetDispatchHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Canvas().(NoopCanvasHooks); !ok {
		t.Error("Reset() should restore NoopCanvasHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testCanvasHooks{}
	SetCanvasHooks(custom)

	// Setting nil should be ignored
	SetCanvasHooks(nil)

	if Canvas() != custom {
		t.Error("SetCanvasHooks(nil) should be ignored")
	}

	Reset()
}

func TestCollector(t *testing.T) {
	Reset()
	defer Reset()

	c := NewCollector("storyboard_test")
	Register(c)

	ctx := context.Background()
	Canvas().OnFrame(ctx, 5*time.Millisecond, 4, 1)
	Canvas().OnDrain(ctx, 2, 1, 3)
	Dispatch().OnDispatchStart(ctx, "search")
	Dispatch().OnDispatchComplete(ctx, "search", time.Second, errors.New("boom"))
	Cache().OnCacheHit(ctx, "search")
	HTTP().OnResponse(ctx, "POST", "localhost", "/api/research", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	for _, want := range []string{
		"storyboard_test_frames_total 1",
		"storyboard_test_frame_nodes_drawn 4",
		"storyboard_test_inbox_applied_total 2",
		"storyboard_test_inbox_stale_total 1",
		"storyboard_test_inbox_rejected_total 3",
		`storyboard_test_dispatch_total{op="search",status="error"} 1`,
		"storyboard_test_dispatch_in_flight 0",
		`storyboard_test_cache_operations_total{key_type="search",result="hit"} 1`,
		`storyboard_test_http_client_requests_total{host="localhost",method="POST",status="OK"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

// Test implementations
type testCanvasHooks struct{ NoopCanvasHooks }
type testDispatchHooks struct{ NoopDispatchHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }

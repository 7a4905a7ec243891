package cache

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(data) != "v" {
		t.Fatalf("Get = %q, %v, %v; want \"v\", true, nil", data, hit, err)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("entry survived Delete")
	}
	if err := c.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete of a missing key should succeed: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry returned as hit")
	}
	if _, err := os.Stat(c.path("k")); !os.IsNotExist(err) {
		t.Error("expired entry not removed")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := os.WriteFile(c.path("k"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v, want miss", hit, err)
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		_ = c.Set(ctx, k, []byte(k), 0)
	}

	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear error: %v", err)
	}
	if n != 3 {
		t.Errorf("Clear removed %d entries, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("entry survived Clear")
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("Clear removed the cache directory: %v", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	type payload struct{ Text string }
	if err := SetJSON(ctx, c, "k", payload{Text: "hi"}, 0); err != nil {
		t.Fatalf("SetJSON error: %v", err)
	}
	var got payload
	ok, err := GetJSON(ctx, c, "k", &got)
	if err != nil || !ok || got.Text != "hi" {
		t.Errorf("GetJSON = %+v, %v, %v", got, ok, err)
	}

	_ = c.Set(ctx, "raw", []byte("not json"), 0)
	if ok, err := GetJSON(ctx, c, "raw", &got); ok || err != nil {
		t.Errorf("undecodable entry: ok=%v err=%v, want miss", ok, err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		opts    Options
		want    string
		wantErr bool
	}{
		{"empty", Options{}, "*cache.NullCache", false},
		{"none", Options{Backend: BackendNone}, "*cache.NullCache", false},
		{"file", Options{Backend: BackendFile, Dir: t.TempDir()}, "*cache.FileCache", false},
		{"redis without address", Options{Backend: BackendRedis}, "", true},
		{"unknown", Options{Backend: "memcached"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Open(ctx, tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Error("Open should fail")
				}
				return
			}
			if err != nil {
				t.Fatalf("Open error: %v", err)
			}
			defer c.Close()
			if got := typeName(c); got != tt.want {
				t.Errorf("Open returned %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(c Cache) string {
	switch c.(type) {
	case *NullCache:
		return "*cache.NullCache"
	case *FileCache:
		return "*cache.FileCache"
	case *RedisCache:
		return "*cache.RedisCache"
	}
	return "?"
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, addr)
	if err != nil {
		t.Fatalf("NewRedisCache error: %v", err)
	}
	defer c.Close()

	key := "storyboard-test:" + t.Name()
	defer c.Delete(ctx, key)
	if err := c.Set(ctx, key, []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit || string(data) != "v" {
		t.Errorf("Get = %q, %v, %v", data, hit, err)
	}
	_ = c.Delete(ctx, key)
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("entry survived Delete")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	key := k.EnrichKey("search", "", "tides")
	if !strings.HasPrefix(key, "enrich:search:") {
		t.Errorf("EnrichKey unexpected prefix: %s", key)
	}
	if k.EnrichKey("search", "", "  tides\n") != key {
		t.Error("surrounding whitespace should not change the key")
	}
	if k.EnrichKey("expand", "", "tides") == key {
		t.Error("different operations should produce different keys")
	}
	if k.EnrichKey("expand", "a", "tides") == k.EnrichKey("expand", "b", "tides") {
		t.Error("different models should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "staging:")

	got := scoped.EnrichKey("search", "", "tides")
	if got != "staging:"+inner.EnrichKey("search", "", "tides") {
		t.Errorf("ScopedKeyer EnrichKey unexpected: %s", got)
	}
}

func TestOptionsKeyer(t *testing.T) {
	plain := Options{}.Keyer().EnrichKey("expand", "m", "x")
	if !strings.HasPrefix(plain, "enrich:expand:") {
		t.Errorf("unscoped key = %q", plain)
	}
	scoped := Options{KeyPrefix: "team-a:"}.Keyer().EnrichKey("expand", "m", "x")
	if scoped != "team-a:"+plain {
		t.Errorf("scoped key = %q, want prefix on %q", scoped, plain)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	if !strings.HasPrefix(scoped.EnrichKey("search", "", "x"), "prefix:enrich:search:") {
		t.Error("nil inner should fall back to DefaultKeyer")
	}
}

package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit || data != nil {
		t.Error("NullCache should not store data")
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("Get on empty cache should miss")
	}

	if err := c.Set(ctx, "pypi:exists:requests", []byte("true"), time.Hour); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	data, hit, err := c.Get(ctx, "pypi:exists:requests")
	if err != nil || !hit {
		t.Fatalf("Get() hit=%v err=%v, want hit", hit, err)
	}
	if string(data) != "true" {
		t.Errorf("Get() = %q, want %q", data, "true")
	}

	if err := c.Delete(ctx, "pypi:exists:requests"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "pypi:exists:requests"); hit {
		t.Error("Get after Delete should miss")
	}
	if err := c.Delete(ctx, "pypi:exists:requests"); err != nil {
		t.Errorf("Delete of missing key should not fail: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "short", []byte("x"), time.Minute)
	_ = c.Set(ctx, "forever", []byte("y"), 0)

	now = now.Add(2 * time.Minute)
	if _, hit, _ := c.Get(ctx, "short"); hit {
		t.Error("expired entry should miss")
	}
	if _, err := os.Stat(c.path("short")); !os.IsNotExist(err) {
		t.Error("expired entry should be removed from disk")
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("entry without ttl should not expire")
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
		t.Errorf("corrupt entry: hit=%v err=%v, want clean miss", hit, err)
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
		t.Errorf("Clear() = %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get after Clear should miss")
	}
	if _, err := os.Stat(c.Dir()); err != nil {
		t.Errorf("Clear should keep the cache directory: %v", err)
	}
}

func TestWithPrefix(t *testing.T) {
	ctx := context.Background()
	inner, _ := NewFileCache(t.TempDir())
	scoped := WithPrefix(inner, "py312:")

	_ = scoped.Set(ctx, "requests", []byte("1"), 0)

	if _, hit, _ := inner.Get(ctx, "py312:requests"); !hit {
		t.Error("prefixed key should be stored in inner cache")
	}
	if _, hit, _ := inner.Get(ctx, "requests"); hit {
		t.Error("unprefixed key should not exist in inner cache")
	}
	if _, hit, _ := scoped.Get(ctx, "requests"); !hit {
		t.Error("scoped Get should see its own key")
	}

	if WithPrefix(inner, "") != Cache(inner) {
		t.Error("empty prefix should return inner unchanged")
	}
	if _, hit, _ := WithPrefix(nil, "x:").Get(ctx, "k"); hit {
		t.Error("nil inner should behave as a null cache")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestRedisCache(t *testing.T) {
	url := os.Getenv("IMPORTAUDIT_REDIS_URL")
	if url == "" {
		t.Skip("IMPORTAUDIT_REDIS_URL not set")
	}
	ctx := context.Background()
	c, err := NewRedisCache(ctx, url)
	if err != nil {
		t.Fatalf("NewRedisCache: %v", err)
	}
	defer c.Close()

	prefix := "importaudit-test:" + t.Name() + ":"
	_ = c.Set(ctx, prefix+"a", []byte("1"), time.Minute)
	_ = c.Set(ctx, prefix+"b", []byte("2"), time.Minute)

	data, hit, err := c.Get(ctx, prefix+"a")
	if err != nil || !hit || string(data) != "1" {
		t.Fatalf("Get() = %q, %v, %v", data, hit, err)
	}
	n, err := c.Clear(ctx, prefix)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("Clear() = %d, want 2", n)
	}
	if _, hit, _ := c.Get(ctx, prefix+"b"); hit {
		t.Error("Get after Clear should miss")
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not-a-url://"); err == nil {
		t.Error("NewRedisCache should reject a malformed url")
	}
}

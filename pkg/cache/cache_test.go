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
	_, hit, err := c.Get(ctx, "key")
	if err != nil || hit {
		t.Errorf("NullCache.Get = hit %v, err %v", hit, err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Errorf("Clear error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, _ := c.Get(ctx, "missing"); hit {
		t.Error("expected miss")
	}
	if err := c.Set(ctx, "feed:a", []byte("<interface/>"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	e, hit, err := c.Get(ctx, "feed:a")
	if err != nil || !hit {
		t.Fatalf("Get = %v, %v", hit, err)
	}
	if string(e.Data) != "<interface/>" {
		t.Errorf("Data = %q", e.Data)
	}
	if e.Expired(time.Now()) {
		t.Error("fresh entry reported expired")
	}
	if !e.Expired(time.Now().Add(2 * time.Hour)) {
		t.Error("entry should expire after TTL")
	}

	if err := c.Delete(ctx, "feed:a"); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "feed:a"); hit {
		t.Error("hit after Delete")
	}
	if err := c.Delete(ctx, "feed:a"); err != nil {
		t.Errorf("Delete of missing key: %v", err)
	}
}

func TestFileCacheKeepsExpiredEntries(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(time.Millisecond)
	e, hit, err := c.Get(ctx, "k")
	if err != nil || !hit {
		t.Fatalf("expired entry should still be returned: hit=%v err=%v", hit, err)
	}
	if !e.Expired(time.Now()) {
		t.Error("entry should be marked expired")
	}
}

func TestFileCacheCorruptEntry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	path := c.path("k")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, hit, err := c.Get(ctx, "k"); hit || err != nil {
		t.Errorf("corrupt entry: hit=%v err=%v", hit, err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("corrupt entry should be removed")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	c, _ := NewFileCache(dir)
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("%d entries left after Clear", len(entries))
	}
	if _, err := os.Stat(dir); err != nil {
		t.Error("Clear should keep the root directory")
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

func TestKeyers(t *testing.T) {
	k := NewDefaultKeyer()
	a := k.FeedKey("http://example.com/a.xml")
	if a != k.FeedKey("http://example.com/a.xml") {
		t.Error("FeedKey should be deterministic")
	}
	if a == k.FeedKey("http://example.com/b.xml") {
		t.Error("different URIs should produce different keys")
	}
	if len(a) != len("feed:")+64 {
		t.Errorf("unexpected key %q", a)
	}

	scoped := NewScopedKeyer(nil, "mirror:")
	if scoped.FeedKey("http://example.com/a.xml") != "mirror:"+a {
		t.Error("ScopedKeyer should prefix the inner key")
	}
}

func TestRedisCacheIntegration(t *testing.T) {
	c, err := NewRedisCache("redis://localhost:6379/15", "feedsolve-test:")
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	ctx := context.Background()
	if err := c.Ping(ctx); err != nil {
		t.Skip("Skipping Redis integration test: redis not available")
	}

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	e, hit, err := c.Get(ctx, "k")
	if err != nil || !hit || string(e.Data) != "v" {
		t.Fatalf("Get = %+v, %v, %v", e, hit, err)
	}
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("hit after Clear")
	}
}

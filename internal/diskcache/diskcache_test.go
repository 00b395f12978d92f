package diskcache

import (
	"bytes"
	"fmt"
	"testing"
	"time"
)

func TestCache_GetPut(t *testing.T) {
	cache, err := Open(Config{Dir: t.TempDir(), MaxSize: 1 << 20})
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}

	data := []byte(`{"sets":["all"]}`)
	if err := cache.Put("manifest.json", "application/json", data); err != nil {
		t.Fatalf("Failed to put data: %v", err)
	}

	got, ct, ok := cache.Get("manifest.json")
	if !ok {
		t.Fatal("Data not found in cache")
	}
	if !bytes.Equal(got, data) || ct != "application/json" {
		t.Errorf("got (%s, %q)", got, ct)
	}

	if _, _, ok := cache.Get("tiles/1_00_0_0.png"); ok {
		t.Error("Found non-existent key")
	}

	stats := cache.GetStats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit / 1 miss", stats)
	}
}

func TestCache_EvictionLRU(t *testing.T) {
	cache, err := Open(Config{Dir: t.TempDir(), MaxSize: 100})
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}

	cache.Put("a", "", bytes.Repeat([]byte("a"), 40))
	time.Sleep(10 * time.Millisecond)
	cache.Put("b", "", bytes.Repeat([]byte("b"), 40))
	time.Sleep(10 * time.Millisecond)

	// Touch "a" so "b" is the LRU entry.
	cache.Get("a")
	time.Sleep(10 * time.Millisecond)

	cache.Put("c", "", bytes.Repeat([]byte("c"), 40))

	if _, _, ok := cache.Get("a"); !ok {
		t.Error("a was evicted but shouldn't have been")
	}
	if _, _, ok := cache.Get("b"); ok {
		t.Error("b was not evicted but should have been")
	}
	if _, _, ok := cache.Get("c"); !ok {
		t.Error("c not found")
	}

	if stats := cache.GetStats(); stats.Evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", stats.Evictions)
	}
}

func TestCache_Expiration(t *testing.T) {
	cache, err := Open(Config{Dir: t.TempDir(), MaxAge: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}

	cache.Put("short-lived", "", []byte("data"))
	if _, _, ok := cache.Get("short-lived"); !ok {
		t.Fatal("Data not found immediately after put")
	}

	time.Sleep(60 * time.Millisecond)
	if _, _, ok := cache.Get("short-lived"); ok {
		t.Error("Expired data was still found")
	}
}

func TestCache_Persistence(t *testing.T) {
	dir := t.TempDir()

	first, err := Open(Config{Dir: dir})
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	first.Put("tiles/1_00_0_0.png", "image/png", []byte("png-bytes"))

	second, err := Open(Config{Dir: dir})
	if err != nil {
		t.Fatalf("Failed to reopen cache: %v", err)
	}
	data, ct, ok := second.Get("tiles/1_00_0_0.png")
	if !ok {
		t.Fatal("Persistent data not found after restart")
	}
	if string(data) != "png-bytes" || ct != "image/png" {
		t.Errorf("Persistent data corrupted: (%s, %q)", data, ct)
	}
}

func TestCache_Clear(t *testing.T) {
	cache, err := Open(Config{Dir: t.TempDir()})
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	for i := 0; i < 10; i++ {
		cache.Put(fmt.Sprintf("key%d", i), "", []byte(fmt.Sprintf("data%d", i)))
	}
	if stats := cache.GetStats(); stats.EntryCount != 10 {
		t.Errorf("Expected 10 entries, got %d", stats.EntryCount)
	}

	if err := cache.Clear(); err != nil {
		t.Fatalf("Failed to clear cache: %v", err)
	}
	if stats := cache.GetStats(); stats.EntryCount != 0 {
		t.Errorf("Expected 0 entries after clear, got %d", stats.EntryCount)
	}
	if _, _, ok := cache.Get("key0"); ok {
		t.Error("Data found after clear")
	}
}

func TestCache_Concurrent(t *testing.T) {
	cache, err := Open(Config{Dir: t.TempDir(), MaxSize: 10 << 20})
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(id int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("key-%d-%d", id, j)
				data := []byte(fmt.Sprintf("data-%d-%d", id, j))
				if err := cache.Put(key, "", data); err != nil {
					t.Errorf("Failed to put: %v", err)
				}
				if got, _, ok := cache.Get(key); !ok || !bytes.Equal(got, data) {
					t.Errorf("Readback mismatch for %s", key)
				}
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}

	stats := cache.GetStats()
	if stats.TotalSize < 0 || stats.EntryCount < 0 {
		t.Errorf("Inconsistent stats: %+v", stats)
	}
}

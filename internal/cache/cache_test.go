package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

var mtime = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func TestCache_PutGet(t *testing.T) {
	c := New(5*time.Minute, 1024*1024)

	c.Put("ruby/official_snippets.md", Entry{HTML: []byte("<h3>rails</h3>"), Size: 14, ModTime: mtime})

	entry, status := c.Get("ruby/official_snippets.md", mtime)
	if status != StatusHit {
		t.Errorf("status = %q, want hit", status)
	}
	if string(entry.HTML) != "<h3>rails</h3>" {
		t.Errorf("HTML = %q", string(entry.HTML))
	}
}

func TestCache_Miss(t *testing.T) {
	c := New(5*time.Minute, 1024*1024)

	entry, status := c.Get("nonexistent", mtime)
	if status != StatusMiss {
		t.Errorf("status = %q, want miss", status)
	}
	if entry != nil {
		t.Error("entry should be nil for miss")
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New(5*time.Minute, 1024*1024)

	now := time.Now()
	c.now = func() time.Time { return now }

	c.Put("key1", Entry{HTML: []byte("data"), Size: 4, ModTime: mtime})

	c.now = func() time.Time { return now.Add(6 * time.Minute) }

	entry, status := c.Get("key1", mtime)
	if status != StatusExpired {
		t.Errorf("status = %q, want expired", status)
	}
	if entry != nil {
		t.Error("expired entries should not be returned")
	}
	if c.Len() != 0 || c.Size() != 0 {
		t.Errorf("expired entry not dropped: len=%d size=%d", c.Len(), c.Size())
	}
}

func TestCache_StaleOnModTimeChange(t *testing.T) {
	c := New(5*time.Minute, 1024*1024)

	c.Put("key1", Entry{HTML: []byte("old"), Size: 3, ModTime: mtime})

	entry, status := c.Get("key1", mtime.Add(time.Second))
	if status != StatusStale {
		t.Errorf("status = %q, want stale", status)
	}
	if entry != nil {
		t.Error("stale entries should not be returned")
	}
	if _, status := c.Get("key1", mtime); status != StatusMiss {
		t.Errorf("stale entry should be dropped, got %q", status)
	}
}

func TestCache_LRUEviction(t *testing.T) {
	c := New(5*time.Minute, 100)

	c.Put("a", Entry{HTML: []byte("aaa"), Size: 40, ModTime: mtime})
	c.Put("b", Entry{HTML: []byte("bbb"), Size: 40, ModTime: mtime})
	c.Put("c", Entry{HTML: []byte("ccc"), Size: 40, ModTime: mtime})

	_, status := c.Get("a", mtime)
	if status != StatusMiss {
		t.Errorf("'a' should be evicted, got status %q", status)
	}

	_, status = c.Get("b", mtime)
	if status != StatusHit {
		t.Errorf("'b' should still be cached, got status %q", status)
	}
}

func TestCache_LRUEviction_AccessOrder(t *testing.T) {
	c := New(5*time.Minute, 100)

	c.Put("a", Entry{HTML: []byte("aaa"), Size: 40, ModTime: mtime})
	c.Put("b", Entry{HTML: []byte("bbb"), Size: 40, ModTime: mtime})

	c.Get("a", mtime)

	c.Put("c", Entry{HTML: []byte("ccc"), Size: 40, ModTime: mtime})

	_, status := c.Get("a", mtime)
	if status != StatusHit {
		t.Error("'a' was accessed recently and should not be evicted")
	}

	_, status = c.Get("b", mtime)
	if status != StatusMiss {
		t.Error("'b' should be evicted as LRU")
	}
}

func TestCache_OversizeEntryNotStored(t *testing.T) {
	c := New(5*time.Minute, 100)

	c.Put("small", Entry{Size: 10, ModTime: mtime})
	c.Put("huge", Entry{Size: 500, ModTime: mtime})

	if _, status := c.Get("huge", mtime); status != StatusMiss {
		t.Errorf("oversize entry status = %q, want miss", status)
	}
	if _, status := c.Get("small", mtime); status != StatusHit {
		t.Errorf("oversize entry evicted everything else, status = %q", status)
	}
}

func TestCache_UpdateExisting(t *testing.T) {
	c := New(5*time.Minute, 1024*1024)

	c.Put("key1", Entry{HTML: []byte("old"), Size: 3, ModTime: mtime})
	c.Put("key1", Entry{HTML: []byte("new data"), Size: 8, ModTime: mtime})

	entry, status := c.Get("key1", mtime)
	if status != StatusHit {
		t.Errorf("status = %q, want hit", status)
	}
	if string(entry.HTML) != "new data" {
		t.Errorf("HTML = %q, want new data", string(entry.HTML))
	}

	if c.Size() != 8 {
		t.Errorf("Size = %d, want 8 (updated entry size)", c.Size())
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New(5*time.Minute, 1024*1024)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key%d", i%10)
			c.Put(key, Entry{HTML: []byte("data"), Size: 4, ModTime: mtime})
			c.Get(key, mtime)
		}(i)
	}
	wg.Wait()

	if c.Len() > 10 {
		t.Errorf("Len = %d, expected <= 10", c.Len())
	}
}

func TestCache_SizeAccounting(t *testing.T) {
	c := New(5*time.Minute, 1024*1024)

	c.Put("a", Entry{Size: 100})
	c.Put("b", Entry{Size: 200})

	if c.Size() != 300 {
		t.Errorf("Size = %d, want 300", c.Size())
	}
	if c.Len() != 2 {
		t.Errorf("Len = %d, want 2", c.Len())
	}
}

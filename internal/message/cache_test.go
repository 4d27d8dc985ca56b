package message

import (
	"testing"
)

func TestCache_PutAndGet(t *testing.T) {
	cache := NewCache(0)

	cache.Put("a", "<p>a</p>")
	cache.Put("b", "<p>b</p>")

	if got, ok := cache.Get("a"); !ok || got != "<p>a</p>" {
		t.Errorf("Get(a) = %q, %v", got, ok)
	}
	if _, ok := cache.Get("missing"); ok {
		t.Error("Get(missing) should miss")
	}
}

func TestCache_UnboundedByDefault(t *testing.T) {
	cache := NewCache(0)
	for i := 0; i < 500; i++ {
		cache.Put(string(rune('a'+i%26))+string(rune(i)), "x")
	}
	if cache.Size() != 500 {
		t.Errorf("Size() = %d, want 500", cache.Size())
	}
}

func TestCache_LRUEviction(t *testing.T) {
	cache := NewCache(3)

	cache.Put("a", "1")
	cache.Put("b", "2")
	cache.Put("c", "3")

	// Access "a" to make it recently used
	cache.Get("a")

	// Should evict "b"
	cache.Put("d", "4")

	for _, k := range []string{"a", "c", "d"} {
		if _, ok := cache.Get(k); !ok {
			t.Errorf("%q should not have been evicted", k)
		}
	}
	if _, ok := cache.Get("b"); ok {
		t.Error("'b' should have been evicted")
	}
}

func TestCache_UpdateAndClear(t *testing.T) {
	cache := NewCache(3)
	cache.Put("key", "original")
	cache.Put("key", "updated")

	if got, _ := cache.Get("key"); got != "updated" {
		t.Errorf("Get(key) = %q, want updated", got)
	}
	if cache.Size() != 1 {
		t.Errorf("Size() = %d, want 1", cache.Size())
	}

	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("Size() after Clear = %d", cache.Size())
	}
	if _, ok := cache.Get("key"); ok {
		t.Error("cleared entry still present")
	}
}

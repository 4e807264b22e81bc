package fieldmark

import (
	"testing"
	"time"
)

func TestTemplateCachePrepare(t *testing.T) {
	template := testTemplate(t, "<w:p><w:r><w:t>${name}</w:t></w:r></w:p>")
	cache := NewTemplateCache(New(), CacheConfig{MaxSize: 2})

	first, err := cache.Prepare("invoice", template)
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}
	second, err := cache.Prepare("invoice", template)
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}
	if first != second {
		t.Error("second Prepare re-parsed instead of hitting the cache")
	}
	if cache.Size() != 1 {
		t.Errorf("Size = %d, want 1", cache.Size())
	}
}

func TestTemplateCacheDisabled(t *testing.T) {
	template := testTemplate(t, "<w:p><w:r><w:t>${name}</w:t></w:r></w:p>")
	cache := NewTemplateCache(New(), CacheConfig{})

	first, err := cache.Prepare("k", template)
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}
	second, err := cache.Prepare("k", template)
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}
	if first == second {
		t.Error("disabled cache returned a shared instance")
	}
	if cache.Size() != 0 {
		t.Errorf("Size = %d, want 0", cache.Size())
	}
}

func TestTemplateCacheLRUEviction(t *testing.T) {
	template := testTemplate(t, "<w:p><w:r><w:t>${name}</w:t></w:r></w:p>")
	cache := NewTemplateCache(New(), CacheConfig{MaxSize: 2})

	for _, key := range []string{"a", "b"} {
		if _, err := cache.Prepare(key, template); err != nil {
			t.Fatalf("Prepare(%s) error: %v", key, err)
		}
	}
	// Touch a so b becomes least recently used.
	if _, ok := cache.Get("a"); !ok {
		t.Fatal("a missing before eviction")
	}
	if _, err := cache.Prepare("c", template); err != nil {
		t.Fatalf("Prepare(c) error: %v", err)
	}

	if _, ok := cache.Get("b"); ok {
		t.Error("least recently used entry survived eviction")
	}
	if _, ok := cache.Get("a"); !ok {
		t.Error("recently used entry evicted")
	}
	if _, ok := cache.Get("c"); !ok {
		t.Error("newest entry missing")
	}
}

func TestTemplateCacheTTL(t *testing.T) {
	template := testTemplate(t, "<w:p><w:r><w:t>${name}</w:t></w:r></w:p>")
	cache := NewTemplateCache(New(), CacheConfig{MaxSize: 4, TTL: time.Nanosecond})

	if _, err := cache.Prepare("k", template); err != nil {
		t.Fatalf("Prepare error: %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, ok := cache.Get("k"); ok {
		t.Error("expired entry still served")
	}
	if cache.Size() != 0 {
		t.Errorf("Size = %d, want expired entry dropped", cache.Size())
	}
}

func TestTemplateCacheRemoveAndClear(t *testing.T) {
	template := testTemplate(t, "<w:p><w:r><w:t>${name}</w:t></w:r></w:p>")
	cache := NewTemplateCache(New(), CacheConfig{MaxSize: 4})

	cache.Set("x", mustPrepare(t, template))
	cache.Set("y", mustPrepare(t, template))
	cache.Remove("x")
	if _, ok := cache.Get("x"); ok {
		t.Error("removed entry still present")
	}
	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("Size = %d after Clear, want 0", cache.Size())
	}
}

func mustPrepare(t *testing.T, template []byte) *PreparedTemplate {
	t.Helper()
	pt, err := New().Prepare(template)
	if err != nil {
		t.Fatalf("Prepare error: %v", err)
	}
	return pt
}

func TestMemoryRegistry(t *testing.T) {
	template := testTemplate(t, "<w:p><w:r><w:t>${name}</w:t></w:r></w:p>")
	reg := NewMemoryRegistry()

	if err := reg.Put("invoice", template); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if err := reg.Put("letter", template); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := reg.Get("invoice")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(got) != len(template) {
		t.Errorf("stored template length %d, want %d", len(got), len(template))
	}

	ids, err := reg.List()
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(ids) != 2 || ids[0] != "invoice" || ids[1] != "letter" {
		t.Errorf("List = %v, want sorted ids", ids)
	}

	if err := reg.Delete("invoice"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := reg.Get("invoice"); err == nil {
		t.Error("Get succeeded after Delete")
	}
}

func TestMemoryRegistryRejectsInvalid(t *testing.T) {
	reg := NewMemoryRegistry()
	if err := reg.Put("bad", []byte("not a container")); err == nil {
		t.Error("Put accepted a broken container")
	}
	if err := reg.Put("", testTemplate(t, "<w:p/>")); err == nil {
		t.Error("Put accepted an empty id")
	}
}

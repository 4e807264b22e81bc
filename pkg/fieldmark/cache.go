package fieldmark

import (
	"container/list"
	"sync"
	"time"
)

// CacheConfig controls the prepared-template cache.
type CacheConfig struct {
	// MaxSize is the maximum number of prepared templates held. Zero
	// disables caching: every Prepare parses the template anew.
	MaxSize int
	// TTL expires cached entries after this duration. Zero means no
	// expiration.
	TTL time.Duration
}

// TemplateCache keeps prepared templates keyed by caller-chosen ids so
// repeated renders of the same template skip the open-normalize-parse
// pipeline. Eviction is least-recently-used.
type TemplateCache struct {
	mu      sync.Mutex
	engine  *Engine
	entries map[string]*cacheEntry
	lru     *list.List
	config  CacheConfig
}

type cacheEntry struct {
	key      string
	template *PreparedTemplate
	expiry   time.Time
	element  *list.Element
}

// NewTemplateCache builds a cache preparing templates through the given
// engine. A nil engine uses the default engine.
func NewTemplateCache(engine *Engine, config CacheConfig) *TemplateCache {
	if engine == nil {
		engine = DefaultEngine
	}
	return &TemplateCache{
		engine:  engine,
		entries: make(map[string]*cacheEntry),
		lru:     list.New(),
		config:  config,
	}
}

// Prepare returns the cached prepared template for key, or parses
// templateBytes and caches the result.
func (tc *TemplateCache) Prepare(key string, templateBytes []byte) (*PreparedTemplate, error) {
	if tc.config.MaxSize == 0 {
		return tc.engine.Prepare(templateBytes)
	}

	if pt, ok := tc.Get(key); ok {
		return pt, nil
	}

	pt, err := tc.engine.Prepare(templateBytes)
	if err != nil {
		return nil, err
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.insert(key, pt)
	return pt, nil
}

// Get returns the cached template for key without preparing anything.
func (tc *TemplateCache) Get(key string) (*PreparedTemplate, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	entry, ok := tc.entries[key]
	if !ok {
		return nil, false
	}
	if tc.config.TTL > 0 && time.Now().After(entry.expiry) {
		tc.evict(entry)
		return nil, false
	}
	tc.lru.MoveToFront(entry.element)
	return entry.template, true
}

// Set stores a prepared template under key, replacing any previous
// entry.
func (tc *TemplateCache) Set(key string, pt *PreparedTemplate) {
	if tc.config.MaxSize == 0 {
		return
	}
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if entry, ok := tc.entries[key]; ok {
		entry.template = pt
		if tc.config.TTL > 0 {
			entry.expiry = time.Now().Add(tc.config.TTL)
		}
		tc.lru.MoveToFront(entry.element)
		return
	}
	tc.insert(key, pt)
}

// Remove drops the entry for key if present.
func (tc *TemplateCache) Remove(key string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	if entry, ok := tc.entries[key]; ok {
		tc.evict(entry)
	}
}

// Clear drops every entry.
func (tc *TemplateCache) Clear() {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.entries = make(map[string]*cacheEntry)
	tc.lru = list.New()
}

// Size returns the current entry count.
func (tc *TemplateCache) Size() int {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return len(tc.entries)
}

// insert assumes tc.mu is held.
func (tc *TemplateCache) insert(key string, pt *PreparedTemplate) {
	if tc.lru.Len() >= tc.config.MaxSize {
		if oldest := tc.lru.Back(); oldest != nil {
			tc.evict(oldest.Value.(*cacheEntry))
		}
	}
	entry := &cacheEntry{key: key, template: pt}
	if tc.config.TTL > 0 {
		entry.expiry = time.Now().Add(tc.config.TTL)
	}
	entry.element = tc.lru.PushFront(entry)
	tc.entries[key] = entry
}

// evict assumes tc.mu is held.
func (tc *TemplateCache) evict(entry *cacheEntry) {
	delete(tc.entries, entry.key)
	tc.lru.Remove(entry.element)
}

package selection

import "sync"

// Cache holds loaded model artifacts keyed by model version, plus the
// currently active version. It lives for the process lifetime and is shared
// by every concurrent selection request, so the (version, model) pair swap is
// guarded by one mutual-exclusion boundary: readers never observe a
// half-updated pair. Not an LRU; the number of distinct versions served in a
// process lifetime is small, so unbounded growth is acceptable.
type Cache struct {
	mu      sync.RWMutex
	active  string
	model   map[string]any
	metrics map[string]map[string]any
}

// NewCache creates an empty model cache
func NewCache() *Cache {
	return &Cache{
		model:   make(map[string]any),
		metrics: make(map[string]map[string]any),
	}
}

// Active returns the currently active model version, or ""
func (c *Cache) Active() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Get returns the loaded artifact for a version if it is cached
func (c *Cache) Get(version string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.model[version]
	return m, ok
}

// Metrics returns the parsed metrics for a cached version
func (c *Cache) Metrics(version string) (map[string]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.metrics[version]
	return m, ok
}

// Swap stores a loaded artifact and its metrics and marks the version active,
// atomically with respect to concurrent readers. A single-writer-wins race on
// simultaneous reloads of the same version is fine: the reload is idempotent.
func (c *Cache) Swap(version string, model any, metrics map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model[version] = model
	c.metrics[version] = metrics
	c.active = version
}

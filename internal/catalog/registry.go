package catalog

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/fdg312/dietplan/internal/logger"
)

// Registry caches one catalog per source path. Concurrent first requests for
// the same path share a single load.
type Registry struct {
	log   *logger.Logger
	load  func(path string, log *logger.Logger) *Catalog
	group singleflight.Group

	mu       sync.RWMutex
	catalogs map[string]*Catalog
}

func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		log:      logger.OrNop(log),
		load:     LoadOrDefault,
		catalogs: make(map[string]*Catalog),
	}
}

// Get returns the catalog for path, loading it on first use. A path that
// fails to load resolves to the built-in dishes.
func (r *Registry) Get(path string) *Catalog {
	r.mu.RLock()
	c, ok := r.catalogs[path]
	r.mu.RUnlock()
	if ok {
		return c
	}

	v, _, _ := r.group.Do(path, func() (interface{}, error) {
		r.mu.RLock()
		c, ok := r.catalogs[path]
		r.mu.RUnlock()
		if ok {
			return c, nil
		}
		c = r.load(path, r.log)
		r.mu.Lock()
		r.catalogs[path] = c
		r.mu.Unlock()
		return c, nil
	})
	return v.(*Catalog)
}

// Len reports how many paths are cached.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.catalogs)
}

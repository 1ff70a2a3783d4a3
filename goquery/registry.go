package goquery

import (
	"sync"

	"github.com/chen893/radar"
)

var _ radar.AdapterRegistry = (*Registry)(nil)

// Registry selects platform adapters for URLs. Adapters are consulted in
// registration order, so specific platforms must be registered before the
// generic catch-all. A generic adapter is always available: one is created
// on demand if none was registered.
type Registry struct {
	mu       sync.RWMutex
	adapters []radar.Adapter
}

// NewRegistry creates a Registry holding adapters in priority order.
func NewRegistry(adapters ...radar.Adapter) *Registry {
	r := &Registry{}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

// NewDefaultRegistry registers the Reddit and Zhihu adapters followed by
// generic. A nil generic leaves the catch-all to be created on demand.
func NewDefaultRegistry(generic radar.Adapter) *Registry {
	r := NewRegistry(NewRedditAdapter(), NewZhihuAdapter())
	if generic != nil {
		r.Register(generic)
	}
	return r
}

// Register appends an adapter. Nil adapters are ignored.
func (r *Registry) Register(adapter radar.Adapter) {
	if adapter == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters = append(r.adapters, adapter)
}

// Adapter returns the first non-generic adapter that can handle url,
// otherwise the generic adapter. It never returns nil.
func (r *Registry) Adapter(url string) radar.Adapter {
	r.mu.RLock()
	var generic radar.Adapter
	for _, a := range r.adapters {
		if a.Platform() == radar.PlatformGeneric {
			if generic == nil {
				generic = a
			}
			continue
		}
		if a.CanHandle(url) {
			r.mu.RUnlock()
			return a
		}
	}
	r.mu.RUnlock()

	if generic != nil {
		return generic
	}
	return r.ensureGeneric()
}

// DetectPlatform returns the platform of the adapter selected for url.
func (r *Registry) DetectPlatform(url string) radar.Platform {
	return r.Adapter(url).Platform()
}

// List returns the registered platforms in priority order.
func (r *Registry) List() []radar.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()
	platforms := make([]radar.Platform, 0, len(r.adapters))
	for _, a := range r.adapters {
		platforms = append(platforms, a.Platform())
	}
	return platforms
}

func (r *Registry) ensureGeneric() radar.Adapter {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.adapters {
		if a.Platform() == radar.PlatformGeneric {
			return a
		}
	}
	g := NewGenericAdapter(nil)
	r.adapters = append(r.adapters, g)
	return g
}

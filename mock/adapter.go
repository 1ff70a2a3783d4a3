package mock

import "github.com/chen893/radar"

// Compile-time interface verification.
var (
	_ radar.Adapter         = (*Adapter)(nil)
	_ radar.AdapterRegistry = (*AdapterRegistry)(nil)
)

// Adapter is a mock implementation of radar.Adapter.
type Adapter struct {
	CanHandleFn func(url string) bool
	PlatformFn  func() radar.Platform
	ExtractFn   func(snapshot *radar.Snapshot) *radar.ExtractionResult
}

func (a *Adapter) CanHandle(url string) bool {
	return a.CanHandleFn(url)
}

func (a *Adapter) Platform() radar.Platform {
	return a.PlatformFn()
}

func (a *Adapter) Extract(snapshot *radar.Snapshot) *radar.ExtractionResult {
	return a.ExtractFn(snapshot)
}

// AdapterRegistry is a mock implementation of radar.AdapterRegistry.
type AdapterRegistry struct {
	RegisterFn       func(adapter radar.Adapter)
	AdapterFn        func(url string) radar.Adapter
	DetectPlatformFn func(url string) radar.Platform
	ListFn           func() []radar.Platform
}

func (r *AdapterRegistry) Register(adapter radar.Adapter) {
	r.RegisterFn(adapter)
}

func (r *AdapterRegistry) Adapter(url string) radar.Adapter {
	return r.AdapterFn(url)
}

func (r *AdapterRegistry) DetectPlatform(url string) radar.Platform {
	return r.DetectPlatformFn(url)
}

func (r *AdapterRegistry) List() []radar.Platform {
	return r.ListFn()
}

package observe

import (
	"runtime"
	"sync"
	"weak"
)

// proxyMap maps raw objects to their canonical wrapper.
//
// Both sides are held weakly: a wrapper references its raw object, so an
// entry is only useful while the wrapper is reachable, and it is evicted
// once the wrapper is collected. Registering an object never extends its
// lifetime.
type proxyMap struct {
	mu      sync.Mutex
	entries map[weak.Pointer[Object]]weak.Pointer[Proxy]
}

func newProxyMap() *proxyMap {
	return &proxyMap{entries: make(map[weak.Pointer[Object]]weak.Pointer[Proxy])}
}

var (
	// reactiveMap holds mutable and shallow wrappers.
	reactiveMap = newProxyMap()
	// readonlyMap holds readonly wrappers.
	readonlyMap = newProxyMap()
)

func registryFor(readonly bool) *proxyMap {
	if readonly {
		return readonlyMap
	}
	return reactiveMap
}

// get returns the live wrapper registered for raw, or nil.
func (m *proxyMap) get(raw *Object) *Proxy {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wp, ok := m.entries[weak.Make(raw)]; ok {
		return wp.Value()
	}
	return nil
}

// getOrCreate returns the wrapper registered for raw, creating and
// registering one with create if there is none. Concurrent callers for the
// same raw object all receive the same wrapper.
func (m *proxyMap) getOrCreate(raw *Object, create func() *Proxy) *Proxy {
	key := weak.Make(raw)

	m.mu.Lock()
	defer m.mu.Unlock()

	if wp, ok := m.entries[key]; ok {
		if p := wp.Value(); p != nil {
			return p
		}
	}

	p := create()
	m.entries[key] = weak.Make(p)
	runtime.AddCleanup(p, m.evict, key)
	return p
}

// evict removes the entry for key if its wrapper has been collected. A newer
// wrapper registered under the same key is left alone.
func (m *proxyMap) evict(key weak.Pointer[Object]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wp, ok := m.entries[key]; ok && wp.Value() == nil {
		delete(m.entries, key)
	}
}

// len returns the number of entries whose wrapper is still reachable.
func (m *proxyMap) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, wp := range m.entries {
		if wp.Value() != nil {
			n++
		}
	}
	return n
}

// RegistryStats reports the number of live wrappers in each registry.
type RegistryStats struct {
	Reactive int `json:"reactive"`
	Readonly int `json:"readonly"`
}

// Registries returns the current registry sizes.
func Registries() RegistryStats {
	return RegistryStats{
		Reactive: reactiveMap.len(),
		Readonly: readonlyMap.len(),
	}
}

package observe

// Handler intercepts the internal methods of a wrapper. target is always
// the raw object; receiver is the object the operation was made on,
// normally the wrapper itself.
type Handler interface {
	Get(target *Object, key Key, receiver Target) any
	Set(target *Object, key Key, value any, receiver Target) bool
	Has(target *Object, key Key) bool
	OwnKeys(target *Object) []Key
	DeleteProperty(target *Object, key Key) bool
}

// Proxy is an observation wrapper over exactly one raw object. Proxies are
// only created by Reactive, ShallowReactive and Readonly, which guarantee
// one canonical wrapper per raw object and mode.
type Proxy struct {
	target  *Object
	handler Handler
}

func newProxy(target *Object, handler Handler) *Proxy {
	return &Proxy{target: target, handler: handler}
}

// GetProperty routes to the handler's Get trap.
func (p *Proxy) GetProperty(key Key, receiver Target) any {
	return p.handler.Get(p.target, key, receiver)
}

// SetProperty routes to the handler's Set trap.
func (p *Proxy) SetProperty(key Key, value any, receiver Target) bool {
	return p.handler.Set(p.target, key, value, receiver)
}

// HasProperty routes to the handler's Has trap.
func (p *Proxy) HasProperty(key Key) bool {
	return p.handler.Has(p.target, key)
}

// DeleteProperty routes to the handler's DeleteProperty trap.
func (p *Proxy) DeleteProperty(key Key) bool {
	return p.handler.DeleteProperty(p.target, key)
}

// OwnKeys routes to the handler's OwnKeys trap.
func (p *Proxy) OwnKeys() []Key {
	return p.handler.OwnKeys(p.target)
}

// HasOwnProperty is not intercepted.
func (p *Proxy) HasOwnProperty(key Key) bool {
	return p.target.HasOwnProperty(key)
}

// DefineOwnValue is not intercepted: it is how a trapped write finally
// lands on the raw object when the wrapper is the receiver.
func (p *Proxy) DefineOwnValue(key Key, value any) bool {
	return p.target.DefineOwnValue(key, value)
}

// Get reads key (any value KeyOf accepts) through the wrapper.
func (p *Proxy) Get(key any) any {
	return p.GetProperty(KeyOf(key), p)
}

// Set writes key through the wrapper and reports success. Writes to a
// readonly wrapper report success without changing anything.
func (p *Proxy) Set(key any, value any) bool {
	return p.SetProperty(KeyOf(key), value, p)
}

// Has reports whether key is present, tracking the test.
func (p *Proxy) Has(key any) bool {
	return p.HasProperty(KeyOf(key))
}

// Delete removes key through the wrapper and reports success.
func (p *Proxy) Delete(key any) bool {
	return p.DeleteProperty(KeyOf(key))
}

// Keys enumerates own keys through the wrapper, tracking iteration.
func (p *Proxy) Keys() []Key {
	return p.OwnKeys()
}

// Len returns the array length read through the wrapper, or for objects the
// number of own keys (which tracks iteration).
func (p *Proxy) Len() int {
	if p.target.IsArray() {
		return lengthOf(p)
	}
	return len(p.OwnKeys())
}

// Call invokes the method named name with the wrapper as this. On arrays
// the search and mutation methods resolve to their instrumented versions.
func (p *Proxy) Call(name string, args ...any) any {
	return Call(p, name, args...)
}

// IsArray reports whether the wrapped object is an array.
func (p *Proxy) IsArray() bool {
	return p.target.IsArray()
}

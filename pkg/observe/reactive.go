package observe

// Reactive returns the mutable wrapper for value. Non-objects and readonly
// wrappers are returned unchanged; a readonly value is never downgraded to a
// mutable one.
func Reactive(value any) any {
	if t, ok := value.(Target); ok && IsObject(value) && truthy(t.GetProperty(IsReadonlyKey, t)) {
		return value
	}
	return createReactiveObject(value, false, mutableHandlers)
}

// Readonly returns the readonly wrapper for value. Reads through it are not
// tracked, writes and deletes are rejected, and nested objects are wrapped
// readonly on read.
func Readonly(value any) any {
	return createReactiveObject(value, true, readonlyHandlers)
}

// ShallowReactive returns a wrapper that tracks and triggers like Reactive
// but returns nested objects raw. It shares Reactive's registry, so a raw
// object already wrapped by Reactive yields that wrapper.
func ShallowReactive(value any) any {
	return createReactiveObject(value, false, shallowReactiveHandlers)
}

// shallowReadonly is the readonly counterpart of ShallowReactive. It is not
// part of the public API.
func shallowReadonly(value any) any {
	return createReactiveObject(value, true, shallowReadonlyHandlers)
}

func createReactiveObject(value any, readonly bool, handler Handler) any {
	if !IsObject(value) {
		return value
	}

	registry := registryFor(readonly)
	raw, isRaw := value.(*Object)
	if isRaw {
		if existing := registry.get(raw); existing != nil {
			return existing
		}
	}

	// Anything answering the raw sentinel and one of the mode sentinels is
	// already a wrapper, whatever its mode.
	t := value.(Target)
	if truthy(t.GetProperty(RawKey, t)) &&
		(truthy(t.GetProperty(IsReactiveKey, t)) || truthy(t.GetProperty(IsReadonlyKey, t))) {
		return value
	}
	if !isRaw {
		return value
	}

	return registry.getOrCreate(raw, func() *Proxy {
		return newProxy(raw, handler)
	})
}

// ToRaw returns the raw object behind a wrapper, or value itself if it is
// not one. The lookup is never tracked.
func ToRaw(value any) any {
	t, ok := value.(Target)
	if !ok || !IsObject(value) {
		return value
	}
	var raw any
	Untracked(func() {
		raw = t.GetProperty(RawKey, t)
	})
	if truthy(raw) {
		return raw
	}
	return value
}

// IsReactive reports whether value is a mutable or shallow wrapper.
func IsReactive(value any) bool {
	p, ok := value.(*Proxy)
	return ok && p != nil && truthy(p.GetProperty(IsReactiveKey, p))
}

// IsReadonly reports whether value is a readonly wrapper.
func IsReadonly(value any) bool {
	p, ok := value.(*Proxy)
	return ok && p != nil && truthy(p.GetProperty(IsReadonlyKey, p))
}

// IsProxy reports whether value is a wrapper of any mode.
func IsProxy(value any) bool {
	return IsReactive(value) || IsReadonly(value)
}

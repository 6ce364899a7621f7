package observe

import "strconv"

// baseHandler implements the traps for mutable and shallow wrappers, and the
// read traps for readonly ones.
type baseHandler struct {
	readonly bool
	shallow  bool
}

// readonlyHandler rejects every write and delete.
type readonlyHandler struct {
	baseHandler
}

var (
	mutableHandlers         Handler = &baseHandler{}
	shallowReactiveHandlers Handler = &baseHandler{shallow: true}
	readonlyHandlers        Handler = &readonlyHandler{baseHandler{readonly: true}}
	shallowReadonlyHandlers Handler = &readonlyHandler{baseHandler{readonly: true, shallow: true}}
)

func (h *baseHandler) Get(target *Object, key Key, receiver Target) any {
	switch key {
	case IsReactiveKey:
		return !h.readonly
	case IsReadonlyKey:
		return h.readonly
	case RawKey:
		// Only the canonical wrapper may hand out its raw object, not an
		// object that merely inherits from it.
		if p := registryFor(h.readonly).get(target); p != nil && Target(p) == receiver {
			return target
		}
	}

	if target.IsArray() {
		if m, ok := arrayInstrumentations[key]; ok {
			return m
		}
	}

	res := target.GetProperty(key, receiver)

	if !IsBuiltInSymbol(key) && key != ProtoKey && !h.readonly {
		Track(target, TrackGet, key)
	}

	if h.shallow {
		return res
	}
	if IsObject(res) {
		if h.readonly {
			return Readonly(res)
		}
		return Reactive(res)
	}
	return res
}

func (h *baseHandler) Set(target *Object, key Key, value any, receiver Target) bool {
	hadKey := target.HasOwnProperty(key)
	oldVal := target.GetProperty(key, target)

	needUpdateLength := false
	if target.IsArray() {
		if i, ok := arrayIndex(key); ok {
			needUpdateLength = i >= target.Len()-1
		}
	}

	if !hadKey {
		Trigger(target, TriggerAdd, key)
		if needUpdateLength {
			Trigger(target, TriggerSet, LengthKey)
		}
	} else if HasChanged(oldVal, value) {
		Trigger(target, TriggerSet, key)
		if target.IsArray() && key == LengthKey {
			oldLen := toInt(oldVal)
			if newLen, ok := toLength(value); ok && newLen < oldLen {
				for i := newLen; i < oldLen; i++ {
					Trigger(target, TriggerDelete, Name(strconv.Itoa(i)))
				}
			}
		}
	}

	return target.SetProperty(key, value, receiver)
}

func (h *baseHandler) Has(target *Object, key Key) bool {
	if !h.readonly {
		Track(target, TrackHas, key)
	}
	return target.HasProperty(key)
}

func (h *baseHandler) OwnKeys(target *Object) []Key {
	if !h.readonly {
		Track(target, TrackIterate, IterateKey)
	}
	return target.OwnKeys()
}

func (h *baseHandler) DeleteProperty(target *Object, key Key) bool {
	hadKey := target.HasOwnProperty(key)
	res := target.DeleteProperty(key)
	if hadKey && res {
		Trigger(target, TriggerDelete, key)
	}
	return res
}

// Set leaves target unchanged and reports success.
func (h *readonlyHandler) Set(target *Object, key Key, _ any, _ Target) bool {
	logger().Warn("observe: set operation on readonly target rejected",
		"key", key.String(),
		"target", target.ID(),
	)
	return true
}

// DeleteProperty leaves target unchanged and reports success.
func (h *readonlyHandler) DeleteProperty(target *Object, key Key) bool {
	logger().Warn("observe: delete operation on readonly target rejected",
		"key", key.String(),
		"target", target.ID(),
	)
	return true
}

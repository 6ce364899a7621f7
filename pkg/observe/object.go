package observe

import (
	"maps"
	"slices"
	"strconv"
)

// Target is the set of object internal methods. Raw objects and wrappers
// both implement it, and every intercepted operation is expressed in these
// terms.
//
// receiver is the object the operation was originally made on. Getters and
// setters run with receiver as this, and writes that create a property
// define it on receiver.
type Target interface {
	GetProperty(key Key, receiver Target) any
	SetProperty(key Key, value any, receiver Target) bool
	HasProperty(key Key) bool
	DeleteProperty(key Key) bool
	OwnKeys() []Key
	HasOwnProperty(key Key) bool
	DefineOwnValue(key Key, value any) bool
}

// Method is a callable property value. this is the object the method was
// read from.
type Method func(this Target, args ...any) any

// Accessor is a getter/setter pair stored as a property. Either half may be
// nil: reading a property without a getter yields nil, writing one without a
// setter fails.
type Accessor struct {
	Get func(this Target) any
	Set func(this Target, value any)
}

type holeMarker struct{}

// Hole marks a missing element when passed to NewArray. Reading a hole
// yields nil, but HasOwnProperty reports false for it.
var Hole any = &holeMarker{}

type objectKind uint8

const (
	kindObject objectKind = iota
	kindArray
)

// maxDenseGap is how far past the dense element storage a write may land
// and still be stored densely. Writes further out go to the sparse map.
const maxDenseGap = 1024

// Object is a raw object or array.
//
// Objects keep own properties in insertion order. Arrays keep a dense
// prefix of elements, with holes, plus a sparse map for elements written
// far past it, and expose a magic "length": writing an index at or past
// length grows the array, writing a smaller length truncates it. Growing
// length allocates nothing. Other keys on an array behave like object
// properties.
//
// An Object is not safe for concurrent mutation.
type Object struct {
	id     uint64
	kind   objectKind
	proto  Target
	props  map[Key]any
	order  []Key
	elems  []any
	sparse map[int]any // indices >= len(elems)
	length int
	frozen bool
}

// NewObject creates an empty raw object with no prototype.
func NewObject() *Object {
	return &Object{id: nextID(), props: make(map[Key]any)}
}

// NewArray creates a raw array holding values. Pass Hole for a missing
// element.
func NewArray(values ...any) *Object {
	elems := make([]any, len(values))
	copy(elems, values)
	return &Object{
		id:    nextID(),
		kind:  kindArray,
		proto: arrayPrototype,
		props: make(map[Key]any),
		elems:  elems,
		length: len(elems),
	}
}

// Create creates an empty raw object whose prototype is proto. Reads of keys
// the object does not own continue on proto with the original receiver;
// proto may itself be a wrapper.
func Create(proto Target) *Object {
	o := NewObject()
	o.proto = proto
	return o
}

// ID returns the object's unique identifier.
func (o *Object) ID() uint64 {
	if o == nil {
		return 0
	}
	return o.id
}

// IsArray reports whether o is an array.
func (o *Object) IsArray() bool {
	return o.kind == kindArray
}

// Prototype returns o's prototype, or nil.
func (o *Object) Prototype() Target {
	return o.proto
}

// Freeze makes o immutable: later writes and deletes of existing
// properties fail, and no properties can be added.
func (o *Object) Freeze() *Object {
	o.frozen = true
	return o
}

// IsFrozen reports whether Freeze was called.
func (o *Object) IsFrozen() bool {
	return o.frozen
}

// own returns the own property value for key (an *Accessor for accessor
// properties).
func (o *Object) own(key Key) (any, bool) {
	if o.kind == kindArray {
		if key == LengthKey {
			return o.length, true
		}
		if i, ok := arrayIndex(key); ok {
			return o.element(i)
		}
	}
	v, ok := o.props[key]
	return v, ok
}

// GetProperty reads key, running getters with receiver as this and
// continuing along the prototype chain for keys o does not own.
func (o *Object) GetProperty(key Key, receiver Target) any {
	if key == ProtoKey {
		return o.proto
	}
	if v, ok := o.own(key); ok {
		if acc, isAcc := v.(*Accessor); isAcc {
			if acc.Get == nil {
				return nil
			}
			return acc.Get(receiver)
		}
		return v
	}
	if o.proto != nil {
		return o.proto.GetProperty(key, receiver)
	}
	return nil
}

// SetProperty writes key. An own setter runs with receiver as this; an
// inherited key continues on the prototype; otherwise the value is defined
// on receiver.
func (o *Object) SetProperty(key Key, value any, receiver Target) bool {
	v, ok := o.own(key)
	if !ok {
		if o.proto != nil {
			return o.proto.SetProperty(key, value, receiver)
		}
	} else {
		if acc, isAcc := v.(*Accessor); isAcc {
			if acc.Set == nil {
				return false
			}
			acc.Set(receiver, value)
			return true
		}
		if o.frozen {
			return false
		}
	}
	if receiver == nil {
		return false
	}
	return receiver.DefineOwnValue(key, value)
}

// DefineOwnValue creates or overwrites an own data property. It fails on a
// frozen object, over an own accessor, and for invalid array lengths.
func (o *Object) DefineOwnValue(key Key, value any) bool {
	if o.frozen {
		return false
	}
	if o.kind == kindArray {
		if key == LengthKey {
			n, ok := toLength(value)
			if !ok {
				return false
			}
			o.setLength(n)
			return true
		}
		if i, ok := arrayIndex(key); ok {
			o.setElement(i, value)
			return true
		}
	}
	if existing, ok := o.props[key]; ok {
		if _, isAcc := existing.(*Accessor); isAcc {
			return false
		}
	} else {
		o.order = append(o.order, key)
	}
	o.props[key] = value
	return true
}

// DefineAccessor defines an own accessor property. It returns o for
// chaining.
func (o *Object) DefineAccessor(key any, get func(this Target) any, set func(this Target, value any)) *Object {
	k := KeyOf(key)
	if _, ok := o.props[k]; !ok {
		o.order = append(o.order, k)
	}
	o.props[k] = &Accessor{Get: get, Set: set}
	return o
}

// element returns the element at i and whether it is present.
func (o *Object) element(i int) (any, bool) {
	if i < len(o.elems) {
		if v := o.elems[i]; v != Hole {
			return v, true
		}
		return nil, false
	}
	v, ok := o.sparse[i]
	return v, ok
}

func (o *Object) setElement(i int, v any) {
	switch {
	case i < len(o.elems):
		o.elems[i] = v
	case i-len(o.elems) <= maxDenseGap:
		o.growTo(i + 1)
		o.elems[i] = v
	default:
		if o.sparse == nil {
			o.sparse = make(map[int]any)
		}
		o.sparse[i] = v
	}
	if i >= o.length {
		o.length = i + 1
	}
}

func (o *Object) setLength(n int) {
	if n < len(o.elems) {
		clear(o.elems[n:])
		o.elems = o.elems[:n]
	}
	for i := range o.sparse {
		if i >= n {
			delete(o.sparse, i)
		}
	}
	o.length = n
}

// growTo extends the dense storage to n with holes, moving in any sparse
// elements it now covers.
func (o *Object) growTo(n int) {
	o.elems = slices.Grow(o.elems, n-len(o.elems))
	for len(o.elems) < n {
		o.elems = append(o.elems, Hole)
	}
	for i, v := range o.sparse {
		if i < n {
			o.elems[i] = v
			delete(o.sparse, i)
		}
	}
}

// sparseIndices returns the sparse element indices in ascending order.
func (o *Object) sparseIndices() []int {
	if len(o.sparse) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(o.sparse))
}

// HasProperty reports whether key is an own or inherited property.
func (o *Object) HasProperty(key Key) bool {
	if _, ok := o.own(key); ok {
		return true
	}
	if o.proto != nil {
		return o.proto.HasProperty(key)
	}
	return false
}

// HasOwnProperty reports whether key is an own property.
func (o *Object) HasOwnProperty(key Key) bool {
	_, ok := o.own(key)
	return ok
}

// DeleteProperty removes an own property. Deleting a key o does not own
// succeeds. Array length cannot be deleted; deleting an element leaves a
// hole and does not change length.
func (o *Object) DeleteProperty(key Key) bool {
	if !o.HasOwnProperty(key) {
		return true
	}
	if o.frozen {
		return false
	}
	if o.kind == kindArray {
		if key == LengthKey {
			return false
		}
		if i, ok := arrayIndex(key); ok {
			if i < len(o.elems) {
				o.elems[i] = Hole
			} else {
				delete(o.sparse, i)
			}
			return true
		}
	}
	delete(o.props, key)
	if i := slices.Index(o.order, key); i >= 0 {
		o.order = slices.Delete(o.order, i, i+1)
	}
	return true
}

// OwnKeys returns the own keys: integer keys ascending, then other names in
// insertion order, then symbols in insertion order. Arrays list present
// element indices, then "length", then their other keys.
func (o *Object) OwnKeys() []Key {
	keys := make([]Key, 0, len(o.elems)+len(o.sparse)+len(o.order)+1)
	if o.kind == kindArray {
		for i, v := range o.elems {
			if v != Hole {
				keys = append(keys, indexKey(i))
			}
		}
		for _, i := range o.sparseIndices() {
			keys = append(keys, indexKey(i))
		}
	}

	var ints []Key
	for _, k := range o.order {
		if IsIntegerKey(k) {
			ints = append(ints, k)
		}
	}
	slices.SortFunc(ints, func(a, b Key) int {
		ai, _ := strconv.ParseFloat(a.String(), 64)
		bi, _ := strconv.ParseFloat(b.String(), 64)
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	})
	keys = append(keys, ints...)

	if o.kind == kindArray {
		keys = append(keys, LengthKey)
	}
	for _, k := range o.order {
		if n, ok := k.(Name); ok && !IsIntegerKey(n) {
			keys = append(keys, k)
		}
	}
	for _, k := range o.order {
		if _, ok := k.(*Symbol); ok {
			keys = append(keys, k)
		}
	}
	return keys
}

// Get reads key (any value KeyOf accepts) with o as the receiver.
func (o *Object) Get(key any) any {
	return o.GetProperty(KeyOf(key), o)
}

// Set writes key with o as the receiver and reports success.
func (o *Object) Set(key any, value any) bool {
	return o.SetProperty(KeyOf(key), value, o)
}

// With writes key and returns o, for building literals:
//
//	grade := NewObject().With("math", 90).With("english", 15)
func (o *Object) With(key any, value any) *Object {
	o.Set(key, value)
	return o
}

// Has reports whether key is an own or inherited property.
func (o *Object) Has(key any) bool {
	return o.HasProperty(KeyOf(key))
}

// Delete removes an own property and reports success.
func (o *Object) Delete(key any) bool {
	return o.DeleteProperty(KeyOf(key))
}

// Keys returns OwnKeys.
func (o *Object) Keys() []Key {
	return o.OwnKeys()
}

// Len returns the array length, or the number of own keys for objects.
func (o *Object) Len() int {
	if o.kind == kindArray {
		return o.length
	}
	return len(o.order)
}

// Call invokes the method named name on o.
func (o *Object) Call(name string, args ...any) any {
	return Call(o, name, args...)
}

// Call reads the method named name through t and invokes it with t as this.
// It returns nil if the property is not a Method.
func Call(t Target, name string, args ...any) any {
	m, ok := t.GetProperty(Name(name), t).(Method)
	if !ok {
		return nil
	}
	return m(t, args...)
}

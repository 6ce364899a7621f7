package observe

// arrayPrototype is the prototype of every raw array. It holds the native
// array methods, which work on any Target through its internal methods.
// Set in init: the methods themselves create arrays.
var arrayPrototype *Object

func newArrayPrototype() *Object {
	proto := NewObject()
	for name, m := range map[string]Method{
		"includes":    arrayIncludes,
		"indexOf":     arrayIndexOf,
		"lastIndexOf": arrayLastIndexOf,
		"push":        arrayPush,
		"pop":         arrayPop,
		"shift":       arrayShift,
		"unshift":     arrayUnshift,
		"splice":      arraySplice,
	} {
		proto.props[Name(name)] = m
		proto.order = append(proto.order, Name(name))
	}
	return proto.Freeze()
}

// arrayInstrumentations replaces array methods when read through a wrapper.
// The search methods look at the raw array and retry with unwrapped
// arguments; the mutation methods run with tracking paused, because they
// both read and write length and would otherwise subscribe the running
// computation to the very change it is making.
var arrayInstrumentations = map[Key]Method{}

func init() {
	arrayPrototype = newArrayPrototype()
	for _, name := range []string{"includes", "indexOf", "lastIndexOf"} {
		arrayInstrumentations[Name(name)] = instrumentSearch(nativeMethod(name))
	}
	for _, name := range []string{"push", "pop", "shift", "unshift", "splice"} {
		arrayInstrumentations[Name(name)] = instrumentMutation(nativeMethod(name))
	}
}

func nativeMethod(name string) Method {
	return arrayPrototype.props[Name(name)].(Method)
}

func instrumentSearch(native Method) Method {
	return func(this Target, args ...any) any {
		raw, ok := ToRaw(this).(Target)
		if !ok {
			return native(this, args...)
		}
		if arr, ok := raw.(*Object); ok {
			for i, n := 0, lengthOf(this); i < n; i++ {
				Track(arr, TrackGet, indexKey(i))
			}
		}
		res := native(raw, args...)
		if !notFound(res) {
			return res
		}
		unwrapped := make([]any, len(args))
		for i, a := range args {
			unwrapped[i] = ToRaw(a)
		}
		return native(raw, unwrapped...)
	}
}

func notFound(res any) bool {
	switch r := res.(type) {
	case int:
		return r == -1
	case bool:
		return !r
	}
	return false
}

func instrumentMutation(native Method) Method {
	return func(this Target, args ...any) any {
		var res any
		Untracked(func() {
			res = native(this, args...)
		})
		return res
	}
}

// lengthOf reads "length" through t.
func lengthOf(t Target) int {
	return toInt(t.GetProperty(LengthKey, t))
}

func setLengthOf(t Target, n int) {
	t.SetProperty(LengthKey, n, t)
}

func getIndex(t Target, i int) any {
	return t.GetProperty(indexKey(i), t)
}

func setIndex(t Target, i int, v any) {
	t.SetProperty(indexKey(i), v, t)
}

// relativeIndex resolves a possibly negative index argument against n,
// clamping to [0, n].
func relativeIndex(arg any, n int) int {
	i := toInt(arg)
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
	}
	if i > n {
		return n
	}
	return i
}

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

// includes(value [, fromIndex]) compares with SameValueZero and treats holes
// as nil.
func arrayIncludes(this Target, args ...any) any {
	n := lengthOf(this)
	if n == 0 {
		return false
	}
	search := argAt(args, 0)
	start := 0
	if len(args) > 1 {
		start = relativeIndex(args[1], n)
	}
	for i := start; i < n; i++ {
		if SameValueZero(getIndex(this, i), search) {
			return true
		}
	}
	return false
}

// indexOf(value [, fromIndex]) compares with StrictEquals and skips holes.
func arrayIndexOf(this Target, args ...any) any {
	n := lengthOf(this)
	if n == 0 {
		return -1
	}
	search := argAt(args, 0)
	start := 0
	if len(args) > 1 {
		start = relativeIndex(args[1], n)
	}
	for i := start; i < n; i++ {
		if this.HasProperty(indexKey(i)) && StrictEquals(getIndex(this, i), search) {
			return i
		}
	}
	return -1
}

// lastIndexOf(value [, fromIndex]) searches backwards from fromIndex.
func arrayLastIndexOf(this Target, args ...any) any {
	n := lengthOf(this)
	if n == 0 {
		return -1
	}
	search := argAt(args, 0)
	start := n - 1
	if len(args) > 1 {
		start = toInt(args[1])
		if start < 0 {
			start += n
		} else if start > n-1 {
			start = n - 1
		}
	}
	for i := start; i >= 0; i-- {
		if this.HasProperty(indexKey(i)) && StrictEquals(getIndex(this, i), search) {
			return i
		}
	}
	return -1
}

// push(items...) appends and returns the new length.
func arrayPush(this Target, args ...any) any {
	n := lengthOf(this)
	for _, v := range args {
		setIndex(this, n, v)
		n++
	}
	setLengthOf(this, n)
	return n
}

// pop() removes and returns the last element.
func arrayPop(this Target, _ ...any) any {
	n := lengthOf(this)
	if n == 0 {
		setLengthOf(this, 0)
		return nil
	}
	last := getIndex(this, n-1)
	this.DeleteProperty(indexKey(n - 1))
	setLengthOf(this, n-1)
	return last
}

// shift() removes and returns the first element.
func arrayShift(this Target, _ ...any) any {
	n := lengthOf(this)
	if n == 0 {
		setLengthOf(this, 0)
		return nil
	}
	first := getIndex(this, 0)
	for k := 1; k < n; k++ {
		moveElement(this, k, k-1)
	}
	this.DeleteProperty(indexKey(n - 1))
	setLengthOf(this, n-1)
	return first
}

// unshift(items...) prepends and returns the new length.
func arrayUnshift(this Target, args ...any) any {
	n := lengthOf(this)
	count := len(args)
	if count > 0 {
		for k := n; k > 0; k-- {
			moveElement(this, k-1, k+count-1)
		}
		for j, v := range args {
			setIndex(this, j, v)
		}
	}
	setLengthOf(this, n+count)
	return n + count
}

// splice(start [, deleteCount [, items...]]) removes deleteCount elements at
// start, inserts items there, and returns the removed elements as a new raw
// array.
func arraySplice(this Target, args ...any) any {
	n := lengthOf(this)
	start := 0
	if len(args) > 0 {
		start = relativeIndex(args[0], n)
	}
	var deleteCount int
	var items []any
	switch len(args) {
	case 0:
		deleteCount = 0
	case 1:
		deleteCount = n - start
	default:
		deleteCount = toInt(args[1])
		if deleteCount < 0 {
			deleteCount = 0
		}
		if deleteCount > n-start {
			deleteCount = n - start
		}
		items = args[2:]
	}

	removed := NewArray()
	for k := 0; k < deleteCount; k++ {
		if from := indexKey(start + k); this.HasProperty(from) {
			removed.DefineOwnValue(indexKey(k), this.GetProperty(from, this))
		}
	}
	removed.setLength(deleteCount)

	itemCount := len(items)
	switch {
	case itemCount < deleteCount:
		for k := start; k < n-deleteCount; k++ {
			moveElement(this, k+deleteCount, k+itemCount)
		}
		for k := n; k > n-deleteCount+itemCount; k-- {
			this.DeleteProperty(indexKey(k - 1))
		}
	case itemCount > deleteCount:
		for k := n - deleteCount; k > start; k-- {
			moveElement(this, k+deleteCount-1, k+itemCount-1)
		}
	}
	for j, v := range items {
		setIndex(this, start+j, v)
	}
	setLengthOf(this, n-deleteCount+itemCount)
	return removed
}

// moveElement copies element from to index to, deleting to when from is a
// hole.
func moveElement(t Target, from, to int) {
	fromKey := indexKey(from)
	if t.HasProperty(fromKey) {
		setIndex(t, to, t.GetProperty(fromKey, t))
		return
	}
	t.DeleteProperty(indexKey(to))
}

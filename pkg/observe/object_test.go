package observe

import (
	"reflect"
	"runtime"
	"testing"
)

func keyStrings(keys []Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.String()
	}
	return out
}

func TestObjectOwnKeysOrder(t *testing.T) {
	sym := NewSymbol("s")
	o := NewObject().
		With("b", 1).
		With(sym, 2).
		With("10", 3).
		With("a", 4).
		With("2", 5)

	got := keyStrings(o.Keys())
	want := []string{"2", "10", "b", "a", "Symbol(s)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected keys %v, got %v", want, got)
	}

	o.Delete("b")
	o.Set("b", 6)
	got = keyStrings(o.Keys())
	want = []string{"2", "10", "a", "b", "Symbol(s)"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected re-added key at the end, got %v", got)
	}
}

func TestArrayHolesAndLength(t *testing.T) {
	inner := NewObject().With("a", 4)
	arr := NewArray(3, inner, Hole, 3)

	if arr.Len() != 4 {
		t.Fatalf("expected length 4, got %d", arr.Len())
	}
	if arr.HasOwnProperty(Name("2")) {
		t.Error("hole should not be an own property")
	}
	if arr.Get(2) != nil {
		t.Errorf("expected nil for hole, got %v", arr.Get(2))
	}
	if got := keyStrings(arr.Keys()); !reflect.DeepEqual(got, []string{"0", "1", "3", "length"}) {
		t.Errorf("unexpected array keys %v", got)
	}

	arr.Set(6, "x")
	if arr.Len() != 7 {
		t.Errorf("expected write past the end to grow length to 7, got %d", arr.Len())
	}
	if arr.Has(5) {
		t.Error("expected gap to be a hole")
	}

	arr.Set("length", 2)
	if arr.Len() != 2 || arr.Get(3) != nil {
		t.Errorf("expected truncation to length 2, got %d", arr.Len())
	}

	if arr.Set("length", -1) || arr.Set("length", 1.5) {
		t.Error("invalid lengths should be rejected")
	}
	if arr.Delete("length") {
		t.Error("length should not be deletable")
	}

	arr.Set("foo", "bar")
	if got := keyStrings(arr.Keys()); !reflect.DeepEqual(got, []string{"0", "1", "length", "foo"}) {
		t.Errorf("unexpected keys after named write %v", got)
	}
}

func TestArraySparseStorage(t *testing.T) {
	arr := NewArray(1, 2, 3)

	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)
	arr.Set("4294967294", "far")
	arr.Set("length", 4294967295)
	runtime.ReadMemStats(&after)

	if grown := after.TotalAlloc - before.TotalAlloc; grown > 1<<20 {
		t.Errorf("expected a far write to allocate little, allocated %d bytes", grown)
	}
	if arr.Len() != 4294967295 {
		t.Errorf("expected length 4294967295, got %d", arr.Len())
	}
	if arr.Get("4294967294") != "far" {
		t.Errorf("expected far element, got %v", arr.Get("4294967294"))
	}
	if arr.Has(5000) {
		t.Error("expected the gap to be holes")
	}
	if got := keyStrings(arr.Keys()); !reflect.DeepEqual(got, []string{"0", "1", "2", "4294967294", "length"}) {
		t.Errorf("unexpected keys %v", got)
	}

	if !arr.Delete("4294967294") || arr.HasOwnProperty(Name("4294967294")) {
		t.Error("expected the far element to be deletable")
	}
	if arr.Len() != 4294967295 {
		t.Errorf("deleting an element should keep length, got %d", arr.Len())
	}
}

func TestArraySparseTruncate(t *testing.T) {
	arr := NewArray(1)
	arr.Set(5000, "a")
	arr.Set(9000, "b")

	arr.Set("length", 6000)
	if arr.Len() != 6000 || arr.Has(9000) {
		t.Errorf("expected truncation to drop index 9000, length %d", arr.Len())
	}
	if arr.Get(5000) != "a" {
		t.Errorf("expected index 5000 to survive, got %v", arr.Get(5000))
	}

	arr.Set("length", 1)
	if arr.Has(5000) {
		t.Error("expected truncation to drop index 5000")
	}
	arr.Set("length", 5001)
	if arr.Has(5000) {
		t.Error("growing length again must not revive dropped elements")
	}
}

func TestArrayFillsInTowardSparseElement(t *testing.T) {
	arr := NewArray()
	arr.Set(2000, "x")
	for i := 0; i < 2000; i++ {
		arr.Set(i, i)
	}

	if arr.Len() != 2001 {
		t.Errorf("expected length 2001, got %d", arr.Len())
	}
	if arr.Get(2000) != "x" || arr.Get(1999) != 1999 {
		t.Errorf("unexpected elements %v %v", arr.Get(1999), arr.Get(2000))
	}
	if n := len(arr.Keys()); n != 2002 {
		t.Errorf("expected 2001 indices plus length, got %d keys", n)
	}
	if len(arr.sparse) != 0 {
		t.Errorf("expected the sparse element to move into dense storage, %d left", len(arr.sparse))
	}
}

func TestAccessorRunsWithReceiver(t *testing.T) {
	grade := NewObject().With("math", 90).With("english", 15)
	grade.DefineAccessor("total", func(this Target) any {
		return ToNumber(this.GetProperty(Name("math"), this)) + ToNumber(this.GetProperty(Name("english"), this))
	}, nil)

	if got := ToNumber(grade.Get("total")); got != 105 {
		t.Errorf("expected 105, got %v", got)
	}
	if grade.Set("total", 1) {
		t.Error("writing an accessor without setter should fail")
	}

	var seen Target
	grade.DefineAccessor("spy", nil, func(this Target, v any) { seen = this })
	grade.Set("spy", 1)
	if seen != Target(grade) {
		t.Error("setter should receive the receiver as this")
	}
	if grade.Get("spy") != nil {
		t.Error("accessor without getter should read nil")
	}
}

func TestPrototypeChain(t *testing.T) {
	parent := NewObject().With("shared", 1)
	child := Create(parent)

	if child.Get("shared") != 1 {
		t.Errorf("expected inherited read, got %v", child.Get("shared"))
	}
	if !child.Has("shared") || child.HasOwnProperty(Name("shared")) {
		t.Error("inherited key should be present but not own")
	}
	if child.Get(ProtoKey) != Target(parent) {
		t.Error("__proto__ should return the prototype")
	}

	child.Set("shared", 2)
	if parent.Get("shared") != 1 || child.Get("shared") != 2 {
		t.Error("writing an inherited data property should define it on the receiver")
	}
}

func TestFreeze(t *testing.T) {
	o := NewObject().With("a", 1).Freeze()

	if o.Set("a", 2) || o.Get("a") != 1 {
		t.Error("frozen object should reject writes")
	}
	if o.Set("b", 1) || o.Has("b") {
		t.Error("frozen object should reject new properties")
	}
	if o.Delete("a") || !o.Has("a") {
		t.Error("frozen object should reject deletes")
	}
	if !o.Delete("missing") {
		t.Error("deleting a missing key should succeed")
	}
	if !o.IsFrozen() {
		t.Error("expected IsFrozen")
	}
}

func TestArrayNativeMethods(t *testing.T) {
	arr := NewArray(1, 2, 3)

	if got := arr.Call("push", 4, 5); got != 5 {
		t.Errorf("push: expected 5, got %v", got)
	}
	if got := arr.Call("pop"); got != 5 {
		t.Errorf("pop: expected 5, got %v", got)
	}
	if got := arr.Call("shift"); got != 1 {
		t.Errorf("shift: expected 1, got %v", got)
	}
	if got := arr.Call("unshift", 0, 1); got != 5 {
		t.Errorf("unshift: expected 5, got %v", got)
	}
	assertElements(t, arr, 0, 1, 2, 3, 4)

	removed := arr.Call("splice", 1, 2, "a", "b", "c").(*Object)
	assertElements(t, removed, 1, 2)
	assertElements(t, arr, 0, "a", "b", "c", 3, 4)

	removed = arr.Call("splice", -2).(*Object)
	assertElements(t, removed, 3, 4)
	assertElements(t, arr, 0, "a", "b", "c")

	arr.Call("splice", 1, 2)
	assertElements(t, arr, 0, "c")

	if got := arr.Call("indexOf", "c"); got != 1 {
		t.Errorf("indexOf: expected 1, got %v", got)
	}
	if got := arr.Call("lastIndexOf", 0); got != 0 {
		t.Errorf("lastIndexOf: expected 0, got %v", got)
	}
	if got := arr.Call("includes", "z"); got != false {
		t.Errorf("includes: expected false, got %v", got)
	}
	if NewArray().Call("pop") != nil {
		t.Error("pop on empty array should return nil")
	}
	if arr.Call("missing") != nil {
		t.Error("calling an unknown method should return nil")
	}
}

func TestArraySearchSemantics(t *testing.T) {
	nan := ToNumber("x")
	arr := NewArray(1, nan, Hole, 1)

	if arr.Call("includes", nan) != true {
		t.Error("includes should find NaN")
	}
	if arr.Call("indexOf", nan) != -1 {
		t.Error("indexOf should never find NaN")
	}
	if arr.Call("includes", nil) != true {
		t.Error("includes should see holes as nil")
	}
	if arr.Call("indexOf", nil) != -1 {
		t.Error("indexOf should skip holes")
	}
	if arr.Call("lastIndexOf", 1) != 3 {
		t.Error("lastIndexOf should search from the end")
	}
	if arr.Call("indexOf", 1, 1) != 3 {
		t.Error("indexOf should honour fromIndex")
	}
}

func assertElements(t *testing.T, arr *Object, want ...any) {
	t.Helper()
	if arr.Len() != len(want) {
		t.Fatalf("expected length %d, got %d", len(want), arr.Len())
	}
	for i, w := range want {
		if got := arr.Get(i); !SameValue(got, w) {
			t.Errorf("index %d: expected %v, got %v", i, w, got)
		}
	}
}

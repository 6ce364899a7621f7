package observe

import (
	"runtime"
	"sync"
	"testing"
)

func TestReactiveIdentityStability(t *testing.T) {
	o := NewObject().With("a", 1)

	if Reactive(o) != Reactive(o) {
		t.Error("Reactive should return the same wrapper for the same object")
	}
	if Readonly(o) != Readonly(o) {
		t.Error("Readonly should return the same wrapper for the same object")
	}
	if Reactive(o) == Readonly(o) {
		t.Error("Reactive and Readonly wrappers should be distinct")
	}
}

func TestReactiveIdempotentRewrap(t *testing.T) {
	o := NewObject()
	r := Reactive(o)
	ro := Readonly(NewObject())

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"reactive of reactive", Reactive(r), r},
		{"readonly of reactive", Readonly(r), r},
		{"shallow of reactive", ShallowReactive(r), r},
		{"readonly of readonly", Readonly(ro), ro},
		{"shallow of readonly", ShallowReactive(ro), ro},
		{"reactive of readonly", Reactive(ro), ro},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: expected the wrapper unchanged", tt.name)
		}
	}
}

func TestReactiveDoesNotDowngradeReadonly(t *testing.T) {
	ro := Readonly(NewObject().With("a", 1))
	got := Reactive(ro)
	if got != ro {
		t.Fatal("Reactive(Readonly(o)) should return the readonly wrapper")
	}
	if !IsReadonly(got) || IsReactive(got) {
		t.Error("result should still be readonly")
	}
}

func TestReactiveNonObjectsPassThrough(t *testing.T) {
	for _, v := range []any{nil, 1, "s", true, 2.5, (*Object)(nil)} {
		if Reactive(v) != v || Readonly(v) != v || ShallowReactive(v) != v {
			t.Errorf("expected %#v to pass through unchanged", v)
		}
	}
}

func TestToRaw(t *testing.T) {
	o := NewObject()
	arr := NewArray(1)

	for name, w := range map[string]any{
		"reactive": Reactive(o),
		"readonly": Readonly(o),
		"array":    Reactive(arr),
	} {
		raw := ToRaw(w)
		if raw != any(o) && raw != any(arr) {
			t.Errorf("%s: ToRaw did not return the raw object", name)
		}
	}

	shallow := NewObject()
	if ToRaw(ShallowReactive(shallow)) != any(shallow) {
		t.Error("ToRaw of shallow wrapper should return the raw object")
	}
	if ToRaw(o) != any(o) {
		t.Error("ToRaw of a raw object should return it unchanged")
	}
	if ToRaw(5) != 5 || ToRaw(nil) != nil {
		t.Error("ToRaw of non-objects should return them unchanged")
	}
}

func TestToRawIsNotTracked(t *testing.T) {
	p := Reactive(NewObject())
	child := Create(p.(*Proxy))

	rec := NewRecorder(0)
	WithObserver(rec, func() {
		if ToRaw(child) != any(child) {
			t.Error("an object inheriting from a wrapper is not itself a wrapper")
		}
		ToRaw(p)
	})
	if rec.Len() != 0 {
		t.Errorf("expected no events, got %v", rec.Events())
	}
}

func TestRawSentinelRequiresCanonicalReceiver(t *testing.T) {
	o := NewObject()
	p := Reactive(o).(*Proxy)
	child := Create(p)

	if got := child.Get(RawKey); got != nil {
		t.Errorf("inheriting object should not reach the raw target, got %v", got)
	}
	if got := p.Get(RawKey); got != any(o) {
		t.Error("canonical wrapper should expose its raw target")
	}
}

func TestIntrospectionKeysAreHidden(t *testing.T) {
	p := Reactive(NewObject().With("a", 1)).(*Proxy)

	for _, k := range p.Keys() {
		if k == IsReactiveKey || k == IsReadonlyKey || k == RawKey {
			t.Errorf("introspection key %v should not be enumerable", k)
		}
	}

	rec := NewRecorder(0)
	WithObserver(rec, func() {
		p.Get(IsReactiveKey)
		p.Get(IsReadonlyKey)
		p.Get(RawKey)
	})
	if rec.Len() != 0 {
		t.Errorf("introspection reads should not be tracked, got %v", rec.Events())
	}
}

func TestNestedWrapOnRead(t *testing.T) {
	inner := NewObject().With("b", 1)
	outer := NewObject().With("a", inner)
	p := Reactive(outer).(*Proxy)

	a := p.Get("a")
	if !IsReactive(a) {
		t.Fatal("nested object should be reactive on read")
	}
	if a == any(inner) {
		t.Error("nested read should not return the raw object")
	}
	if ToRaw(a) != any(inner) {
		t.Error("ToRaw of nested wrapper should return the raw nested object")
	}
	if p.Get("a") != a {
		t.Error("repeated nested reads should return the same wrapper")
	}

	ro := Readonly(outer).(*Proxy)
	if !IsReadonly(ro.Get("a")) {
		t.Error("nested object of a readonly wrapper should be readonly")
	}
}

func TestShallowReactive(t *testing.T) {
	inner := NewObject().With("b", 1)
	s := ShallowReactive(NewObject().With("a", inner)).(*Proxy)

	rec := NewRecorder(0)
	WithObserver(rec, func() {
		if got := s.Get("a"); got != any(inner) {
			t.Errorf("shallow read should return the raw nested object, got %v", got)
		}
		s.Set("c", 1)
	})

	assertEvents(t, rec, "track get a", "trigger add c")
	if !IsReactive(s) || IsReadonly(s) {
		t.Error("shallow wrapper should report reactive")
	}
}

func TestShallowSharesReactiveRegistry(t *testing.T) {
	o := NewObject()
	deep := Reactive(o)
	if ShallowReactive(o) != deep {
		t.Error("ShallowReactive should return the existing Reactive wrapper")
	}
}

func TestShallowReadonly(t *testing.T) {
	inner := NewObject()
	raw := NewObject().With("a", inner)
	sr := shallowReadonly(raw).(*Proxy)

	rec := NewRecorder(0)
	WithObserver(rec, func() {
		if sr.Get("a") != any(inner) {
			t.Error("shallow readonly should return nested objects raw")
		}
		sr.Set("a", 1)
	})
	if rec.Len() != 0 {
		t.Errorf("expected no events, got %v", rec.Events())
	}
	if raw.Get("a") != any(inner) {
		t.Error("shallow readonly should reject writes")
	}
	if !IsReadonly(sr) {
		t.Error("expected readonly")
	}
}

func TestRegistryConcurrentGetOrCreate(t *testing.T) {
	o := NewObject()
	const n = 32

	results := make([]any, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			results[i] = Reactive(o)
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatal("concurrent Reactive calls returned different wrappers")
		}
	}
}

//go:noinline
func wrapAndDrop(o *Object) {
	_ = Reactive(o)
}

func TestRegistryDoesNotRetainWrappers(t *testing.T) {
	o := NewObject()
	wrapAndDrop(o)

	for i := 0; i < 20 && reactiveMap.get(o) != nil; i++ {
		runtime.GC()
	}
	if reactiveMap.get(o) != nil {
		t.Error("expected the unreferenced wrapper to be collected")
	}

	p := Reactive(o)
	if reactiveMap.get(o) != p {
		t.Error("a fresh wrapper should be registered after collection")
	}
	runtime.KeepAlive(o)
}

func TestRegistries(t *testing.T) {
	o := NewObject()
	p := Reactive(o)
	ro := Readonly(o)

	stats := Registries()
	if stats.Reactive < 1 || stats.Readonly < 1 {
		t.Errorf("expected live entries in both registries, got %+v", stats)
	}
	runtime.KeepAlive(p)
	runtime.KeepAlive(ro)
}

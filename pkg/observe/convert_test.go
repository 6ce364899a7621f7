package observe

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestFromJSONKeepsDocumentOrder(t *testing.T) {
	v, err := FromJSON([]byte(`{"z": 1, "a": [1, "two", null, {"k": true}], "m": {"y": 2.5}}`))
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}
	o := v.(*Object)

	if got := keyStrings(o.Keys()); !reflect.DeepEqual(got, []string{"z", "a", "m"}) {
		t.Errorf("expected document order, got %v", got)
	}
	if o.Get("z") != 1.0 {
		t.Errorf("expected numbers to decode as float64, got %T", o.Get("z"))
	}
	arr := o.Get("a").(*Object)
	if !arr.IsArray() || arr.Len() != 4 {
		t.Fatal("expected a 4 element array")
	}
	if arr.Get(2) != nil || !arr.Has(2) {
		t.Error("null should be a present nil element, not a hole")
	}
	if arr.Get(3).(*Object).Get("k") != true {
		t.Error("nested object not decoded")
	}
}

func TestFromJSONErrors(t *testing.T) {
	for _, in := range []string{`{"a": }`, `[1, 2`, `{} {}`, ``} {
		if _, err := FromJSON([]byte(in)); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestFromValue(t *testing.T) {
	v, err := FromValue(map[string]any{
		"b": []any{1, "x"},
		"a": map[string]int{"n": 2},
		"c": json.Number("3.5"),
		"d": []string{"p", "q"},
	})
	if err != nil {
		t.Fatalf("FromValue: %v", err)
	}
	o := v.(*Object)

	if got := keyStrings(o.Keys()); !reflect.DeepEqual(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("expected sorted keys, got %v", got)
	}
	if o.Get("a").(*Object).Get("n") != 2 {
		t.Error("typed map not converted")
	}
	if o.Get("c") != 3.5 {
		t.Errorf("json.Number not converted, got %v", o.Get("c"))
	}
	assertElements(t, o.Get("d").(*Object), "p", "q")

	raw := NewObject()
	if got, _ := FromValue(raw); got != any(raw) {
		t.Error("objects should pass through")
	}
}

func TestFromValueUnsupported(t *testing.T) {
	for _, in := range []any{
		make(chan int),
		map[int]string{1: "a"},
		[]any{struct{}{}},
	} {
		if _, err := FromValue(in); !errors.Is(err, ErrUnsupportedValue) {
			t.Errorf("expected ErrUnsupportedValue for %T, got %v", in, err)
		}
	}
}

func TestToNative(t *testing.T) {
	inner := NewObject().With("b", 1)
	o := NewObject().
		With("a", inner).
		With("list", NewArray(1, Hole, "x")).
		With(NewSymbol("hidden"), 1).
		With("fn", Method(func(Target, ...any) any { return nil }))
	o.DefineAccessor("sum", func(this Target) any { return 42 }, nil)

	p := Reactive(o)
	rec := record(func() {
		got, err := ToNative(p)
		if err != nil {
			t.Fatalf("ToNative: %v", err)
		}
		want := map[string]any{
			"a":    map[string]any{"b": 1},
			"list": []any{1, nil, "x"},
			"sum":  42,
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("expected %#v, got %#v", want, got)
		}
	})
	if rec.Len() != 0 {
		t.Errorf("ToNative should not track, got %v", rec.Events())
	}
}

func TestCycleDetection(t *testing.T) {
	o := NewObject()
	o.Set("self", o)

	if _, err := ToNative(o); !errors.Is(err, ErrCycle) {
		t.Errorf("ToNative: expected ErrCycle, got %v", err)
	}
	if _, err := json.Marshal(o); !errors.Is(err, ErrCycle) {
		t.Errorf("MarshalJSON: expected ErrCycle, got %v", err)
	}

	shared := NewObject()
	dag := NewObject().With("x", shared).With("y", shared)
	if _, err := ToNative(dag); err != nil {
		t.Errorf("shared references are not cycles: %v", err)
	}
}

func TestMarshalJSON(t *testing.T) {
	o := NewObject().
		With("z", 1).
		With("a", NewArray(math.NaN(), Hole, "s")).
		With("fn", Method(func(Target, ...any) any { return nil })).
		With(IterateKey, "skip")

	data, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `{"z":1,"a":[null,null,"s"]}` {
		t.Errorf("unexpected encoding %s", data)
	}

	wrapped, err := json.Marshal(Reactive(o))
	if err != nil {
		t.Fatalf("Marshal wrapper: %v", err)
	}
	if string(wrapped) != string(data) {
		t.Errorf("wrapper should encode like its raw object, got %s", wrapped)
	}
}

func TestSparseArrayEncoding(t *testing.T) {
	arr := NewArray()
	arr.Set(2000, "x")

	v, err := ToNative(arr)
	if err != nil {
		t.Fatalf("ToNative: %v", err)
	}
	out := v.([]any)
	if len(out) != 2001 || out[2000] != "x" || out[5] != nil {
		t.Errorf("unexpected native array of length %d", len(out))
	}

	data, err := json.Marshal(arr)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded []any
	if err := json.Unmarshal(data, &decoded); err != nil || len(decoded) != 2001 {
		t.Errorf("expected 2001 encoded elements, got %d (%v)", len(decoded), err)
	}

	arr.Set("length", MaxEncodedLength+1)
	if _, err := ToNative(arr); !errors.Is(err, ErrArrayTooLarge) {
		t.Errorf("expected ErrArrayTooLarge from ToNative, got %v", err)
	}
	if _, err := json.Marshal(arr); !errors.Is(err, ErrArrayTooLarge) {
		t.Errorf("expected ErrArrayTooLarge from Marshal, got %v", err)
	}
}

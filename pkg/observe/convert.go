package observe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
)

// FromValue converts plain Go data into raw objects: maps with string keys
// become objects (keys sorted, since Go maps are unordered), slices and
// arrays become arrays, json.Number becomes float64. Scalars, *Object and
// *Proxy pass through.
func FromValue(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool, string, *Object, *Proxy, Method:
		return v, nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: number %q", ErrUnsupportedValue, t)
		}
		return f, nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			cv, err := FromValue(t[k])
			if err != nil {
				return nil, fmt.Errorf("key %q: %w", k, err)
			}
			obj.DefineOwnValue(Name(k), cv)
		}
		return obj, nil
	case []any:
		arr := NewArray()
		for i, e := range t {
			cv, err := FromValue(e)
			if err != nil {
				return nil, fmt.Errorf("index %d: %w", i, err)
			}
			arr.DefineOwnValue(indexKey(i), cv)
		}
		return arr, nil
	}
	if isNumber(v) {
		return v, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
		}
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[iter.Key().String()] = iter.Value().Interface()
		}
		return FromValue(m)
	case reflect.Slice, reflect.Array:
		s := make([]any, rv.Len())
		for i := range s {
			s[i] = rv.Index(i).Interface()
		}
		return FromValue(s)
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	}
	return nil, fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

// FromJSON decodes a JSON document into raw objects, keeping object keys in
// document order. Numbers decode as float64.
func FromJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("observe: trailing data after JSON value")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("observe: unexpected object key %v", kt)
				}
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj.DefineOwnValue(Name(key), v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := NewArray()
			i := 0
			for dec.More() {
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr.DefineOwnValue(indexKey(i), v)
				i++
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("observe: unexpected delimiter %v", t)
	case json.Number:
		return t.Float64()
	default:
		return t, nil
	}
}

// ToNative converts an object graph to plain Go data: objects become
// map[string]any, arrays become []any with nil for holes. Getters run with
// the raw object as this, methods and symbol keys are dropped, and wrappers
// are unwrapped. Nothing is tracked.
func ToNative(v any) (any, error) {
	var out any
	var err error
	Untracked(func() {
		out, err = toNative(v, map[*Object]bool{})
	})
	return out, err
}

func toNative(v any, visiting map[*Object]bool) (any, error) {
	if p, ok := v.(*Proxy); ok {
		v = p.target
	}
	o, ok := v.(*Object)
	if !ok {
		return v, nil
	}
	if visiting[o] {
		return nil, ErrCycle
	}
	visiting[o] = true
	defer delete(visiting, o)

	if o.IsArray() {
		if o.length > MaxEncodedLength {
			return nil, fmt.Errorf("%w: length %d", ErrArrayTooLarge, o.length)
		}
		out := make([]any, o.length)
		for i := range o.length {
			e, ok := o.element(i)
			if !ok {
				continue
			}
			if _, isMethod := e.(Method); isMethod {
				continue
			}
			cv, err := toNative(e, visiting)
			if err != nil {
				return nil, err
			}
			out[i] = cv
		}
		return out, nil
	}

	out := make(map[string]any, len(o.order))
	for _, k := range o.OwnKeys() {
		name, ok := k.(Name)
		if !ok {
			continue
		}
		val := o.GetProperty(name, o)
		if _, isMethod := val.(Method); isMethod {
			continue
		}
		cv, err := toNative(val, visiting)
		if err != nil {
			return nil, err
		}
		out[string(name)] = cv
	}
	return out, nil
}

// MarshalJSON encodes the object in own-key order. Arrays encode holes as
// null; NaN and infinities encode as null. Getters run with o as this.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	var err error
	Untracked(func() {
		err = encodeJSON(&buf, o, map[*Object]bool{})
	})
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON encodes the raw object behind the wrapper without tracking.
func (p *Proxy) MarshalJSON() ([]byte, error) {
	return p.target.MarshalJSON()
}

func encodeJSON(buf *bytes.Buffer, v any, visiting map[*Object]bool) error {
	if p, ok := v.(*Proxy); ok {
		v = p.target
	}
	o, ok := v.(*Object)
	if !ok {
		if _, isMethod := v.(Method); isMethod {
			buf.WriteString("null")
			return nil
		}
		if isFloat(v) {
			if f := ToNumber(v); math.IsNaN(f) || math.IsInf(f, 0) {
				buf.WriteString("null")
				return nil
			}
		}
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(data)
		return nil
	}
	if visiting[o] {
		return ErrCycle
	}
	visiting[o] = true
	defer delete(visiting, o)

	if o.IsArray() {
		if o.length > MaxEncodedLength {
			return fmt.Errorf("%w: length %d", ErrArrayTooLarge, o.length)
		}
		buf.WriteByte('[')
		for i := range o.length {
			if i > 0 {
				buf.WriteByte(',')
			}
			e, ok := o.element(i)
			if !ok {
				buf.WriteString("null")
				continue
			}
			if err := encodeJSON(buf, e, visiting); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}

	buf.WriteByte('{')
	first := true
	for _, k := range o.OwnKeys() {
		name, ok := k.(Name)
		if !ok {
			continue
		}
		val := o.GetProperty(name, o)
		if _, isMethod := val.(Method); isMethod {
			continue
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, _ := json.Marshal(string(name))
		buf.Write(kb)
		buf.WriteByte(':')
		if err := encodeJSON(buf, val, visiting); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

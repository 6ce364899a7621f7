package observe

import (
	"math"
	"reflect"
	"strconv"
	"strings"
)

// IsObject reports whether v is an observable object: a raw *Object or a
// *Proxy. Functions and Methods are never objects.
func IsObject(v any) bool {
	switch t := v.(type) {
	case *Object:
		return t != nil
	case *Proxy:
		return t != nil
	}
	return false
}

// IsArray reports whether v is an array, or a wrapper over one.
func IsArray(v any) bool {
	switch t := v.(type) {
	case *Object:
		return t != nil && t.IsArray()
	case *Proxy:
		return t != nil && t.target.IsArray()
	}
	return false
}

// IsSymbol reports whether v is a *Symbol.
func IsSymbol(v any) bool {
	s, ok := v.(*Symbol)
	return ok && s != nil
}

// IsString reports whether v is a string or a Name.
func IsString(v any) bool {
	switch v.(type) {
	case string, Name:
		return true
	}
	return false
}

// IsIntegerKey reports whether k is a string key naming an integer: not
// "NaN", no leading "-", and it survives a round trip through integer
// parsing unchanged. "0" and "12" are integer keys; "012", "1.5", "length"
// and "-1" are not.
func IsIntegerKey(k any) bool {
	var s string
	switch v := k.(type) {
	case string:
		s = v
	case Name:
		s = string(v)
	default:
		return false
	}
	if s == "" || s == "NaN" || strings.HasPrefix(s, "-") {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	if len(s) > 1 && s[0] == '0' {
		return false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f >= 1e21 {
		return false
	}
	return strconv.FormatFloat(f, 'f', -1, 64) == s
}

// HasChanged reports whether writing newVal over oldVal is a change. It is
// the negation of SameValue: NaN over NaN is not a change, -0 over +0 is.
func HasChanged(oldVal, newVal any) bool {
	return !SameValue(oldVal, newVal)
}

// SameValue compares with NaN equal to itself and +0 distinct from -0.
// Numbers of different Go types compare by numeric value. Maps, slices,
// pointers and channels compare by identity; functions never compare equal.
func SameValue(a, b any) bool {
	return equalValues(a, b, true, true)
}

// SameValueZero is SameValue with +0 equal to -0. It is the equality used by
// includes.
func SameValueZero(a, b any) bool {
	return equalValues(a, b, true, false)
}

// StrictEquals is SameValueZero except NaN never equals anything. It is the
// equality used by indexOf and lastIndexOf.
func StrictEquals(a, b any) bool {
	return equalValues(a, b, false, false)
}

func equalValues(a, b any, nanEqual, signedZero bool) bool {
	if isNumber(a) && isNumber(b) {
		if isFloat(a) || isFloat(b) {
			fa, fb := ToNumber(a), ToNumber(b)
			if math.IsNaN(fa) || math.IsNaN(fb) {
				return nanEqual && math.IsNaN(fa) && math.IsNaN(fb)
			}
			if fa == 0 && fb == 0 {
				return !signedZero || math.Signbit(fa) == math.Signbit(fb)
			}
			return fa == fb
		}
		return integersEqual(a, b)
	}
	return identical(a, b)
}

func identical(a, b any) (eq bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		// Structs holding interface fields can still panic at runtime.
		defer func() {
			if recover() != nil {
				eq = false
			}
		}()
		return a == b
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ta.Kind() {
	case reflect.Map:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	return false
}

func isNumber(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return true
	}
	return false
}

func isFloat(v any) bool {
	switch v.(type) {
	case float32, float64:
		return true
	}
	return false
}

func isSigned(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64:
		return true
	}
	return false
}

func integersEqual(a, b any) bool {
	sa, sb := isSigned(a), isSigned(b)
	switch {
	case sa && sb:
		return toInt64(a) == toInt64(b)
	case !sa && !sb:
		return toUint64(a) == toUint64(b)
	case sa:
		ia := toInt64(a)
		return ia >= 0 && uint64(ia) == toUint64(b)
	default:
		ib := toInt64(b)
		return ib >= 0 && uint64(ib) == toUint64(a)
	}
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	}
	return 0
}

func toUint64(v any) uint64 {
	switch n := v.(type) {
	case uint:
		return uint64(n)
	case uint8:
		return uint64(n)
	case uint16:
		return uint64(n)
	case uint32:
		return uint64(n)
	case uint64:
		return n
	case uintptr:
		return uint64(n)
	}
	return 0
}

// ToNumber converts v to a float64 the way a numeric context would: numbers
// convert directly, booleans become 0 or 1, strings are parsed (the empty
// string is 0) and everything else is NaN.
func ToNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int, int8, int16, int32, int64:
		return float64(toInt64(n))
	case uint, uint8, uint16, uint32, uint64, uintptr:
		return float64(toUint64(n))
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	}
	return math.NaN()
}

// toLength validates v as an array length.
func toLength(v any) (int, bool) {
	f := ToNumber(v)
	if math.IsNaN(f) || f < 0 || f != math.Trunc(f) || f > math.MaxUint32 {
		return 0, false
	}
	return int(f), true
}

// toInt converts v to an int, truncating. NaN and non-numbers become 0.
func toInt(v any) int {
	f := ToNumber(v)
	if math.IsNaN(f) {
		return 0
	}
	if math.IsInf(f, 1) {
		return math.MaxInt
	}
	if math.IsInf(f, -1) {
		return math.MinInt
	}
	return int(f)
}

// truthy reports whether v is truthy: not nil, false, zero, NaN or "".
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case *Object:
		return t != nil
	case *Proxy:
		return t != nil
	}
	if isNumber(v) {
		f := ToNumber(v)
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

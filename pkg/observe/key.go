package observe

import (
	"fmt"
	"math"
	"strconv"
)

// Key identifies a property on a Target. A Key is either a Name or a *Symbol.
type Key interface {
	String() string
	isKey()
}

// Name is a string property key. Array indices are Names too ("0", "1", ...).
type Name string

// String returns the name itself.
func (n Name) String() string { return string(n) }

func (Name) isKey() {}

// Symbol is a unique, non-string property key. Two symbols are the same key
// only if they are the same pointer, regardless of description.
type Symbol struct {
	description string
}

// NewSymbol creates a new unique symbol.
func NewSymbol(description string) *Symbol {
	return &Symbol{description: description}
}

// Description returns the description the symbol was created with.
func (s *Symbol) Description() string { return s.description }

// String returns "Symbol(description)".
func (s *Symbol) String() string { return "Symbol(" + s.description + ")" }

func (*Symbol) isKey() {}

// Well-known symbols. Reads of these keys are never tracked, so coercion and
// iteration over a wrapper do not register spurious dependencies.
var (
	SymbolAsyncIterator      = NewSymbol("Symbol.asyncIterator")
	SymbolHasInstance        = NewSymbol("Symbol.hasInstance")
	SymbolIsConcatSpreadable = NewSymbol("Symbol.isConcatSpreadable")
	SymbolIterator           = NewSymbol("Symbol.iterator")
	SymbolMatch              = NewSymbol("Symbol.match")
	SymbolMatchAll           = NewSymbol("Symbol.matchAll")
	SymbolReplace            = NewSymbol("Symbol.replace")
	SymbolSearch             = NewSymbol("Symbol.search")
	SymbolSpecies            = NewSymbol("Symbol.species")
	SymbolSplit              = NewSymbol("Symbol.split")
	SymbolToPrimitive        = NewSymbol("Symbol.toPrimitive")
	SymbolToStringTag        = NewSymbol("Symbol.toStringTag")
	SymbolUnscopables        = NewSymbol("Symbol.unscopables")
)

var builtInSymbols = map[*Symbol]struct{}{
	SymbolAsyncIterator:      {},
	SymbolHasInstance:        {},
	SymbolIsConcatSpreadable: {},
	SymbolIterator:           {},
	SymbolMatch:              {},
	SymbolMatchAll:           {},
	SymbolReplace:            {},
	SymbolSearch:             {},
	SymbolSpecies:            {},
	SymbolSplit:              {},
	SymbolToPrimitive:        {},
	SymbolToStringTag:        {},
	SymbolUnscopables:        {},
}

// IsBuiltInSymbol reports whether key is one of the well-known symbols.
func IsBuiltInSymbol(key Key) bool {
	s, ok := key.(*Symbol)
	if !ok {
		return false
	}
	_, ok = builtInSymbols[s]
	return ok
}

// Reserved introspection keys. They are answered by the wrapper itself and
// never appear in OwnKeys.
const (
	IsReactiveKey Name = "__v_isReactive"
	IsReadonlyKey Name = "__v_isReadonly"
	RawKey        Name = "__v_raw"
)

// Well-known names.
const (
	LengthKey Name = "length"
	ProtoKey  Name = "__proto__"
)

// IterateKey is the single key ITERATE dependencies are recorded against,
// shared by all targets.
var IterateKey = NewSymbol("iterate")

// KeyOf converts v to a property key. Keys are returned unchanged, strings
// become Names, and numbers become their canonical decimal Name
// (KeyOf(2) == Name("2")). Anything else is formatted with fmt.
func KeyOf(v any) Key {
	switch k := v.(type) {
	case Name:
		return k
	case *Symbol:
		if k == nil {
			return Name("undefined")
		}
		return k
	case string:
		return Name(k)
	case int:
		return Name(strconv.Itoa(k))
	case int8, int16, int32, int64:
		return Name(strconv.FormatInt(toInt64(k), 10))
	case uint, uint8, uint16, uint32, uint64, uintptr:
		return Name(strconv.FormatUint(toUint64(k), 10))
	case float32:
		return Name(formatFloat(float64(k)))
	case float64:
		return Name(formatFloat(k))
	case nil:
		return Name("undefined")
	default:
		return Name(fmt.Sprint(v))
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// maxArrayIndex is the largest valid array index (2^32 - 2).
const maxArrayIndex = math.MaxUint32 - 1

// arrayIndex returns the element index named by key, if key is an integer
// key within array index range.
func arrayIndex(key Key) (int, bool) {
	n, ok := key.(Name)
	if !ok || !IsIntegerKey(string(n)) {
		return 0, false
	}
	i, err := strconv.ParseUint(string(n), 10, 64)
	if err != nil || i > maxArrayIndex {
		return 0, false
	}
	return int(i), true
}

// indexKey returns the Name for element index i.
func indexKey(i int) Name {
	return Name(strconv.Itoa(i))
}

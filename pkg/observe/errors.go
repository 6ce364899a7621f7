package observe

import "errors"

// ErrUnsupportedValue is returned by FromValue when a Go value has no
// object-model equivalent (structs, channels, maps with non-string keys).
var ErrUnsupportedValue = errors.New("observe: unsupported value")

// ErrCycle is returned when converting or encoding an object graph that
// refers back to itself.
var ErrCycle = errors.New("observe: object graph contains a cycle")

// ErrArrayTooLarge is returned when converting or encoding an array whose
// length exceeds MaxEncodedLength. Sparse arrays can have a length far
// larger than the elements they hold.
var ErrArrayTooLarge = errors.New("observe: array too large to encode")

// MaxEncodedLength is the largest array length ToNative and MarshalJSON
// will expand.
const MaxEncodedLength = 1 << 20

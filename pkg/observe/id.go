package observe

import "sync/atomic"

// globalIDCounter is the source of unique IDs for raw objects.
var globalIDCounter uint64

// nextID returns the next unique object ID.
// IDs are monotonically increasing and never reused.
func nextID() uint64 {
	return atomic.AddUint64(&globalIDCounter, 1)
}

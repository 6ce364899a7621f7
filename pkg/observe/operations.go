package observe

// TrackOp classifies a tracked read.
type TrackOp uint8

const (
	// TrackGet is a property read.
	TrackGet TrackOp = iota
	// TrackHas is a membership test.
	TrackHas
	// TrackIterate is an own-key enumeration. It is always recorded
	// against IterateKey.
	TrackIterate
)

// String returns "get", "has" or "iterate".
func (op TrackOp) String() string {
	switch op {
	case TrackGet:
		return "get"
	case TrackHas:
		return "has"
	case TrackIterate:
		return "iterate"
	default:
		return "unknown"
	}
}

// TriggerOp classifies a notified write.
//
// Add and Delete change the key set, so an observer that buckets
// dependents should also rerun TrackIterate dependents for them. Set only
// changes a value.
type TriggerOp uint8

const (
	// TriggerAdd is a write that created a new property.
	TriggerAdd TriggerOp = iota
	// TriggerSet is a write that changed an existing property.
	TriggerSet
	// TriggerDelete is a removed property, including array elements
	// dropped by shrinking length.
	TriggerDelete
)

// String returns "add", "set" or "delete".
func (op TriggerOp) String() string {
	switch op {
	case TriggerAdd:
		return "add"
	case TriggerSet:
		return "set"
	case TriggerDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Package observe provides the observation substrate for the Vango reactive
// data layer.
//
// Plain data objects and arrays are wrapped so that reads are recorded as
// dependencies and writes notify interested observers. Go has no dynamic
// proxies, so observed data lives in a small dynamic object model (*Object)
// and is accessed through an explicit handle (*Proxy). Both implement Target,
// the set of object internal methods every interception routes through.
//
// # Core Types
//
// Object is a raw object or array:
//
//	grade := NewObject()
//	grade.Set("math", 90)
//	grade.Set("english", 15)
//	grade.DefineAccessor("total", func(this Target) any {
//	    return ToNumber(this.GetProperty(Name("math"), this)) +
//	        ToNumber(this.GetProperty(Name("english"), this))
//	}, nil)
//
// Proxy is the wrapper. Reads through it are tracked, writes are triggered:
//
//	p := Reactive(grade).(*Proxy)
//	p.Get("math")      // Track(grade, TrackGet, "math")
//	p.Set("math", 95)  // Trigger(grade, TriggerSet, "math")
//	p.Get("total")     // getter runs with this = p, tracking "math" and "english"
//
// Nested objects are wrapped on first read, never eagerly:
//
//	outer := NewObject()
//	outer.Set("grade", grade)
//	IsReactive(Reactive(outer).(*Proxy).Get("grade")) // true
//
// # Modes
//
//   - Reactive: reads tracked, writes triggered, nested values wrapped.
//   - ShallowReactive: like Reactive but nested values are returned raw.
//   - Readonly: reads are not tracked, writes and deletes are rejected
//     silently (a warning is logged) and nested values are wrapped readonly.
//
// Each raw object has at most one wrapper per registry. Reactive and
// ShallowReactive share a registry; Readonly has its own. The registries hold
// raw objects and wrappers weakly.
//
// # Observers
//
// Track and Trigger forward to an Observer. The default observer logs at
// debug level through log/slog. Install another with SetDefaultObserver or,
// for the current goroutine only, WithObserver:
//
//	rec := NewRecorder(0)
//	WithObserver(rec, func() {
//	    p.Set("english", 20)
//	})
//	rec.Triggers() // [{trigger set english}]
//
// # Thread Safety
//
// The registries are safe for concurrent use. Raw objects are not: like Go
// maps, a single object must not be mutated from several goroutines at once.
// The tracking flag and the current observer are per-goroutine.
package observe

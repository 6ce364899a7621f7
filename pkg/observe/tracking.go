package observe

import (
	"runtime"
	"sync"
)

// TrackingContext holds the observation state for a goroutine.
// Each goroutine has its own tracking context so that pausing tracking in
// one goroutine never silences reads in another.
type TrackingContext struct {
	// paused suppresses Track. The zero value means tracking is enabled.
	paused bool

	// observer receives Track and Trigger calls made on this goroutine.
	// nil means the process default observer.
	observer Observer
}

// trackingContexts stores per-goroutine tracking contexts.
var trackingContexts sync.Map

// getGoroutineID returns a unique identifier for the current goroutine,
// parsed from the "goroutine <id> " header of the runtime stack.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)

	var id uint64
	for i := 10; i < n; i++ { // Skip "goroutine "
		if buf[i] == ' ' {
			break
		}
		id = id*10 + uint64(buf[i]-'0')
	}
	return id
}

// getTrackingContext returns the tracking context for the current goroutine,
// creating it on first use.
func getTrackingContext() *TrackingContext {
	gid := getGoroutineID()

	if ctx, ok := trackingContexts.Load(gid); ok {
		return ctx.(*TrackingContext)
	}

	ctx := &TrackingContext{}
	trackingContexts.Store(gid, ctx)
	return ctx
}

// lookupTrackingContext returns the current goroutine's context without
// creating one. A goroutine without a context tracks into the default
// observer.
func lookupTrackingContext() (*TrackingContext, bool) {
	ctx, ok := trackingContexts.Load(getGoroutineID())
	if !ok {
		return nil, false
	}
	return ctx.(*TrackingContext), true
}

// releaseTrackingContext drops the current goroutine's context once it is
// back to the zero state, so goroutines that have finished a scoped call
// leave nothing behind.
func releaseTrackingContext() {
	gid := getGoroutineID()
	if v, ok := trackingContexts.Load(gid); ok {
		if ctx := v.(*TrackingContext); !ctx.paused && ctx.observer == nil {
			trackingContexts.Delete(gid)
		}
	}
}

// cleanupGoroutineContext removes the tracking context for the current
// goroutine, whatever its state.
func cleanupGoroutineContext() {
	trackingContexts.Delete(getGoroutineID())
}

// ShouldTrack reports whether reads on the current goroutine are tracked.
func ShouldTrack() bool {
	ctx, ok := lookupTrackingContext()
	return !ok || !ctx.paused
}

// PauseTracking stops Track from reaching the observer until EnableTracking
// is called. Pausing does not nest; prefer Untracked, which restores the
// previous state on every exit path. The goroutine keeps its tracking
// context until EnableTracking.
func PauseTracking() {
	getTrackingContext().paused = true
}

// EnableTracking re-enables tracking after PauseTracking.
func EnableTracking() {
	if ctx, ok := lookupTrackingContext(); ok {
		ctx.paused = false
		releaseTrackingContext()
	}
}

// setTracking sets the tracking state and returns the previous one.
func setTracking(enabled bool) bool {
	ctx := getTrackingContext()
	old := !ctx.paused
	ctx.paused = !enabled
	if enabled {
		releaseTrackingContext()
	}
	return old
}

// Untracked runs fn with tracking paused and restores the previous state
// afterwards, even if fn panics. Triggers still fire inside fn.
//
// Example:
//
//	Untracked(func() {
//	    // Reads here do not register dependencies.
//	    total := p.Get("total")
//	    log.Println(total)
//	})
func Untracked(fn func()) {
	old := setTracking(false)
	defer setTracking(old)
	fn()
}

// getCurrentObserver returns the observer for the current goroutine.
func getCurrentObserver() Observer {
	if ctx, ok := lookupTrackingContext(); ok && ctx.observer != nil {
		return ctx.observer
	}
	return defaultObserver()
}

// setCurrentObserver sets the observer for the current goroutine and returns
// the previous one. nil restores the process default.
func setCurrentObserver(o Observer) Observer {
	ctx := getTrackingContext()
	old := ctx.observer
	ctx.observer = o
	if o == nil {
		releaseTrackingContext()
	}
	return old
}

// WithObserver runs fn with o receiving every Track and Trigger made on the
// current goroutine.
//
// Example:
//
//	rec := NewRecorder(0)
//	WithObserver(rec, func() {
//	    p.Set("count", 1)
//	})
func WithObserver(o Observer, fn func()) {
	old := setCurrentObserver(o)
	defer setCurrentObserver(old)
	fn()
}

// Track records that the current observer depends on key of target.
// It is a no-op while tracking is paused.
func Track(target *Object, op TrackOp, key Key) {
	ctx, ok := lookupTrackingContext()
	if !ok {
		defaultObserver().Track(target, op, key)
		return
	}
	if ctx.paused {
		return
	}
	o := ctx.observer
	if o == nil {
		o = defaultObserver()
	}
	o.Track(target, op, key)
}

// Trigger notifies the current observer that key of target changed.
func Trigger(target *Object, op TriggerOp, key Key) {
	getCurrentObserver().Trigger(target, op, key)
}

package observe

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Observer receives the two hooks the interception layer emits. A
// dependency graph or scheduler implements Observer to become real; the
// observers in this package only log, record or fan out.
//
// Both methods are called synchronously from inside the intercepted
// operation and must not block.
type Observer interface {
	// Track records that the active computation read key of target.
	Track(target *Object, op TrackOp, key Key)

	// Trigger notifies that key of target changed.
	Trigger(target *Object, op TriggerOp, key Key)
}

// defaultObserverHolder wraps the process default so atomic.Value always
// stores the same concrete type.
type defaultObserverHolder struct {
	o Observer
}

var processObserver atomic.Value

func init() {
	processObserver.Store(defaultObserverHolder{o: NewLogObserver(nil)})
}

func defaultObserver() Observer {
	return processObserver.Load().(defaultObserverHolder).o
}

// SetDefaultObserver replaces the process default observer used by
// goroutines that did not install one with WithObserver. nil restores the
// logging observer. It returns the previous default.
func SetDefaultObserver(o Observer) Observer {
	if o == nil {
		o = NewLogObserver(nil)
	}
	old := processObserver.Swap(defaultObserverHolder{o: o})
	return old.(defaultObserverHolder).o
}

var (
	loggerMu sync.RWMutex
	pkgLog   *slog.Logger
)

// SetLogger sets the logger used for diagnostics such as rejected readonly
// writes. nil means slog.Default().
func SetLogger(l *slog.Logger) {
	loggerMu.Lock()
	pkgLog = l
	loggerMu.Unlock()
}

func logger() *slog.Logger {
	loggerMu.RLock()
	l := pkgLog
	loggerMu.RUnlock()
	if l == nil {
		return slog.Default()
	}
	return l
}

// =============================================================================
// LogObserver
// =============================================================================

// LogObserver logs every hook at debug level.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates a LogObserver. If logger is nil, the package logger
// is used (see SetLogger).
func NewLogObserver(logger *slog.Logger) *LogObserver {
	return &LogObserver{logger: logger}
}

func (l *LogObserver) log() *slog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return logger()
}

// Track logs a "track" record.
func (l *LogObserver) Track(target *Object, op TrackOp, key Key) {
	l.log().Debug("track",
		slog.String("op", op.String()),
		slog.String("key", key.String()),
		slog.Uint64("target", target.ID()),
	)
}

// Trigger logs a "trigger" record.
func (l *LogObserver) Trigger(target *Object, op TriggerOp, key Key) {
	l.log().Debug("trigger",
		slog.String("op", op.String()),
		slog.String("key", key.String()),
		slog.Uint64("target", target.ID()),
	)
}

// =============================================================================
// Recorder
// =============================================================================

// EventKind distinguishes recorded tracks from recorded triggers.
type EventKind string

const (
	EventTrack   EventKind = "track"
	EventTrigger EventKind = "trigger"
)

// Event is one recorded hook call.
type Event struct {
	Seq    uint64
	Kind   EventKind
	Op     string
	Key    Key
	Target *Object
	Time   time.Time
}

// String returns a compact form such as "trigger add 5".
func (e Event) String() string {
	return string(e.Kind) + " " + e.Op + " " + e.Key.String()
}

// Recorder keeps hook calls in memory. With a positive limit only the most
// recent limit events are kept.
type Recorder struct {
	mu     sync.Mutex
	limit  int
	seq    uint64
	events []Event
	onRec  func(Event)
}

// NewRecorder creates a Recorder. limit <= 0 keeps everything.
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

// OnRecord registers fn to be called after each event is stored.
func (r *Recorder) OnRecord(fn func(Event)) *Recorder {
	r.mu.Lock()
	r.onRec = fn
	r.mu.Unlock()
	return r
}

// Track records a track event.
func (r *Recorder) Track(target *Object, op TrackOp, key Key) {
	r.record(Event{Kind: EventTrack, Op: op.String(), Key: key, Target: target})
}

// Trigger records a trigger event.
func (r *Recorder) Trigger(target *Object, op TriggerOp, key Key) {
	r.record(Event{Kind: EventTrigger, Op: op.String(), Key: key, Target: target})
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	r.seq++
	e.Seq = r.seq
	e.Time = time.Now()
	r.events = append(r.events, e)
	if r.limit > 0 && len(r.events) > r.limit {
		drop := len(r.events) - r.limit
		copy(r.events, r.events[drop:])
		clear(r.events[r.limit:])
		r.events = r.events[:r.limit]
	}
	fn := r.onRec
	r.mu.Unlock()

	if fn != nil {
		fn(e)
	}
}

// Events returns a copy of the recorded events, oldest first.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Tracks returns the recorded track events.
func (r *Recorder) Tracks() []Event {
	return r.filter(EventTrack)
}

// Triggers returns the recorded trigger events.
func (r *Recorder) Triggers() []Event {
	return r.filter(EventTrigger)
}

func (r *Recorder) filter(kind EventKind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of stored events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset discards all stored events. Sequence numbers keep increasing.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}

// =============================================================================
// MultiObserver
// =============================================================================

// MultiObserver fans hook calls out to several observers in order.
type MultiObserver struct {
	observers []Observer
}

// NewMultiObserver creates a MultiObserver over the non-nil observers.
func NewMultiObserver(observers ...Observer) *MultiObserver {
	filtered := make([]Observer, 0, len(observers))
	for _, o := range observers {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	return &MultiObserver{observers: filtered}
}

func (m *MultiObserver) Track(target *Object, op TrackOp, key Key) {
	for _, o := range m.observers {
		o.Track(target, op, key)
	}
}

func (m *MultiObserver) Trigger(target *Object, op TriggerOp, key Key) {
	for _, o := range m.observers {
		o.Trigger(target, op, key)
	}
}

// NopObserver discards all hook calls.
type NopObserver struct{}

func (NopObserver) Track(*Object, TrackOp, Key)     {}
func (NopObserver) Trigger(*Object, TriggerOp, Key) {}

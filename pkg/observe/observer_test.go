package observe

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestRecorderLimit(t *testing.T) {
	rec := NewRecorder(2)
	o := NewObject()

	rec.Track(o, TrackGet, Name("a"))
	rec.Track(o, TrackGet, Name("b"))
	rec.Trigger(o, TriggerSet, Name("c"))

	got := eventStrings(rec.Events())
	want := []string{"track get b", "trigger set c"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}
	if rec.Events()[1].Seq != 3 {
		t.Errorf("expected sequence numbers to keep counting, got %d", rec.Events()[1].Seq)
	}
	if len(rec.Tracks()) != 1 || len(rec.Triggers()) != 1 {
		t.Error("unexpected filter results")
	}

	rec.Reset()
	if rec.Len() != 0 {
		t.Error("Reset should drop all events")
	}
	rec.Track(o, TrackHas, Name("d"))
	if rec.Events()[0].Seq != 4 {
		t.Error("Reset should not restart sequence numbers")
	}
}

func TestRecorderOnRecord(t *testing.T) {
	var seen []string
	rec := NewRecorder(0).OnRecord(func(e Event) {
		seen = append(seen, e.String())
	})

	p := Reactive(NewObject()).(*Proxy)
	WithObserver(rec, func() {
		p.Set("x", 1)
		p.Get("x")
	})

	if len(seen) != 2 || seen[0] != "trigger add x" || seen[1] != "track get x" {
		t.Errorf("unexpected callbacks %v", seen)
	}
}

func TestMultiObserver(t *testing.T) {
	a := NewRecorder(0)
	b := NewRecorder(0)
	m := NewMultiObserver(a, nil, b, NopObserver{})

	o := NewObject()
	m.Track(o, TrackIterate, IterateKey)
	m.Trigger(o, TriggerDelete, Name("k"))

	for _, rec := range []*Recorder{a, b} {
		assertEvents(t, rec, "track iterate Symbol(iterate)", "trigger delete k")
	}
}

func TestWithObserverIsPerGoroutine(t *testing.T) {
	p := Reactive(NewObject().With("a", 1)).(*Proxy)
	mine := NewRecorder(0)
	other := NewRecorder(0)

	var wg sync.WaitGroup
	WithObserver(mine, func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			WithObserver(other, func() {
				p.Get("a")
				p.Get("a")
			})
		}()
		wg.Wait()
		p.Get("a")
	})

	if mine.Len() != 1 {
		t.Errorf("expected 1 event on this goroutine, got %d", mine.Len())
	}
	if other.Len() != 2 {
		t.Errorf("expected 2 events on the other goroutine, got %d", other.Len())
	}
}

func TestWithObserverRestores(t *testing.T) {
	outer := NewRecorder(0)
	inner := NewRecorder(0)
	o := NewObject()

	WithObserver(outer, func() {
		WithObserver(inner, func() {
			Track(o, TrackGet, Name("in"))
		})
		Track(o, TrackGet, Name("out"))
	})

	assertEvents(t, inner, "track get in")
	assertEvents(t, outer, "track get out")
}

func TestSetDefaultObserver(t *testing.T) {
	rec := NewRecorder(0)
	old := SetDefaultObserver(rec)
	defer SetDefaultObserver(old)

	o := NewObject()
	done := make(chan struct{})
	go func() {
		defer close(done)
		Trigger(o, TriggerAdd, Name("bg"))
	}()
	<-done

	assertEvents(t, rec, "trigger add bg")

	if _, ok := SetDefaultObserver(nil).(*Recorder); !ok {
		t.Error("SetDefaultObserver should return the previous default")
	}
	if _, ok := defaultObserver().(*LogObserver); !ok {
		t.Error("nil should restore the logging observer")
	}
}

func TestLogObserver(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	lo := NewLogObserver(l)

	o := NewObject()
	lo.Track(o, TrackHas, Name("k"))
	lo.Trigger(o, TriggerSet, LengthKey)

	out := buf.String()
	for _, want := range []string{"msg=track", "op=has", "key=k", "msg=trigger", "op=set", "key=length"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPauseAndEnableTracking(t *testing.T) {
	rec := NewRecorder(0)
	o := NewObject()

	WithObserver(rec, func() {
		PauseTracking()
		if ShouldTrack() {
			t.Error("expected tracking to be paused")
		}
		Track(o, TrackGet, Name("hidden"))
		Trigger(o, TriggerSet, Name("still"))
		EnableTracking()
		Track(o, TrackGet, Name("seen"))
	})

	assertEvents(t, rec, "trigger set still", "track get seen")
}

func TestUntrackedRestoresOnPanic(t *testing.T) {
	func() {
		defer func() { _ = recover() }()
		Untracked(func() {
			panic("boom")
		})
	}()
	if !ShouldTrack() {
		t.Error("Untracked should restore tracking after a panic")
	}

	PauseTracking()
	Untracked(func() {})
	if ShouldTrack() {
		t.Error("Untracked should restore the paused state it found")
	}
	EnableTracking()
}

func TestCleanupGoroutineContext(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		PauseTracking()
		cleanupGoroutineContext()
		if !ShouldTrack() {
			t.Error("a fresh context should have tracking enabled")
		}
		cleanupGoroutineContext()
	}()
	<-done
}

func trackingContextCount() int {
	n := 0
	trackingContexts.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func TestTrackingContextsAreReleased(t *testing.T) {
	shared := Reactive(NewObject().With("a", 1)).(*Proxy)
	before := trackingContextCount()

	var wg sync.WaitGroup
	for i := 0; i < 1000; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shared.Get("a")
			own := Reactive(NewObject()).(*Proxy)
			own.Set("n", i)
			own.Call("missing")
			ToRaw(own)
			Untracked(func() {})
			WithObserver(NewRecorder(0), func() {
				Untracked(func() { own.Get("n") })
			})
			PauseTracking()
			EnableTracking()
		}()
	}
	wg.Wait()

	if after := trackingContextCount(); after != before {
		t.Errorf("expected %d tracking contexts after the goroutines exit, got %d", before, after)
	}
}

func TestReleaseKeepsActiveState(t *testing.T) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		rec := NewRecorder(0)
		WithObserver(rec, func() {
			Untracked(func() {})
			Track(NewObject(), TrackGet, Name("a"))
		})
		if rec.Len() != 1 {
			t.Errorf("expected the observer to outlive the inner Untracked, got %d events", rec.Len())
		}

		PauseTracking()
		WithObserver(rec, func() {})
		if ShouldTrack() {
			t.Error("restoring the observer must keep tracking paused")
		}
		EnableTracking()
	}()
	<-done
}

func TestOperationStrings(t *testing.T) {
	names := map[string]string{
		TrackGet.String():      "get",
		TrackHas.String():      "has",
		TrackIterate.String():  "iterate",
		TriggerAdd.String():    "add",
		TriggerSet.String():    "set",
		TriggerDelete.String(): "delete",
	}
	for got, want := range names {
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	}
}

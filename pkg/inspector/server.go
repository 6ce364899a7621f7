// Package inspector serves an observed document over HTTP.
//
// Every read and write made through the API goes through an observation
// wrapper, so the tracks and triggers it causes are returned with the
// response, kept in a ring of recent events, and streamed to WebSocket
// clients.
//
// Routes:
//
//	GET    /healthz      liveness
//	GET    /state        the whole document, untracked
//	GET    /state/{path} value at path, read through the wrapper
//	PUT    /state/{path} write the JSON body at path
//	DELETE /state/{path} delete the property at path
//	POST   /state/{path} push the JSON body (an item, or an array of items) onto the array at path
//	GET    /events       recent events (?limit=n)
//	GET    /ws           event stream
//	GET    /metrics      Prometheus metrics, when a Gatherer is configured
//
// Paths are slash separated: /state/grade/math, /state/list/0. With a
// store configured, every successful write saves a snapshot of the document.
package inspector

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/observe/internal/errors"
	"github.com/vango-dev/observe/pkg/observe"
	"github.com/vango-dev/observe/pkg/store"
	"github.com/vango-dev/observe/pkg/tracing"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// DefaultMaxArrayLength is the default Options.MaxArrayLength.
const DefaultMaxArrayLength = 1 << 16

// Options configures a Server.
type Options struct {
	// Readonly serves the document through a readonly wrapper. Writes are
	// accepted but change nothing.
	Readonly bool

	// AllowOrigins lists origins allowed to open /ws. Empty means
	// same-origin only; "*" allows all.
	AllowOrigins []string

	// EventBuffer is the number of recent events kept for /events.
	// Default: 256
	EventBuffer int

	// MaxArrayLength is the largest array length a write or push may
	// produce.
	// Default: 65536
	MaxArrayLength int

	// Observer also receives every hook, e.g. a metrics.Observer.
	Observer observe.Observer

	// Tracer, when set, runs each document operation inside a span.
	Tracer *tracing.Tracer

	// Gatherer serves /metrics when set.
	Gatherer prometheus.Gatherer

	// Store, when set, receives a snapshot of the document after every
	// successful write, under the name Snapshot.
	Store    store.Store
	Snapshot string

	// Logger is used for request and stream logging.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Server holds one observed document.
type Server struct {
	raw      *observe.Object
	doc      *observe.Proxy
	recorder *observe.Recorder
	observer observe.Observer
	hub      *Hub
	tracer   *tracing.Tracer
	gatherer prometheus.Gatherer
	store    store.Store
	snapshot string
	readonly bool
	maxArray int
	logger   *slog.Logger

	// mu serializes document access: objects are not safe for concurrent
	// use.
	mu sync.Mutex
}

// New creates a Server for doc, which must be a raw object or array.
func New(doc *observe.Object, opts Options) *Server {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = 256
	}
	if opts.MaxArrayLength <= 0 {
		opts.MaxArrayLength = DefaultMaxArrayLength
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	s := &Server{
		raw:      doc,
		hub:      NewHub(opts.AllowOrigins, opts.Logger),
		tracer:   opts.Tracer,
		gatherer: opts.Gatherer,
		store:    opts.Store,
		snapshot: opts.Snapshot,
		readonly: opts.Readonly,
		maxArray: opts.MaxArrayLength,
		logger:   opts.Logger,
	}
	if opts.Readonly {
		s.doc = observe.Readonly(doc).(*observe.Proxy)
	} else {
		s.doc = observe.Reactive(doc).(*observe.Proxy)
	}
	s.recorder = observe.NewRecorder(opts.EventBuffer).OnRecord(s.hub.Publish)
	s.observer = observe.NewMultiObserver(s.recorder, opts.Observer)
	return s
}

// Document returns the wrapper the server reads and writes through.
func (s *Server) Document() *observe.Proxy {
	return s.doc
}

// Hub returns the event stream hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/state", s.handleDocument)
	r.Get("/state/*", s.handleGet)
	r.Put("/state/*", s.handlePut)
	r.Delete("/state/*", s.handleDelete)
	r.Post("/state/*", s.handlePush)
	r.Get("/events", s.handleEvents)
	r.Get("/ws", s.hub.HandleWebSocket)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	s.logger.Info("inspector listening", "addr", addr)

	select {
	case <-ctx.Done():
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		s.hub.Close()
		return err
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// =============================================================================
// Document operations
// =============================================================================

// valueResponse is returned by the path routes.
type valueResponse struct {
	Path   string      `json:"path"`
	Value  any         `json:"value"`
	OK     bool        `json:"ok"`
	Events []EventJSON `json:"events"`
}

// run executes fn against the document with the server observers and a
// per-call recorder installed, inside a span when tracing is enabled. It
// returns the events fn caused.
func (s *Server) run(ctx context.Context, name string, fn func() error) ([]observe.Event, error) {
	rec := observe.NewRecorder(0)
	obs := observe.NewMultiObserver(s.observer, rec)

	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.tracer != nil {
		err = s.tracer.RunWith(ctx, name, obs, func(context.Context) error {
			return fn()
		})
	} else {
		observe.WithObserver(obs, func() {
			err = fn()
		})
	}
	return rec.Events(), err
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	data, err := json.Marshal(s.raw)
	s.mu.Unlock()
	if err != nil {
		writeError(w, encodeError(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	var value any
	events, err := s.run(r.Context(), "inspector get", func() error {
		v, err := s.lookup(path)
		if err != nil {
			return err
		}
		value, err = native(v)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeValue(w, path, value, true, events)
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	value, err := readValue(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var ok bool
	events, err := s.run(r.Context(), "inspector set", func() error {
		parent, key, err := s.parent(path)
		if err != nil {
			return err
		}
		if err := s.checkArrayWrite(parent, key, value, path); err != nil {
			return err
		}
		ok = parent.Set(key, value)
		if !ok {
			return errors.New("R007").WithPath(path)
		}
		s.persist(r.Context())
		value, err = native(value)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeValue(w, path, value, ok, events)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")

	var ok bool
	events, err := s.run(r.Context(), "inspector delete", func() error {
		parent, key, err := s.parent(path)
		if err != nil {
			return err
		}
		if !parent.HasOwnProperty(observe.KeyOf(key)) {
			return errors.New("R001").WithPath(path)
		}
		ok = parent.Delete(key)
		if !ok {
			return errors.New("R007").WithPath(path)
		}
		s.persist(r.Context())
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeValue(w, path, nil, ok, events)
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	body, err := readValue(r)
	if err != nil {
		writeError(w, err)
		return
	}
	items := []any{body}
	if arr, isArr := body.(*observe.Object); isArr && arr.IsArray() {
		items = items[:0]
		for i := 0; i < arr.Len(); i++ {
			items = append(items, arr.Get(i))
		}
	}

	var length any
	events, err := s.run(r.Context(), "inspector push", func() error {
		v, err := s.lookup(path)
		if err != nil {
			return err
		}
		target, isProxy := v.(*observe.Proxy)
		if !isProxy || !target.IsArray() {
			return errors.New("R003").WithPath(path)
		}
		if raw := observe.ToRaw(target).(*observe.Object); raw.Len()+len(items) > s.maxArray {
			return tooLarge(path, s.maxArray)
		}
		length = target.Call("push", items...)
		s.persist(r.Context())
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeValue(w, path, length, true, events)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events := s.recorder.Events()
	if limit, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && limit >= 0 && limit < len(events) {
		events = events[len(events)-limit:]
	}
	writeJSON(w, http.StatusOK, toEventJSON(events))
}

// persist saves a snapshot of the document when a store is configured. The
// caller holds mu. Failures are logged; the write itself has already
// happened.
func (s *Server) persist(ctx context.Context) {
	if s.store == nil || s.readonly {
		return
	}
	if err := s.store.Save(ctx, s.snapshot, s.raw); err != nil {
		s.logger.Error("snapshot save failed", "snapshot", s.snapshot, "error", err)
	}
}

// checkArrayWrite rejects writes that would make an array at path longer
// than the configured maximum: an index at or past it, or a larger length.
func (s *Server) checkArrayWrite(parent *observe.Proxy, key string, value any, path string) error {
	if !parent.IsArray() {
		return nil
	}
	if key == "length" {
		if observe.ToNumber(value) > float64(s.maxArray) {
			return tooLarge(path, s.maxArray)
		}
		return nil
	}
	if !observe.IsIntegerKey(key) {
		return nil
	}
	if i, err := strconv.Atoi(key); err != nil || i >= s.maxArray {
		return tooLarge(path, s.maxArray)
	}
	return nil
}

func tooLarge(path string, limit int) error {
	return errors.New("R008").WithPath(path).
		WithDetail(fmt.Sprintf("Arrays are limited to %d elements.", limit))
}

// =============================================================================
// Paths
// =============================================================================

func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// lookup reads path through the document wrapper.
func (s *Server) lookup(path string) (any, error) {
	var cur any = s.doc
	for _, seg := range splitPath(path) {
		p, ok := cur.(*observe.Proxy)
		if !ok {
			return nil, errors.New("R002").WithPath(path)
		}
		if !p.Has(seg) {
			return nil, errors.New("R001").WithPath(path)
		}
		cur = p.Get(seg)
	}
	return cur, nil
}

// parent resolves the wrapper holding the last segment of path.
func (s *Server) parent(path string) (*observe.Proxy, string, error) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, "", errors.New("R002").WithPath("/").
			WithSuggestion("Address a property, e.g. /state/name")
	}
	v, err := s.lookup(strings.Join(segs[:len(segs)-1], "/"))
	if err != nil {
		return nil, "", err
	}
	p, ok := v.(*observe.Proxy)
	if !ok {
		return nil, "", errors.New("R002").WithPath(path)
	}
	return p, segs[len(segs)-1], nil
}

// =============================================================================
// Encoding
// =============================================================================

func readValue(r *http.Request) (any, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.New("R006").Wrap(err)
	}
	v, err := observe.FromJSON(data)
	if err != nil {
		return nil, errors.New("R006").Wrap(err)
	}
	return v, nil
}

func toEventJSON(events []observe.Event) []EventJSON {
	out := make([]EventJSON, len(events))
	for i, e := range events {
		out[i] = NewEventJSON(e)
	}
	return out
}

// native converts v to plain data for encoding. Call it with the document
// lock held.
func native(v any) (any, error) {
	out, err := observe.ToNative(v)
	if err != nil {
		return nil, encodeError(err)
	}
	return out, nil
}

// encodeError maps a conversion or encoding failure to its code.
func encodeError(err error) error {
	if stderrors.Is(err, observe.ErrArrayTooLarge) {
		return errors.New("R008").Wrap(err)
	}
	return errors.New("R005").Wrap(err)
}

// writeValue encodes a path response. value must already be plain data.
func writeValue(w http.ResponseWriter, path string, value any, ok bool, events []observe.Event) {
	writeJSON(w, http.StatusOK, valueResponse{
		Path:   path,
		Value:  value,
		OK:     ok,
		Events: toEventJSON(events),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	oe := errors.FromError(err, "R004")
	status := oe.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, oe.FormatJSON())
}

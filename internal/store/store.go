// Package store holds the console's canonical collections. Each store fetches
// from a backend, merges authoritative responses into its collection and
// notifies subscribers of every change. Getters always return copies.
package store

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"cps-console/internal/expiry"
	apperrors "cps-console/pkg/errors"
)

// Kind names what happened in a store event.
type Kind string

const (
	KindFetched   Kind = "fetched"
	KindCreated   Kind = "created"
	KindUpdated   Kind = "updated"
	KindDeleted   Kind = "deleted"
	KindReordered Kind = "reordered"
	KindFilter    Kind = "filter"
)

const (
	NameProjects      = "projects"
	NameCategories    = "categories"
	NameSubProjects   = "sub-projects"
	NameContentTypes  = "content-types"
	NameDocumentation = "documentation"
)

// Event describes one change to a store collection. ID is zero for changes
// that touch the whole collection.
type Event struct {
	Store string
	Kind  Kind
	ID    int64
}

// Option configures a store.
type Option func(*options)

type options struct {
	log  *zap.Logger
	now  func() time.Time
	calc expiry.Calculator
}

// WithLogger sets the logger; stores name it after themselves.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithThresholds sets the day counts expiry statuses are derived with.
func WithThresholds(t expiry.Thresholds) Option {
	return func(o *options) { o.calc = expiry.NewCalculator(t) }
}

func buildOptions(opts []Option) options {
	o := options{log: zap.NewNop(), now: time.Now, calc: expiry.Default}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// hub fans change notifications out to subscribers and tracks in-flight
// fetches for the Loading flag.
type hub struct {
	name    string
	mu      sync.Mutex
	nextID  int
	subs    map[int]func(Event)
	loading atomic.Int32
}

func newHub(name string) *hub {
	return &hub{name: name, subs: make(map[int]func(Event))}
}

// Subscribe registers fn for every future event and returns a function that
// removes it. Callbacks run synchronously on the mutating goroutine after the
// store has released its own lock.
func (h *hub) Subscribe(fn func(Event)) (unsubscribe func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *hub) emit(kind Kind, id int64) {
	h.mu.Lock()
	fns := make([]func(Event), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	e := Event{Store: h.name, Kind: kind, ID: id}
	for _, fn := range fns {
		fn(e)
	}
}

// Loading reports whether a fetch is in flight.
func (h *hub) Loading() bool {
	return h.loading.Load() > 0
}

func (h *hub) begin() (done func()) {
	h.loading.Add(1)
	return func() { h.loading.Add(-1) }
}

// late reports whether err is a cancellation. Those are dropped: the caller
// gets the current local state and no error.
func late(log *zap.Logger, store string, err error) bool {
	if !apperrors.IsCanceled(err) {
		return false
	}
	log.Debug("request superseded", zap.String("store", store))
	return true
}

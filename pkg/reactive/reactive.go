// Package reactive binds a set of named fields to URL query parameters and
// notifies listeners whenever one of them is written.
//
// Fields are registered once, from the keys of a default-value map, and seeded
// from the URL when the query already carries a value:
//
//	rx, err := reactive.FromQueryString(r.URL.RawQuery,
//	    query.RawQuery{"q": "", "status": "open"},
//	    func(q query.RawQuery) { log.Println(q) },
//	    nil, // namespace every field as filter[...]
//	)
//	rx.Set("q", "golang") // callback receives {"q": "golang", "status": "open"}
package reactive

import (
	"log/slog"
	"maps"
	"net/url"
	"slices"
	"sort"
	"sync"

	"github.com/vango-dev/reactiveurl/pkg/query"
)

// ChangeFunc receives a snapshot of every registered field after a write.
type ChangeFunc func(query.RawQuery)

// Option configures a ReactiveURL.
type Option func(*ReactiveURL)

// WithLogger sets the logger used for change notifications.
func WithLogger(logger *slog.Logger) Option {
	return func(r *ReactiveURL) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// ReactiveURL is a set of fields seeded from a query string. Writes go through
// Set or Update, which notify the change callback and subscribers.
type ReactiveURL struct {
	filterable query.RawQuery
	query      *query.QueryParams
	onChange   ChangeFunc
	logger     *slog.Logger

	mu             sync.Mutex
	reservedFields []string
	values         map[string]any
	listeners      []*listener

	// pending holds notifications not yet delivered, in write order.
	// dispatching is set while one goroutine drains it.
	pending     []notification
	dispatching bool
}

type listener struct {
	fn ChangeFunc
}

type notification struct {
	snapshot  query.RawQuery
	listeners []*listener
}

// New registers every key of filterable as a field. Each field starts with the
// value q holds for it, falling back to the default in filterable. Keys are
// registered in sorted order. A nil q seeds every field from its default.
func New(filterable query.RawQuery, q *query.QueryParams, onChange ChangeFunc, opts ...Option) *ReactiveURL {
	if filterable == nil {
		filterable = query.RawQuery{}
	}
	if q == nil {
		q = query.New(query.NewMapSearchParams(nil))
	}
	r := &ReactiveURL{
		filterable: filterable,
		query:      q,
		onChange:   onChange,
		logger:     slog.Default().With("component", "reactiveurl"),
		values:     make(map[string]any, len(filterable)),
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, key := range sortedKeys(filterable) {
		r.registerField(key, filterable[key])
	}
	return r
}

// FromURL builds a ReactiveURL over the query of u. A nil filterKeys
// namespaces every key of filterable; an empty slice namespaces none.
func FromURL(u *url.URL, filterable query.RawQuery, onChange ChangeFunc, filterKeys []string, opts ...Option) *ReactiveURL {
	return newFromParams(query.SearchParamsFromURL(u), filterable, onChange, filterKeys, opts)
}

// FromQueryString is FromURL for a raw query string.
func FromQueryString(raw string, filterable query.RawQuery, onChange ChangeFunc, filterKeys []string, opts ...Option) (*ReactiveURL, error) {
	params, err := query.ParseSearchParams(raw)
	if err != nil {
		return nil, err
	}
	return newFromParams(params, filterable, onChange, filterKeys, opts), nil
}

func newFromParams(params query.SearchParams, filterable query.RawQuery, onChange ChangeFunc, filterKeys []string, opts []Option) *ReactiveURL {
	if filterKeys == nil {
		filterKeys = sortedKeys(filterable)
	}
	return New(filterable, query.New(params, filterKeys...), onChange, opts...)
}

func (r *ReactiveURL) registerField(key string, defaultValue any) {
	r.reservedFields = append(r.reservedFields, key)
	r.values[key] = r.query.Get(key, defaultValue)
}

// Get returns the current value of field, or nil if it was never set.
func (r *ReactiveURL) Get(field string) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values[field]
}

// Set writes field and then notifies. Unregistered fields are stored too, but
// are not part of the snapshot.
//
// Notifications are delivered in write order, one at a time, without the lock
// held, so listeners may call back into r. A write made while another
// goroutine is delivering is queued and delivered by that goroutine, after
// which Set returns without waiting for it.
func (r *ReactiveURL) Set(field string, value any) {
	r.mu.Lock()
	r.values[field] = value
	r.enqueueLocked()
	r.mu.Unlock()

	r.logger.Debug("field changed", "field", field)
	r.dispatch()
}

// Update writes every entry of values and notifies once.
func (r *ReactiveURL) Update(values query.RawQuery) {
	if len(values) == 0 {
		return
	}
	r.mu.Lock()
	for k, v := range values {
		r.values[k] = v
	}
	r.enqueueLocked()
	r.mu.Unlock()

	r.logger.Debug("fields changed", "count", len(values))
	r.dispatch()
}

// Reset restores every registered field to its default and notifies once.
func (r *ReactiveURL) Reset() {
	r.mu.Lock()
	for _, field := range r.reservedFields {
		r.values[field] = r.filterable[field]
	}
	r.enqueueLocked()
	r.mu.Unlock()

	r.logger.Debug("fields reset")
	r.dispatch()
}

// enqueueLocked queues a notification for the current state. r.mu must be held.
func (r *ReactiveURL) enqueueLocked() {
	r.pending = append(r.pending, notification{
		snapshot:  r.createQueryLocked(),
		listeners: slices.Clone(r.listeners),
	})
}

// dispatch drains the pending queue unless another call is already doing so.
func (r *ReactiveURL) dispatch() {
	r.mu.Lock()
	if r.dispatching {
		r.mu.Unlock()
		return
	}
	r.dispatching = true
	r.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			r.mu.Lock()
			r.dispatching = false
			r.mu.Unlock()
			panic(p)
		}
	}()

	for {
		r.mu.Lock()
		if len(r.pending) == 0 {
			r.pending = nil
			r.dispatching = false
			r.mu.Unlock()
			return
		}
		n := r.pending[0]
		r.pending[0] = notification{}
		r.pending = r.pending[1:]
		r.mu.Unlock()

		r.notify(n.snapshot, n.listeners)
	}
}

func (r *ReactiveURL) notify(snapshot query.RawQuery, listeners []*listener) {
	if r.onChange != nil {
		r.onChange(snapshot)
	}
	for _, l := range listeners {
		// Listeners get independent copies of the snapshot.
		l.fn(maps.Clone(snapshot))
	}
}

// Subscribe adds fn as a change listener. Listeners run after the change
// callback, in subscription order. The returned func removes fn.
func (r *ReactiveURL) Subscribe(fn ChangeFunc) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	l := &listener{fn: fn}

	r.mu.Lock()
	r.listeners = append(r.listeners, l)
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if i := slices.Index(r.listeners, l); i >= 0 {
				r.listeners = slices.Delete(r.listeners, i, i+1)
			}
		})
	}
}

// CreateQuery returns a point-in-time copy of the registered fields.
func (r *ReactiveURL) CreateQuery() query.RawQuery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.createQueryLocked()
}

func (r *ReactiveURL) createQueryLocked() query.RawQuery {
	q := make(query.RawQuery, len(r.reservedFields))
	for _, field := range r.reservedFields {
		q[field] = r.values[field]
	}
	return q
}

// Fields returns the registered field names in registration order.
func (r *ReactiveURL) Fields() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.reservedFields)
}

// QueryParams returns a clone of the QueryParams the fields were seeded from.
// It is not updated by Set; callers sync it with Fill when they need to.
func (r *ReactiveURL) QueryParams() *query.QueryParams {
	return r.query.Clone()
}

// DefaultValue returns the default registered for key, or defaultValue if key
// was not in the filterable map.
func (r *ReactiveURL) DefaultValue(key string, defaultValue any) any {
	if v, ok := r.filterable[key]; ok {
		return v
	}
	return defaultValue
}

func sortedKeys(m query.RawQuery) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package query manages URL query parameters with optional filter namespacing.
//
// QueryParams sits on top of any SearchParams store and rewrites selected keys
// into the bracketed form used by list endpoints:
//
//	qp := query.New(query.NewMapSearchParams(nil), "status")
//	qp.Set("status", "open").Set("page", 2)
//	qp.AppendToURL("/issues") // "/issues?filter%5Bstatus%5D=open&page=2"
//
// Clearing a field through Fill removes it from the query string instead of
// leaving an empty value behind, so an absent key always means "default".
package query

import (
	"slices"
	"sort"
	"strconv"
)

// Paginator keys removed by ExceptPaginator.
const (
	LimitKey = "limit"
	PageKey  = "page"
)

// FilterKey returns the namespaced form of key: filter[key].
func FilterKey(key string) string {
	return "filter[" + key + "]"
}

// QueryParams is a façade over a SearchParams store. The store is shared, not
// owned: clones and callers that supplied it observe every write.
type QueryParams struct {
	params     SearchParams
	filterKeys []string
}

// New creates a QueryParams over params. Keys listed in filterKeys are read and
// written as filter[key].
func New(params SearchParams, filterKeys ...string) *QueryParams {
	return &QueryParams{
		params:     params,
		filterKeys: slices.Clone(filterKeys),
	}
}

// Clone returns a QueryParams sharing the same store with its own copy of the
// filter keys.
func (q *QueryParams) Clone() *QueryParams {
	return New(q.params, q.filterKeys...)
}

// SearchParams returns the underlying store.
func (q *QueryParams) SearchParams() SearchParams {
	return q.params
}

// FilterKeys returns a copy of the namespaced keys.
func (q *QueryParams) FilterKeys() []string {
	return slices.Clone(q.filterKeys)
}

// Fill merges data into the query. nil and "" values forget their key.
// Entries are applied in key order.
func (q *QueryParams) Fill(data RawQuery) *QueryParams {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := data[key]
		if isEmpty(value) {
			q.Forget(key)
		} else {
			q.Set(key, value)
		}
	}
	return q
}

// SetIf sets key when cond holds and forgets it otherwise.
func (q *QueryParams) SetIf(cond bool, key string, value any) *QueryParams {
	if cond {
		return q.Set(key, value)
	}
	return q.Forget(key)
}

// SetUnless is the inverse of SetIf.
func (q *QueryParams) SetUnless(cond bool, key string, value any) *QueryParams {
	return q.SetIf(!cond, key, value)
}

// SetFilter writes filter[key] regardless of the configured filter keys.
func (q *QueryParams) SetFilter(key string, value any) *QueryParams {
	return q.Set(FilterKey(key), value)
}

// ForgetFilter removes filter[key] regardless of the configured filter keys.
func (q *QueryParams) ForgetFilter(key string) *QueryParams {
	return q.Forget(FilterKey(key))
}

func (q *QueryParams) Set(key string, value any) *QueryParams {
	q.params.Set(q.KeyOf(key), value)
	return q
}

// Get returns the value stored for key, or defaultValue when it is absent.
func (q *QueryParams) Get(key string, defaultValue any) any {
	if q.Has(key) {
		return q.params.Get(q.KeyOf(key))
	}
	return defaultValue
}

// GetString is Get with the value rendered by FormatValue.
func (q *QueryParams) GetString(key, defaultValue string) string {
	if !q.Has(key) {
		return defaultValue
	}
	return FormatValue(q.params.Get(q.KeyOf(key)))
}

// GetInt returns defaultValue when key is absent or not an integer.
func (q *QueryParams) GetInt(key string, defaultValue int) int {
	if !q.Has(key) {
		return defaultValue
	}
	switch v := q.params.Get(q.KeyOf(key)).(type) {
	case int:
		return v
	default:
		n, err := strconv.Atoi(FormatValue(v))
		if err != nil {
			return defaultValue
		}
		return n
	}
}

func (q *QueryParams) Forget(key string) *QueryParams {
	q.params.Delete(q.KeyOf(key))
	return q
}

// Except is an alias for Forget.
func (q *QueryParams) Except(key string) *QueryParams {
	return q.Forget(key)
}

// ExceptPaginator removes the limit and page keys.
func (q *QueryParams) ExceptPaginator() *QueryParams {
	return q.Except(LimitKey).Except(PageKey)
}

func (q *QueryParams) Has(key string) bool {
	return q.params.Has(q.KeyOf(key))
}

// Keys returns the raw (already namespaced) keys of the store.
func (q *QueryParams) Keys() []string {
	return q.params.Keys()
}

// AppendToURL returns base with the serialized query appended, or base
// unchanged when the query is empty.
func (q *QueryParams) AppendToURL(base string) string {
	if len(q.Keys()) > 0 {
		return base + "?" + q.String()
	}
	return base
}

// KeyOf maps a logical key to its query-string name.
func (q *QueryParams) KeyOf(key string) string {
	if slices.Contains(q.filterKeys, key) {
		return FilterKey(key)
	}
	return key
}

func (q *QueryParams) String() string {
	return q.params.FormatToString()
}

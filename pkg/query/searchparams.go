package query

import (
	"net/url"
	"sort"
	"strings"
)

// RawQuery is a flat mapping of keys to scalar values. It represents either a
// decoded query string or a set of default field values.
type RawQuery map[string]any

// SearchParams is the minimal capability set QueryParams needs from a
// query-string store.
type SearchParams interface {
	Get(key string) any
	Set(key string, value any)
	Delete(key string)
	Has(key string) bool
	Keys() []string
	FormatToString() string
}

// URLSearchParams adapts url.Values to SearchParams.
//
// Values are stored as strings; Keys are returned in the same sorted order
// url.Values.Encode uses so serialization and iteration agree.
type URLSearchParams struct {
	values url.Values
}

// NewURLSearchParams wraps values. A nil map is replaced with an empty one.
func NewURLSearchParams(values url.Values) *URLSearchParams {
	if values == nil {
		values = url.Values{}
	}
	return &URLSearchParams{values: values}
}

// ParseSearchParams parses a raw query string. A leading "?" is accepted.
func ParseSearchParams(raw string) (*URLSearchParams, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return nil, err
	}
	return NewURLSearchParams(values), nil
}

// SearchParamsFromURL reads the query of u once. Malformed pairs are skipped,
// matching how browsers treat window.location.search.
func SearchParamsFromURL(u *url.URL) *URLSearchParams {
	if u == nil {
		return NewURLSearchParams(nil)
	}
	return NewURLSearchParams(u.Query())
}

func (p *URLSearchParams) Get(key string) any {
	if !p.values.Has(key) {
		return nil
	}
	return p.values.Get(key)
}

func (p *URLSearchParams) Set(key string, value any) {
	p.values.Set(key, FormatValue(value))
}

func (p *URLSearchParams) Delete(key string) {
	p.values.Del(key)
}

func (p *URLSearchParams) Has(key string) bool {
	return p.values.Has(key)
}

func (p *URLSearchParams) Keys() []string {
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (p *URLSearchParams) FormatToString() string {
	return p.values.Encode()
}

// Values returns the underlying url.Values.
func (p *URLSearchParams) Values() url.Values {
	return p.values
}

// MapSearchParams is a SearchParams backed directly by a RawQuery. Keys keep
// their insertion order, which makes serialized output predictable in tests.
type MapSearchParams struct {
	source RawQuery
	order  []string
}

// NewMapSearchParams wraps source. Existing keys are ordered by name since map
// iteration order is not stable.
func NewMapSearchParams(source RawQuery) *MapSearchParams {
	if source == nil {
		source = RawQuery{}
	}
	order := make([]string, 0, len(source))
	for k := range source {
		order = append(order, k)
	}
	sort.Strings(order)
	return &MapSearchParams{source: source, order: order}
}

func (p *MapSearchParams) Get(key string) any {
	return p.source[key]
}

func (p *MapSearchParams) Set(key string, value any) {
	if _, ok := p.source[key]; !ok {
		p.order = append(p.order, key)
	}
	p.source[key] = value
}

func (p *MapSearchParams) Delete(key string) {
	if _, ok := p.source[key]; !ok {
		return
	}
	delete(p.source, key)
	for i, k := range p.order {
		if k == key {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

func (p *MapSearchParams) Has(key string) bool {
	_, ok := p.source[key]
	return ok
}

func (p *MapSearchParams) Keys() []string {
	keys := make([]string, len(p.order))
	copy(keys, p.order)
	return keys
}

func (p *MapSearchParams) FormatToString() string {
	var b strings.Builder
	for i, k := range p.order {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(FormatValue(p.source[k])))
	}
	return b.String()
}

// Raw returns the backing map.
func (p *MapSearchParams) Raw() RawQuery {
	return p.source
}

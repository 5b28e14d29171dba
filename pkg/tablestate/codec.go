package tablestate

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// DefaultPageSizes are the page sizes offered by the table footer.
var DefaultPageSizes = []int{10, 20, 30, 50}

// DefaultPageSize is used when the URL carries no valid limit.
const DefaultPageSize = 10

// Patch is a set of query-parameter changes. An empty value deletes the key,
// any other value replaces it. Keys not in the patch are left untouched.
type Patch map[string]string

// DecodeError describes a query string that could not be fully parsed. It is
// never shown to users: decoding always falls back to defaults.
type DecodeError struct {
	Query string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("tablestate: malformed query %q: %v", e.Query, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Option configures a Codec.
type Option func(*Codec)

// WithPageSizes sets the allowed page sizes. Non-positive sizes are ignored.
func WithPageSizes(sizes ...int) Option {
	return func(c *Codec) {
		allowed := make([]int, 0, len(sizes))
		for _, n := range sizes {
			if n > 0 && !slices.Contains(allowed, n) {
				allowed = append(allowed, n)
			}
		}
		if len(allowed) > 0 {
			slices.Sort(allowed)
			c.pageSizes = allowed
		}
	}
}

// WithDefaultPageSize sets the size used when the URL has no valid limit.
func WithDefaultPageSize(n int) Option {
	return func(c *Codec) {
		c.defaultSize = n
	}
}

// WithFilterKeys registers the discrete filter parameters.
func WithFilterKeys(keys ...string) Option {
	return func(c *Codec) {
		for _, k := range keys {
			if k == "" || isReserved(k) || slices.Contains(c.filterKeys, k) {
				continue
			}
			c.filterKeys = append(c.filterKeys, k)
		}
	}
}

// WithSortableColumns restricts sortBy to the given column ids. Without it any
// non-empty sortBy is accepted.
func WithSortableColumns(cols ...string) Option {
	return func(c *Codec) {
		c.sortable = append(c.sortable, cols...)
	}
}

// WithWildcard marks a filter value that means "no constraint", such as
// status=all. It decodes as an absent filter.
func WithWildcard(key, value string) Option {
	return func(c *Codec) {
		if c.wildcards == nil {
			c.wildcards = make(map[string]string)
		}
		c.wildcards[key] = value
	}
}

// Codec maps between TableState and URL query parameters. A Codec is
// immutable after construction and safe for concurrent use.
type Codec struct {
	pageSizes   []int
	defaultSize int
	filterKeys  []string
	sortable    []string
	wildcards   map[string]string
}

// NewCodec creates a codec with the default page sizes.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		pageSizes:   slices.Clone(DefaultPageSizes),
		defaultSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if !slices.Contains(c.pageSizes, c.defaultSize) {
		c.defaultSize = c.pageSizes[0]
	}
	return c
}

// PageSizes returns the allowed page sizes in ascending order.
func (c *Codec) PageSizes() []int {
	return slices.Clone(c.pageSizes)
}

// DefaultSize returns the fallback page size.
func (c *Codec) DefaultSize() int {
	return c.defaultSize
}

// FilterKeys returns the registered filter keys.
func (c *Codec) FilterKeys() []string {
	return slices.Clone(c.filterKeys)
}

// IsFilterKey reports whether key is a registered filter.
func (c *Codec) IsFilterKey(key string) bool {
	return slices.Contains(c.filterKeys, key)
}

// AllowsPageSize reports whether n is one of the allowed sizes.
func (c *Codec) AllowsPageSize(n int) bool {
	return slices.Contains(c.pageSizes, n)
}

// IsSortable reports whether col may be used as a sort column.
func (c *Codec) IsSortable(col string) bool {
	if col == "" {
		return false
	}
	return len(c.sortable) == 0 || slices.Contains(c.sortable, col)
}

// Default returns the state of a URL with no table parameters.
func (c *Codec) Default() TableState {
	return TableState{PageSize: c.defaultSize}
}

// Decode derives the table state from query parameters. Missing or malformed
// parameters fall back to their defaults; Decode never fails.
func (c *Codec) Decode(values url.Values) TableState {
	st := c.Default()

	if n, err := strconv.Atoi(strings.TrimSpace(values.Get(ParamLimit))); err == nil && c.AllowsPageSize(n) {
		st.PageSize = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(values.Get(ParamPage))); err == nil && n > 0 && n-1 <= MaxPageIndex(st.PageSize) {
		st.PageIndex = n - 1
	}
	if col := values.Get(ParamSortBy); c.IsSortable(col) {
		st.SortColumn = col
		st.SortDir = ParseSortDirection(values.Get(ParamSortDir))
	}
	st.Search = values.Get(ParamSearch)

	for _, k := range c.filterKeys {
		v := values.Get(k)
		if v == "" || v == c.wildcards[k] {
			continue
		}
		if st.Filters == nil {
			st.Filters = make(map[string]string)
		}
		st.Filters[k] = v
	}
	return st
}

// DecodeQuery decodes a raw query string, with or without a leading "?".
func (c *Codec) DecodeQuery(raw string) TableState {
	values, _ := ParseQuery(raw)
	return c.Decode(values)
}

// Normalize coerces an arbitrary state into one that Decode could produce.
func (c *Codec) Normalize(s TableState) TableState {
	out := c.Default()
	if c.AllowsPageSize(s.PageSize) {
		out.PageSize = s.PageSize
	}
	if s.PageIndex > 0 && s.PageIndex <= MaxPageIndex(out.PageSize) {
		out.PageIndex = s.PageIndex
	}
	if c.IsSortable(s.SortColumn) {
		out.SortColumn = s.SortColumn
		out.SortDir = s.SortDir
	}
	out.Search = s.Search
	for k, v := range s.Filters {
		if !c.IsFilterKey(k) || v == "" || v == c.wildcards[k] {
			continue
		}
		if out.Filters == nil {
			out.Filters = make(map[string]string)
		}
		out.Filters[k] = v
	}
	return out
}

// Encode writes the state into a copy of existing, leaving unrelated
// parameters untouched. existing may be nil.
func (c *Codec) Encode(s TableState, existing url.Values) url.Values {
	return Merge(existing, c.Normalize(s).Patch(c.filterKeys...))
}

// Merge applies a patch to a copy of params. Keys with an empty patch value
// are removed, other keys are set, and keys not named by the patch keep their
// existing values. params is never modified.
func Merge(params url.Values, patch Patch) url.Values {
	next := make(url.Values, len(params)+len(patch))
	for k, vs := range params {
		next[k] = slices.Clone(vs)
	}
	for k, v := range patch {
		if v == "" {
			next.Del(k)
			continue
		}
		next.Set(k, v)
	}
	return next
}

// ParseQuery parses a raw query string. On malformed input it returns every
// pair it could parse together with a *DecodeError.
func ParseQuery(raw string) (url.Values, error) {
	values, err := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if err != nil {
		return values, &DecodeError{Query: raw, Err: err}
	}
	return values, nil
}

func isReserved(k string) bool {
	switch k {
	case ParamPage, ParamLimit, ParamSortBy, ParamSortDir, ParamSearch:
		return true
	}
	return false
}

// Package params defines the query-parameter entity that drives a listing,
// the actions that mutate it, and the URL serialization that makes a listing
// state fully reconstructable from a query string.
package params

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Well-known parameter keys. Taxonomy selections are stored under the
// taxonomy name itself (e.g. "category", "post_tag").
const (
	KeyPerPage   = "per_page"
	KeySearch    = "search"
	KeyOrder     = "order"
	KeyOrderBy   = "orderby"
	KeyPage      = "pagenum"
	KeyMetaQuery = "meta_query"
	KeyVer       = "ver"
)

// QueryParams is the single mutable parameter entity of a listing. Values are
// kept JSON-normalized (numbers as float64, sequences as []any, mappings as
// map[string]any) so that a serialize/deserialize round trip compares equal.
type QueryParams map[string]any

// MetaClause is one meta_query entry: filter a meta field against a value.
type MetaClause struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

// New builds a parameter set from initial values. Taxonomy selections are
// added for every declared taxonomy, including empty ones, so the keys are
// present from the start.
func New(perPage int, search, order, orderBy string, page int, taxonomies map[string][]int, metaQuery map[string]MetaClause) QueryParams {
	p := QueryParams{
		KeyPerPage:   float64(perPage),
		KeySearch:    search,
		KeyOrder:     order,
		KeyOrderBy:   orderBy,
		KeyPage:      float64(page),
		KeyMetaQuery: metaQueryValue(metaQuery),
		KeyVer:       float64(0),
	}
	for name, terms := range taxonomies {
		p[name] = termList(terms)
	}
	if p.Page() < 1 {
		p[KeyPage] = float64(1)
	}
	return p
}

func metaQueryValue(mq map[string]MetaClause) map[string]any {
	out := make(map[string]any, len(mq))
	for field, clause := range mq {
		out[field] = map[string]any{"field": clause.Field, "value": clause.Value}
	}
	return out
}

func termList(terms []int) []any {
	out := make([]any, len(terms))
	for i, id := range terms {
		out[i] = float64(id)
	}
	return out
}

// Clone returns a deep copy. The copy and the original never share nested
// containers.
func (p QueryParams) Clone() QueryParams {
	out := make(QueryParams, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// Normalize round-trips the parameter set through JSON so every value takes
// its canonical JSON-decoded shape. Equality checks and the serializer
// round-trip law assume normalized values.
func (p QueryParams) Normalize() (QueryParams, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("normalize params: %w", err)
	}
	var out QueryParams
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("normalize params: %w", err)
	}
	return out, nil
}

// Equal reports semantic equality of two normalized parameter sets.
func (p QueryParams) Equal(other QueryParams) bool {
	return reflect.DeepEqual(map[string]any(p), map[string]any(other))
}

// Page returns the current page number, defaulting to 1.
func (p QueryParams) Page() int {
	if n, ok := toInt(p[KeyPage]); ok && n >= 1 {
		return n
	}
	return 1
}

// PerPage returns the page size, or 0 when unset.
func (p QueryParams) PerPage() int {
	n, _ := toInt(p[KeyPerPage])
	return n
}

// Search returns the search string.
func (p QueryParams) Search() string {
	s, _ := p[KeySearch].(string)
	return s
}

// Order returns the sort direction ("asc" or "desc").
func (p QueryParams) Order() string {
	s, _ := p[KeyOrder].(string)
	return s
}

// OrderBy returns the sort field.
func (p QueryParams) OrderBy() string {
	s, _ := p[KeyOrderBy].(string)
	return s
}

// Ver returns the cache-busting counter.
func (p QueryParams) Ver() int {
	n, _ := toInt(p[KeyVer])
	return n
}

// MetaQuery returns the meta_query mapping, never nil.
func (p QueryParams) MetaQuery() map[string]any {
	if mq, ok := p[KeyMetaQuery].(map[string]any); ok {
		return mq
	}
	return map[string]any{}
}

// TaxonomyTerms returns the selected term IDs for a taxonomy.
func (p QueryParams) TaxonomyTerms(taxonomy string) []int {
	list, ok := p[taxonomy].([]any)
	if !ok {
		return nil
	}
	out := make([]int, 0, len(list))
	for _, v := range list {
		if n, ok := toInt(v); ok {
			out = append(out, n)
		}
	}
	return out
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case float64:
		return int(x), true
	case int:
		return x, true
	case int64:
		return int(x), true
	case json.Number:
		n, err := x.Int64()
		return int(n), err == nil
	default:
		return 0, false
	}
}

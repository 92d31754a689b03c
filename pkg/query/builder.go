// Package query derives backend-ready request parameters from a listing's
// query-parameter entity.
package query

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/wpbrowse/wp-listing-client/pkg/params"
)

// MetaType describes how a registered meta field sorts.
type MetaType string

const (
	// MetaNumber sorts the field numerically (meta_value_num).
	MetaNumber MetaType = "number"

	// MetaString sorts the field lexically (meta_value).
	MetaString MetaType = "string"
)

// validOrderBy is the fixed set of orderby values the posts endpoint accepts
// for fields that are not post meta.
var validOrderBy = map[string]struct{}{
	"author":    {},
	"date":      {},
	"id":        {},
	"include":   {},
	"modified":  {},
	"parent":    {},
	"relevance": {},
	"slug":      {},
	"title":     {},
}

// ValidationError reports an invalid parameter value. It is returned
// synchronously to the caller; the listing state is left untouched.
type ValidationError struct {
	Param   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Message)
}

// ValidOrder reports whether a sort direction is acceptable.
func ValidOrder(order string) bool {
	return order == "asc" || order == "desc"
}

// Build derives the request parameters for a listing fetch. It is a pure
// function of its inputs; the given params are never mutated.
//
// Rules, in order:
//  1. pagenum is renamed to page.
//  2. orderby naming a registered number meta field becomes
//     orderby=meta_value_num plus meta_key; any other registered meta field
//     becomes orderby=meta_value plus meta_key; anything else must be one of
//     the fixed orderby set or the build fails.
//  3. A non-empty meta_query gains relation=AND.
func Build(p params.QueryParams, metaFields map[string]MetaType) (url.Values, error) {
	working := p.Clone()

	if page, ok := working[params.KeyPage]; ok {
		working["page"] = page
		delete(working, params.KeyPage)
	}

	if orderBy, ok := working[params.KeyOrderBy].(string); ok && orderBy != "" {
		if metaType, registered := metaFields[orderBy]; registered {
			if metaType == MetaNumber {
				working[params.KeyOrderBy] = "meta_value_num"
			} else {
				working[params.KeyOrderBy] = "meta_value"
			}
			working["meta_key"] = orderBy
		} else if _, fixed := validOrderBy[orderBy]; !fixed {
			return nil, &ValidationError{
				Param:   "orderby",
				Message: fmt.Sprintf("must be one of %s, or a postmeta field", orderByList()),
			}
		}
	}

	if mq, ok := working[params.KeyMetaQuery].(map[string]any); ok && len(mq) > 0 {
		mq["relation"] = "AND"
	}

	return encode(working), nil
}

func orderByList() string {
	names := make([]string, 0, len(validOrderBy))
	for name := range validOrderBy {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// encode flattens the request parameters into query arguments. Scalars are
// stringified, term-ID lists are comma-joined, and nested mappings
// (meta_query) are JSON-encoded.
func encode(working params.QueryParams) url.Values {
	values := url.Values{}
	for key, v := range working {
		switch x := v.(type) {
		case nil:
			continue
		case string:
			if x != "" {
				values.Set(key, x)
			}
		case bool:
			values.Set(key, strconv.FormatBool(x))
		case float64:
			if x == float64(int64(x)) {
				values.Set(key, strconv.FormatInt(int64(x), 10))
			} else {
				values.Set(key, strconv.FormatFloat(x, 'f', -1, 64))
			}
		case int:
			values.Set(key, strconv.Itoa(x))
		case []any:
			if len(x) == 0 {
				continue
			}
			parts := make([]string, 0, len(x))
			for _, e := range x {
				parts = append(parts, scalarString(e))
			}
			values.Set(key, strings.Join(parts, ","))
		case map[string]any:
			if len(x) == 0 {
				continue
			}
			if data, err := json.Marshal(x); err == nil {
				values.Set(key, string(data))
			}
		default:
			values.Set(key, fmt.Sprintf("%v", x))
		}
	}
	return values
}

func scalarString(v any) string {
	switch x := v.(type) {
	case float64:
		if x == float64(int64(x)) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}

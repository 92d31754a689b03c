package params

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ParseError reports a malformed query-string segment. Deserialization stops
// at the first bad segment; there is no partial restore.
type ParseError struct {
	Segment string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse query segment %q: %v", e.Segment, e.Err)
	}
	return fmt.Sprintf("parse query segment %q", e.Segment)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Serialize encodes a parameter set as a URL query string. Each value is
// JSON-encoded, then both key and value are percent-encoded. Keys whose value
// is falsy are omitted entirely: nil, false, empty string, numeric zero and
// empty containers all drop out. Omitting zero and empty lists matches the
// truthiness filter the listing front end always applied, and the
// deserializer restores such params to their defaults.
//
// Keys are emitted in sorted order so the output is deterministic.
func Serialize(p QueryParams) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		if Truthy(p[k]) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		// Values are JSON-representable by construction; Marshal cannot
		// fail on normalized params.
		data, err := json.Marshal(p[k])
		if err != nil {
			continue
		}
		pairs = append(pairs, url.QueryEscape(k)+"="+url.QueryEscape(string(data)))
	}
	return strings.Join(pairs, "&")
}

// Deserialize reconstructs a parameter set from a URL query string. A leading
// "?" is ignored. The first malformed segment (missing "=", bad
// percent-encoding, invalid JSON value) aborts the whole operation with a
// ParseError.
func Deserialize(query string) (QueryParams, error) {
	query = strings.TrimPrefix(query, "?")
	p := QueryParams{}
	if query == "" {
		return p, nil
	}

	for _, segment := range strings.Split(query, "&") {
		key, value, found := strings.Cut(segment, "=")
		if !found {
			return nil, &ParseError{Segment: segment}
		}

		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			return nil, &ParseError{Segment: segment, Err: err}
		}
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			return nil, &ParseError{Segment: segment, Err: err}
		}

		var v any
		if err := json.Unmarshal([]byte(decodedValue), &v); err != nil {
			return nil, &ParseError{Segment: segment, Err: err}
		}
		p[decodedKey] = v
	}
	return p, nil
}

// Truthy mirrors the truthiness rule the serializer filters by: nil, false,
// zero numbers, empty strings and empty containers are falsy, everything
// else is truthy.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	case int:
		return x != 0
	case int64:
		return x != 0
	case json.Number:
		return x.String() != "0" && x.String() != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	case []int:
		return len(x) > 0
	case []string:
		return len(x) > 0
	default:
		return true
	}
}

// Package callback encodes and parses inline-button payloads.
//
// A payload is a compact URL-like string: pattern?key=value[&key2=value2].
// The pattern routes the press to a handler; the query part carries named
// parameters such as the target chat id or a chosen answer.
package callback

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Payload is a decoded button payload.
type Payload struct {
	Pattern string
	params  url.Values
}

// New starts a payload for the given pattern with no parameters.
func New(pattern string) Payload {
	return Payload{Pattern: pattern, params: url.Values{}}
}

// With returns a copy of the payload with the parameter set.
func (p Payload) With(key, value string) Payload {
	params := url.Values{}
	for k, vs := range p.params {
		params[k] = append([]string(nil), vs...)
	}
	params.Set(key, value)
	return Payload{Pattern: p.Pattern, params: params}
}

// WithInt returns a copy of the payload with the parameter set to a base-10
// integer.
func (p Payload) WithInt(key string, value int64) Payload {
	return p.With(key, strconv.FormatInt(value, 10))
}

// Encode renders the payload as a callback-data string.
func (p Payload) Encode() string {
	if len(p.params) == 0 {
		return p.Pattern
	}
	return p.Pattern + "?" + p.params.Encode()
}

// Encode is a one-shot helper for a pattern with a single parameter.
func Encode(pattern, key, value string) string {
	return New(pattern).With(key, value).Encode()
}

// EncodeInt is a one-shot helper for a pattern with a single integer
// parameter.
func EncodeInt(pattern, key string, value int64) string {
	return New(pattern).WithInt(key, value).Encode()
}

// Parse decodes a callback-data string back into a pattern and parameters.
func Parse(data string) (Payload, error) {
	pattern, query, _ := strings.Cut(data, "?")
	if pattern == "" {
		return Payload{}, fmt.Errorf("callback payload has no pattern: %q", data)
	}
	params, err := url.ParseQuery(query)
	if err != nil {
		return Payload{}, fmt.Errorf("parse callback parameters %q: %w", data, err)
	}
	return Payload{Pattern: pattern, params: params}, nil
}

// String returns the named parameter, reporting whether it was present.
func (p Payload) String(key string) (string, bool) {
	if p.params == nil {
		return "", false
	}
	vs, ok := p.params[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Int returns the named parameter parsed as a base-10 integer.
func (p Payload) Int(key string) (int64, bool) {
	s, ok := p.String(key)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

package relay

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

// Wildcard is the pattern that matches any present, non-null value.
const Wildcard = "*"

// Pattern is a single constraint on a value. It is one of:
//
//   - an exact string, compared against the value's string form
//   - a string ending in "*", matched as a prefix
//   - "*" alone, meaning the value exists and is not null
//   - an ordered set of alternatives (AnyOf), true if any alternative is
//
// Patterns are compared against the string form of the value: strings as-is,
// numbers in their canonical text ("123", "1.5"), booleans as "true" or
// "false", objects and arrays as their raw JSON text.
type Pattern struct {
	expr string
	alts []Pattern
	or   bool
}

// P parses the string form of a pattern.
func P(expr string) Pattern {
	return Pattern{expr: expr}
}

// Exists returns the "*" pattern.
func Exists() Pattern {
	return P(Wildcard)
}

// Prefix returns a pattern matching values that start with prefix.
func Prefix(prefix string) Pattern {
	return P(prefix + Wildcard)
}

// AnyOf returns a pattern that matches when any alternative matches.
// Alternatives are tried in order. An AnyOf with no alternatives never
// matches.
func AnyOf(alts ...Pattern) Pattern {
	return Pattern{alts: alts, or: true}
}

// Strings is shorthand for AnyOf over string patterns.
func Strings(exprs ...string) Pattern {
	alts := make([]Pattern, len(exprs))
	for i, e := range exprs {
		alts[i] = P(e)
	}
	return AnyOf(alts...)
}

// String returns the pattern in its manifest form.
func (p Pattern) String() string {
	if !p.or {
		return p.expr
	}
	parts := make([]string, len(p.alts))
	for i, a := range p.alts {
		parts[i] = a.String()
	}
	return "[" + strings.Join(parts, " | ") + "]"
}

// Match reports whether v satisfies the pattern. found is the second result
// of a path lookup; a missing or null value never matches, not even "*".
func (p Pattern) Match(v gjson.Result, found bool) bool {
	if !found || !v.Exists() || v.Type == gjson.Null {
		return false
	}
	return p.match(coerce(v))
}

func (p Pattern) match(s string) bool {
	if p.or {
		for _, a := range p.alts {
			if a.match(s) {
				return true
			}
		}
		return false
	}

	switch {
	case p.expr == Wildcard:
		return true
	case len(p.expr) > 1 && strings.HasSuffix(p.expr, Wildcard):
		return strings.HasPrefix(s, strings.TrimSuffix(p.expr, Wildcard))
	default:
		return s == p.expr
	}
}

// Matches is the function form of Pattern.Match.
func Matches(v gjson.Result, found bool, p Pattern) bool {
	return p.Match(v, found)
}

func coerce(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	case gjson.Number:
		return v.String()
	default:
		return v.Raw
	}
}

// UnmarshalJSON accepts a string or a (possibly nested) array of patterns.
func (p *Pattern) UnmarshalJSON(data []byte) error {
	r := gjson.ParseBytes(data)
	switch {
	case r.Type == gjson.String:
		*p = P(r.Str)
		return nil
	case r.IsArray():
		var alts []Pattern
		if err := json.Unmarshal(data, &alts); err != nil {
			return err
		}
		*p = AnyOf(alts...)
		return nil
	}
	return errors.Newf("pattern must be a string or an array, got %s", r.Type)
}

// MarshalJSON writes the form UnmarshalJSON accepts.
func (p Pattern) MarshalJSON() ([]byte, error) {
	if p.or {
		if p.alts == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(p.alts)
	}
	return json.Marshal(p.expr)
}

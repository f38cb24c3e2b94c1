package relay

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

// ErrInvalidJSON is returned when the input is not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON")

// Event is an inbound payload as delivered by the host. It keeps the raw
// bytes and a parsed gjson root so repeated field lookups during
// classification and pattern matching do not re-validate the document.
type Event struct {
	raw  json.RawMessage
	root gjson.Result
}

// ParseEvent validates raw and wraps it in an Event.
func ParseEvent(raw []byte) (*Event, error) {
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	return &Event{raw: raw, root: gjson.ParseBytes(raw)}, nil
}

// Raw returns the event bytes exactly as received.
func (e *Event) Raw() json.RawMessage {
	return e.raw
}

// Lookup resolves a dot/bracket path against the event. See Extract.
func (e *Event) Lookup(path string) (gjson.Result, bool) {
	return walk(e.root, path)
}

// HasField returns true if path resolves to a non-null value.
func (e *Event) HasField(path string) bool {
	r, ok := e.Lookup(path)
	return ok && r.Type != gjson.Null
}

// GetString returns the string value at path, or false if not found
// or not a string.
func (e *Event) GetString(path string) (string, bool) {
	r, ok := e.Lookup(path)
	if !ok || r.Type != gjson.String {
		return "", false
	}
	return r.Str, true
}

// Keys returns the top-level keys of an object event in document order.
// Non-object events have no keys.
func (e *Event) Keys() []string {
	if !e.root.IsObject() {
		return nil
	}
	var keys []string
	e.root.ForEach(func(key, _ gjson.Result) bool {
		keys = append(keys, key.String())
		return true
	})
	return keys
}

// Decode unmarshals the event into v.
func (e *Event) Decode(v any) error {
	if err := json.Unmarshal(e.raw, v); err != nil {
		return errors.Wrap(err, "decode event")
	}
	return nil
}

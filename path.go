package relay

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

var bracketIndex = regexp.MustCompile(`\[(\d+)\]`)

// Extract resolves a path such as "Records[0].s3.bucket.name" against raw
// JSON. The boolean is false when the walk falls off the document at any
// step: a missing key, an out-of-range index, a null or scalar
// intermediate, an empty path, or input that is not valid JSON.
//
// A JSON null stored at the final segment is found; the returned result has
// Type gjson.Null. Extract never panics.
func Extract(raw []byte, path string) (gjson.Result, bool) {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return gjson.Result{}, false
	}
	return walk(gjson.ParseBytes(raw), path)
}

// splitPath turns "a.b[0].c" into ["a", "b", "0", "c"]. Only bracketed
// integers are rewritten; empty segments are dropped.
func splitPath(path string) []string {
	path = bracketIndex.ReplaceAllString(path, ".$1")
	parts := strings.Split(path, ".")
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// walk descends one segment at a time instead of handing the path to
// gjson.Get, so keys containing gjson syntax ('*', '?', '#', '@', '|')
// are compared literally.
func walk(root gjson.Result, path string) (gjson.Result, bool) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return gjson.Result{}, false
	}

	cur := root
	for _, seg := range segs {
		if !cur.Exists() || cur.Type == gjson.Null {
			return gjson.Result{}, false
		}
		next, ok := step(cur, seg)
		if !ok {
			return gjson.Result{}, false
		}
		cur = next
	}
	return cur, true
}

func step(cur gjson.Result, seg string) (gjson.Result, bool) {
	switch {
	case cur.IsArray():
		i, ok := arrayIndex(seg)
		if !ok {
			return gjson.Result{}, false
		}
		elems := cur.Array()
		if i >= len(elems) {
			return gjson.Result{}, false
		}
		return elems[i], true

	case cur.IsObject():
		var (
			found gjson.Result
			ok    bool
		)
		// Duplicate keys resolve to the last occurrence, like encoding/json.
		cur.ForEach(func(key, value gjson.Result) bool {
			if key.String() == seg {
				found, ok = value, true
			}
			return true
		})
		return found, ok
	}
	return gjson.Result{}, false
}

// arrayIndex reports whether seg is a plain non-negative decimal integer.
func arrayIndex(seg string) (int, bool) {
	for i := 0; i < len(seg); i++ {
		if seg[i] < '0' || seg[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(seg)
	if err != nil {
		return 0, false
	}
	return n, true
}

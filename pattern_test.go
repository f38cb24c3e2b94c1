package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func value(raw string) gjson.Result {
	return gjson.Parse(raw)
}

func TestPatternMatch(t *testing.T) {
	tests := map[string]struct {
		value   string
		pattern Pattern
		want    bool
	}{
		"exact":                 {`"aws:s3"`, P("aws:s3"), true},
		"exact mismatch":        {`"aws:sqs"`, P("aws:s3"), false},
		"exact is not prefix":   {`"aws:s3x"`, P("aws:s3"), false},
		"prefix":                {`"ObjectCreated:Put"`, P("ObjectCreated:*"), true},
		"prefix mismatch":       {`"ObjectDeleted:Put"`, P("ObjectCreated:*"), false},
		"prefix matches itself": {`"ObjectCreated:"`, Prefix("ObjectCreated:"), true},
		"exists":                {`"anything"`, Exists(), true},
		"exists empty string":   {`""`, Exists(), true},
		"exists false":          {`false`, Exists(), true},
		"number coerced":        {`123`, P("123"), true},
		"float coerced":         {`1.5`, P("1.5"), true},
		"number prefix":         {`12345`, P("123*"), true},
		"bool coerced":          {`true`, P("true"), true},
		"bool mismatch":         {`false`, P("true"), false},
		"object raw":            {`{"a":1}`, P(`{"a":1}`), true},
		"any of first":          {`"a"`, Strings("a", "b"), true},
		"any of second":         {`"b"`, Strings("a", "b"), true},
		"any of none":           {`"c"`, Strings("a", "b"), false},
		"any of nested":         {`"x1"`, AnyOf(P("y"), AnyOf(P("x*"))), true},
		"any of empty":          {`"a"`, AnyOf(), false},
		"empty string exact":    {`""`, P(""), true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pattern.Match(value(tt.value), true))
		})
	}
}

func TestPatternNeverMatchesNull(t *testing.T) {
	patterns := []Pattern{P("*"), P("null"), P(""), P("n*"), Strings("*", "null")}

	for _, p := range patterns {
		t.Run(p.String(), func(t *testing.T) {
			assert.False(t, p.Match(value(`null`), true), "stored null")
			assert.False(t, p.Match(gjson.Result{}, false), "not found")
			assert.False(t, Matches(gjson.Result{}, true, p), "absent result")
		})
	}
}

func TestPatternJSON(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		var p Pattern
		require.NoError(t, json.Unmarshal([]byte(`"ObjectCreated:*"`), &p))
		assert.True(t, p.Match(value(`"ObjectCreated:Copy"`), true))
	})

	t.Run("array keeps order", func(t *testing.T) {
		var p Pattern
		require.NoError(t, json.Unmarshal([]byte(`["a", ["b*", "c"]]`), &p))
		assert.Equal(t, "[a | [b* | c]]", p.String())
		assert.True(t, p.Match(value(`"bee"`), true))
		assert.False(t, p.Match(value(`"d"`), true))
	})

	t.Run("rejects other types", func(t *testing.T) {
		var p Pattern
		assert.Error(t, json.Unmarshal([]byte(`42`), &p))
		assert.Error(t, json.Unmarshal([]byte(`{"a": "b"}`), &p))
	})

	t.Run("marshal", func(t *testing.T) {
		out, err := json.Marshal(MatchConfig{"a": P("x"), "b": Strings("y", "z*")})
		require.NoError(t, err)
		assert.JSONEq(t, `{"a": "x", "b": ["y", "z*"]}`, string(out))
	})
}

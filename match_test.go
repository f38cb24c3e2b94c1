package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	evt := mustEvent(t, `{
		"Records": [{
			"eventSource": "aws:s3",
			"eventName": "ObjectCreated:Put",
			"s3": {"bucket": {"name": "my-bucket"}, "object": {"key": "uploads/file.pdf", "size": 1024}}
		}],
		"nothing": null
	}`)

	tests := map[string]struct {
		cfg  MatchConfig
		want bool
	}{
		"all entries match": {MatchConfig{
			"Records[0].eventSource": P("aws:s3"),
			"Records[0].eventName":   P("ObjectCreated:*"),
		}, true},
		"one entry fails": {MatchConfig{
			"Records[0].eventSource": P("aws:s3"),
			"Records[0].eventName":   P("ObjectRemoved:*"),
		}, false},
		"missing path fails": {MatchConfig{
			"Records[0].eventSource": P("aws:s3"),
			"Records[1].eventSource": Exists(),
		}, false},
		"number via string form": {MatchConfig{
			"Records[0].s3.object.size": P("1024"),
		}, true},
		"null never matches": {MatchConfig{
			"nothing": Exists(),
		}, false},
		"any of": {MatchConfig{
			"Records[0].s3.bucket.name": Strings("other", "my-*"),
		}, true},
		"empty config": {MatchConfig{}, false},
		"nil config":   {nil, false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(evt, tt.cfg))
			assert.Equal(t, tt.want, tt.cfg.Match(evt))
		})
	}
}

func TestEvaluateEmptyConfigNeverMatches(t *testing.T) {
	events := []string{`{}`, `{"match": {}}`, `{"a": 1}`, `[]`, `null`}
	for _, raw := range events {
		assert.False(t, Evaluate(mustEvent(t, raw), MatchConfig{}), raw)
	}
}

func TestEvaluateNilEvent(t *testing.T) {
	assert.False(t, Evaluate(nil, MatchConfig{"a": Exists()}))
}

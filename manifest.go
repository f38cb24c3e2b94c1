package relay

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
)

// Manifest is a declarative description of controllers and listeners, the
// data-file counterpart of building descriptors in code. The identifiers it
// names must be resolvable by the Resolver passed to New.
//
//	{
//	  "controllers": [
//	    {"id": "items", "basePath": "/api/items",
//	     "routes": {"GET": {"": "List", "/:id": "Get"}, "POST": {"": "Create"}}}
//	  ],
//	  "listeners": [
//	    {"id": "audit", "event": "user.created"},
//	    {"id": "uploads", "match": {
//	      "Records[0].eventSource": "aws:s3",
//	      "Records[0].eventName": ["ObjectCreated:*", "ObjectRestore:*"]}}
//	  ],
//	  "cors": {"enabled": true, "allowOrigins": ["https://app.example.com"]}
//	}
//
// Route fragments within a verb are registered in document order.
type Manifest struct {
	Controllers []*Controller
	Listeners   []*Listener
	CORS        *CORSConfig
}

// Config converts the manifest into a Router Config.
func (m *Manifest) Config() Config {
	return Config{Controllers: m.Controllers, Listeners: m.Listeners, CORS: m.CORS}
}

// LoadManifest parses a JSON manifest. Structural problems are
// configuration errors marked with ErrConfig. Entries without an id or
// selector load as-is and are skipped with a warning by New.
func LoadManifest(raw []byte) (*Manifest, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.Mark(errors.Wrap(ErrInvalidJSON, "manifest"), ErrConfig)
	}
	doc := gjson.ParseBytes(raw)
	m := &Manifest{}

	ctrls := doc.Get("controllers")
	if !ctrls.IsArray() || len(ctrls.Array()) == 0 {
		return nil, configErrorf("At least one controller is required")
	}
	for i, c := range ctrls.Array() {
		if !c.IsObject() {
			return nil, configErrorf("Controller at index %d must be a class constructor", i)
		}
		m.Controllers = append(m.Controllers, controllerFromJSON(c))
	}

	if ls := doc.Get("listeners"); ls.Exists() && ls.Type != gjson.Null {
		if !ls.IsArray() {
			return nil, configErrorf("Listeners must be an array")
		}
		for i, l := range ls.Array() {
			if !l.IsObject() {
				return nil, configErrorf("Listener at index %d must be a class constructor", i)
			}
			lst, err := listenerFromJSON(l)
			if err != nil {
				return nil, errors.Mark(errors.Wrapf(err, "listener at index %d", i), ErrConfig)
			}
			m.Listeners = append(m.Listeners, lst)
		}
	}

	if c := doc.Get("cors"); c.IsObject() {
		var cors CORSConfig
		if err := json.Unmarshal([]byte(c.Raw), &cors); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "cors"), ErrConfig)
		}
		m.CORS = &cors
	}

	return m, nil
}

func controllerFromJSON(c gjson.Result) *Controller {
	ctrl := NewController(c.Get("id").String(), c.Get("basePath").String())
	c.Get("routes").ForEach(func(verb, paths gjson.Result) bool {
		paths.ForEach(func(path, method gjson.Result) bool {
			ctrl.Handle(verb.String(), path.String(), method.String())
			return true
		})
		return true
	})
	return ctrl
}

func listenerFromJSON(l gjson.Result) (*Listener, error) {
	lst := &Listener{
		ID:        l.Get("id").String(),
		EventName: l.Get("event").String(),
	}
	if m := l.Get("match"); m.Exists() {
		if !m.IsObject() {
			return nil, errors.New("match must be an object")
		}
		if err := json.Unmarshal([]byte(m.Raw), &lst.Match); err != nil {
			return nil, errors.Wrap(err, "match")
		}
	}
	return lst, nil
}

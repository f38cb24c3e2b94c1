package relay

import (
	"strings"

	"go.uber.org/zap"
)

// Destination identifies the controller method behind a route, encoded as
// "basePath|methodName".
type Destination string

const destSep = "|"

func newDestination(basePath, method string) Destination {
	return Destination(basePath + destSep + method)
}

// Split returns the controller base path and method name.
func (d Destination) Split() (basePath, method string) {
	s := string(d)
	i := strings.LastIndex(s, destSep)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// RouteTable maps (verb, resource path) to a Destination. It is built once
// by BuildRouteTable and only read afterwards.
type RouteTable struct {
	routes      map[string]map[string]Destination
	controllers map[string]string // basePath -> controller ID
}

// Lookup returns the destination registered for verb and path.
func (t *RouteTable) Lookup(verb, path string) (Destination, bool) {
	d, ok := t.routes[strings.ToUpper(verb)][path]
	return d, ok
}

// Controller returns the resolver identifier of the controller mounted at
// basePath.
func (t *RouteTable) Controller(basePath string) (string, bool) {
	id, ok := t.controllers[basePath]
	return id, ok
}

// Len returns the number of registered routes.
func (t *RouteTable) Len() int {
	n := 0
	for _, paths := range t.routes {
		n += len(paths)
	}
	return n
}

// BuildRouteTable composes controller route fragments into a RouteTable.
// Route keys are BasePath+Path and destinations BasePath|Method.
//
// An empty list or a nil entry is a configuration error. Controllers with
// no ID or no routes are skipped with a warning so unrelated controllers
// still register.
func BuildRouteTable(controllers []*Controller, logger *zap.Logger) (*RouteTable, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(controllers) == 0 {
		return nil, configErrorf("At least one controller is required")
	}
	for i, c := range controllers {
		if c == nil {
			return nil, configErrorf("Controller at index %d must be a class constructor", i)
		}
	}

	t := &RouteTable{
		routes:      make(map[string]map[string]Destination),
		controllers: make(map[string]string),
	}

	for i, c := range controllers {
		if c.ID == "" || len(c.Routes) == 0 {
			logger.Warn("skipping controller without routing metadata",
				zap.Int("index", i),
				zap.String("controller", c.ID),
				zap.String("base_path", c.BasePath),
			)
			continue
		}

		if prev, ok := t.controllers[c.BasePath]; ok && prev != c.ID {
			logger.Warn("controller base path registered twice",
				zap.String("base_path", c.BasePath),
				zap.String("previous", prev),
				zap.String("controller", c.ID),
			)
		}
		t.controllers[c.BasePath] = c.ID

		// Only the route key drops a trailing slash; destinations keep the
		// declared base path.
		base := strings.TrimSuffix(c.BasePath, "/")

		for _, r := range c.Routes {
			if r.Method == "" {
				logger.Warn("skipping route without method name",
					zap.String("controller", c.ID),
					zap.String("verb", r.Verb),
					zap.String("path", r.Path),
				)
				continue
			}
			verb := strings.ToUpper(r.Verb)
			key := base + r.Path
			if key == "" {
				key = "/"
			}
			paths, ok := t.routes[verb]
			if !ok {
				paths = make(map[string]Destination)
				t.routes[verb] = paths
			}
			if prev, ok := paths[key]; ok {
				logger.Warn("route registered twice; keeping the later one",
					zap.String("verb", verb),
					zap.String("path", key),
					zap.String("previous", string(prev)),
				)
			}
			paths[key] = newDestination(c.BasePath, r.Method)
		}
	}

	return t, nil
}

// patternEntry is a pattern listener in registration order.
type patternEntry struct {
	match    MatchConfig
	when     Discriminator
	listener string
}

func (p patternEntry) accepts(e *Event) bool {
	if len(p.match) > 0 && !Evaluate(e, p.match) {
		return false
	}
	if p.when != nil && !p.when.Match(e) {
		return false
	}
	return len(p.match) > 0 || p.when != nil
}

// ListenerTable holds the exact event-name map and the ordered pattern list.
// It is built once by BuildListenerTable and only read afterwards.
type ListenerTable struct {
	byName   map[string]string
	patterns []patternEntry
}

// ByName returns the listener registered for an event name.
func (t *ListenerTable) ByName(name string) (string, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// FirstMatch returns the first pattern listener, in registration order,
// whose MatchConfig and When predicate accept the event.
func (t *ListenerTable) FirstMatch(e *Event) (string, bool) {
	for _, p := range t.patterns {
		if p.accepts(e) {
			return p.listener, true
		}
	}
	return "", false
}

// HasPatterns reports whether any pattern listener is registered.
func (t *ListenerTable) HasPatterns() bool {
	return len(t.patterns) > 0
}

// BuildListenerTable sorts listeners into the event-name map and the
// ordered pattern list. A nil entry is a configuration error; listeners
// without an ID or without a selector are skipped with a warning. For
// repeated event names the last registration wins.
func BuildListenerTable(listeners []*Listener, logger *zap.Logger) (*ListenerTable, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for i, l := range listeners {
		if l == nil {
			return nil, configErrorf("Listener at index %d must be a class constructor", i)
		}
	}

	t := &ListenerTable{byName: make(map[string]string)}

	for i, l := range listeners {
		switch {
		case l.ID == "" || (l.EventName == "" && !l.structural()):
			logger.Warn("skipping listener without registration metadata",
				zap.Int("index", i),
				zap.String("listener", l.ID),
			)

		case l.EventName != "":
			if l.structural() {
				logger.Warn("listener has both an event name and a match config; using the event name",
					zap.String("listener", l.ID),
					zap.String("event", l.EventName),
				)
			}
			if prev, ok := t.byName[l.EventName]; ok {
				logger.Warn("event name registered twice; keeping the later listener",
					zap.String("event", l.EventName),
					zap.String("previous", prev),
					zap.String("listener", l.ID),
				)
			}
			t.byName[l.EventName] = l.ID

		default:
			t.patterns = append(t.patterns, patternEntry{match: l.Match, when: l.When, listener: l.ID})
		}
	}

	return t, nil
}

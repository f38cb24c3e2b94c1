package relay

import (
	"context"
)

// MatchKind says how a listener was selected.
type MatchKind string

const (
	// MatchEventName means the event's name field equalled the listener's
	// registered event name.
	MatchEventName MatchKind = "eventName"

	// MatchPattern means the listener's MatchConfig accepted the event.
	MatchPattern MatchKind = "pattern"
)

// Listener describes a non-HTTP handler. ID is the identifier handed to the
// Resolver to obtain the Handler.
//
// A listener is selected either by EventName or structurally. Structural
// listeners use Match, When, or both; when both are set the event must
// satisfy each of them. If EventName is set alongside a structural
// selector, EventName wins.
type Listener struct {
	ID        string
	EventName string
	Match     MatchConfig

	// When is an arbitrary predicate built from the discriminator
	// combinators, for conditions a MatchConfig cannot state such as
	// negation or alternatives across different paths.
	When Discriminator
}

// OnEvent creates a Listener selected by exact event name.
func OnEvent(id, name string) *Listener {
	return &Listener{ID: id, EventName: name}
}

// OnMatch creates a Listener selected by structural pattern matching.
//
//	relay.OnMatch("uploads", relay.MatchConfig{
//	    "Records[0].eventSource": relay.P("aws:s3"),
//	    "Records[0].eventName":   relay.P("ObjectCreated:*"),
//	})
func OnMatch(id string, m MatchConfig) *Listener {
	return &Listener{ID: id, Match: m}
}

// OnWhen creates a Listener selected by a discriminator.
//
//	relay.OnWhen("notifications", relay.And(
//	    relay.FieldEquals("Type", "Notification"),
//	    relay.Not(relay.HasFields("Subject")),
//	))
func OnWhen(id string, d Discriminator) *Listener {
	return &Listener{ID: id, When: d}
}

// structural reports whether the listener has a Match or When selector.
func (l *Listener) structural() bool {
	return len(l.Match) > 0 || l.When != nil
}

// Handler processes a listener event. The result is normalized per the
// listener rules: a *Response with only a body is returned bare, a
// *Response with a status or headers becomes an HTTP envelope, and anything
// else is wrapped in a ListenerResult.
type Handler interface {
	Handle(ctx context.Context, evt *Event) (any, error)
}

// HandlerFunc is a function adapter for Handler.
type HandlerFunc func(ctx context.Context, evt *Event) (any, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, evt *Event) (any, error) {
	return f(ctx, evt)
}

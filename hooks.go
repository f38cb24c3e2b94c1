package relay

import (
	"context"
	"time"
)

// Kind is the dispatch sub-protocol chosen for an event.
type Kind string

const (
	// KindHTTP routes by verb and resource path to a controller method.
	KindHTTP Kind = "http"

	// KindListener routes by event name or pattern to a listener.
	KindListener Kind = "listener"
)

// OnDispatchFunc is called after a destination is chosen, just before the
// handler is resolved and invoked. target is "VERB /path" for HTTP
// dispatches and the listener ID for listener dispatches.
type OnDispatchFunc func(ctx context.Context, kind Kind, target string)

// OnSuccessFunc is called after the handler returns without error.
type OnSuccessFunc func(ctx context.Context, kind Kind, target string, duration time.Duration)

// OnFailureFunc is called when resolution, the handler or normalization
// fails. The error is still converted into an envelope afterwards.
type OnFailureFunc func(ctx context.Context, kind Kind, target string, err error, duration time.Duration)

// OnNoRouteFunc is called when an HTTP event has no registered route.
type OnNoRouteFunc func(ctx context.Context, verb, path string)

// OnNoListenerFunc is called when no listener accepts an event. name is
// empty when the event carries no event-name field.
type OnNoListenerFunc func(ctx context.Context, name string, keys []string)

// hooks holds all configured hook functions. Hooks observe; they cannot
// change the envelope a dispatch returns.
type hooks struct {
	onDispatch   []OnDispatchFunc
	onSuccess    []OnSuccessFunc
	onFailure    []OnFailureFunc
	onNoRoute    []OnNoRouteFunc
	onNoListener []OnNoListenerFunc
}

// WithOnDispatch adds a hook called just before the handler executes.
// Multiple hooks are called in order.
//
// Example:
//
//	relay.WithOnDispatch(func(ctx context.Context, kind relay.Kind, target string) {
//	    logger.Info("dispatching", zap.String("target", target))
//	})
func WithOnDispatch(fn OnDispatchFunc) Option {
	return func(r *Router) {
		r.hooks.onDispatch = append(r.hooks.onDispatch, fn)
	}
}

// WithOnSuccess adds a hook called after the handler completes successfully.
// Multiple hooks are called in order.
//
// Example:
//
//	relay.WithOnSuccess(func(ctx context.Context, kind relay.Kind, target string, d time.Duration) {
//	    metrics.Timing("relay.success", d, "kind:"+string(kind))
//	})
func WithOnSuccess(fn OnSuccessFunc) Option {
	return func(r *Router) {
		r.hooks.onSuccess = append(r.hooks.onSuccess, fn)
	}
}

// WithOnFailure adds a hook called after the handler fails.
// Multiple hooks are called in order.
func WithOnFailure(fn OnFailureFunc) Option {
	return func(r *Router) {
		r.hooks.onFailure = append(r.hooks.onFailure, fn)
	}
}

// WithOnNoRoute adds a hook called when an HTTP event matches no route.
func WithOnNoRoute(fn OnNoRouteFunc) Option {
	return func(r *Router) {
		r.hooks.onNoRoute = append(r.hooks.onNoRoute, fn)
	}
}

// WithOnNoListener adds a hook called when no listener accepts an event.
func WithOnNoListener(fn OnNoListenerFunc) Option {
	return func(r *Router) {
		r.hooks.onNoListener = append(r.hooks.onNoListener, fn)
	}
}

func (h *hooks) dispatch(ctx context.Context, kind Kind, target string) {
	for _, fn := range h.onDispatch {
		fn(ctx, kind, target)
	}
}

func (h *hooks) success(ctx context.Context, kind Kind, target string, d time.Duration) {
	for _, fn := range h.onSuccess {
		fn(ctx, kind, target, d)
	}
}

func (h *hooks) failure(ctx context.Context, kind Kind, target string, err error, d time.Duration) {
	for _, fn := range h.onFailure {
		fn(ctx, kind, target, err, d)
	}
}

func (h *hooks) noRoute(ctx context.Context, verb, path string) {
	for _, fn := range h.onNoRoute {
		fn(ctx, verb, path)
	}
}

func (h *hooks) noListener(ctx context.Context, name string, keys []string) {
	for _, fn := range h.onNoListener {
		fn(ctx, name, keys)
	}
}

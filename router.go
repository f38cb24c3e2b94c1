package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"reflect"
	"runtime/debug"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Default event field names read by the classifier.
const (
	DefaultEventField    = "event"
	DefaultMethodField   = "httpMethod"
	DefaultResourceField = "resource"
)

// maxReportedKeys bounds the key list in a no-match error message.
const maxReportedKeys = 10

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config lists everything a Router dispatches to.
type Config struct {
	// Controllers are the HTTP handler groups. At least one is required.
	Controllers []*Controller

	// Listeners handle non-HTTP events, by event name or by pattern.
	// Pattern listeners are tried in this order.
	Listeners []*Listener

	// CORS, when enabled, adds cross-origin headers to every HTTP envelope,
	// error envelopes included.
	CORS *CORSConfig
}

// Router dispatches one event per call to a controller method or a listener
// and normalizes the result into an envelope.
//
// Usage:
//  1. Describe controllers and listeners in a Config
//  2. Create a router with New, passing a Resolver for the handler instances
//  3. Call Dispatch (or Handle, from lambda.Start) once per event
//
// Routing tables are built by New and never change afterwards, so a Router
// is safe for concurrent use and two Routers never share state.
type Router struct {
	routes    *RouteTable
	listeners *ListenerTable
	resolver  Resolver
	cors      *CORSConfig
	hooks     hooks

	logger         *zap.Logger
	tracerProvider trace.TracerProvider
	tracer         trace.Tracer

	eventField    string
	methodField   string
	resourceField string

	isListener Discriminator
	isHTTP     Discriminator
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger for registration warnings and dispatch
// failures. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Router) {
		r.logger = l
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider. The default is
// the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Router) {
		r.tracerProvider = tp
	}
}

// WithEventField sets the path of the event-name field used for listener
// classification and exact event-name routing.
func WithEventField(path string) Option {
	return func(r *Router) {
		r.eventField = path
	}
}

// WithHTTPFields sets the paths of the verb and resource-template fields used
// for HTTP classification and routing.
func WithHTTPFields(method, resource string) Option {
	return func(r *Router) {
		r.methodField = method
		r.resourceField = resource
	}
}

// New builds the routing tables and returns a ready Router. Configuration
// errors are returned here, marked with ErrConfig; once New succeeds,
// Dispatch never fails outward.
func New(cfg Config, resolver Resolver, opts ...Option) (*Router, error) {
	r := &Router{
		resolver:      resolver,
		cors:          cfg.CORS,
		logger:        zap.NewNop(),
		eventField:    DefaultEventField,
		methodField:   DefaultMethodField,
		resourceField: DefaultResourceField,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}

	if r.resolver == nil {
		return nil, configErrorf("A resolver is required")
	}
	if r.cors != nil {
		if err := validate.Struct(r.cors); err != nil {
			return nil, errors.Mark(errors.Wrap(err, "invalid CORS configuration"), ErrConfig)
		}
	}
	if r.tracerProvider == nil {
		r.tracerProvider = otel.GetTracerProvider()
	}
	r.tracer = r.tracerProvider.Tracer(tracerName)

	var err error
	if r.routes, err = BuildRouteTable(cfg.Controllers, r.logger); err != nil {
		return nil, err
	}
	if r.listeners, err = BuildListenerTable(cfg.Listeners, r.logger); err != nil {
		return nil, err
	}

	r.isListener = HasFields(r.eventField)
	r.isHTTP = HasFields(r.methodField, r.resourceField)

	r.logger.Debug("router ready",
		zap.Int("routes", r.routes.Len()),
		zap.Int("event_listeners", len(r.listeners.byName)),
		zap.Int("pattern_listeners", len(r.listeners.patterns)),
	)
	return r, nil
}

// Routes returns the route table.
func (r *Router) Routes() *RouteTable {
	return r.routes
}

// Listeners returns the listener table.
func (r *Router) Listeners() *ListenerTable {
	return r.listeners
}

// Handle adapts Dispatch to the signature lambda.Start expects. The error is
// always nil: failures are reported inside the envelope.
//
//	lambda.Start(router.Handle)
func (r *Router) Handle(ctx context.Context, raw json.RawMessage) (any, error) {
	return r.Dispatch(ctx, raw), nil
}

// Dispatch classifies one event, routes it, invokes the handler and returns
// the normalized envelope:
//
//   - events.APIGatewayProxyResponse for HTTP dispatches, and for listeners
//     that reply with a customized *Response
//   - ListenerResult for other listener results and for listener failures
//   - the bare body of a body-only *Response returned by a listener
//
// Every error and panic is converted into an envelope.
func (r *Router) Dispatch(ctx context.Context, raw json.RawMessage) (out any) {
	ctx, span := r.startSpan(ctx)
	defer span.End()

	kind := KindHTTP
	var evt *Event
	defer func() {
		if p := recover(); p != nil {
			err := r.recovered(ctx, "dispatch", p)
			if kind == KindListener {
				out = listenerFailure(err, r.eventName(evt))
				return
			}
			out = r.httpFailure(ctx, span, evt, "dispatch", err)
		}
	}()

	evt, err := ParseEvent(raw)
	if err != nil {
		return r.httpFailure(ctx, span, nil, "", HTTPErrorf(http.StatusBadRequest, "invalid JSON event"))
	}

	kind = r.classify(evt)
	span.SetAttributes(AttrKind.String(string(kind)))
	if kind == KindListener {
		return r.dispatchListener(ctx, span, evt)
	}
	return r.dispatchHTTP(ctx, span, evt)
}

// classify picks the sub-protocol. An event-name field wins; then verb plus
// resource; then, if pattern listeners exist, structural events go to them
// so an unmatched one still gets a listener error; otherwise HTTP.
func (r *Router) classify(evt *Event) Kind {
	switch {
	case r.isListener.Match(evt):
		return KindListener
	case r.isHTTP.Match(evt):
		return KindHTTP
	case r.listeners.HasPatterns():
		return KindListener
	default:
		return KindHTTP
	}
}

func (r *Router) eventName(evt *Event) string {
	if evt == nil {
		return ""
	}
	v, ok := evt.Lookup(r.eventField)
	if !ok || v.Type == gjson.Null {
		return ""
	}
	return coerce(v)
}

// selectListener applies the priority protocol: an exact event-name entry
// always beats pattern listeners; among patterns the first registered wins.
func (r *Router) selectListener(evt *Event, name string) (string, MatchKind, bool) {
	if name != "" {
		if id, ok := r.listeners.ByName(name); ok {
			return id, MatchEventName, true
		}
	}
	if id, ok := r.listeners.FirstMatch(evt); ok {
		return id, MatchPattern, true
	}
	return "", "", false
}

func (r *Router) dispatchListener(ctx context.Context, span trace.Span, evt *Event) any {
	name := r.eventName(evt)

	id, kind, ok := r.selectListener(evt, name)
	if !ok {
		keys := evt.Keys()
		r.hooks.noListener(ctx, name, keys)
		err := noListenerError(name, keys)
		recordError(span, err)
		r.log(ctx).Warn("no listener matched event",
			zap.String("event", name),
			zap.Strings("keys", keys),
		)
		return listenerFailure(err, name)
	}

	span.SetAttributes(AttrTarget.String(id), AttrMatchType.String(string(kind)))
	r.hooks.dispatch(ctx, KindListener, id)

	start := time.Now()
	out, err := r.invokeListener(ctx, id, evt, kind)
	duration := time.Since(start)

	if err != nil {
		r.hooks.failure(ctx, KindListener, id, err, duration)
		recordError(span, err)
		r.log(ctx).Error("listener failed",
			zap.String("kind", string(KindListener)),
			zap.String("listener", id),
			zap.String("match_type", string(kind)),
			zap.String("event", name),
			zap.String("request_id", requestID(ctx, evt)),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return listenerFailure(err, name)
	}

	r.hooks.success(ctx, KindListener, id, duration)
	return out
}

func (r *Router) invokeListener(ctx context.Context, id string, evt *Event, kind MatchKind) (out any, err error) {
	defer func() {
		if p := recover(); p != nil {
			out, err = nil, r.recovered(ctx, "listener "+id, p)
		}
	}()

	inst, err := r.resolve(ctx, id)
	if err != nil {
		return nil, err
	}

	var h Handler
	switch v := inst.(type) {
	case Handler:
		h = v
	case func(context.Context, *Event) (any, error):
		h = HandlerFunc(v)
	default:
		return nil, errors.Mark(
			errors.Newf("listener %q (%T) does not implement Handle(context.Context, *relay.Event) (any, error)", id, inst),
			ErrResolve)
	}

	result, err := h.Handle(ctx, evt)
	if err != nil {
		return nil, err
	}
	return normalizeListener(result, kind)
}

func (r *Router) dispatchHTTP(ctx context.Context, span trace.Span, evt *Event) any {
	verb, _ := evt.GetString(r.methodField)
	path, _ := evt.GetString(r.resourceField)
	target := verb + " " + path
	span.SetAttributes(AttrTarget.String(target))

	dest, ok := r.routes.Lookup(verb, path)
	if !ok {
		r.hooks.noRoute(ctx, verb, path)
		err := errors.Mark(HTTPErrorf(http.StatusNotFound, "unregistered route for %s %s", verb, path), ErrNoRoute)
		return r.httpFailure(ctx, span, evt, target, err)
	}

	r.hooks.dispatch(ctx, KindHTTP, target)

	start := time.Now()
	resp, err := r.invokeController(ctx, evt, dest)
	duration := time.Since(start)

	if err != nil {
		r.hooks.failure(ctx, KindHTTP, target, err, duration)
		return r.httpFailure(ctx, span, evt, target, err)
	}

	r.hooks.success(ctx, KindHTTP, target, duration)
	resp.Headers = mergeHeaders(resp.Headers, r.cors.Headers(r.origin(evt)))
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	return resp
}

func (r *Router) invokeController(ctx context.Context, evt *Event, dest Destination) (resp events.APIGatewayProxyResponse, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = r.recovered(ctx, "controller "+string(dest), p)
		}
	}()

	base, method := dest.Split()
	id, ok := r.routes.Controller(base)
	if !ok {
		return resp, errors.Mark(errors.Newf("no controller mounted at %q", base), ErrResolve)
	}

	inst, err := r.resolve(ctx, id)
	if err != nil {
		return resp, err
	}
	fn, err := controllerMethod(inst, id, method)
	if err != nil {
		return resp, err
	}

	req, err := newRequest(ctx, evt)
	if err != nil {
		return resp, err
	}

	result, err := fn(ctx, req)
	if err != nil {
		return resp, err
	}
	return normalizeHTTP(result)
}

// controllerMethod looks up an exported method by name and adapts it to a
// ControllerMethod.
func controllerMethod(inst any, id, name string) (ControllerMethod, error) {
	m := reflect.ValueOf(inst).MethodByName(name)
	if !m.IsValid() {
		return nil, errors.Mark(errors.Newf("controller %q (%T) has no method %s", id, inst, name), ErrResolve)
	}

	switch fn := m.Interface().(type) {
	case func(context.Context, *Request) (any, error):
		return fn, nil
	case func(context.Context, *Request) error:
		return func(ctx context.Context, req *Request) (any, error) {
			return nil, fn(ctx, req)
		}, nil
	}
	return nil, errors.Mark(
		errors.Newf("controller %q method %s has signature %s", id, name, m.Type()),
		ErrResolve)
}

func (r *Router) resolve(ctx context.Context, id string) (any, error) {
	inst, err := r.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "resolve %q", id), ErrResolve)
	}
	if isNilInstance(inst) {
		return nil, errors.Mark(errors.Newf("resolver returned no instance for %q", id), ErrResolve)
	}
	return inst, nil
}

func (r *Router) recovered(ctx context.Context, target string, p any) error {
	r.log(ctx).Error("recovered from panic",
		zap.String("target", target),
		zap.Any("panic", p),
		zap.String("stack", string(debug.Stack())),
	)
	return panicError(target, p)
}

// httpFailure builds the HTTP error envelope: status from the error chain
// (default 500), body {message, requestId}, CORS headers applied.
func (r *Router) httpFailure(ctx context.Context, span trace.Span, evt *Event, target string, err error) events.APIGatewayProxyResponse {
	status := statusOf(err)
	id := requestID(ctx, evt)

	recordError(span, err)
	span.SetAttributes(AttrRequestID.String(id), attribute.Int("http.response.status_code", status))

	fields := []zap.Field{
		zap.String("kind", string(KindHTTP)),
		zap.String("target", target),
		zap.Int("status", status),
		zap.String("request_id", id),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		r.log(ctx).Error("http dispatch failed", fields...)
	} else {
		r.log(ctx).Warn("http dispatch failed", fields...)
	}

	body, _ := json.Marshal(ErrorBody{Message: publicMessage(err), RequestID: id})
	headers := map[string]string{headerContentType: contentTypeJSON}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    mergeHeaders(headers, r.cors.Headers(r.origin(evt))),
		Body:       string(body),
	}
}

// origin reads the caller's Origin header from the event, ignoring case.
func (r *Router) origin(evt *Event) string {
	if evt == nil {
		return ""
	}
	for _, field := range []string{"headers", "multiValueHeaders"} {
		hdrs, ok := evt.Lookup(field)
		if !ok || !hdrs.IsObject() {
			continue
		}
		var v string
		hdrs.ForEach(func(key, value gjson.Result) bool {
			if !strings.EqualFold(key.String(), "origin") {
				return true
			}
			if value.IsArray() {
				value = value.Get("0")
			}
			v = value.String()
			return false
		})
		if v != "" {
			return v
		}
	}
	return ""
}

func noListenerError(name string, keys []string) error {
	if name != "" {
		return errors.Mark(errors.Newf("No listener registered for event %q", name), ErrNoListener)
	}
	shown := keys
	suffix := ""
	if len(shown) > maxReportedKeys {
		shown, suffix = shown[:maxReportedKeys], ", ..."
	}
	return errors.Mark(
		errors.Newf("No pattern-matched listener found for event with keys: %s%s", strings.Join(shown, ", "), suffix),
		ErrNoListener)
}

func listenerFailure(err error, name string) ListenerResult {
	if name == "" {
		name = "pattern-matched"
	}
	return ListenerResult{
		Success: false,
		Body:    ListenerFailure{Message: publicMessage(err), Event: name},
	}
}

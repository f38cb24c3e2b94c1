// Package relay routes Lambda-style events to handlers and normalizes their
// results.
//
// A single function often sits behind several triggers at once: an API
// Gateway proxy integration, EventBridge rules, S3 notifications, SQS
// batches, authorizers, agent action groups. relay takes one raw event per
// call, decides whether it is an HTTP request or a listener event, picks the
// handler, invokes it, and turns whatever the handler returned into the
// envelope the host expects.
//
// # Quick Start
//
// Describe controllers (HTTP handler groups) and listeners, give the router a
// Resolver for the instances, and hand Handle to the Lambda runtime:
//
//	type Items struct{ store Store }
//
//	func (c *Items) Get(ctx context.Context, req *relay.Request) (any, error) {
//	    item, err := c.store.Get(ctx, req.PathParameters["id"])
//	    if err != nil {
//	        return nil, relay.NewHTTPError(http.StatusNotFound, "item not found")
//	    }
//	    return item, nil
//	}
//
//	type Uploads struct{}
//
//	func (Uploads) Handle(ctx context.Context, evt *relay.Event) (any, error) {
//	    key, _ := evt.GetString("Records[0].s3.object.key")
//	    return map[string]string{"key": key}, nil
//	}
//
//	c := relay.NewContainer().
//	    ProvideValue("items", &Items{store}).
//	    ProvideValue("uploads", Uploads{})
//
//	r, err := relay.New(relay.Config{
//	    Controllers: []*relay.Controller{
//	        relay.NewController("items", "/api/items").GET("/{id}", "Get"),
//	    },
//	    Listeners: []*relay.Listener{
//	        relay.OnMatch("uploads", relay.MatchConfig{
//	            "Records[0].eventSource": relay.P("aws:s3"),
//	            "Records[0].eventName":   relay.Prefix("ObjectCreated:"),
//	        }),
//	    },
//	}, c)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	lambda.Start(r.Handle)
//
// # Classification
//
// Each event is classified once:
//
//  1. It has an event-name field ("event" by default): listener dispatch.
//  2. It has both a verb ("httpMethod") and a resource ("resource"): HTTP dispatch.
//  3. Pattern listeners are registered: listener dispatch, so structural
//     events such as S3 or SQS notifications reach them, and an unmatched
//     one gets a "no match" error instead of a route miss.
//  4. Otherwise: HTTP dispatch, which reports an unregistered route.
//
// # HTTP Routing
//
// Routes are exact: the event's verb and resource template (for example
// "/api/items/{id}", as API Gateway reports it) must equal a registered
// BasePath+Path. The controller instance is resolved by ID and the method is
// looked up by name. Methods have one of these signatures:
//
//	func(ctx context.Context, req *relay.Request) (any, error)
//	func(ctx context.Context, req *relay.Request) error
//
// # Listener Routing
//
// An event whose name is registered with OnEvent always goes to that
// listener, even if a pattern listener would also match. Otherwise pattern
// listeners are tried in registration order and the first whose MatchConfig
// accepts the event wins.
//
// A MatchConfig maps paths to patterns. Paths use dots and bracketed indexes
// ("Records[0].s3.bucket.name"); a path that runs off the document never
// matches. Patterns are exact strings, prefixes ending in "*", "*" for "present
// and not null", or AnyOf sets. Values are compared in string form, so the
// number 123 matches the pattern "123". Every entry must match, and an empty
// MatchConfig matches nothing.
//
// Conditions a MatchConfig cannot state go in a Discriminator built from
// HasFields, FieldEquals, FieldMatches, And, Or and Not, registered with
// OnWhen or set as Listener.When next to a MatchConfig:
//
//	relay.OnWhen("sns", relay.And(
//	    relay.FieldEquals("Type", "Notification"),
//	    relay.Not(relay.HasFields("Subject")),
//	))
//
// # Results
//
// Controller results become an events.APIGatewayProxyResponse: nil gives 204,
// a *Response keeps its status, headers and body, and any other value is
// encoded as JSON with status 200.
//
// Listener results become a ListenerResult {success, matchType, body}, except
// for a *Response: with only a body set, the body is returned bare (what
// authorizers and agent actions expect); with a status or header set, it
// becomes an HTTP envelope carrying exactly the headers the handler set.
//
// # Errors
//
// Configuration errors are returned by New and LoadManifest. After that,
// Dispatch never returns an error or panics: failures become an HTTP error
// envelope (status from an error implementing StatusCoder such as HTTPError,
// else 500, body {message, requestId}) or a failed ListenerResult. Panics are
// reported as "Internal server error" without detail. Errors are marked with
// ErrNoRoute, ErrNoListener, ErrResolve or ErrInternal for use in hooks.
//
// # Hooks
//
// Hooks observe dispatches without changing them:
//
//	r, err := relay.New(cfg, c,
//	    relay.WithLogger(logger),
//	    relay.WithOnSuccess(func(ctx context.Context, kind relay.Kind, target string, d time.Duration) {
//	        metrics.Timing("relay.success", d, "kind:"+string(kind))
//	    }),
//	)
//
// # Thread Safety
//
// Router is safe for concurrent use. Its tables are built by New and never
// modified.
package relay

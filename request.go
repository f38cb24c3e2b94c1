package relay

import (
	"context"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
)

// Request is the argument passed to controller methods: the API Gateway proxy
// request decoded from the event, plus the event itself for fields the
// proxy shape does not model.
type Request struct {
	events.APIGatewayProxyRequest

	// Event is the raw inbound event.
	Event *Event

	// ID correlates this invocation in logs and error bodies.
	ID string
}

func newRequest(ctx context.Context, evt *Event) (*Request, error) {
	req := &Request{Event: evt}
	if err := evt.Decode(&req.APIGatewayProxyRequest); err != nil {
		return nil, HTTPErrorf(http.StatusBadRequest, "malformed HTTP event: %v", err)
	}
	req.ID = requestID(ctx, evt)
	return req, nil
}

// Header returns the first value of a request header, matched without
// regard to case.
func (r *Request) Header(name string) string {
	return lookupHeader(r.Headers, r.MultiValueHeaders, name)
}

func lookupHeader(single map[string]string, multi map[string][]string, name string) string {
	if v, ok := single[name]; ok {
		return v
	}
	for k, v := range single {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	for k, vs := range multi {
		if strings.EqualFold(k, name) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

// requestID prefers the Lambda invocation id, then the gateway request id
// carried in the event, and finally mints one.
func requestID(ctx context.Context, evt *Event) string {
	if lc, ok := lambdacontext.FromContext(ctx); ok && lc.AwsRequestID != "" {
		return lc.AwsRequestID
	}
	if evt != nil {
		if id, ok := evt.GetString("requestContext.requestId"); ok && id != "" {
			return id
		}
	}
	return uuid.NewString()
}

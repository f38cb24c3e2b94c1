package relay

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cockroachdb/errors"
)

const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
)

// Response is an explicit reply built by a handler when the defaults are not
// enough:
//
//	return relay.NewResponse().Status(201).Header("Location", loc).Body(item), nil
//
// From a controller it always becomes an HTTP envelope. From a listener it
// becomes an HTTP envelope only when a header or a non-200 status was set;
// a body-only Response is returned to the host bare, which is what
// authorizer-style and agent-action-style triggers expect.
type Response struct {
	status  int
	headers map[string]string
	body    any
}

// NewResponse creates an empty Response with status 200.
func NewResponse() *Response {
	return &Response{}
}

// JSON is shorthand for NewResponse().Body(v).
func JSON(v any) *Response {
	return NewResponse().Body(v)
}

// Status sets the status code.
func (r *Response) Status(code int) *Response {
	r.status = code
	return r
}

// Header sets a response header.
func (r *Response) Header(key, value string) *Response {
	if r.headers == nil {
		r.headers = make(map[string]string)
	}
	r.headers[key] = value
	return r
}

// Body sets the response body. Strings are sent verbatim; anything else is
// encoded as JSON.
func (r *Response) Body(v any) *Response {
	r.body = v
	return r
}

// Code returns the status code, 200 unless set.
func (r *Response) Code() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Headers returns a copy of the headers set on the response.
func (r *Response) Headers() map[string]string {
	out := make(map[string]string, len(r.headers))
	for k, v := range r.headers {
		out[k] = v
	}
	return out
}

// Value returns the body as set, before serialization.
func (r *Response) Value() any {
	return r.body
}

// customized reports whether anything beyond the body was set.
func (r *Response) customized() bool {
	return len(r.headers) > 0 || r.Code() != http.StatusOK
}

// ListenerResult is the envelope returned for listener dispatches that did
// not produce an explicit Response.
type ListenerResult struct {
	Success   bool      `json:"success"`
	MatchType MatchKind `json:"matchType,omitempty"`
	Body      any       `json:"body,omitempty"`
}

// ListenerFailure is the body of a failed ListenerResult.
type ListenerFailure struct {
	Message string `json:"message"`
	Event   string `json:"event"`
}

// ErrorBody is the JSON body of an HTTP error envelope.
type ErrorBody struct {
	Message   string `json:"message"`
	RequestID string `json:"requestId"`
}

// normalizeHTTP turns a controller result into an HTTP envelope.
func normalizeHTTP(result any) (events.APIGatewayProxyResponse, error) {
	if isNil(result) {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusNoContent,
			Headers:    map[string]string{},
			Body:       "",
		}, nil
	}

	switch v := result.(type) {
	case *Response:
		body, err := serializeBody(v.body)
		if err != nil {
			return events.APIGatewayProxyResponse{}, err
		}
		headers := v.Headers()
		if !hasHeader(headers, headerContentType) {
			headers[headerContentType] = contentTypeJSON
		}
		return events.APIGatewayProxyResponse{
			StatusCode: v.Code(),
			Headers:    headers,
			Body:       body,
		}, nil

	case events.APIGatewayProxyResponse:
		if v.Headers == nil {
			v.Headers = map[string]string{}
		}
		return v, nil

	case *events.APIGatewayProxyResponse:
		return normalizeHTTP(*v)
	}

	body, err := json.Marshal(result)
	if err != nil {
		return events.APIGatewayProxyResponse{}, errors.Wrap(err, "encode response body")
	}
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{headerContentType: contentTypeJSON},
		Body:       string(body),
	}, nil
}

// normalizeListener turns a listener result into its envelope: an HTTP
// envelope, the bare body of a Response, or a ListenerResult.
func normalizeListener(result any, kind MatchKind) (any, error) {
	if r, ok := result.(*Response); ok && r != nil {
		if r.customized() {
			return listenerEnvelope(r)
		}
		return r.body, nil
	}
	return ListenerResult{Success: true, MatchType: kind, Body: result}, nil
}

// listenerEnvelope is the HTTP envelope of a customized listener Response.
// Headers are exactly those the handler set; no content type is added.
func listenerEnvelope(r *Response) (events.APIGatewayProxyResponse, error) {
	body, err := serializeBody(r.body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return events.APIGatewayProxyResponse{
		StatusCode: r.Code(),
		Headers:    r.Headers(),
		Body:       body,
	}, nil
}

func serializeBody(v any) (string, error) {
	switch b := v.(type) {
	case nil:
		return "", nil
	case string:
		return b, nil
	case json.RawMessage:
		return string(b), nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "encode response body")
	}
	return string(data), nil
}

func hasHeader(h map[string]string, name string) bool {
	for k := range h {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

// isNil reports whether v is nil or a typed nil pointer. Nil slices and
// maps are values and encode as JSON.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Ptr && rv.IsNil()
}

// isNilInstance reports whether a resolved handler instance is unusable:
// nil, or a typed nil pointer, func, map, channel or interface.
func isNilInstance(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Func, reflect.Map, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
)

const (
	headerAccept        = "Accept"
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
	mimeJSON            = "application/json"
)

// RequestDescriptor is a fully specified request, built fresh for every call.
type RequestDescriptor struct {
	Endpoint string
	Method   string
	Headers  map[string]string
	// Body must already be JSON encoded. Nil means the request has no body.
	Body json.RawMessage
}

// Sender performs the network exchange for a RequestDescriptor and
// normalizes the response.
type Sender struct {
	transport httpclient.Client
	log       Logger
}

// NewSender builds a Sender on top of transport. A nil transport uses resty defaults.
func NewSender(transport httpclient.Client, log Logger) *Sender {
	if transport == nil {
		transport = httpclient.NewRestyClient()
	}
	return &Sender{transport: transport, log: ensureLogger(log)}
}

// Send issues the request and decodes the response body as JSON.
//
// On a 2xx status the decoded body is returned. On any other status the
// result is an *HTTPError carrying the status and the decoded body. Transport
// and decode failures are returned wrapped; a body that is not valid JSON is
// a decode failure whatever the status.
func (s *Sender) Send(ctx context.Context, desc RequestDescriptor) (any, error) {
	if s == nil || s.transport == nil {
		return nil, fmt.Errorf("request sender is not initialized")
	}

	req := httpclient.Request{
		Method:  desc.Method,
		URL:     desc.Endpoint,
		Headers: requestHeaders(desc.Headers),
	}
	if desc.Body != nil {
		req.Body = []byte(desc.Body)
	}

	s.log.DebugObj("api request dispatched", "api_request", map[string]any{
		"method":   desc.Method,
		"endpoint": desc.Endpoint,
		"has_body": desc.Body != nil,
	})

	resp, err := s.transport.Do(ctx, req)
	if err != nil {
		s.log.DebugObj("api request failed", "api_transport_error", map[string]any{
			"method":   desc.Method,
			"endpoint": desc.Endpoint,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("%s %s: %w", desc.Method, desc.Endpoint, err)
	}

	var parsed any
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if !resp.IsSuccess() {
		s.log.DebugObj("api request rejected", "api_response", map[string]any{
			"method":      desc.Method,
			"endpoint":    desc.Endpoint,
			"http_status": resp.StatusCode(),
		})
		return nil, &HTTPError{HTTPStatus: resp.StatusCode(), Errors: parsed}
	}
	return parsed, nil
}

// requestHeaders layers the descriptor headers over the JSON wire defaults.
func requestHeaders(headers map[string]string) map[string]string {
	out := map[string]string{
		headerAccept:      mimeJSON,
		headerContentType: mimeJSON,
	}
	for k, v := range headers {
		out[http.CanonicalHeaderKey(k)] = v
	}
	return out
}

package httpclient

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
)

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client *resty.Client
}

// NewRestyClient creates a RestyClient with resty defaults: no timeout, no retries.
func NewRestyClient() *RestyClient {
	return &RestyClient{client: resty.New()}
}

// NewRestyClientFrom wraps a caller-configured resty.Client.
func NewRestyClientFrom(c *resty.Client) *RestyClient {
	if c == nil {
		c = resty.New()
	}
	return &RestyClient{client: c}
}

// Do performs the request with the specified context, method, URL, headers and body.
func (r *RestyClient) Do(ctx context.Context, in Request) (Response, error) {
	if r == nil || r.client == nil {
		return nil, fmt.Errorf("resty client is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req := r.client.R().SetContext(ctx)
	if len(in.Headers) > 0 {
		req.SetHeaders(in.Headers)
	}
	if in.Body != nil {
		req.SetBody(in.Body)
	}

	resp, err := req.Execute(in.Method, in.URL)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }
func (r *restyResponseAdapter) IsSuccess() bool {
	code := r.resp.StatusCode()
	return code >= 200 && code <= 299
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

type headersFunc func(override map[string]string) (map[string]string, error)

// CallGroup exposes the HTTP verbs under one header policy.
type CallGroup struct {
	client  *Client
	headers headersFunc
}

// Get sends a GET to path.
func (g *CallGroup) Get(ctx context.Context, path string, headers map[string]string) (any, error) {
	return g.send(ctx, http.MethodGet, path, nil, headers)
}

// Delete sends a DELETE to path.
func (g *CallGroup) Delete(ctx context.Context, path string, headers map[string]string) (any, error) {
	return g.send(ctx, http.MethodDelete, path, nil, headers)
}

// Post sends a POST to path with params as the JSON body.
// json.RawMessage and []byte params are treated as already encoded.
func (g *CallGroup) Post(ctx context.Context, path string, params any, headers map[string]string) (any, error) {
	body, err := encodeParams(params)
	if err != nil {
		return nil, err
	}
	return g.send(ctx, http.MethodPost, path, body, headers)
}

// Patch sends a PATCH to path with params as the JSON body.
// json.RawMessage and []byte params are treated as already encoded.
func (g *CallGroup) Patch(ctx context.Context, path string, params any, headers map[string]string) (any, error) {
	body, err := encodeParams(params)
	if err != nil {
		return nil, err
	}
	return g.send(ctx, http.MethodPatch, path, body, headers)
}

func (g *CallGroup) send(ctx context.Context, method, path string, body json.RawMessage, override map[string]string) (any, error) {
	if g == nil || g.client == nil || g.headers == nil {
		return nil, fmt.Errorf("call group is not initialized")
	}

	headers, err := g.headers(override)
	if err != nil {
		return nil, err
	}

	return g.client.sender.Send(ctx, RequestDescriptor{
		Endpoint: g.client.AbsolutePath(path),
		Method:   method,
		Headers:  headers,
		Body:     body,
	})
}

// encodeParams returns the JSON body for params; nil params mean no body.
func encodeParams(params any) (json.RawMessage, error) {
	switch p := params.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return p, nil
	case []byte:
		return json.RawMessage(p), nil
	}

	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}
	return raw, nil
}

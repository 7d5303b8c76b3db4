// Package api is a thin JSON API client. It joins a host with relative paths,
// attaches JSON and optional bearer-token headers, and turns responses into
// decoded JSON values or *HTTPError failures.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
	"github.com/samvad-hq/samvad-api-client/pkg/storage"
)

// DefaultBearerTokenStorageKey is the store key used when ClientConfig leaves it empty.
const DefaultBearerTokenStorageKey = "bearerToken"

// TokenStore is the persistent key-value capability the client reads bearer tokens from.
type TokenStore interface {
	GetItem(key string) (string, bool, error)
	SetItem(key, value string) error
	RemoveItem(key string) error
}

// ClientConfig configures a Client. It is copied at construction.
type ClientConfig struct {
	Host                  string
	Headers               map[string]string
	BearerTokenStorageKey string
}

// Option customizes a Client.
type Option func(*Client)

// WithStore sets the store bearer tokens are read from.
func WithStore(store TokenStore) Option {
	return func(c *Client) {
		if store != nil {
			c.store = store
		}
	}
}

// WithTransport sets the HTTP transport used to send requests.
func WithTransport(transport httpclient.Client) Option {
	return func(c *Client) {
		if transport != nil {
			c.transport = transport
		}
	}
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(log Logger) Option {
	return func(c *Client) {
		c.log = ensureLogger(log)
	}
}

// Client builds requests against a single host.
type Client struct {
	host     string
	headers  map[string]string
	tokenKey string

	store     TokenStore
	transport httpclient.Client
	log       Logger
	sender    *Sender

	// Authenticated sends requests carrying the stored bearer token.
	Authenticated *CallGroup
	// Unauthenticated sends requests with only the JSON and configured headers.
	Unauthenticated *CallGroup
}

// NewClient returns a Client for cfg. Without options it keeps tokens in
// memory and sends requests through resty.
func NewClient(cfg ClientConfig, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, errors.New("api host is required")
	}

	c := &Client{
		host:     cfg.Host,
		headers:  mergeHeaders(cfg.Headers),
		tokenKey: cfg.BearerTokenStorageKey,
		log:      discardLogger{},
	}
	if c.tokenKey == "" {
		c.tokenKey = DefaultBearerTokenStorageKey
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.store == nil {
		c.store = storage.NewMemoryStore(storage.Options{})
	}
	if c.transport == nil {
		c.transport = httpclient.NewRestyClient()
	}

	c.sender = NewSender(c.transport, c.log)
	c.Authenticated = &CallGroup{client: c, headers: c.AuthenticatedHeaders}
	c.Unauthenticated = &CallGroup{client: c, headers: func(override map[string]string) (map[string]string, error) {
		return c.Headers(override), nil
	}}
	return c, nil
}

// Host returns the configured host.
func (c *Client) Host() string { return c.host }

// BearerTokenStorageKey returns the store key holding the bearer token.
func (c *Client) BearerTokenStorageKey() string { return c.tokenKey }

// AbsolutePath joins host and path with a single "/". Path is not validated
// or normalized, so a leading slash yields a double slash.
func (c *Client) AbsolutePath(path string) string {
	return c.host + "/" + path
}

// Headers merges the JSON content type, the configured headers and override,
// later layers winning key by key. Keys come back in canonical form
// (http.CanonicalHeaderKey), so "x-api-key" is returned as "X-Api-Key" and
// replaces an earlier "X-API-KEY".
func (c *Client) Headers(override map[string]string) map[string]string {
	return mergeHeaders(
		map[string]string{headerContentType: mimeJSON},
		c.headers,
		override,
	)
}

// AuthenticatedHeaders is Headers plus the bearer token. The Authorization
// header sits beneath the configured and override headers, so either may
// replace it. Without a stored token no Authorization header is added.
func (c *Client) AuthenticatedHeaders(override map[string]string) (map[string]string, error) {
	token, ok, err := c.BearerToken()
	if err != nil {
		return nil, err
	}

	base := map[string]string{headerContentType: mimeJSON}
	if ok {
		base[headerAuthorization] = "Bearer " + token
	}
	return mergeHeaders(base, c.headers, override), nil
}

// BearerToken reads the token from the store. ok is false when none is stored.
func (c *Client) BearerToken() (string, bool, error) {
	token, ok, err := c.store.GetItem(c.tokenKey)
	if err != nil {
		return "", false, fmt.Errorf("read bearer token: %w", err)
	}
	return token, ok, nil
}

// SetBearerToken writes token to the store under the configured key.
func (c *Client) SetBearerToken(token string) error {
	if err := c.store.SetItem(c.tokenKey, token); err != nil {
		return fmt.Errorf("store bearer token: %w", err)
	}
	return nil
}

// RemoveBearerToken deletes the stored token.
func (c *Client) RemoveBearerToken() error {
	if err := c.store.RemoveItem(c.tokenKey); err != nil {
		return fmt.Errorf("remove bearer token: %w", err)
	}
	return nil
}

// mergeHeaders copies layers into a fresh map in order. Keys are
// canonicalized so "authorization" replaces "Authorization".
func mergeHeaders(layers ...map[string]string) map[string]string {
	out := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			out[http.CanonicalHeaderKey(k)] = v
		}
	}
	return out
}

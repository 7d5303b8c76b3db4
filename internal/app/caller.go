package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/samvad-hq/samvad-api-client/internal/config"
	"github.com/samvad-hq/samvad-api-client/internal/logger"
	"github.com/samvad-hq/samvad-api-client/pkg/api"
	"github.com/samvad-hq/samvad-api-client/pkg/httpclient"
	"github.com/samvad-hq/samvad-api-client/pkg/storage"
)

// Call describes a single API call issued from the command line.
type Call struct {
	Method        string
	Path          string
	Body          []byte
	Headers       map[string]string
	Authenticated bool
}

// Caller owns the token store and API client for one process run.
type Caller struct {
	cfg    *config.Config
	client *api.Client
	store  storage.Store
	log    logger.Logger
}

// NewCaller builds a caller runtime from config.
func NewCaller(cfg *config.Config, log logger.Logger, opts ...api.Option) (*Caller, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		ItemTTL:         cfg.TokenTTL,
		CleanupInterval: cfg.StorageCleanup,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.DebugObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"token_ttl_seconds":        int(cfg.TokenTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanup.Seconds()),
	})

	clientOpts := append([]api.Option{
		api.WithStore(store),
		api.WithTransport(httpclient.NewRestyClient()),
		api.WithLogger(log),
	}, opts...)
	client, err := api.NewClient(api.ClientConfig{
		Host:                  cfg.APIHost,
		Headers:               cfg.Headers,
		BearerTokenStorageKey: cfg.BearerTokenStorageKey,
	}, clientOpts...)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	return &Caller{cfg: cfg, client: client, store: store, log: log}, nil
}

// Client exposes the underlying API client.
func (c *Caller) Client() *api.Client { return c.client }

// Call issues one request and returns the decoded response body.
func (c *Caller) Call(ctx context.Context, call Call) (any, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("caller is not initialized")
	}

	group := c.client.Unauthenticated
	if call.Authenticated {
		group = c.client.Authenticated
	}

	var body any
	if call.Body != nil {
		body = call.Body
	}

	start := time.Now()
	var (
		result any
		err    error
	)
	switch strings.ToUpper(strings.TrimSpace(call.Method)) {
	case http.MethodGet:
		result, err = group.Get(ctx, call.Path, call.Headers)
	case http.MethodDelete:
		result, err = group.Delete(ctx, call.Path, call.Headers)
	case http.MethodPost:
		result, err = group.Post(ctx, call.Path, body, call.Headers)
	case http.MethodPatch:
		result, err = group.Patch(ctx, call.Path, body, call.Headers)
	default:
		return nil, fmt.Errorf("unsupported method %q", call.Method)
	}

	meta := map[string]any{
		"method":        strings.ToUpper(call.Method),
		"endpoint":      c.client.AbsolutePath(call.Path),
		"authenticated": call.Authenticated,
		"elapsed_ms":    time.Since(start).Milliseconds(),
	}
	if httpErr, ok := api.IsHTTPError(err); ok {
		meta["http_status"] = httpErr.HTTPStatus
		c.log.WarnObj("api call rejected", "call_meta", meta)
	} else if err != nil {
		meta["error"] = err.Error()
		c.log.ErrorObj("api call failed", "call_meta", meta)
	} else {
		c.log.InfoObj("api call completed", "call_meta", meta)
	}
	return result, err
}

// SetToken stores the bearer token used by authenticated calls.
func (c *Caller) SetToken(token string) error {
	if err := c.client.SetBearerToken(token); err != nil {
		return err
	}
	c.log.InfoObj("bearer token stored", "token_meta", map[string]any{
		"key": c.client.BearerTokenStorageKey(),
	})
	return nil
}

// RemoveToken deletes the stored bearer token.
func (c *Caller) RemoveToken() error {
	if err := c.client.RemoveBearerToken(); err != nil {
		return err
	}
	c.log.InfoObj("bearer token removed", "token_meta", map[string]any{
		"key": c.client.BearerTokenStorageKey(),
	})
	return nil
}

// Token returns the stored bearer token, if any.
func (c *Caller) Token() (string, bool, error) {
	return c.client.BearerToken()
}

// Close releases the storage backend, logging any errors encountered.
func (c *Caller) Close() error {
	if c == nil || c.store == nil {
		return nil
	}
	if err := c.store.Close(); err != nil {
		c.log.ErrorObj("storage close failed", "error", err)
		return err
	}
	return nil
}

package api

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/samvad-hq/samvad-api-client/pkg/storage"
)

const testHost = "http://www.example.com"

type failingStore struct{ err error }

func (f failingStore) GetItem(string) (string, bool, error) { return "", false, f.err }
func (f failingStore) SetItem(string, string) error         { return f.err }
func (f failingStore) RemoveItem(string) error              { return f.err }

func newTestClient(t *testing.T, cfg ClientConfig, opts ...Option) *Client {
	t.Helper()
	if cfg.Host == "" {
		cfg.Host = testHost
	}
	c, err := NewClient(cfg, opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClientRequiresHost(t *testing.T) {
	if _, err := NewClient(ClientConfig{Host: "  "}); err == nil {
		t.Fatalf("expected error for empty host")
	}
}

func TestAbsolutePathJoinsHostAndPath(t *testing.T) {
	c := newTestClient(t, ClientConfig{})

	cases := map[string]string{
		"my-path":  "http://www.example.com/my-path",
		"users/1":  "http://www.example.com/users/1",
		"":         "http://www.example.com/",
		"/leading": "http://www.example.com//leading",
	}
	for path, want := range cases {
		if got := c.AbsolutePath(path); got != want {
			t.Fatalf("AbsolutePath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestHeadersPrecedence(t *testing.T) {
	c := newTestClient(t, ClientConfig{Headers: map[string]string{
		"X-Instance":   "instance",
		"X-Shared":     "instance",
		"Content-Type": "application/vnd.api+json",
	}})

	got := c.Headers(map[string]string{"X-Shared": "call", "X-Call": "call"})
	want := map[string]string{
		"Content-Type": "application/vnd.api+json",
		"X-Instance":   "instance",
		"X-Shared":     "call",
		"X-Call":       "call",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
}

func TestHeadersDefaultContentType(t *testing.T) {
	c := newTestClient(t, ClientConfig{})

	want := map[string]string{"Content-Type": "application/json"}
	if diff := cmp.Diff(want, c.Headers(nil)); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
}

func TestHeadersIsIdempotent(t *testing.T) {
	c := newTestClient(t, ClientConfig{Headers: map[string]string{"X-Instance": "1"}})
	override := map[string]string{"X-Call": "2"}

	first := c.Headers(override)
	first["X-Mutated"] = "yes"
	second := c.Headers(override)

	if _, ok := second["X-Mutated"]; ok {
		t.Fatalf("Headers returned shared state")
	}
	delete(first, "X-Mutated")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("headers differ between calls (-first +second):\n%s", diff)
	}
}

func TestHeadersCanonicalizesKeys(t *testing.T) {
	c := newTestClient(t, ClientConfig{})

	got := c.Headers(map[string]string{"content-type": "text/plain"})
	want := map[string]string{"Content-Type": "text/plain"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
}

func TestAuthenticatedHeadersWithStoredToken(t *testing.T) {
	store := storage.NewMemoryStore(storage.Options{})
	_ = store.SetItem("session", "T0K3N")
	c := newTestClient(t, ClientConfig{BearerTokenStorageKey: "session"}, WithStore(store))

	got, err := c.AuthenticatedHeaders(nil)
	if err != nil {
		t.Fatalf("AuthenticatedHeaders: %v", err)
	}
	want := map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer T0K3N",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
}

func TestAuthenticatedHeadersOverrideAuthorization(t *testing.T) {
	c := newTestClient(t, ClientConfig{})
	if err := c.SetBearerToken("stored"); err != nil {
		t.Fatalf("SetBearerToken: %v", err)
	}

	got, err := c.AuthenticatedHeaders(map[string]string{"authorization": "Basic abc"})
	if err != nil {
		t.Fatalf("AuthenticatedHeaders: %v", err)
	}
	if got["Authorization"] != "Basic abc" {
		t.Fatalf("expected override to win, got %q", got["Authorization"])
	}
}

func TestAuthenticatedHeadersWithoutTokenOmitsAuthorization(t *testing.T) {
	c := newTestClient(t, ClientConfig{})

	if _, ok, err := c.BearerToken(); err != nil || ok {
		t.Fatalf("expected no token, ok=%v err=%v", ok, err)
	}

	got, err := c.AuthenticatedHeaders(nil)
	if err != nil {
		t.Fatalf("AuthenticatedHeaders: %v", err)
	}
	if _, ok := got["Authorization"]; ok {
		t.Fatalf("expected no Authorization header, got %q", got["Authorization"])
	}
}

func TestSetAndRemoveBearerTokenWriteThroughStore(t *testing.T) {
	store := storage.NewMemoryStore(storage.Options{})
	c := newTestClient(t, ClientConfig{}, WithStore(store))

	if c.BearerTokenStorageKey() != DefaultBearerTokenStorageKey {
		t.Fatalf("unexpected default key %q", c.BearerTokenStorageKey())
	}

	if err := c.SetBearerToken("bearerToken"); err != nil {
		t.Fatalf("SetBearerToken: %v", err)
	}
	if v, ok, _ := store.GetItem(DefaultBearerTokenStorageKey); !ok || v != "bearerToken" {
		t.Fatalf("expected token in store, got %q ok=%v", v, ok)
	}
	if token, ok, _ := c.BearerToken(); !ok || token != "bearerToken" {
		t.Fatalf("BearerToken = %q ok=%v", token, ok)
	}

	if err := c.RemoveBearerToken(); err != nil {
		t.Fatalf("RemoveBearerToken: %v", err)
	}
	if _, ok, _ := c.BearerToken(); ok {
		t.Fatalf("expected token to be removed")
	}
}

func TestBearerTokenStoreFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	c := newTestClient(t, ClientConfig{}, WithStore(failingStore{err: boom}))

	if _, err := c.AuthenticatedHeaders(nil); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if err := c.SetBearerToken("x"); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if err := c.RemoveBearerToken(); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func TestHeadersReturnsCanonicalKeys(t *testing.T) {
	c := newTestClient(t, ClientConfig{Headers: map[string]string{"X-API-KEY": "instance"}})

	got := c.Headers(map[string]string{"x-api-key": "k", "x-request-id": "r"})
	want := map[string]string{
		"Content-Type": "application/json",
		"X-Api-Key":    "k",
		"X-Request-Id": "r",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}
}

package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samvad-hq/samvad-api-client/pkg/api"
)

func TestParseHeaderFlags(t *testing.T) {
	got, err := parseHeaderFlags([]string{"X-One: 1", "X-Two:two:parts"})
	if err != nil {
		t.Fatalf("parseHeaderFlags: %v", err)
	}
	if got["X-One"] != "1" || got["X-Two"] != "two:parts" {
		t.Fatalf("unexpected headers %v", got)
	}

	if _, err := parseHeaderFlags([]string{"novalue"}); err == nil {
		t.Fatalf("expected error for header without colon")
	}
}

func TestRootCommandTokenAndAuthenticatedGet(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"first_name":"Gnar"}`))
	}))
	defer srv.Close()

	dbPath := filepath.Join(t.TempDir(), "tokens.db")
	run := func(args ...string) (string, error) {
		cmd := newRootCmd()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(append([]string{"--host", srv.URL, "--storage", "bbolt", "--bbolt-path", dbPath, "--log-level", "error"}, args...))
		err := cmd.Execute()
		return out.String(), err
	}

	if _, err := run("token", "set", "bearerToken"); err != nil {
		t.Fatalf("token set: %v", err)
	}
	out, err := run("get", "users", "--auth")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if gotAuth != "Bearer bearerToken" {
		t.Fatalf("unexpected Authorization %q", gotAuth)
	}
	if !strings.Contains(out, `"first_name": "Gnar"`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRootCommandSurfacesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"errors":["invalid"]}`))
	}))
	defer srv.Close()

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--host", srv.URL, "--storage", "memory", "--log-level", "error", "post", "users", `{"last_name":"Gnar"}`})

	err := cmd.Execute()
	httpErr, ok := api.IsHTTPError(err)
	if !ok || httpErr.HTTPStatus != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 HTTPError, got %v", err)
	}
}

func TestRootCommandRejectsInvalidBody(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--host", "http://127.0.0.1:1", "--storage", "memory", "patch", "users/1", "{nope"})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected invalid JSON error")
	}
}

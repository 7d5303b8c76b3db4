package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const errorSnippetLimit = 512

// HTTPError is returned when the server completed the exchange with a non-2xx
// status. Errors holds the decoded JSON response body.
type HTTPError struct {
	HTTPStatus int `json:"httpStatus"`
	Errors     any `json:"errors"`
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "<nil>"
	}
	snippet := errorsSnippet(e.Errors)
	if snippet == "" {
		return fmt.Sprintf("http status %d", e.HTTPStatus)
	}
	return fmt.Sprintf("http status %d: %s", e.HTTPStatus, snippet)
}

// IsHTTPError reports whether err carries an *HTTPError and returns it.
func IsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

func errorsSnippet(v any) string {
	if v == nil {
		return ""
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	if len(raw) > errorSnippetLimit {
		cut := errorSnippetLimit
		for cut > 0 && !utf8.RuneStart(raw[cut]) {
			cut--
		}
		raw = raw[:cut]
	}
	return strings.TrimSpace(string(raw))
}

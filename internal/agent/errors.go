// Package agent implements the typed client for the host agent's /fs REST API.
package agent

import (
	"errors"
	"fmt"
	nethttp "net/http"
)

// APIError is a non-2xx response from the agent. The request itself went
// through; the agent rejected it. Body carries the agent's message verbatim.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: agent returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: agent returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// IsNotFound checks whether an error is the agent reporting a missing path.
//
// Usage:
//
//	entries, err := client.List(ctx, path)
//	if agent.IsNotFound(err) {
//	    // Stale path, fall back to the parent
//	}
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == nethttp.StatusNotFound
	}
	return false
}

// IsUnauthorized checks whether an error is the agent rejecting the API key.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == nethttp.StatusUnauthorized || apiErr.StatusCode == nethttp.StatusForbidden
	}
	return false
}

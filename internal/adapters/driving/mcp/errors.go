// Package mcp provides an MCP (Model Context Protocol) server adapter for qamine.
// It lets AI assistants search the Q&A knowledge base, feed it chat messages
// and run maintenance.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")

// ErrToolUnavailable is returned by a tool whose backing service is not wired.
var ErrToolUnavailable = errors.New("mcp: tool not available")

// toolError rewrites core errors into messages an assistant can act on.
func toolError(err error) error {
	switch {
	case errors.Is(err, domain.ErrMalformedInput), errors.Is(err, domain.ErrInvalidInput):
		return fmt.Errorf("rejected input: %w", err)
	case domain.IsRetryable(err):
		return fmt.Errorf("index temporarily unavailable, retry later: %w", err)
	default:
		return err
	}
}

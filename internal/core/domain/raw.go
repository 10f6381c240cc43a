package domain

import (
	"path/filepath"
	"strings"
)

// RawTranscript is an exported chat transcript before parsing.
type RawTranscript struct {
	// URI is the original location (file path, "-" for stdin, or a request name).
	URI string

	// MIMEType is the content type. Empty means detect from the URI extension.
	MIMEType string

	// ConversationID overrides the ID derived from the URI.
	ConversationID string

	// Content is the raw bytes.
	Content []byte
}

// Extension returns the lowercased URI extension without the dot.
func (r *RawTranscript) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(r.URI)), ".")
}

// DefaultConversationID returns ConversationID, or the URI base name without
// extension when unset.
func (r *RawTranscript) DefaultConversationID() string {
	if r.ConversationID != "" {
		return r.ConversationID
	}
	base := filepath.Base(r.URI)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

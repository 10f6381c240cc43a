package domain

import (
	"fmt"
	"time"
)

// MessageType distinguishes text messages from everything else the
// messaging client exports (images, voice, system notices).
type MessageType string

const (
	// MessageTypeText is an ordinary text message.
	MessageTypeText MessageType = "text"

	// MessageTypeOther covers media, system and recall notices.
	MessageTypeOther MessageType = "other"
)

// IsValid returns true if the message type is recognised.
func (t MessageType) IsValid() bool {
	return t == MessageTypeText || t == MessageTypeOther
}

// RawMessage is one chat message as exported. It is immutable input.
type RawMessage struct {
	// Sender is the display name of the author.
	Sender string `json:"sender"`

	// Content is the message text exactly as exported.
	Content string `json:"content"`

	// Timestamp is when the message was sent.
	Timestamp time.Time `json:"timestamp"`

	// Type is text or other.
	Type MessageType `json:"type"`
}

// NormalizedMessage is a RawMessage after cleaning.
type NormalizedMessage struct {
	// Raw is the original message.
	Raw RawMessage

	// Index is the position within the conversation.
	Index int

	// Sender is the trimmed sender name.
	Sender string

	// Content is the cleaned text.
	Content string

	// Timestamp is copied from Raw.
	Timestamp time.Time

	// Type is copied from Raw.
	Type MessageType

	// IsNoise marks greetings, acknowledgements, emoji-only text and
	// placeholders. Noise never anchors or answers a pair.
	IsNoise bool
}

// Conversation is an ordered message batch from one chat export.
type Conversation struct {
	// ID identifies the conversation across ingestions.
	ID string `json:"id"`

	// Title is the group name if the export carried one.
	Title string `json:"title,omitempty"`

	// SourceFile is the path the conversation was parsed from.
	SourceFile string `json:"source_file,omitempty"`

	// Messages are ordered by non-decreasing timestamp.
	Messages []RawMessage `json:"messages"`
}

// Validate checks the batch against the ingestion input contract: a
// conversation ID, a sender and timestamp on every message, a known type
// and non-decreasing timestamps. Violations wrap ErrMalformedInput.
func (c *Conversation) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("conversation id is required: %w", ErrMalformedInput)
	}
	var prev time.Time
	for i, m := range c.Messages {
		if m.Sender == "" {
			return fmt.Errorf("message %d: sender is required: %w", i, ErrMalformedInput)
		}
		if m.Timestamp.IsZero() {
			return fmt.Errorf("message %d: timestamp is required: %w", i, ErrMalformedInput)
		}
		if !m.Type.IsValid() {
			return fmt.Errorf("message %d: unknown type %q: %w", i, m.Type, ErrMalformedInput)
		}
		if i > 0 && m.Timestamp.Before(prev) {
			return fmt.Errorf("message %d: timestamp %s precedes %s: %w",
				i, m.Timestamp.Format(time.RFC3339), prev.Format(time.RFC3339), ErrMalformedInput)
		}
		prev = m.Timestamp
	}
	return nil
}

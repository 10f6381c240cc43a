package json

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
	"github.com/custodia-labs/qamine/internal/normalisers/transcript"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	senderKeys    = []string{"senderName", "sender", "from_user", "from", "user", "nickname", "name"}
	contentKeys   = []string{"content", "text", "message", "body"}
	timestampKeys = []string{"timestamp", "time", "created_at", "date"}
	typeKeys      = []string{"type", "message_type", "msg_type"}
	idKeys        = []string{"conversation_id", "id", "group_id"}
	titleKeys     = []string{"title", "group_name", "name"}
)

// systemTypes are numeric message types exported for images and system
// notices.
var systemTypes = map[int64]bool{3: true, 10000: true}

// Normaliser handles JSON transcripts.
type Normaliser struct{}

// New creates a new JSON normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"application/json"}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"json"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 60
}

// Normalise parses a JSON transcript.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawTranscript) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	dec := json.NewDecoder(bytes.NewReader(raw.Content))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %v: %w", raw.URI, err, domain.ErrMalformedInput)
	}

	conv := domain.Conversation{
		ID:         raw.DefaultConversationID(),
		SourceFile: raw.URI,
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		list, ok := firstList(v, "messages", "data")
		if !ok {
			return nil, fmt.Errorf("%s: no messages or data list: %w", raw.URI, domain.ErrMalformedInput)
		}
		items = list
		if raw.ConversationID == "" {
			if id := firstString(v, idKeys); id != "" {
				conv.ID = id
			}
		}
		conv.Title = firstString(v, titleKeys)
	default:
		return nil, fmt.Errorf("%s: unexpected top-level JSON: %w", raw.URI, domain.ErrMalformedInput)
	}

	conv.Messages = make([]domain.RawMessage, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: message %d is not an object: %w", raw.URI, i, domain.ErrMalformedInput)
		}
		msg, err := toMessage(obj)
		if err != nil {
			return nil, fmt.Errorf("%s: message %d: %w", raw.URI, i, err)
		}
		conv.Messages = append(conv.Messages, msg)
	}
	transcript.SortMessages(conv.Messages)

	return &driven.NormaliseResult{Conversation: conv}, nil
}

func toMessage(obj map[string]any) (domain.RawMessage, error) {
	msg := domain.RawMessage{
		Sender:  firstString(obj, senderKeys),
		Content: extractContent(obj),
		Type:    messageType(obj),
	}

	ts, ok := first(obj, timestampKeys)
	if !ok {
		return msg, fmt.Errorf("missing timestamp: %w", domain.ErrMalformedInput)
	}
	switch v := ts.(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return msg, fmt.Errorf("timestamp %s: %w", v, domain.ErrMalformedInput)
			}
			n = int64(f)
		}
		msg.Timestamp = transcript.FromEpoch(n)
	case string:
		t, err := transcript.ParseTime(v)
		if err != nil {
			return msg, err
		}
		msg.Timestamp = t
	default:
		return msg, fmt.Errorf("timestamp of type %T: %w", ts, domain.ErrMalformedInput)
	}
	return msg, nil
}

// extractContent prefers contents.desc, then the longest nested chat record
// item, then the plain content aliases.
func extractContent(obj map[string]any) string {
	content := strings.TrimSpace(firstString(obj, contentKeys))
	contents, ok := obj["contents"].(map[string]any)
	if !ok {
		return content
	}
	if desc, ok := contents["desc"].(string); ok && strings.TrimSpace(desc) != "" {
		content = strings.TrimSpace(desc)
	}
	record, _ := contents["recordInfo"].(map[string]any)
	list, _ := record["DataList"].(map[string]any)
	items, _ := list["DataItems"].([]any)
	for _, it := range items {
		item, _ := it.(map[string]any)
		desc, _ := item["DataDesc"].(string)
		desc = strings.TrimSpace(desc)
		if len([]rune(desc)) > len([]rune(content)) {
			content = desc
		}
	}
	return content
}

func messageType(obj map[string]any) domain.MessageType {
	v, ok := first(obj, typeKeys)
	if !ok {
		return domain.MessageTypeText
	}
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		if err != nil || systemTypes[n] || n != 1 {
			return domain.MessageTypeOther
		}
		return domain.MessageTypeText
	case string:
		if strings.EqualFold(t, string(domain.MessageTypeText)) || t == "" {
			return domain.MessageTypeText
		}
		return domain.MessageTypeOther
	}
	return domain.MessageTypeOther
}

func first(obj map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func firstString(obj map[string]any, keys []string) string {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case json.Number:
			return v.String()
		case map[string]any:
			if name, ok := v["name"].(string); ok && name != "" {
				return name
			}
		}
	}
	return ""
}

func firstList(obj map[string]any, keys ...string) ([]any, bool) {
	for _, k := range keys {
		if list, ok := obj[k].([]any); ok {
			return list, true
		}
	}
	return nil, false
}

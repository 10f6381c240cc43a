package html

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
	"github.com/custodia-labs/qamine/internal/normalisers/transcript"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML transcripts.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"html", "htm"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise parses an HTML transcript.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawTranscript) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %v: %w", raw.URI, err, domain.ErrMalformedInput)
	}

	conv := domain.Conversation{
		ID:         raw.DefaultConversationID(),
		Title:      strings.TrimSpace(doc.Find("title").First().Text()),
		SourceFile: raw.URI,
	}

	var parseErr error
	collect := func(i int, sender, stamp, content string, kind domain.MessageType) bool {
		ts, err := transcript.ParseTime(stamp)
		if err != nil {
			parseErr = fmt.Errorf("%s: message %d: %w", raw.URI, i, err)
			return false
		}
		conv.Messages = append(conv.Messages, domain.RawMessage{
			Sender:    strings.TrimSpace(sender),
			Content:   collapse(content),
			Timestamp: ts,
			Type:      kind,
		})
		return true
	}

	if tagged := doc.Find("[data-sender]"); tagged.Length() > 0 {
		tagged.EachWithBreak(func(i int, s *goquery.Selection) bool {
			sender, _ := s.Attr("data-sender")
			stamp, _ := s.Attr("data-time")
			content := s.Find(".content").First()
			text := s.Text()
			if content.Length() > 0 {
				text = content.Text()
			}
			return collect(i, sender, stamp, text, typeOf(s))
		})
	} else {
		doc.Find(".message").EachWithBreak(func(i int, s *goquery.Selection) bool {
			return collect(i,
				s.Find(".sender").First().Text(),
				s.Find(".time").First().Text(),
				s.Find(".content").First().Text(),
				typeOf(s))
		})
	}
	if parseErr != nil {
		return nil, parseErr
	}

	transcript.SortMessages(conv.Messages)
	return &driven.NormaliseResult{Conversation: conv}, nil
}

// typeOf reads data-type, treating anything but text as other. Messages
// containing only media elements are other as well.
func typeOf(s *goquery.Selection) domain.MessageType {
	if t, ok := s.Attr("data-type"); ok && !strings.EqualFold(t, string(domain.MessageTypeText)) {
		return domain.MessageTypeOther
	}
	if s.HasClass("system") {
		return domain.MessageTypeOther
	}
	if strings.TrimSpace(s.Find(".content").Text()) == "" && s.Find("img, video, audio").Length() > 0 {
		return domain.MessageTypeOther
	}
	return domain.MessageTypeText
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

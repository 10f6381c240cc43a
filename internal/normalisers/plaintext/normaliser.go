// Package plaintext provides a Normaliser for line-oriented text exports.
//
// Two line shapes start a message:
//
//	2024-03-01 10:02:03 sender: content
//	sender (2024-03-01 10:02): content
//
// Any other non-blank line continues the previous message.
package plaintext

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
	"github.com/custodia-labs/qamine/internal/normalisers/transcript"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

var (
	timeFirst   = regexp.MustCompile(`^(\d{4}[-/]\d{1,2}[-/]\d{1,2}[ T]\d{1,2}:\d{2}(?::\d{2})?)\s+([^:：]+?)\s*[:：]\s?(.*)$`)
	senderFirst = regexp.MustCompile(`^([^:：(（]+?)\s*[(（]([^)）]+)[)）]\s*[:：]\s?(.*)$`)
	mediaLine   = regexp.MustCompile(`^\[(图片|表情|语音|视频|文件|image|sticker|voice|video|file)\]$`)
)

// Normaliser handles plain text transcripts.
type Normaliser struct{}

// New creates a new plain text normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/plain"}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{"txt", "log"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 5 // Fallback normaliser
}

// Normalise parses a plain text transcript. Lines before the first message
// are ignored.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawTranscript) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	conv := domain.Conversation{
		ID:         raw.DefaultConversationID(),
		SourceFile: raw.URI,
	}

	scanner := bufio.NewScanner(bytes.NewReader(raw.Content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		var sender, stamp, content string
		if m := timeFirst.FindStringSubmatch(line); m != nil {
			stamp, sender, content = m[1], m[2], m[3]
		} else if m := senderFirst.FindStringSubmatch(line); m != nil {
			sender, stamp, content = m[1], m[2], m[3]
		}

		if sender == "" {
			if last := len(conv.Messages) - 1; last >= 0 {
				conv.Messages[last].Content += "\n" + strings.TrimSpace(line)
			}
			continue
		}

		ts, err := transcript.ParseTime(stamp)
		if err != nil {
			// not a header after all
			if last := len(conv.Messages) - 1; last >= 0 {
				conv.Messages[last].Content += "\n" + strings.TrimSpace(line)
			}
			continue
		}

		content = strings.TrimSpace(content)
		kind := domain.MessageTypeText
		if mediaLine.MatchString(content) {
			kind = domain.MessageTypeOther
		}
		conv.Messages = append(conv.Messages, domain.RawMessage{
			Sender:    strings.TrimSpace(sender),
			Content:   content,
			Timestamp: ts,
			Type:      kind,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %v: %w", raw.URI, err, domain.ErrMalformedInput)
	}

	transcript.SortMessages(conv.Messages)
	return &driven.NormaliseResult{Conversation: conv}, nil
}

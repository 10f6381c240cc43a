// Package normalizer cleans raw chat messages and flags noise.
package normalizer

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// MinContentLength is the shortest substantive message in runes.
const MinContentLength = 2

var (
	whitespace = regexp.MustCompile(`\s+`)

	// "[图片]", "[语音]", "[撤回了一条消息]" and similar client placeholders.
	placeholder = regexp.MustCompile(`^\[[^\]]{1,20}\]$`)

	// Whole-message pleasantries, possibly repeated: "好的谢谢", "收到收到".
	pleasantry = regexp.MustCompile(`^(大家好|你好|您好|早上好|上午好|中午好|下午好|晚上好|早安|晚安|早|hi|hello|哈喽|嗨|` +
		`收到|好的|好滴|好|谢谢|谢谢你|谢谢您|谢啦|感谢|多谢|非常感谢|明白|明白了|知道了|了解|了解了|懂了|` +
		`ok|okay|嗯嗯|嗯|没事|没关系|不客气|辛苦了|辛苦|是的|对的|对|行|可以|好嘞|好吧|在|在的)+$`)

	interjection = regexp.MustCompile(`^[哈嘿呵呀啊嗯噢哦额呃嘻]+$`)

	mediaWords = []string{"[图片]", "[语音]", "[视频]", "[文件]", "[表情]", "[动画表情]", "[链接]"}
)

// Normalizer cleans messages. It is stateless and safe for concurrent use.
type Normalizer struct{}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize cleans every message of a conversation, preserving order.
func (n *Normalizer) Normalize(msgs []domain.RawMessage) []domain.NormalizedMessage {
	out := make([]domain.NormalizedMessage, len(msgs))
	for i, m := range msgs {
		out[i] = n.NormalizeOne(i, m)
	}
	return out
}

// NormalizeOne cleans a single message at position index.
func (n *Normalizer) NormalizeOne(index int, m domain.RawMessage) domain.NormalizedMessage {
	sender := strings.TrimSpace(m.Sender)
	content := Clean(m.Content, sender)
	return domain.NormalizedMessage{
		Raw:       m,
		Index:     index,
		Sender:    sender,
		Content:   content,
		Timestamp: m.Timestamp,
		Type:      m.Type,
		IsNoise:   m.Type != domain.MessageTypeText || IsNoise(content),
	}
}

// Clean collapses whitespace and strips a leading "sender:" prefix that
// some exports repeat inside the message body.
func Clean(content, sender string) string {
	c := strings.TrimSpace(whitespace.ReplaceAllString(content, " "))
	if sender == "" {
		return c
	}
	for _, sep := range []string{":", "："} {
		prefix := sender + sep
		if strings.HasPrefix(c, prefix) {
			return strings.TrimSpace(c[len(prefix):])
		}
	}
	return c
}

// IsNoise reports whether cleaned content carries no question or answer:
// pleasantries, interjections, emoji, punctuation, bare numbers and media
// placeholders.
func IsNoise(content string) bool {
	if utf8.RuneCountInString(content) < MinContentLength {
		return true
	}
	if placeholder.MatchString(content) {
		return true
	}
	for _, w := range mediaWords {
		if content == w {
			return true
		}
	}

	core := significant(content)
	if core == "" {
		// emoji, symbols or punctuation only
		return true
	}
	if isDigits(core) {
		return true
	}
	return pleasantry.MatchString(core) || interjection.MatchString(core)
}

// significant returns the letters and digits of s, folded and lowercased.
func significant(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(width.Fold.String(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

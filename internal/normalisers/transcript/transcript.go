// Package transcript holds helpers shared by the transcript normalisers.
package transcript

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// layouts are tried in order for textual timestamps without a zone.
var layouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02T15:04:05",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
}

// epochMillisThreshold separates epoch seconds from milliseconds.
const epochMillisThreshold = 1e12

// ParseTime parses an exported timestamp. Zoned RFC 3339 values keep their
// zone; naive values are read in the local zone. All-digit strings are
// treated as epoch seconds or milliseconds.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp: %w", domain.ErrMalformedInput)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return FromEpoch(n), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q: %w", s, domain.ErrMalformedInput)
}

// FromEpoch converts epoch seconds or milliseconds.
func FromEpoch(n int64) time.Time {
	if n >= epochMillisThreshold {
		return time.UnixMilli(n)
	}
	return time.Unix(n, 0)
}

// SortMessages orders messages chronologically. Messages with equal
// timestamps keep their export order.
func SortMessages(msgs []domain.RawMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
}

// NewMessage builds a message from loosely typed request fields. An empty
// type means text.
func NewMessage(sender, content, timestamp, typ string) (domain.RawMessage, error) {
	ts, err := ParseTime(timestamp)
	if err != nil {
		return domain.RawMessage{}, err
	}
	mt := domain.MessageType(typ)
	if typ == "" {
		mt = domain.MessageTypeText
	}
	if !mt.IsValid() {
		return domain.RawMessage{}, fmt.Errorf("message type %q: %w", typ, domain.ErrMalformedInput)
	}
	return domain.RawMessage{Sender: sender, Content: content, Timestamp: ts, Type: mt}, nil
}

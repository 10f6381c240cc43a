package json

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

func normalise(t *testing.T, uri, content string) domain.Conversation {
	t.Helper()
	res, err := New().Normalise(context.Background(), &domain.RawTranscript{URI: uri, Content: []byte(content)})
	require.NoError(t, err)
	return res.Conversation
}

func TestNormaliser_Metadata(t *testing.T) {
	n := New()
	assert.Equal(t, []string{"application/json"}, n.SupportedMIMETypes())
	assert.Equal(t, []string{"json"}, n.SupportedExtensions())
	assert.Equal(t, 60, n.Priority())
}

func TestNormalise_TopLevelList(t *testing.T) {
	conv := normalise(t, "/exports/售后群.json", `[
		{"sender": "小李", "content": "怎么退款？", "timestamp": 1709258400},
		{"sender": "客服", "content": "在订单页申请", "timestamp": 1709258460000}
	]`)

	assert.Equal(t, "售后群", conv.ID)
	assert.Equal(t, "/exports/售后群.json", conv.SourceFile)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "小李", conv.Messages[0].Sender)
	assert.Equal(t, domain.MessageTypeText, conv.Messages[0].Type)
	assert.True(t, time.Unix(1709258460, 0).Equal(conv.Messages[1].Timestamp))
}

func TestNormalise_MessagesObject(t *testing.T) {
	conv := normalise(t, "x.json", `{
		"conversation_id": "group-7",
		"title": "产品交流群",
		"messages": [
			{"from_user": "a", "text": "hi", "time": "2024-03-01T10:00:00Z"}
		]
	}`)
	assert.Equal(t, "group-7", conv.ID)
	assert.Equal(t, "产品交流群", conv.Title)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "a", conv.Messages[0].Sender)
	assert.Equal(t, "hi", conv.Messages[0].Content)
}

func TestNormalise_ChatlogExport(t *testing.T) {
	conv := normalise(t, "chatlog.json", `{"data": [
		{"senderName": "林", "type": 1, "time": "2024-03-01T10:01:00+08:00",
		 "contents": {"desc": "林: 价格是多少？"}},
		{"senderName": "系统", "type": 10000, "time": "2024-03-01T10:00:00+08:00", "content": "撤回了一条消息"},
		{"senderName": "王", "type": 49, "time": "2024-03-01T10:02:00+08:00",
		 "contents": {"recordInfo": {"DataList": {"DataItems": [
			{"DataDesc": "短"}, {"DataDesc": "这是一段更长的聊天记录内容"}
		 ]}}}}
	]}`)

	require.Len(t, conv.Messages, 3)
	// sorted chronologically: the system notice comes first
	assert.Equal(t, "系统", conv.Messages[0].Sender)
	assert.Equal(t, domain.MessageTypeOther, conv.Messages[0].Type)
	assert.Equal(t, "林: 价格是多少？", conv.Messages[1].Content)
	assert.Equal(t, domain.MessageTypeText, conv.Messages[1].Type)
	assert.Equal(t, "这是一段更长的聊天记录内容", conv.Messages[2].Content)
}

func TestNormalise_ConversationIDOverride(t *testing.T) {
	res, err := New().Normalise(context.Background(), &domain.RawTranscript{
		URI:            "-",
		ConversationID: "stdin-group",
		Content:        []byte(`{"conversation_id": "ignored", "messages": []}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "stdin-group", res.Conversation.ID)
	assert.Empty(t, res.Conversation.Messages)
}

func TestNormalise_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid json", `{`},
		{"scalar", `42`},
		{"no list", `{"foo": 1}`},
		{"non object message", `[1]`},
		{"missing timestamp", `[{"sender": "a", "content": "b"}]`},
		{"bad timestamp", `[{"sender": "a", "content": "b", "time": "soon"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Normalise(context.Background(), &domain.RawTranscript{URI: "x.json", Content: []byte(tt.content)})
			assert.ErrorIs(t, err, domain.ErrMalformedInput)
		})
	}
}

func TestNormalise_Nil(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

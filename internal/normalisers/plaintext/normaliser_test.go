package plaintext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.Equal(t, 5, normaliser.Priority())
	assert.Equal(t, []string{"text/plain"}, normaliser.SupportedMIMETypes())
	assert.Contains(t, normaliser.SupportedExtensions(), "txt")
}

func TestNormalise_TimeFirst(t *testing.T) {
	raw := &domain.RawTranscript{
		URI: "/tmp/售前群.txt",
		Content: []byte("导出于 2024-03-02\n" +
			"2024-03-01 10:00:00 小王: 请问这个产品怎么使用？\n" +
			"2024-03-01 10:02:00 客服：首先下载客户端\n" +
			"然后登录账号\n" +
			"\n" +
			"2024-03-01 10:03 小王: [图片]\n"),
	}

	res, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)

	conv := res.Conversation
	assert.Equal(t, "售前群", conv.ID)
	require.Len(t, conv.Messages, 3)
	assert.Equal(t, "小王", conv.Messages[0].Sender)
	assert.Equal(t, "请问这个产品怎么使用？", conv.Messages[0].Content)
	assert.Equal(t, "客服", conv.Messages[1].Sender)
	assert.Equal(t, "首先下载客户端\n然后登录账号", conv.Messages[1].Content)
	assert.Equal(t, domain.MessageTypeOther, conv.Messages[2].Type)
	assert.True(t, time.Date(2024, 3, 1, 10, 2, 0, 0, time.Local).Equal(conv.Messages[1].Timestamp))
}

func TestNormalise_SenderFirst(t *testing.T) {
	raw := &domain.RawTranscript{
		URI: "chat.txt",
		Content: []byte("客服 (2024-03-01 10:05:00): 已处理\n" +
			"小李（2024-03-01 10:01:00）：订单没发货\n"),
	}

	res, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	msgs := res.Conversation.Messages
	require.Len(t, msgs, 2)
	// sorted chronologically
	assert.Equal(t, "小李", msgs[0].Sender)
	assert.Equal(t, "订单没发货", msgs[0].Content)
	assert.Equal(t, "客服", msgs[1].Sender)
}

func TestNormalise_Empty(t *testing.T) {
	res, err := New().Normalise(context.Background(), &domain.RawTranscript{URI: "empty.txt"})
	require.NoError(t, err)
	assert.Empty(t, res.Conversation.Messages)
}

func TestNormalise_NilInput(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

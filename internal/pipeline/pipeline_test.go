package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/postprocessors"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func msg(sender, content string, offset time.Duration) domain.RawMessage {
	return domain.RawMessage{Sender: sender, Content: content, Timestamp: t0.Add(offset), Type: domain.MessageTypeText}
}

func build(t *testing.T) *Components {
	t.Helper()
	c, err := Build(domain.DefaultPipelineConfig())
	require.NoError(t, err)
	return c
}

func TestBuild_InvalidConfig(t *testing.T) {
	cfg := domain.DefaultPipelineConfig()
	cfg.Workers = 0
	_, err := Build(cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	cfg = domain.DefaultPipelineConfig()
	cfg.Processors = []domain.ProcessorConfig{{Name: "stemmer"}}
	_, err = Build(cfg)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProcess_DirectQuestion(t *testing.T) {
	c := build(t)
	out, err := c.Process(context.Background(), domain.Conversation{
		ID:         "g1",
		SourceFile: "g1.json",
		Messages: []domain.RawMessage{
			msg("小王", "请问这个产品怎么使用？", 0),
			msg("客服", "您好，首先下载我们的客户端，然后用手机号注册登录，最后在设置里开启同步功能即可", 2*time.Minute),
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Pairs, 1)

	p := out.Pairs[0]
	assert.Equal(t, domain.ModeDirect, p.Mode)
	assert.GreaterOrEqual(t, p.Confidence, 0.9)
	assert.True(t, p.CategoryID.IsValid())
	assert.NotEmpty(t, p.Fingerprint)
	assert.NotEmpty(t, p.Keywords)
	assert.Equal(t, "g1.json", p.SourceFile)
}

func TestProcess_GreetingsOnly(t *testing.T) {
	c := build(t)
	out, err := c.Process(context.Background(), domain.Conversation{
		ID:       "g2",
		Messages: []domain.RawMessage{msg("a", "大家好", 0), msg("b", "你好", time.Minute)},
	})
	require.NoError(t, err)
	assert.Empty(t, out.Pairs)
	assert.Zero(t, out.Candidates)
}

func TestProcess_PricingQuestion(t *testing.T) {
	c := build(t)
	out, err := c.Process(context.Background(), domain.Conversation{
		ID: "g3",
		Messages: []domain.RawMessage{
			msg("小李", "价格是多少？有没有优惠活动？", 0),
			msg("客服", "专业版每年999元，现在有8折优惠活动，团购还能再便宜一些哦", time.Minute),
		},
	})
	require.NoError(t, err)
	require.Len(t, out.Pairs, 1)
	assert.Equal(t, domain.CategoryPricing, out.Pairs[0].CategoryID)
	assert.False(t, out.Pairs[0].Fallback)
}

func TestProcess_Malformed(t *testing.T) {
	c := build(t)
	_, err := c.Process(context.Background(), domain.Conversation{
		ID:       "g4",
		Messages: []domain.RawMessage{msg("a", "怎么退款？", time.Minute), msg("b", "订单页", 0)},
	})
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
}

func TestProcess_Cancelled(t *testing.T) {
	c := build(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Process(ctx, domain.Conversation{ID: "g5", Messages: []domain.RawMessage{msg("a", "怎么退款？", 0)}})
	assert.ErrorIs(t, err, context.Canceled)
}

type panicking struct{}

func (panicking) Name() string { return "panicking" }
func (panicking) Process(context.Context, []domain.ClassifiedPair) ([]domain.ClassifiedPair, error) {
	panic("boom")
}

func TestProcess_StagePanic(t *testing.T) {
	c := build(t)
	c.PostProcessors = postprocessors.NewPipeline(panicking{})

	_, err := c.Process(context.Background(), domain.Conversation{
		ID:       "g6",
		Messages: []domain.RawMessage{msg("a", "大家好", 0)},
	})
	assert.ErrorIs(t, err, domain.ErrStagePanic)
}

func TestReclassify_KeepsIdentity(t *testing.T) {
	c := build(t)
	var p domain.ClassifiedPair
	p.ID = "fixed-id"
	p.Question = "退货怎么申请退款"
	p.Answer = "在订单页面提交售后申请，快递上门取件"
	p.Confidence = 0.9
	p.Fingerprint = "fp"
	p.CategoryID = domain.CategoryTutorial
	p.CreatedAt = t0

	out := c.Reclassify([]domain.ClassifiedPair{p})
	require.Len(t, out, 1)
	assert.Equal(t, "fixed-id", out[0].ID)
	assert.Equal(t, "fp", out[0].Fingerprint)
	assert.Equal(t, t0, out[0].CreatedAt)
	assert.Equal(t, domain.CategoryAfterSales, out[0].CategoryID)
}

package services

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qamine/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/index"
	"github.com/custodia-labs/qamine/internal/pipeline"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// harness wires the core services over the in-memory stores.
type harness struct {
	comps    *pipeline.Components
	store    *memory.PairStore
	idx      *index.Index
	counters *Counters

	ingest *IngestService
	index  *IndexService
	search *SearchService
	stats  *StatsService
}

func newHarness(t *testing.T, cfg domain.PipelineConfig) *harness {
	t.Helper()
	h := newUnloadedHarness(t, cfg)
	require.NoError(t, h.index.Load(context.Background()))
	return h
}

// newUnloadedHarness skips the initial index load.
func newUnloadedHarness(t *testing.T, cfg domain.PipelineConfig) *harness {
	t.Helper()
	comps, err := pipeline.Build(cfg)
	require.NoError(t, err)

	h := &harness{
		comps:    comps,
		store:    memory.NewPairStore(),
		idx:      index.New(),
		counters: NewCounters(),
	}
	h.ingest = NewIngestService(comps, h.store, h.store, h.idx, h.counters)
	h.index = NewIndexService(comps, h.store, h.store, h.idx)
	h.search = NewSearchService(comps, h.idx, h.store)
	h.stats = NewStatsService(h.store, h.idx, h.counters)

	var seq atomic.Int64
	h.ingest.newID = func() string {
		return fmt.Sprintf("pair-%03d", seq.Add(1))
	}
	h.ingest.now = func() time.Time { return t0.Add(24 * time.Hour) }
	return h
}

func (h *harness) count(t *testing.T) int {
	t.Helper()
	n, err := h.store.Count(context.Background())
	require.NoError(t, err)
	return n
}

func msg(sender, content string, offset time.Duration) domain.RawMessage {
	return domain.RawMessage{
		Sender:    sender,
		Content:   content,
		Timestamp: t0.Add(offset),
		Type:      domain.MessageTypeText,
	}
}

// usageMessages is a direct question answered two minutes later.
func usageMessages() []domain.RawMessage {
	return []domain.RawMessage{
		msg("小王", "请问这个产品怎么使用？", 0),
		msg("客服", "您好，首先下载我们的客户端，然后用手机号注册登录，最后在设置里开启同步功能即可", 2*time.Minute),
	}
}

func pricingMessages() []domain.RawMessage {
	return []domain.RawMessage{
		msg("小李", "价格是多少？有没有优惠活动？", time.Hour),
		msg("客服", "专业版每年999元，现在有8折优惠活动，团购还能再便宜一些哦", time.Hour+time.Minute),
	}
}

func refundMessages() []domain.RawMessage {
	return []domain.RawMessage{
		msg("小张", "退货怎么申请退款？", 2*time.Hour),
		msg("售后老李", "在订单页面提交售后申请，快递会上门取件，退款三个工作日内原路返回", 2*time.Hour+time.Minute),
	}
}

func greetingMessages() []domain.RawMessage {
	return []domain.RawMessage{
		msg("a", "大家好", 0),
		msg("b", "你好", time.Minute),
	}
}

// malformedMessages goes back in time.
func malformedMessages() []domain.RawMessage {
	return []domain.RawMessage{
		msg("a", "怎么退款？", time.Minute),
		msg("b", "订单页", 0),
	}
}

func conversation(id string, messages []domain.RawMessage) domain.Conversation {
	return domain.Conversation{ID: id, Messages: messages}
}

// seed ingests the usage, pricing and refund conversations.
func (h *harness) seed(t *testing.T) {
	t.Helper()
	res, err := h.ingest.IngestBatch(context.Background(), []domain.Conversation{
		conversation("usage", usageMessages()),
		conversation("pricing", pricingMessages()),
		conversation("refund", refundMessages()),
	})
	require.NoError(t, err)
	require.Empty(t, res.Failures)
	require.Equal(t, 3, res.Totals().Accepted)
}

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleCategoriesResource(t *testing.T) {
	server, err := NewServer(&Ports{Search: &mockSearchService{}})
	require.NoError(t, err)

	req := makeReadResourceRequest("qamine://categories")
	result, err := server.handleCategoriesResource(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "qamine://categories", result.Contents[0].URI)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var infos []categoryInfo
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &infos))
	require.Len(t, infos, len(domain.AllCategories()))
	for i, id := range domain.AllCategories() {
		assert.Equal(t, string(id), infos[i].ID)
		assert.NotEmpty(t, infos[i].Name)
	}
}

func TestServer_handleStatsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil stats service returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)

		_, err = server.handleStatsResource(ctx, makeReadResourceRequest("qamine://stats"))

		require.Error(t, err)
	})

	t.Run("returns stats", func(t *testing.T) {
		mockStats := &mockStatsService{
			stats: &domain.KnowledgeStats{
				TotalPairs:  3,
				TopAdvisors: []domain.AdvisorCount{{Advisor: "客服", Count: 2}},
			},
		}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Stats: mockStats})
		require.NoError(t, err)

		result, err := server.handleStatsResource(ctx, makeReadResourceRequest("qamine://stats"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"total_pairs": 3`)
		assert.Contains(t, result.Contents[0].Text, "客服")
	})

	t.Run("returns error on stats failure", func(t *testing.T) {
		mockStats := &mockStatsService{err: errors.New("database error")}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Stats: mockStats})
		require.NoError(t, err)

		_, err = server.handleStatsResource(ctx, makeReadResourceRequest("qamine://stats"))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "computing stats")
	})
}

func TestServer_handleJobsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil job service returns not found", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}})
		require.NoError(t, err)

		_, err = server.handleJobsResource(ctx, makeReadResourceRequest("qamine://jobs"))

		require.Error(t, err)
	})

	t.Run("lists jobs", func(t *testing.T) {
		jobs := &mockJobService{jobs: []domain.JobState{
			{Kind: domain.JobReindex, Enabled: true},
			{Kind: domain.JobPruneRuns},
		}}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Jobs: jobs})
		require.NoError(t, err)

		result, err := server.handleJobsResource(ctx, makeReadResourceRequest("qamine://jobs"))

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		var got []domain.JobState
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &got))
		require.Len(t, got, 2)
		assert.Equal(t, domain.JobReindex, got[0].Kind)
		assert.True(t, got[0].Enabled)
	})

	t.Run("error is wrapped", func(t *testing.T) {
		jobs := &mockJobService{err: errors.New("store closed")}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Jobs: jobs})
		require.NoError(t, err)

		_, err = server.handleJobsResource(ctx, makeReadResourceRequest("qamine://jobs"))

		assert.EqualError(t, err, "listing jobs: store closed")
	})
}

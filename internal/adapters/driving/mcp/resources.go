package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/qamine/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for qamine resources.
	uriScheme = "qamine://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "categories",
		Name:        "categories",
		Description: "The fixed set of Q&A categories",
		MIMEType:    "application/json",
	}, s.handleCategoriesResource)

	if s.ports.Stats != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "stats",
			Name:        "stats",
			Description: "Knowledge base statistics: totals, categories, advisors and confidence",
			MIMEType:    "application/json",
		}, s.handleStatsResource)
	}

	if s.ports.Jobs != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "jobs",
			Name:        "jobs",
			Description: "Maintenance jobs with their schedule and last outcome",
			MIMEType:    "application/json",
		}, s.handleJobsResource)
	}
}

// categoryInfo is the wire form of a category.
type categoryInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// handleCategoriesResource lists the categories.
func (s *Server) handleCategoriesResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	all := domain.AllCategories()
	infos := make([]categoryInfo, len(all))
	for i, id := range all {
		infos[i] = categoryInfo{
			ID:          string(id),
			Name:        id.DisplayName(),
			Description: id.Description(),
		}
	}
	return jsonResource(req.Params.URI, infos)
}

// handleStatsResource returns the knowledge base statistics.
func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Stats == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	stats, err := s.ports.Stats.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("computing stats: %w", err)
	}
	return jsonResource(req.Params.URI, stats)
}

func (s *Server) handleJobsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Jobs == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	jobs, err := s.ports.Jobs.Jobs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return jsonResource(req.Params.URI, jobs)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

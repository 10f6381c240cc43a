package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/normalisers/transcript"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query    string `json:"query" jsonschema:"keywords to look for; empty lists pairs matching the filters"`
	Category string `json:"category,omitempty" jsonschema:"restrict to one category ID"`
	Advisor  string `json:"advisor,omitempty" jsonschema:"restrict to pairs answered by this sender"`
	From     string `json:"from,omitempty" jsonschema:"earliest question date, YYYY-MM-DD"`
	To       string `json:"to,omitempty" jsonschema:"latest question date, YYYY-MM-DD"`
	Page     int    `json:"page,omitempty" jsonschema:"1-based page number"`
	PageSize int    `json:"page_size,omitempty" jsonschema:"results per page (default 10)"`
	Sort     string `json:"sort,omitempty" jsonschema:"relevance, time or confidence"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []PairOutput `json:"results"`
	Total   int          `json:"total"`
	Page    int          `json:"page"`
}

// PairOutput represents a single search result.
type PairOutput struct {
	PairID     string   `json:"pair_id"`
	Question   string   `json:"question"`
	Answer     string   `json:"answer"`
	Category   string   `json:"category"`
	Advisor    string   `json:"advisor,omitempty"`
	Confidence float64  `json:"confidence"`
	Score      float64  `json:"score"`
	AskedAt    string   `json:"asked_at"`
	Highlights []string `json:"highlights,omitempty"`
}

// MessageInput is one chat message of the ingest_messages tool.
type MessageInput struct {
	Sender    string `json:"sender" jsonschema:"display name of the author"`
	Content   string `json:"content" jsonschema:"message text"`
	Timestamp string `json:"timestamp" jsonschema:"RFC 3339 time, YYYY-MM-DD HH:MM:SS or epoch seconds"`
	Type      string `json:"type,omitempty" jsonschema:"text (default) or other"`
}

// IngestInput is the input schema for the ingest_messages tool.
type IngestInput struct {
	ConversationID string         `json:"conversation_id" jsonschema:"stable ID of the group chat"`
	Messages       []MessageInput `json:"messages" jsonschema:"messages in chronological order"`
}

// IngestOutput is the output schema for the ingest_messages tool.
type IngestOutput struct {
	Accepted   int      `json:"accepted"`
	Rejected   int      `json:"rejected"`
	Duplicates int      `json:"duplicates"`
	Replaced   int      `json:"replaced"`
	Fallbacks  int      `json:"fallbacks"`
	PairIDs    []string `json:"pair_ids"`
}

// ReindexInput is the (empty) input schema for the reindex tool.
type ReindexInput struct{}

// ReindexOutput is the output schema for the reindex tool.
type ReindexOutput struct {
	Status string `json:"status"`
}

// RunJobInput is the input schema for the run_job tool.
type RunJobInput struct {
	Job string `json:"job" jsonschema:"reindex, index_check or prune_runs"`
}

// RunJobOutput is the output schema for the run_job tool.
type RunJobOutput struct {
	Job        string `json:"job"`
	Started    string `json:"started"`
	DurationMS int64  `json:"duration_ms"`
	Pairs      int    `json:"pairs"`
	Error      string `json:"error,omitempty"`
}

const defaultPageSize = 10

func addTool[In, Out any](s *Server, tool *mcp.Tool, h mcp.ToolHandlerFor[In, Out]) {
	mcp.AddTool(s.server, tool, h)
	s.tools = append(s.tools, tool.Name)
}

func (s *Server) registerTools() {
	addTool(s, &mcp.Tool{
		Name:        "search",
		Description: "Search question/answer pairs mined from group chats",
	}, s.handleSearch)

	if s.ports.Ingest != nil {
		addTool(s, &mcp.Tool{
			Name:        "ingest_messages",
			Description: "Extract, classify and index Q&A pairs from one conversation's messages",
		}, s.handleIngest)
	}

	if s.ports.Index != nil {
		addTool(s, &mcp.Tool{
			Name:        "reindex",
			Description: "Re-classify every pair and rebuild the search index",
		}, s.handleReindex)
	}

	if s.ports.Jobs != nil {
		addTool(s, &mcp.Tool{
			Name:        "run_job",
			Description: "Run a knowledge-base maintenance job now and report its outcome",
		}, s.handleRunJob)
	}
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts, err := searchOptions(input)
	if err != nil {
		return nil, SearchOutput{}, toolError(err)
	}

	page, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, toolError(err)
	}

	output := SearchOutput{
		Results: make([]PairOutput, len(page.Items)),
		Total:   page.Total,
		Page:    page.Page,
	}
	for i := range page.Items {
		output.Results[i] = pairOutput(&page.Items[i])
	}
	return nil, output, nil
}

func searchOptions(input SearchInput) (domain.SearchOptions, error) {
	sort, err := domain.ParseSortOrder(input.Sort)
	if err != nil {
		return domain.SearchOptions{}, err
	}
	dates, err := domain.ParseDateRange(input.From, input.To, nil)
	if err != nil {
		return domain.SearchOptions{}, err
	}
	size := input.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	return domain.SearchOptions{
		Filters: domain.SearchFilters{
			CategoryID: domain.CategoryID(input.Category),
			Advisor:    input.Advisor,
			DateRange:  dates,
		},
		Page:     input.Page,
		PageSize: size,
		Sort:     sort,
	}, nil
}

func pairOutput(hit *domain.SearchHit) PairOutput {
	p := &hit.Pair
	return PairOutput{
		PairID:     p.ID,
		Question:   p.Question,
		Answer:     p.Answer,
		Category:   string(p.CategoryID),
		Advisor:    p.Advisor,
		Confidence: p.Confidence,
		Score:      hit.Score,
		AskedAt:    p.QuestionTime.Format("2006-01-02 15:04"),
		Highlights: hit.Highlights,
	}
}

// handleIngest handles the ingest_messages tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Ingest == nil {
		return nil, IngestOutput{}, ErrToolUnavailable
	}

	messages := make([]domain.RawMessage, len(input.Messages))
	for i, m := range input.Messages {
		msg, err := transcript.NewMessage(m.Sender, m.Content, m.Timestamp, m.Type)
		if err != nil {
			return nil, IngestOutput{}, toolError(fmt.Errorf("message %d: %w", i, err))
		}
		messages[i] = msg
	}

	res, err := s.ports.Ingest.Ingest(ctx, input.ConversationID, messages)
	if err != nil {
		return nil, IngestOutput{}, toolError(err)
	}

	output := IngestOutput{
		Accepted:   res.Accepted,
		Rejected:   res.Rejected,
		Duplicates: res.Duplicates,
		Replaced:   res.Replaced,
		Fallbacks:  res.Fallbacks,
		PairIDs:    make([]string, len(res.Pairs)),
	}
	for i := range res.Pairs {
		output.PairIDs[i] = res.Pairs[i].ID
	}
	return nil, output, nil
}

// handleReindex handles the reindex tool invocation.
func (s *Server) handleReindex(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ReindexInput,
) (*mcp.CallToolResult, ReindexOutput, error) {
	if s.ports.Index == nil {
		return nil, ReindexOutput{}, ErrToolUnavailable
	}
	if err := s.ports.Index.Reindex(ctx); err != nil {
		return nil, ReindexOutput{}, toolError(err)
	}
	return nil, ReindexOutput{Status: "reindexed"}, nil
}

func (s *Server) handleRunJob(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RunJobInput,
) (*mcp.CallToolResult, RunJobOutput, error) {
	if s.ports.Jobs == nil {
		return nil, RunJobOutput{}, ErrToolUnavailable
	}
	run, err := s.ports.Jobs.Run(ctx, domain.JobKind(input.Job))
	if err != nil {
		return nil, RunJobOutput{}, toolError(err)
	}
	return nil, RunJobOutput{
		Job:        string(run.Kind),
		Started:    run.Started.Format(time.RFC3339),
		DurationMS: run.Duration().Milliseconds(),
		Pairs:      run.Pairs,
		Error:      run.Err,
	}, nil
}

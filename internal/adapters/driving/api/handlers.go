package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/normalisers/transcript"
)

// timestamp accepts a JSON string or an epoch number.
type timestamp string

// UnmarshalJSON implements json.Unmarshaler.
func (t *timestamp) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = timestamp(s)
		return nil
	}
	*t = timestamp(strings.TrimSpace(string(b)))
	return nil
}

type messageRequest struct {
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	Timestamp timestamp `json:"timestamp"`
	Type      string    `json:"type"`
}

type ingestRequest struct {
	Messages []messageRequest `json:"messages"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("request body: %v: %w", err, domain.ErrMalformedInput))
		return
	}

	messages := make([]domain.RawMessage, len(req.Messages))
	for i, m := range req.Messages {
		msg, err := transcript.NewMessage(m.Sender, m.Content, string(m.Timestamp), m.Type)
		if err != nil {
			writeError(c, fmt.Errorf("message %d: %w", i, err))
			return
		}
		messages[i] = msg
	}

	res, err := s.ports.Ingest.Ingest(c.Request.Context(), c.Param("id"), messages)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleReindex(c *gin.Context) {
	if err := s.ports.Index.Reindex(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reindexed"})
}

func (s *Server) handleSearch(c *gin.Context) {
	opts, err := searchOptions(c)
	if err != nil {
		writeError(c, err)
		return
	}

	page, err := s.ports.Search.Search(c.Request.Context(), c.Query("q"), opts)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func searchOptions(c *gin.Context) (domain.SearchOptions, error) {
	page, err := intQuery(c, "page")
	if err != nil {
		return domain.SearchOptions{}, err
	}
	size, err := intQuery(c, "page_size")
	if err != nil {
		return domain.SearchOptions{}, err
	}
	sort, err := domain.ParseSortOrder(c.Query("sort"))
	if err != nil {
		return domain.SearchOptions{}, err
	}
	dates, err := domain.ParseDateRange(c.Query("from"), c.Query("to"), nil)
	if err != nil {
		return domain.SearchOptions{}, err
	}
	return domain.SearchOptions{
		Filters: domain.SearchFilters{
			CategoryID: domain.CategoryID(c.Query("category")),
			Advisor:    c.Query("advisor"),
			DateRange:  dates,
		},
		Page:     page,
		PageSize: size,
		Sort:     sort,
	}, nil
}

// intQuery parses an optional non-negative integer parameter.
func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s %q: %w", name, raw, domain.ErrInvalidInput)
	}
	return n, nil
}

func (s *Server) handleSuggest(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}
	suggestions, err := s.ports.Search.Suggest(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if suggestions == nil {
		suggestions = []domain.Suggestion{}
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

func (s *Server) handleCategories(c *gin.Context) {
	var weights map[domain.CategoryID]float64
	if s.ports.Settings != nil {
		if cfg, err := s.ports.Settings.Pipeline(); err == nil {
			weights = cfg.Classification.Weights
		}
	}
	c.JSON(http.StatusOK, gin.H{"categories": domain.Categories(weights)})
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.ports.Stats.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handlePopular(c *gin.Context) {
	limit, err := intQuery(c, "limit")
	if err != nil {
		writeError(c, err)
		return
	}
	keywords, err := s.ports.Stats.PopularKeywords(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if keywords == nil {
		keywords = []domain.PopularKeyword{}
	}
	c.JSON(http.StatusOK, gin.H{"keywords": keywords})
}

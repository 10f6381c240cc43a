package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/qamine/internal/core/ports/driving"
	"github.com/custodia-labs/qamine/internal/logger"
)

const shutdownTimeout = 5 * time.Second

// Ports are the services exposed over MCP. Only Search is required;
// tools and resources backed by a nil service are not registered.
type Ports struct {
	Search driving.SearchService
	Ingest driving.IngestService
	Index  driving.IndexService
	Stats  driving.StatsService
	Jobs   driving.JobService
}

// Validate reports a missing search service.
func (p *Ports) Validate() error {
	if p == nil || p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}

// Option configures a Server.
type Option func(*Server)

// WithVersion sets the version reported to clients.
func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// Server serves the knowledge base to MCP clients.
type Server struct {
	ports   *Ports
	version string
	server  *mcp.Server
	tools   []string
}

// NewServer builds a server and registers the tools and resources the
// given ports support.
func NewServer(ports *Ports, opts ...Option) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{ports: ports, version: "dev"}
	for _, opt := range opts {
		opt(s)
	}

	s.server = mcp.NewServer(
		&mcp.Implementation{Name: "qamine", Version: s.version},
		&mcp.ServerOptions{Instructions: instructions(ports)},
	)
	s.registerTools()
	s.registerResources()

	return s, nil
}

// Version returns the version reported to clients.
func (s *Server) Version() string {
	return s.version
}

// Tools returns the names of the registered tools in registration order.
func (s *Server) Tools() []string {
	return s.tools
}

func instructions(p *Ports) string {
	var b strings.Builder
	b.WriteString("qamine holds question/answer pairs mined from Chinese customer-service group chats. ")
	b.WriteString("Call search with Chinese keywords; synonyms are expanded and results can be filtered by category, advisor and date.")
	if p.Ingest != nil {
		b.WriteString(" ingest_messages adds one conversation.")
	}
	if p.Index != nil {
		b.WriteString(" reindex re-classifies everything after a vocabulary change.")
	}
	if p.Jobs != nil {
		b.WriteString(" run_job starts a maintenance job.")
	}
	b.WriteString(" Read qamine://categories for valid category IDs.")
	return b.String()
}

// Run serves over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	logger.Debug("mcp: serving %d tools over stdio", len(s.tools))
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is
// cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return s.server
	}, nil)

	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("mcp: shutdown: %v", err)
		}
	}()

	logger.Info("mcp: listening on %s", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

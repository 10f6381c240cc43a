// Package tui is the interactive terminal front end: a menu, query search
// over the knowledge base, pair details and statistics.
package tui

import (
	"errors"

	"github.com/custodia-labs/qamine/internal/core/ports/driving"
)

var (
	// ErrInvalidPorts is returned for nil Ports.
	ErrInvalidPorts = errors.New("tui: no ports given")
	// ErrMissingSearchService is returned when Ports has no search service.
	ErrMissingSearchService = errors.New("tui: search service is required")
)

// Ports are the core services the TUI drives. Stats may be nil, in which
// case the statistics view says so and the menu shows no summary.
type Ports struct {
	Search driving.SearchService
	Stats  driving.StatsService
}

// NewPorts bundles the services.
func NewPorts(search driving.SearchService, stats driving.StatsService) *Ports {
	return &Ports{Search: search, Stats: stats}
}

// Validate checks that the required services are present.
func (p *Ports) Validate() error {
	switch {
	case p == nil:
		return ErrInvalidPorts
	case p.Search == nil:
		return ErrMissingSearchService
	}
	return nil
}

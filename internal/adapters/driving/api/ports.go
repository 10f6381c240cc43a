package api

import (
	"errors"

	"github.com/custodia-labs/qamine/internal/core/ports/driving"
)

// ErrMissingSearchService means the server was given nothing to search.
var ErrMissingSearchService = errors.New("api: search service is required")

// Ports are the services behind the routes. Only Search is required;
// the routes of a nil service are left out.
type Ports struct {
	Search   driving.SearchService
	Ingest   driving.IngestService
	Index    driving.IndexService
	Stats    driving.StatsService
	Settings driving.SettingsService
}

func (p *Ports) Validate() error {
	if p == nil || p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}

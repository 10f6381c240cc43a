package driving

import "github.com/custodia-labs/qamine/internal/core/domain"

// SettingsService resolves typed configuration from the config store.
type SettingsService interface {
	// Pipeline returns the pipeline configuration with defaults applied.
	// Invalid values are reported, not silently replaced.
	Pipeline() (domain.PipelineConfig, error)

	// Scheduler returns the scheduler configuration.
	Scheduler() domain.SchedulerConfig

	// Watch returns the watch-folder configuration.
	Watch() domain.WatchConfig

	// Server returns the HTTP API configuration.
	Server() domain.ServerConfig

	// Set stores one key and persists it.
	Set(key string, value any) error

	// Effective returns every known key with its resolved value.
	Effective() map[string]any
}

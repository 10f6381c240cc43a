package driven

import "time"

// ConfigStore holds settings under dotted keys such as
// "extraction.direct_window". Typed getters return the zero value when a
// key is missing or holds a value of another type; callers apply their own
// defaults.
type ConfigStore interface {
	// Get returns the raw value and whether the key is set.
	Get(key string) (any, bool)

	GetString(key string) string
	GetInt(key string) int
	// GetFloat widens integers.
	GetFloat(key string) float64
	GetBool(key string) bool
	// GetDuration parses Go duration strings ("5m").
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string

	// Set stores value and persists it.
	Set(key string, value any) error
	Save() error
	// Load re-reads persisted values.
	Load() error

	// Path identifies the backing file, or ":memory:".
	Path() string
}

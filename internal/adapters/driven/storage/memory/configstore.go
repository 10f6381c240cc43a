package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/qamine/internal/adapters/driven/config/values"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps configuration in a map. Save and Load do nothing.
type ConfigStore struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewConfigStore returns an empty store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{values: make(map[string]any)}
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *ConfigStore) GetString(key string) string { return values.String(s.Get(key)) }
func (s *ConfigStore) GetInt(key string) int       { return values.Int(s.Get(key)) }
func (s *ConfigStore) GetFloat(key string) float64 { return values.Float(s.Get(key)) }
func (s *ConfigStore) GetBool(key string) bool     { return values.Bool(s.Get(key)) }

func (s *ConfigStore) GetDuration(key string) time.Duration {
	return values.Duration(s.Get(key))
}

func (s *ConfigStore) GetStringSlice(key string) []string {
	return values.StringSlice(s.Get(key))
}

// Set stores value as given; durations are not converted.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
	return nil
}

// Keys returns the stored keys in sorted order.
func (s *ConfigStore) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

func (s *ConfigStore) Save() error  { return nil }
func (s *ConfigStore) Load() error  { return nil }
func (s *ConfigStore) Path() string { return ":memory:" }

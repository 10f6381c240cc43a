package file

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/qamine/internal/adapters/driven/config/values"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
)

// FileName is the configuration file inside the config directory.
const FileName = "config.toml"

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps configuration in a TOML file. Keys are dotted paths
// ("scoring.confidence_floor") held flat in memory and written back as
// nested tables. Every Set rewrites the file.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	kv   map[string]any
}

// DefaultDir returns ~/.qamine.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".qamine"), nil
}

// NewConfigStore opens dir/config.toml, creating dir if needed. An empty
// dir means DefaultDir. A missing file is an empty configuration.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}

	s := &ConfigStore{path: filepath.Join(dir, FileName), kv: map[string]any{}}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.kv[key]
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

// Set stores value and rewrites the file. Durations are written as strings.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = values.Storable(value)
	return s.write()
}

// Save rewrites the file.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write()
}

// write replaces the file through a temp file and rename so a crash never
// leaves it half written. Caller holds mu.
func (s *ConfigStore) write() error {
	data, err := toml.Marshal(nest(s.kv))
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), FileName+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close() //nolint:errcheck
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// Load re-reads the file, discarding unsaved values.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.kv = map[string]any{}
		return nil
	}
	if err != nil {
		return err
	}

	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return err
	}
	s.kv = map[string]any{}
	flatten(tree, "", s.kv)
	return nil
}

// Path returns the file path.
func (s *ConfigStore) Path() string {
	return s.path
}

// flatten copies tables from tree into out under dotted keys.
func flatten(tree map[string]any, prefix string, out map[string]any) {
	for k, v := range tree {
		if prefix != "" {
			k = prefix + "." + k
		}
		if table, ok := v.(map[string]any); ok {
			flatten(table, k, out)
			continue
		}
		out[k] = v
	}
}

// nest turns dotted keys back into tables. A key whose parent path already
// holds a scalar is written flat.
func nest(flat map[string]any) map[string]any {
	root := map[string]any{}
	for key, v := range flat {
		parts := strings.Split(key, ".")
		if table, ok := tableFor(root, parts[:len(parts)-1]); ok {
			table[parts[len(parts)-1]] = v
		} else {
			root[key] = v
		}
	}
	return root
}

// tableFor walks or creates the tables along path.
func tableFor(root map[string]any, path []string) (map[string]any, bool) {
	node := root
	for _, part := range path {
		child, exists := node[part]
		if !exists {
			next := map[string]any{}
			node[part] = next
			node = next
			continue
		}
		next, ok := child.(map[string]any)
		if !ok {
			return nil, false
		}
		node = next
	}
	return node, true
}

// Package env overlays environment variables on top of a configuration store.
//
// A key such as "extraction.direct_window" is read from
// QAMINE_EXTRACTION_DIRECT_WINDOW when that variable is set. Writes always go
// to the wrapped store, so the environment never leaks into config.toml.
package env

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/qamine/internal/core/ports/driven"
)

// DefaultPrefix is prepended to every variable name.
const DefaultPrefix = "QAMINE_"

// Ensure Overlay implements the interface.
var _ driven.ConfigStore = (*Overlay)(nil)

// Overlay is a driven.ConfigStore that prefers environment variables.
type Overlay struct {
	base   driven.ConfigStore
	prefix string
	lookup func(string) (string, bool)
}

// Option configures an Overlay.
type Option func(*Overlay)

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(o *Overlay) { o.prefix = prefix }
}

// WithLookup replaces os.LookupEnv, mainly for tests.
func WithLookup(fn func(string) (string, bool)) Option {
	return func(o *Overlay) { o.lookup = fn }
}

// New wraps base.
func New(base driven.ConfigStore, opts ...Option) *Overlay {
	o := &Overlay{
		base:   base,
		prefix: DefaultPrefix,
		lookup: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// LoadDotEnv loads the given .env files into the process environment.
// Missing files are skipped and variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
	}
	return nil
}

// VarName returns the environment variable consulted for key.
func (o *Overlay) VarName(key string) string {
	r := strings.NewReplacer(".", "_", "-", "_")
	return o.prefix + strings.ToUpper(r.Replace(key))
}

func (o *Overlay) env(key string) (string, bool) {
	v, ok := o.lookup(o.VarName(key))
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// Get returns the environment value parsed to bool, int64 or float64 when it
// looks like one, or the wrapped store's value.
func (o *Overlay) Get(key string) (any, bool) {
	if v, ok := o.env(key); ok {
		return parseScalar(v), true
	}
	return o.base.Get(key)
}

func parseScalar(v string) any {
	if b, err := strconv.ParseBool(v); err == nil && !isNumeric(v) {
		return b
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

// "1" and "0" stay numbers.
func isNumeric(v string) bool {
	_, err := strconv.ParseFloat(v, 64)
	return err == nil
}

// GetString retrieves a string configuration value.
func (o *Overlay) GetString(key string) string {
	if v, ok := o.env(key); ok {
		return v
	}
	return o.base.GetString(key)
}

// GetInt retrieves an integer configuration value.
func (o *Overlay) GetInt(key string) int {
	if v, ok := o.env(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	}
	return o.base.GetInt(key)
}

// GetFloat retrieves a float configuration value.
func (o *Overlay) GetFloat(key string) float64 {
	if v, ok := o.env(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return o.base.GetFloat(key)
}

// GetBool retrieves a boolean configuration value.
func (o *Overlay) GetBool(key string) bool {
	if v, ok := o.env(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false
		}
		return b
	}
	return o.base.GetBool(key)
}

// GetDuration retrieves a duration configuration value.
func (o *Overlay) GetDuration(key string) time.Duration {
	if v, ok := o.env(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0
		}
		return d
	}
	return o.base.GetDuration(key)
}

// GetStringSlice reads a comma separated list from the environment.
func (o *Overlay) GetStringSlice(key string) []string {
	v, ok := o.env(key)
	if !ok {
		return o.base.GetStringSlice(key)
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Set writes to the wrapped store.
func (o *Overlay) Set(key string, value any) error {
	return o.base.Set(key, value)
}

// Save persists the wrapped store.
func (o *Overlay) Save() error {
	return o.base.Save()
}

// Load reloads the wrapped store.
func (o *Overlay) Load() error {
	return o.base.Load()
}

// Path returns the wrapped store's path.
func (o *Overlay) Path() string {
	return o.base.Path()
}

// Package watcher ingests transcripts dropped into a directory.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
	"github.com/custodia-labs/qamine/internal/core/ports/driving"
	"github.com/custodia-labs/qamine/internal/logger"
)

// queueSize bounds the number of files waiting for the rate limiter.
const queueSize = 64

// ErrNoDirectory is returned when no directory is configured.
var ErrNoDirectory = errors.New("watcher: no directory configured")

// Result reports the outcome of ingesting one file.
type Result struct {
	Path   string
	Ingest *domain.IngestResult
	Err    error
}

// Watcher ingests new or changed transcript files in a directory.
// Events for a file are debounced, and ingestion is throttled by a token
// bucket. A failed file is logged and the loop carries on.
type Watcher struct {
	dir      string
	registry driven.NormaliserRegistry
	ingest   driving.IngestService
	limiter  *rate.Limiter
	debounce time.Duration
	exts     map[string]struct{}

	mu      sync.Mutex
	pending map[string]*time.Timer

	queue    chan string
	onResult func(Result)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithResultHandler registers a callback for every ingested file.
func WithResultHandler(fn func(Result)) Option {
	return func(w *Watcher) { w.onResult = fn }
}

// New creates a watcher for cfg.Dir.
func New(
	cfg domain.WatchConfig,
	registry driven.NormaliserRegistry,
	ingest driving.IngestService,
	opts ...Option,
) (*Watcher, error) {
	if cfg.Dir == "" {
		return nil, ErrNoDirectory
	}
	info, err := os.Stat(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory: %w", cfg.Dir, domain.ErrInvalidInput)
	}

	defaults := domain.DefaultWatchConfig()
	if cfg.Rate <= 0 {
		cfg.Rate = defaults.Rate
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaults.Burst
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaults.Debounce
	}

	exts := make(map[string]struct{})
	for _, e := range registry.SupportedExtensions() {
		exts[strings.ToLower(e)] = struct{}{}
	}

	w := &Watcher{
		dir:      cfg.Dir,
		registry: registry,
		ingest:   ingest,
		limiter:  rate.NewLimiter(rate.Limit(cfg.Rate), cfg.Burst),
		debounce: cfg.Debounce,
		exts:     exts,
		pending:  make(map[string]*time.Timer),
		queue:    make(chan string, queueSize),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run watches the directory until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	logger.Info("watching %s", w.dir)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.drain(ctx)
	}()

	defer func() {
		w.stopTimers()
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if path, ok := w.handleEvent(event); ok {
				w.schedule(ctx, path)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// handleEvent returns the file to ingest for an event, if any.
func (w *Watcher) handleEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if isHidden(event.Name) || !w.supported(event.Name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || info.IsDir() {
		return "", false
	}
	return event.Name, true
}

func (w *Watcher) supported(path string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	_, ok := w.exts[ext]
	return ok
}

// schedule (re)starts the quiet timer of path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case w.queue <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

// drain ingests queued files at the limiter's pace.
func (w *Watcher) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.queue:
			if err := w.limiter.Wait(ctx); err != nil {
				return
			}
			res, err := w.IngestFile(ctx, path)
			if err != nil {
				logger.Warn("ingest %s: %v", filepath.Base(path), err)
			} else {
				logger.WithFields(map[string]any{
					"file":       filepath.Base(path),
					"accepted":   res.Accepted,
					"duplicates": res.Duplicates,
					"rejected":   res.Rejected,
				}).Info("ingested")
			}
			if w.onResult != nil {
				w.onResult(Result{Path: path, Ingest: res, Err: err})
			}
		}
	}
}

// IngestFile parses one transcript and ingests it.
func (w *Watcher) IngestFile(ctx context.Context, path string) (*domain.IngestResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	parsed, err := w.registry.Normalise(ctx, &domain.RawTranscript{URI: path, Content: content})
	if err != nil {
		return nil, err
	}
	return IngestConversation(ctx, w.ingest, parsed.Conversation)
}

// IngestConversation ingests one parsed conversation through the batch
// path, which keeps its source file on the pairs.
func IngestConversation(ctx context.Context, svc driving.IngestService, conv domain.Conversation) (*domain.IngestResult, error) {
	batch, err := svc.IngestBatch(ctx, []domain.Conversation{conv})
	if err != nil {
		return nil, err
	}
	if len(batch.Failures) > 0 {
		return nil, batch.Failures[0].Err
	}
	if len(batch.Results) == 0 {
		return &domain.IngestResult{ConversationID: conv.ID}, nil
	}
	return &batch.Results[0], nil
}

// isHidden reports whether any element of path starts with a dot.
func isHidden(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if len(part) > 1 && part[0] == '.' && part != ".." {
			return true
		}
	}
	return false
}

package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
	"github.com/custodia-labs/qamine/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyDirectWindow      = "extraction.direct_window"
	keyProblemWindow     = "extraction.problem_window"
	keyTutorialWindow    = "extraction.tutorial_window"
	keySearchDepth       = "extraction.search_depth"
	keyContextBefore     = "extraction.context_before"
	keyContextAfter      = "extraction.context_after"
	keyAdvisors          = "extraction.advisors"
	keyMinAnswerLength   = "scoring.min_answer_length"
	keyConfidenceFloor   = "scoring.confidence_floor"
	keyCrossBatchDedup   = "dedup.cross_batch"
	keyThreshold         = "classification.threshold"
	keyKeywordSaturation = "classification.keyword_saturation"
	keyFallbackCategory  = "classification.fallback_category"
	keyVocabularyPath    = "classification.vocabulary_path"
	keyWeightsPrefix     = "classification.weights."
	keySynonymsPath      = "synonyms.path"
	keySynonymsPinyin    = "synonyms.pinyin"
	keyQuestionWeight    = "index.question_weight"
	keyAnswerWeight      = "index.answer_weight"
	keySynonymWeight     = "index.synonym_weight"
	keyConfidenceBoost   = "index.confidence_boost"
	keyWorkers           = "ingest.workers"
	keyProcessors        = "pipeline.processors"
	keySchedulerEnabled  = "scheduler.enabled"
	keyWatchDir          = "watch.dir"
	keyWatchRate         = "watch.rate"
	keyWatchBurst        = "watch.burst"
	keyWatchDebounce     = "watch.debounce"
	keyServerAddr        = "server.addr"
	keyServerOrigins     = "server.allowed_origins"
)

// processorKeys lists the config keys read for each processor.
var processorKeys = map[string][]string{
	"sanitizer": {"max_length", "max_name_length"},
	"keywords":  {"max_keywords"},
}

// SettingsService resolves typed configuration from a ConfigStore.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Pipeline returns the pipeline configuration. Keys that are absent take
// their documented defaults; present keys are validated.
func (s *SettingsService) Pipeline() (domain.PipelineConfig, error) {
	cfg := domain.DefaultPipelineConfig()

	var err error
	e := &cfg.Extraction
	if e.DirectWindow, err = s.getDuration(keyDirectWindow, e.DirectWindow); err != nil {
		return cfg, err
	}
	if e.ProblemWindow, err = s.getDuration(keyProblemWindow, e.ProblemWindow); err != nil {
		return cfg, err
	}
	if e.TutorialWindow, err = s.getDuration(keyTutorialWindow, e.TutorialWindow); err != nil {
		return cfg, err
	}
	e.SearchDepth = s.getInt(keySearchDepth, e.SearchDepth)
	e.ContextBefore = s.getInt(keyContextBefore, e.ContextBefore)
	e.ContextAfter = s.getInt(keyContextAfter, e.ContextAfter)
	if advisors := s.configStore.GetStringSlice(keyAdvisors); len(advisors) > 0 {
		e.Advisors = advisors
	}

	cfg.Scoring.MinAnswerLength = s.getInt(keyMinAnswerLength, cfg.Scoring.MinAnswerLength)
	cfg.Scoring.ConfidenceFloor = s.getFloat(keyConfidenceFloor, cfg.Scoring.ConfidenceFloor)
	cfg.CrossBatchDedup = s.getBool(keyCrossBatchDedup, cfg.CrossBatchDedup)

	c := &cfg.Classification
	c.Threshold = s.getFloat(keyThreshold, c.Threshold)
	c.KeywordSaturation = s.getInt(keyKeywordSaturation, c.KeywordSaturation)
	if v := s.configStore.GetString(keyFallbackCategory); v != "" {
		c.FallbackCategory = domain.CategoryID(v)
	}
	c.VocabularyPath = s.getString(keyVocabularyPath, c.VocabularyPath)
	for _, id := range domain.AllCategories() {
		c.Weights[id] = s.getFloat(keyWeightsPrefix+string(id), c.Weights[id])
	}

	cfg.Synonyms.Path = s.getString(keySynonymsPath, cfg.Synonyms.Path)
	cfg.Synonyms.Pinyin = s.getBool(keySynonymsPinyin, cfg.Synonyms.Pinyin)

	ix := &cfg.Index
	ix.QuestionWeight = s.getFloat(keyQuestionWeight, ix.QuestionWeight)
	ix.AnswerWeight = s.getFloat(keyAnswerWeight, ix.AnswerWeight)
	ix.SynonymWeight = s.getFloat(keySynonymWeight, ix.SynonymWeight)
	ix.ConfidenceBoost = s.getFloat(keyConfidenceBoost, ix.ConfidenceBoost)

	cfg.Workers = s.getInt(keyWorkers, cfg.Workers)

	if names := s.configStore.GetStringSlice(keyProcessors); len(names) > 0 {
		cfg.Processors = make([]domain.ProcessorConfig, 0, len(names))
		for _, name := range names {
			cfg.Processors = append(cfg.Processors, domain.ProcessorConfig{Name: name})
		}
	}
	for i := range cfg.Processors {
		cfg.Processors[i].Config = s.loadProcessorConfig(cfg.Processors[i].Name)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadProcessorConfig loads the known keys of one processor.
func (s *SettingsService) loadProcessorConfig(name string) map[string]any {
	prefix := "pipeline." + name + "."
	cfg := make(map[string]any)
	for _, key := range processorKeys[name] {
		if val, exists := s.configStore.Get(prefix + key); exists {
			cfg[key] = val
		}
	}
	if len(cfg) == 0 {
		return nil
	}
	return cfg
}

// Scheduler returns the maintenance schedule. Each job reads
// scheduler.<job>.enabled and scheduler.<job>.interval; an unparsable or
// non-positive interval keeps the default.
func (s *SettingsService) Scheduler() domain.SchedulerConfig {
	cfg := domain.DefaultSchedulerConfig()
	cfg.Enabled = s.getBool(keySchedulerEnabled, cfg.Enabled)

	for _, kind := range domain.MaintenanceJobs() {
		prefix := jobPrefix(kind)
		sched := cfg.Jobs[kind]
		sched.Enabled = s.getBool(prefix+"enabled", sched.Enabled)
		if d, err := s.getDuration(prefix+"interval", sched.Every); err == nil && d > 0 {
			sched.Every = d
		}
		cfg.Jobs[kind] = sched
	}
	return cfg
}

func jobPrefix(kind domain.JobKind) string {
	return "scheduler." + string(kind) + "."
}

// Watch returns the watch-folder configuration.
func (s *SettingsService) Watch() domain.WatchConfig {
	cfg := domain.DefaultWatchConfig()
	cfg.Dir = s.getString(keyWatchDir, cfg.Dir)
	if r := s.getFloat(keyWatchRate, cfg.Rate); r > 0 {
		cfg.Rate = r
	}
	if b := s.getInt(keyWatchBurst, cfg.Burst); b > 0 {
		cfg.Burst = b
	}
	if d := s.configStore.GetDuration(keyWatchDebounce); d > 0 {
		cfg.Debounce = d
	}
	return cfg
}

// Server returns the HTTP API configuration.
func (s *SettingsService) Server() domain.ServerConfig {
	cfg := domain.DefaultServerConfig()
	cfg.Addr = s.getString(keyServerAddr, cfg.Addr)
	cfg.AllowedOrigins = s.configStore.GetStringSlice(keyServerOrigins)
	return cfg
}

// Set stores one key and persists it.
func (s *SettingsService) Set(key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("empty config key: %w", domain.ErrInvalidInput)
	}
	if err := s.configStore.Set(key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Effective returns the resolved value of every known key. Durations are
// rendered as strings. An invalid pipeline configuration falls back to
// the defaults for display.
func (s *SettingsService) Effective() map[string]any {
	p, err := s.Pipeline()
	if err != nil {
		p = domain.DefaultPipelineConfig()
	}
	sch := s.Scheduler()
	w := s.Watch()
	srv := s.Server()

	out := map[string]any{
		keyDirectWindow:      p.Extraction.DirectWindow.String(),
		keyProblemWindow:     p.Extraction.ProblemWindow.String(),
		keyTutorialWindow:    p.Extraction.TutorialWindow.String(),
		keySearchDepth:       p.Extraction.SearchDepth,
		keyContextBefore:     p.Extraction.ContextBefore,
		keyContextAfter:      p.Extraction.ContextAfter,
		keyAdvisors:          p.Extraction.Advisors,
		keyMinAnswerLength:   p.Scoring.MinAnswerLength,
		keyConfidenceFloor:   p.Scoring.ConfidenceFloor,
		keyCrossBatchDedup:   p.CrossBatchDedup,
		keyThreshold:         p.Classification.Threshold,
		keyKeywordSaturation: p.Classification.KeywordSaturation,
		keyFallbackCategory:  string(p.Classification.FallbackCategory),
		keyVocabularyPath:    p.Classification.VocabularyPath,
		keySynonymsPath:      p.Synonyms.Path,
		keySynonymsPinyin:    p.Synonyms.Pinyin,
		keyQuestionWeight:    p.Index.QuestionWeight,
		keyAnswerWeight:      p.Index.AnswerWeight,
		keySynonymWeight:     p.Index.SynonymWeight,
		keyConfidenceBoost:   p.Index.ConfidenceBoost,
		keyWorkers:           p.Workers,
		keySchedulerEnabled:  sch.Enabled,
		keyWatchDir:          w.Dir,
		keyWatchRate:         w.Rate,
		keyWatchBurst:        w.Burst,
		keyWatchDebounce:     w.Debounce.String(),
		keyServerAddr:        srv.Addr,
	}
	for id, weight := range p.Classification.Weights {
		out[keyWeightsPrefix+string(id)] = weight
	}
	names := make([]string, 0, len(p.Processors))
	for _, proc := range p.Processors {
		names = append(names, proc.Name)
		for k, v := range proc.Config {
			out["pipeline."+proc.Name+"."+k] = v
		}
	}
	out[keyProcessors] = names
	for _, kind := range domain.MaintenanceJobs() {
		sched := sch.Schedule(kind)
		out[jobPrefix(kind)+"enabled"] = sched.Enabled
		out[jobPrefix(kind)+"interval"] = sched.Every.String()
	}
	return out
}

// EffectiveKeys returns the keys of Effective in sorted order.
func (s *SettingsService) EffectiveKeys() []string {
	eff := s.Effective()
	keys := make([]string, 0, len(eff))
	for k := range eff {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

// getDuration reads a duration string like "45m" or "1h".
func (s *SettingsService) getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := s.configStore.GetString(key)
	if val == "" {
		if d := s.configStore.GetDuration(key); d > 0 {
			return d, nil
		}
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal, fmt.Errorf("%s: %v: %w", key, err, domain.ErrInvalidInput)
	}
	return d, nil
}

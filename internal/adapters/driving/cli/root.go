// Package cli provides the qamine command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/qamine/internal/core/domain"
	"github.com/custodia-labs/qamine/internal/core/ports/driven"
	"github.com/custodia-labs/qamine/internal/core/ports/driving"
	"github.com/custodia-labs/qamine/internal/logger"
)

// version is set at build time.
var version = "dev"

// Global flags.
var (
	verbose   bool
	logFormat string
	configDir string
	dataDir   string
)

// Services used by the commands. They are set by SetServices, either
// directly or through the bootstrap function on first use.
var (
	ingestService   driving.IngestService
	searchService   driving.SearchService
	indexService    driving.IndexService
	statsService    driving.StatsService
	settingsService driving.SettingsService
	scheduler       driving.Scheduler
	jobService      driving.JobService
	normaliser      driven.NormaliserRegistry
)

// Services bundles everything the commands need.
type Services struct {
	Ingest      driving.IngestService
	Search      driving.SearchService
	Index       driving.IndexService
	Stats       driving.StatsService
	Settings    driving.SettingsService
	Scheduler   driving.Scheduler
	Jobs        driving.JobService
	Normalisers driven.NormaliserRegistry

	// Close releases the underlying stores. May be nil.
	Close func() error
}

// Options carries the global flags to the bootstrap function.
type Options struct {
	ConfigDir string
	DataDir   string
}

// BootstrapFunc builds the services for one invocation.
type BootstrapFunc func(ctx context.Context, opts Options) (*Services, error)

var (
	bootstrap    BootstrapFunc
	bootstrapped bool
	closer       func() error
)

// skipBootstrap marks commands that run without services.
const skipBootstrap = "qamine/skip-bootstrap"

var rootCmd = &cobra.Command{
	Use:   "qamine",
	Short: "Mine question/answer pairs from group chats",
	Long: `qamine turns exported group-chat transcripts into a searchable
knowledge base of question/answer pairs.

Messages are cleaned, linked into pairs, scored, deduplicated and
classified into product inquiry, tech support, pricing, tutorial and
after-sales. The pairs are indexed for Chinese keyword search.`,
	SilenceUsage:      true,
	PersistentPreRunE: persistentPreRun,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logger.FormatText, "log format: text or json")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.qamine)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.qamine/data)")
}

// Execute runs the root command and releases the services afterwards.
func Execute(ctx context.Context) error {
	defer closeServices()
	// cmd.Print* writes to stderr unless an output is set.
	rootCmd.SetOut(os.Stdout)
	return rootCmd.ExecuteContext(ctx)
}

// SetVersion sets the version reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// SetBootstrap registers the function that builds the services.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
	bootstrapped = false
}

// SetServices installs the services used by the commands.
func SetServices(s *Services) {
	if s == nil {
		s = &Services{}
	}
	ingestService = s.Ingest
	searchService = s.Search
	indexService = s.Index
	statsService = s.Stats
	settingsService = s.Settings
	scheduler = s.Scheduler
	jobService = s.Jobs
	normaliser = s.Normalisers
	closer = s.Close
}

func persistentPreRun(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if err := logger.SetFormat(logFormat); err != nil {
		return err
	}
	if cmd.Annotations[skipBootstrap] == "true" || bootstrap == nil || bootstrapped {
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	s, err := bootstrap(ctx, Options{ConfigDir: configDir, DataDir: dataDir})
	if err != nil {
		return fmt.Errorf("initialising: %w", err)
	}
	SetServices(s)
	bootstrapped = true
	return nil
}

func closeServices() {
	if closer == nil {
		return
	}
	if err := closer(); err != nil {
		logger.Warn("closing services: %v", err)
	}
	closer = nil
}

// commandContext returns the command's context, or Background when run
// outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// explain rewrites core errors into command-line advice.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case domain.IsRetryable(err):
		return fmt.Errorf("%w (the index is unavailable; try again or run 'qamine reindex')", err)
	case errors.Is(err, domain.ErrUnsupportedType):
		return fmt.Errorf("%w (supported: .json, .html, .txt)", err)
	default:
		return err
	}
}

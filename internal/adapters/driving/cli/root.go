// Package cli implements the docseek command-line interface.
//
// Commands talk to the core through the driving ports held in package
// variables. Execute wires the real adapters into them; tests swap in
// mocks directly.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/corpora-labs/docseek/internal/adapters/driven/config/file"
	"github.com/corpora-labs/docseek/internal/adapters/driven/index/bleveidx"
	"github.com/corpora-labs/docseek/internal/adapters/driven/index/segment"
	"github.com/corpora-labs/docseek/internal/adapters/driven/storage/sqlite"
	"github.com/corpora-labs/docseek/internal/connectors"
	"github.com/corpora-labs/docseek/internal/core/domain"
	"github.com/corpora-labs/docseek/internal/core/ports/driven"
	"github.com/corpora-labs/docseek/internal/core/ports/driving"
	"github.com/corpora-labs/docseek/internal/core/services"
	"github.com/corpora-labs/docseek/internal/logger"
	"github.com/corpora-labs/docseek/internal/normalisers"
	"github.com/corpora-labs/docseek/internal/postprocessors"
)

// version is overwritten by Execute with the build-time version.
var version = "dev"

// Services wired at startup. Commands nil-check the ones they need so a
// partially wired binary fails with a clear message instead of a panic.
var (
	configStore      driven.ConfigStore
	searchService    driving.SearchService
	indexService     driving.IndexService
	documentService  driving.DocumentService
	sourceService    driving.SourceService
	syncOrchestrator driving.SyncOrchestrator
	settingsService  driving.SettingsService
	schedulerService driving.Scheduler
)

// closers releases wired resources on exit, last-opened first.
var closers []func() error

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "docseek",
	Short: "Bilingual knowledge-base search",
	Long: `Docseek syncs documents from local directories, git repositories,
GitHub and Confluence into a local full-text index with Chinese and
English segmentation, and serves search over the CLI and an MCP server.`,
	// main prints returned errors once; keep cobra quiet.
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

// Execute wires the application and runs the root command.
func Execute(ver string) error {
	version = ver

	if err := wireServices(); err != nil {
		return fmt.Errorf("initialise: %w", err)
	}
	defer closeServices()

	return rootCmd.Execute()
}

// wireServices builds the adapter and service graph. Everything lives
// under ~/.docseek: config.toml, data/metadata.db and data/search_index.
func wireServices() error {
	cfg, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}
	configStore = cfg
	settingsService = services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	closers = append(closers, store.Close)

	indexPath := settings.Index.Path
	if indexPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home directory: %w", err)
		}
		indexPath = filepath.Join(home, ".docseek", "data", "search_index")
	}

	engine, err := bleveidx.Open(bleveidx.Config{
		Path: indexPath,
		Segment: segment.Config{
			Language:      settings.Index.DefaultLanguage,
			DictPath:      settings.Index.DictPath,
			UserDictPath:  settings.Index.UserDictPath,
			MinTermLength: settings.Index.MinTokenLength,
		},
	})
	if err != nil {
		return fmt.Errorf("open search index: %w", err)
	}
	closers = append(closers, engine.Close)

	// The pipeline shares the engine's tokenizer so keywords come from
	// the same dictionary state the index analyses with.
	pipeline, err := postprocessors.NewDefaultPipeline(engine.Tokenizer())
	if err != nil {
		return fmt.Errorf("build post-processor pipeline: %w", err)
	}

	searchService = services.NewSearchService(engine)
	indexService = services.NewIndexService(store.DocumentStore(), engine)
	documentService = services.NewDocumentService(store.DocumentStore(), store.SourceStore(), engine)
	sourceService = services.NewSourceService(
		store.SourceStore(),
		store.SyncStateStore(),
		store.DocumentStore(),
		engine,
	)
	syncOrchestrator = services.NewSyncOrchestrator(
		store.SourceStore(),
		store.SyncStateStore(),
		store.DocumentStore(),
		store.SyncLogStore(),
		connectors.NewFactory(configStore),
		normalisers.DefaultRegistry(),
		pipeline,
		engine,
		settings.Index.DefaultLanguage,
	)
	schedulerService = services.NewScheduler(domain.SchedulerConfig{
		Enabled: settings.Sync.Enabled,
		TaskConfigs: map[string]domain.TaskConfig{
			domain.TaskIDDocumentSync: {
				Enabled:  settings.Sync.Enabled,
				Schedule: settings.Sync.Schedule,
			},
		},
	}, store.SchedulerStore(), syncOrchestrator)

	return nil
}

func closeServices() {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			logger.Warn("close: %v", err)
		}
	}
	closers = nil
}

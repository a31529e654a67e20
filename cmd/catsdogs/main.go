// Command catsdogs enumerates the cats-vs-dogs image archive into labeled
// example records.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tsawler/go-catsdogs/config"
	"github.com/tsawler/go-catsdogs/storage"
	"github.com/tsawler/go-catsdogs/vision/dataset"
)

// Exit codes.
const (
	exitError     = 1
	exitIntegrity = 2
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Source and output overrides. Empty strings and a negative count defer to the config file.
	rootDir         string
	backend         string
	expectedCorrupt int = -1
	outputPath      string
	outputFormat    string

	// Logger
	logger = zap.NewNop()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "catsdogs",
	Short: "Build labeled examples from the cats-vs-dogs image archive",
	Long: `catsdogs walks an extracted cats-vs-dogs archive, keeps the JPEG files that
carry a JFIF marker in their first bytes and labels them by directory.

The archive is expected to look like:

  <root>/<archive dir>/Cat/**/*.jpg
  <root>/<archive dir>/Dog/**/*.jpg

Files without the marker are counted as corrupt. The run fails when that count
differs from the expected one (1800 for the public archive).`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err = newLogger(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Enumerate the archive and write example records",
	Args:  cobra.NoArgs,
	RunE:  runGenerate,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Enumerate the archive and verify the corrupt image count",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Decode the JPEG header of every enumerated image",
	Long: `audit enumerates the archive like generate, then decodes the header of every
accepted image and reports the ones that fail. With --records it audits the
images listed in a records file instead. It does not change which images are
accepted.`,
	Args: cobra.NoArgs,
	RunE: runAudit,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")

	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Directory holding the extracted archive (or set CATSDOGS_ROOT)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Storage backend: local, minio")
	rootCmd.PersistentFlags().IntVar(&expectedCorrupt, "expected-corrupt", -1, "Expected number of corrupt images (negative uses the config)")

	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Records file to write")
	generateCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Records format: proto, json")

	auditCmd.Flags().StringVar(&auditRecords, "records", "", "Audit a records file written by generate instead of enumerating")
	auditCmd.Flags().StringVarP(&outputFormat, "format", "f", "", "Records format of --records: proto, json")
	auditCmd.Flags().IntVar(&auditWorkers, "workers", 0, "Concurrent header decoders (default: number of CPUs)")
	auditCmd.Flags().IntVar(&auditShow, "show", 20, "Maximum failed paths to print")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(auditCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		var integrityErr *dataset.IntegrityError
		if errors.As(err, &integrityErr) {
			os.Exit(exitIntegrity)
		}
		os.Exit(exitError)
	}
}

// loadConfig reads the config file and applies command line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if rootDir != "" {
		cfg.Source.Root = rootDir
	}
	if backend != "" {
		cfg.Source.Backend = backend
	}
	if expectedCorrupt >= 0 {
		cfg.Enumerate.ExpectedCorrupt = expectedCorrupt
	}
	if outputPath != "" {
		cfg.Output.Path = outputPath
	}
	if outputFormat != "" {
		cfg.Output.Format = outputFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from the logging settings.
func newLogger(cfg config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zcfg.Level = level
	}
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	return zcfg.Build()
}

// openSource loads the config and opens the configured storage backend.
func openSource(cmd *cobra.Command) (*config.Config, storage.FS, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	fsys, err := cfg.OpenStorage(commandContext(cmd))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.Source.Backend, err)
	}

	logger.Debug("Opened source",
		zap.String("backend", cfg.Source.Backend),
		zap.String("root", cfg.Source.Root))

	return cfg, fsys, nil
}

// newEnumerator builds an enumerator with the configured expected count.
func newEnumerator(cfg *config.Config, fsys storage.FS) *dataset.Enumerator {
	return dataset.NewEnumerator(fsys,
		dataset.WithExpectedCorrupt(cfg.Enumerate.ExpectedCorrupt),
		dataset.WithLogger(logger))
}

// commandContext returns the command's context, or a background context when
// the command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

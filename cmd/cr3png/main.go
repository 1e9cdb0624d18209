package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"cr3png/internal/batch"
	"cr3png/internal/config"
	"cr3png/internal/converter"
	"cr3png/internal/decode"
	"cr3png/internal/inspect"
	"cr3png/internal/logger"
	"cr3png/internal/stats"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	inputDir   string
	outputDir  string
	quality    int
	threads    int
	noOptimize bool
	overwrite  bool
	verbose    bool
	quiet      bool
	noProgress bool
)

// rootCmd is the base command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "cr3png",
	Short: "Convert Canon RAW (CR3) files to PNG",
	Long: `cr3png converts Canon RAW (CR3) image files into PNG files using an
external LibRaw decoder, with multi-threaded batch processing, a progress
indicator, and per-file error isolation.

Failures are per-file: a corrupt input never aborts the batch, and a failed
conversion never leaves a partial file at the destination.

Exit codes:
  0  all files converted or skipped
  1  configuration or startup error
  2  run completed but at least one file failed`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConvert(cmd)
	},
}

// scanCmd lists discovered files without converting anything.
var scanCmd = &cobra.Command{
	Use:   "scan [directory]",
	Short: "List CR3 files and their destinations without converting",
	Long: `Scan the input directory (or the given directory) and list the files
that would be converted together with their destination paths. Nothing is
decoded or written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, args)
	},
}

// inspectCmd dumps metadata for a single file.
var inspectCmd = &cobra.Command{
	Use:   "inspect <file>",
	Short: "Show metadata for a specific file",
	Long: `Shows all metadata fields exiftool reports for the given file, plus the
embedded capture timestamp when one can be read. Useful for debugging
files that fail to decode.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInspect(args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&inputDir, "input", "i", "", "input directory containing CR3 files (default: cr3_images)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "output directory for PNG files (default: png_images)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress non-error output")

	rootCmd.Flags().IntVarP(&quality, "quality", "q", 95, "output quality (1-100)")
	rootCmd.Flags().IntVarP(&threads, "threads", "t", 0, "number of worker threads (default: number of CPUs)")
	rootCmd.Flags().BoolVar(&noOptimize, "no-optimize", false, "disable PNG optimization (faster but larger files)")
	rootCmd.Flags().BoolVar(&overwrite, "overwrite", false, "overwrite existing output files")
	rootCmd.Flags().BoolVar(&noProgress, "no-progress", false, "disable the progress bar")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(inspectCmd)
}

// runConvert executes the batch conversion.
func runConvert(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if !cfg.InputDirectoryExists() {
		return fmt.Errorf("input directory does not exist: %s", cfg.InputDirectory)
	}
	if err := os.MkdirAll(cfg.OutputDirectory, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	log := setupLogger(cfg)
	log.Infof("Input directory: %s", cfg.InputDirectory)
	log.Infof("Output directory: %s", cfg.OutputDirectory)

	tasks, err := batch.Discover(cfg.InputDirectory, cfg.OutputDirectory, cfg.RawExtension, log)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		log.Warnf("No %s files found in %s", cfg.RawExtension, cfg.InputDirectory)
		return nil
	}
	log.Infof("Found %d %s file(s) to process", len(tasks), cfg.RawExtension)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary := stats.NewSummary()
	decoder := decode.NewRawDecoder(cfg.DecoderCommand, log)
	inspector := inspect.NewInspector(log)
	conv := converter.NewDefaultConverterWithMetadata(decoder, log, inspector)

	showProgress := cfg.ShowProgress && !quiet && !noProgress
	runner := batch.NewRunner(conv, log, summary, cfg.Workers, showProgress)

	opts := converter.Options{
		Quality:   cfg.Quality,
		Optimize:  cfg.Optimize,
		Overwrite: cfg.Overwrite,
		Verbose:   verbose,
	}

	runErr := runner.Run(ctx, tasks, opts)

	if !quiet {
		fmt.Println("\n" + summary.GetSummary())
	}
	if summary.HasFailures() {
		log.Warn("Some files failed to convert. Check the log for details.")
	}

	return runErr
}

// runScan lists the files a conversion run would process.
func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.InputDirectory = args[0]
	}

	log := setupLogger(cfg)

	tasks, err := batch.Discover(cfg.InputDirectory, cfg.OutputDirectory, cfg.RawExtension, log)
	if err != nil {
		return err
	}

	for _, task := range tasks {
		fmt.Printf("%s -> %s\n", task.SourcePath, task.DestPath)
	}
	fmt.Printf("\n%d file(s) found in %s\n", len(tasks), cfg.InputDirectory)
	return nil
}

// runInspect prints metadata for a single file.
func runInspect(filePath string) error {
	log := logrus.New()
	if !verbose {
		log.SetLevel(logrus.WarnLevel)
	}

	inspector := inspect.NewInspector(log)

	fields, err := inspector.Describe(filePath)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", filePath, err)
	}
	fmt.Print(inspect.FormatFields(fields))

	if captured, ok := inspector.CaptureTime(filePath); ok {
		fmt.Printf("\nCapture time: %s\n", captured.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("\nNo capture time found in EXIF data")
	}

	return nil
}

// loadConfig loads configuration and applies CLI overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if inputDir != "" {
		cfg.InputDirectory = inputDir
	}
	if outputDir != "" {
		cfg.OutputDirectory = outputDir
	}
	if cmd.Flags().Changed("quality") {
		cfg.Quality = quality
	}
	if cmd.Flags().Changed("threads") {
		cfg.Workers = threads
	}
	if noOptimize {
		cfg.Optimize = false
	}
	if overwrite {
		cfg.Overwrite = true
	}

	// Re-validate so out-of-range flag values are rejected before any
	// file is touched.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setupLogger configures and returns a logger.
func setupLogger(cfg *config.Config) *logrus.Logger {
	loggerCfg := logger.LoggerConfig{
		Level:      cfg.Logging.Level,
		FilePath:   cfg.Logging.FilePath,
		MaxSize:    cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAge:     cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
		Console:    !quiet,
	}

	if verbose {
		loggerCfg.Level = "debug"
	}
	if quiet {
		loggerCfg.Level = "error"
	}

	log, err := logger.NewLogger(loggerCfg)
	if err != nil {
		log = logrus.New()
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, batch.ErrPartialFailure) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

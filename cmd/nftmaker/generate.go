package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"nftmaker/pkg/config"
	"nftmaker/pkg/logger"
	"nftmaker/pkg/metrics"
	"nftmaker/pkg/scraper"
	"nftmaker/pkg/ui"
)

// generateOptions holds the generate command flags
type generateOptions struct {
	outputDir   string
	baseURL     string
	startID     int
	total       int
	copies      int
	delay       time.Duration
	dryRun      bool
	createDir   bool
	metricsFile string
}

func newGenerateCmd(root *rootOptions) *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Fetch catalog entities and write their metadata files",
		Long: `Fetch every entity from --start through --total and write --copies metadata
documents for each one.

Copy c of entity id is written to metadata_<id*copies+c>.json in the output
directory. Existing files are overwritten. Entities that cannot be fetched
or are missing required fields are skipped.`,
		Example: `  # Generate the full catalog with default settings
  nftmaker generate

  # First generation only, five copies each, into ./out
  nftmaker generate --total 151 --copies 5 --output ./out --create-dir

  # Slow down to one request every 500ms
  nftmaker generate --delay 500ms

  # Check what would be generated without writing files
  nftmaker generate --total 10 --dry-run --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, root, opts)
		},
	}

	addGenerateFlags(cmd, opts)
	return cmd
}

func addGenerateFlags(cmd *cobra.Command, opts *generateOptions) {
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "output directory for metadata files (default: metadata_files)")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "catalog endpoint, identifiers are appended to it")
	cmd.Flags().IntVar(&opts.startID, "start", 0, "first identifier to fetch (default: 1)")
	cmd.Flags().IntVar(&opts.total, "total", 0, "last identifier to fetch (default: 1025)")
	cmd.Flags().IntVar(&opts.copies, "copies", 0, "metadata copies per entity (default: 10)")
	cmd.Flags().DurationVar(&opts.delay, "delay", 0, "pause before each request, 0 disables pacing (default: 100ms)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "generate documents without writing files")
	cmd.Flags().BoolVar(&opts.createDir, "create-dir", false, "create the output directory if it does not exist")
	cmd.Flags().StringVar(&opts.metricsFile, "metrics-file", "", "write run metrics to this Prometheus textfile")
}

// flagMap returns only the flags the user actually set
func (o *generateOptions) flagMap(cmd *cobra.Command, root *rootOptions) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := cmd.Flags().Changed

	if changed("output") {
		flags["output"] = o.outputDir
	}
	if changed("base-url") {
		flags["base-url"] = o.baseURL
	}
	if changed("start") {
		flags["start"] = o.startID
	}
	if changed("total") {
		flags["total"] = o.total
	}
	if changed("copies") {
		flags["copies"] = o.copies
	}
	if changed("delay") {
		flags["delay"] = o.delay
	}
	if changed("dry-run") {
		flags["dry-run"] = o.dryRun
	}
	if changed("create-dir") {
		flags["create-dir"] = o.createDir
	}
	if changed("metrics-file") {
		flags["metrics-file"] = o.metricsFile
	}
	if root.logLevel != "" {
		flags["log-level"] = root.logLevel
	}
	return flags
}

func runGenerate(cmd *cobra.Command, root *rootOptions, opts *generateOptions) error {
	cfg, err := config.Load(root.configFile, opts.flagMap(cmd, root))
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		ui.PrintError("Failed to initialize logger", err.Error())
		return err
	}
	log := logger.GetLogger()
	log.WithField("version", version).Info("nftmaker starting")

	ui.PrintInfo("Catalog", cfg.API.BaseURL)
	ui.PrintInfo("Identifiers", fmt.Sprintf("%d-%d", cfg.Catalog.StartID, cfg.Catalog.TotalEntities))
	ui.PrintInfo("Copies per entity", fmt.Sprintf("%d", cfg.Catalog.CopiesPerEntity))
	ui.PrintInfo("Output directory", cfg.Output.Directory)
	if cfg.Output.DryRun {
		ui.PrintWarning("Dry run, no files will be written")
	}

	rec := metrics.New()
	tracker := ui.NewStatusTracker(cfg.Catalog.TotalEntities - cfg.Catalog.StartID + 1)

	s, err := scraper.NewFromConfig(cfg, log, scraper.WithMetrics(rec), scraper.WithTracker(tracker))
	if err != nil {
		log.WithError(err).Error("Failed to initialize generator")
		ui.PrintError("Failed to initialize generator", err.Error())
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintHighlight("[GENERATING METADATA]")
	summary, runErr := s.Run(ctx)
	tracker.PrintSummary()

	if cfg.Metrics.TextFile != "" {
		if err := rec.WriteTextfile(cfg.Metrics.TextFile); err != nil {
			log.WithError(err).WithField("path", cfg.Metrics.TextFile).Warn("Failed to write metrics file")
		}
	}

	if runErr != nil {
		log.WithError(runErr).ErrorWithFields("Metadata generation failed", map[string]interface{}{
			"processed": summary.Processed,
			"written":   summary.Written,
		})
		ui.PrintError("GENERATION FAILED", runErr.Error())
		return runErr
	}

	if len(summary.Skipped) > 0 {
		ui.PrintWarning("Skipped entities", fmt.Sprintf("%v", summary.Skipped))
	}
	ui.PrintSuccess("[GENERATION COMPLETED SUCCESSFULLY]")
	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"nftmaker/pkg/config"
	"nftmaker/pkg/ui"
)

const exampleConfig = `# nftmaker configuration file
#
# Every option can also be set through environment variables prefixed with
# NFTMAKER_, for example NFTMAKER_TOTAL_ENTITIES or NFTMAKER_OUTPUT_DIR.
# Command line flags take precedence over both.

# Catalog API
api:
  # Identifiers are appended to this URL, keep the trailing slash
  base_url: "https://pokeapi.co/api/v2/pokemon/"

  # Per-request timeout
  timeout: 30s

  # User agent string (optional)
  user_agent: ""

# Identifier range and copies
catalog:
  # First identifier to fetch
  start_id: 1

  # Last identifier to fetch
  total_entities: 1025

  # Metadata documents written per entity
  # Copy c of entity id goes to file number id*copies+c
  copies_per_entity: 10

# Request pacing
rate_limit:
  # fixed_delay, token_bucket or sliding_window
  strategy: "fixed_delay"

  # Pause before each request (fixed_delay)
  delay: 100ms

  # Budget per window (token_bucket, sliding_window)
  requests_per_window: 100
  window: 1m

  # Turn pacing off entirely
  disabled: false

# Output settings
output:
  # Directory for metadata files, must exist unless create_directory is set
  directory: "metadata_files"

  # {n} is replaced by the file number
  file_name_pattern: "metadata_{n}.json"

  create_directory: false

  # Generate without writing files
  dry_run: false

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional)
  # Leave empty to log to stdout only
  file: ""

# Metrics export
metrics:
  # Prometheus textfile written at the end of a run (optional)
  text_file: ""
`

func newConfigCmd(root *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		Long: `Manage nftmaker configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (NFTMAKER_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create an example configuration file",
		Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'nftmaker.yaml'
unless a different path is specified with the --config flag.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(root)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long: `Show the effective configuration after merging all sources:
  - Environment variables
  - Configuration file
  - Default values`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, root)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Identifier range and copy count
  - Rate limit settings
  - Output directory accessibility`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigValidate(cmd, root)
		},
	}

	configCmd.AddCommand(initCmd, showCmd, validateCmd)
	return configCmd
}

func runConfigInit(root *rootOptions) error {
	configPath := root.configFile
	if configPath == "" {
		configPath = "nftmaker.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		return fmt.Errorf("configuration file %s already exists", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		return err
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, root *rootOptions) error {
	cfg, err := config.Load(root.configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		return err
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, root *rootOptions) error {
	configPath := root.configFile
	if configPath == "" {
		configPath = config.FindConfigFile()
		if configPath == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			return fmt.Errorf("no configuration file found")
		}
	}

	ui.PrintInfo("Validating configuration", configPath)

	cfg, err := config.Load(configPath, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		return err
	}

	var warnings []string
	if cfg.RateLimit.Disabled {
		warnings = append(warnings, "rate limiting is disabled, requests are sent back to back")
	}
	if info, err := os.Stat(cfg.Output.Directory); err != nil || !info.IsDir() {
		if !cfg.Output.CreateDirectory && !cfg.Output.DryRun {
			ui.PrintError("Output directory does not exist", cfg.Output.Directory)
			return fmt.Errorf("output directory %s does not exist, create it or set output.create_directory", cfg.Output.Directory)
		}
		warnings = append(warnings, fmt.Sprintf("output directory %s will be created", cfg.Output.Directory))
	}

	for _, w := range warnings {
		ui.PrintWarning("Warning", w)
	}

	ui.PrintSuccess("Configuration is valid")

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\nConfiguration summary:")
	fmt.Fprintf(out, "  Identifiers: %d-%d\n", cfg.Catalog.StartID, cfg.Catalog.TotalEntities)
	fmt.Fprintf(out, "  Copies per entity: %d\n", cfg.Catalog.CopiesPerEntity)
	fmt.Fprintf(out, "  Rate limit: %s\n", describeRateLimit(cfg.RateLimit))
	fmt.Fprintf(out, "  Output directory: %s\n", cfg.Output.Directory)
	fmt.Fprintf(out, "  Log level: %s\n", cfg.Logging.Level)
	return nil
}

func describeRateLimit(rl config.RateLimitConfig) string {
	switch {
	case rl.Disabled:
		return "disabled"
	case rl.Strategy == config.StrategyFixedDelay:
		return fmt.Sprintf("%s delay", rl.Delay)
	default:
		return fmt.Sprintf("%s, %d requests per %s", rl.Strategy, rl.RequestsPerWindow, rl.Window)
	}
}

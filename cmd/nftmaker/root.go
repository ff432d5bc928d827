package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"nftmaker/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	configFile string
	logLevel   string
	quiet      bool
}

// newRootCmd builds the command tree. Running the root command without a
// subcommand runs generate.
func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	genOpts := &generateOptions{}

	rootCmd := &cobra.Command{
		Use:   "nftmaker",
		Short: "Generate NFT metadata files from the Pokemon catalog",
		Long: `nftmaker walks a range of catalog identifiers, fetches each entity from the
Pokemon API and writes one JSON metadata document per copy.

Features:
  - Rarity tier derived from base experience
  - Configurable number of copies per entity
  - Fixed delay, token bucket or sliding window pacing
  - Failed entities are logged and skipped
  - Optional Prometheus textfile with run metrics`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.quiet {
				ui.SetQuietMode(true)
				if opts.logLevel == "" {
					opts.logLevel = "error"
				}
			}

			// Don't show logo for certain commands
			if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" {
				ui.PrintLogo()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts, genOpts)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default is ./nftmaker.yaml or $HOME/.config/nftmaker/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except errors")

	// The root command accepts the generate flags too, so a bare
	// `nftmaker --total 151` works.
	addGenerateFlags(rootCmd, genOpts)

	rootCmd.AddCommand(newGenerateCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	rootCmd.SetVersionTemplate(`nftmaker {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	return rootCmd
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

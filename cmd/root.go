// Package cmd implements the tokenforge CLI commands using Cobra.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	tfconfig "github.com/lapidist/tokenforge/internal/adapters/config"
	"github.com/lapidist/tokenforge/internal/core/entities"
)

// Build-time version information, set via SetVersionInfo from main.go.
var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
	appBuiltBy = "unknown"
)

// Persistent flag values accessible to all subcommands.
var (
	cfgFile     string
	ProjectRoot string
	Verbose     bool
)

// activeConfig is the layered configuration resolved once per invocation
// by initConfig and read by every subcommand's RunE.
var activeConfig *entities.ProjectConfig

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tokenforge",
	Short: "Design token build pipeline",
	Long: `tokenforge resolves layered design-token sources into a merged token
set, tracks cross-token dependencies, runs transforms and formatters, and
evaluates governance policies over the result.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig(cmd)
	},
	SilenceUsage: true,
}

func init() {
	// Persistent flags available to all subcommands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file; when set, no config file is read and the built-in defaults are used")
	rootCmd.PersistentFlags().StringVarP(&ProjectRoot, "project", "p", ".", "project root directory")
	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "v", false, "enable verbose output")

	// Command groups for organized help output.
	rootCmd.AddGroup(
		&cobra.Group{ID: "building", Title: "Building"},
		&cobra.Group{ID: "inspecting", Title: "Inspecting"},
	)
}

// Execute runs the root command. This is the main entry point called from main.go.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets build-time version information from ldflags.
// Call this from main.go before Execute().
func SetVersionInfo(version, commit, date, builtBy string) {
	appVersion = version
	appCommit = commit
	appDate = date
	appBuiltBy = builtBy

	rootCmd.Version = version
	rootCmd.SetVersionTemplate(
		fmt.Sprintf("tokenforge %s (commit: %s, built: %s by %s)\n", version, commit, date, builtBy),
	)
}

// initConfig resolves the configuration hierarchy: project tokenforge.toml >
// global XDG config.toml > defaults (spec §10.3). The ConfigLoader adapter
// owns the file reads and TOML decoding. No environment variable overrides
// are applied. When --config is set, no file is read at all: the built-in
// defaults are used as-is.
func initConfig(cmd *cobra.Command) error {
	loader := tfconfig.NewLoader()

	if cfgFile != "" {
		config := entities.DefaultProjectConfig()
		activeConfig = config
		return nil
	}

	config, err := loader.LoadConfig(cmd.Context(), ProjectRoot)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	activeConfig = config
	return nil
}

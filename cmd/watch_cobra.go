package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lapidist/tokenforge/internal/adapters/cli"
	"github.com/lapidist/tokenforge/internal/core/entities"
	"github.com/lapidist/tokenforge/internal/core/usecases"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"w"},
	Short:   "Watch sources and rebuild on change",
	Long:    "Watch the configured source paths for changes and rerun the build pipeline on each one, debounced.",
	GroupID: "building",
	Example: `  tokenforge watch
  tokenforge watch --output ./dist`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringP("output", "o", "", "output directory (overrides config)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	config := activeConfig
	if config == nil {
		config = entities.DefaultProjectConfig()
	}
	outputDir := config.Output.DefaultDirectory
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		outputDir = output
	}

	p := newPipeline(ProjectRoot, config, Verbose)
	reporter := cli.NewProgressReporter()
	formatter := cli.NewReportFormatter()

	runBuildOnce := func() {
		start := time.Now()
		report, err := p.build.Execute(cmd.Context(), usecases.BuildRequest{
			ExecutionID:        uuid.NewString(),
			Layers:             config.Layers,
			Sources:            config.Sources,
			FormatterInstances: config.Formatters,
			PolicyInstances:    config.Policies,
			OutputDirectory:    outputDir,
		})
		if err != nil {
			reporter.ReportError(err)
			return
		}
		report.Stats.Duration = time.Since(start)
		formatter.PrintBuildReport(report.Stats)
	}

	reporter.ReportInfo("running initial build")
	runBuildOnce()

	watcher := newWatcher()
	rebuild := make(chan struct{}, 1)

	sub, err := watcher.Watch(cmd.Context(), []string{ProjectRoot}, usecases.WatchOptions{Cwd: ProjectRoot}, func(event usecases.WatchEvent) {
		select {
		case rebuild <- struct{}{}:
		default:
		}
	}, func(err error) {
		reporter.ReportError(err)
	})
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer sub.Close()

	reporter.ReportInfo("watching for changes, press ctrl-c to stop")
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case <-rebuild:
			reporter.ReportInfo("change detected, rebuilding")
			runBuildOnce()
		}
	}
}

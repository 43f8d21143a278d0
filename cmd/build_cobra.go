package cmd

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lapidist/tokenforge/internal/adapters/cli"
	tfconfig "github.com/lapidist/tokenforge/internal/adapters/config"
	"github.com/lapidist/tokenforge/internal/adapters/policyrules"
	"github.com/lapidist/tokenforge/internal/core/entities"
	"github.com/lapidist/tokenforge/internal/core/usecases"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Resolve tokens and run the transform/formatter pipeline",
	Long:    "Plan sources, resolve tokens across layers, run transforms and formatters, and evaluate policies.",
	GroupID: "building",
	Example: `  tokenforge build
  tokenforge build --clean
  tokenforge build --output ./dist --transform-group web`,
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().Bool("clean", false, "rebuild everything, skipping the transform cache")
	buildCmd.Flags().StringP("output", "o", "", "output directory (overrides config)")
	buildCmd.Flags().String("transform-group", "", "only run transforms registered under this group")
	buildCmd.Flags().Bool("transitive", true, "expand changed pointers transitively through the dependency graph")
	buildCmd.Flags().Int("max-depth", -1, "maximum dependency expansion depth (-1 for unlimited)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	config := activeConfig
	if config == nil {
		config = entities.DefaultProjectConfig()
	}

	outputDir := config.Output.DefaultDirectory
	if output, _ := cmd.Flags().GetString("output"); output != "" {
		outputDir = output
	}
	transformGroup, _ := cmd.Flags().GetString("transform-group")
	clean, _ := cmd.Flags().GetBool("clean")
	transitive, _ := cmd.Flags().GetBool("transitive")
	maxDepth, _ := cmd.Flags().GetInt("max-depth")

	policyInstances := config.Policies
	rulePacks, err := policyrules.LoadRulePacksDir(tfconfig.NewXDGPathResolver().RulePacksDir())
	if err != nil {
		return fmt.Errorf("loading rule packs: %w", err)
	}
	policyInstances = append(policyInstances, rulePacks...)

	p := newPipeline(ProjectRoot, config, Verbose)
	reporter := cli.NewProgressReporter()

	start := time.Now()
	reporter.ReportInfo("starting build")

	report, err := p.build.Execute(cmd.Context(), usecases.BuildRequest{
		ExecutionID:        uuid.NewString(),
		Layers:             config.Layers,
		Sources:            config.Sources,
		TransformGroup:     transformGroup,
		ExpansionPolicy:    entities.ExpansionPolicy{Transitive: transitive, MaxDepth: maxDepth},
		FormatterInstances: config.Formatters,
		PolicyInstances:    policyInstances,
		OutputDirectory:    outputDir,
		SkipCache:          clean,
	})
	if err != nil {
		reporter.ReportError(err)
		return fmt.Errorf("running build pipeline: %w", err)
	}

	report.Stats.Duration = time.Since(start)
	reporter.ReportSuccess("build complete")

	formatter := cli.NewReportFormatter()
	formatter.PrintBuildReport(report.Stats)
	if len(report.PolicyResults) > 0 {
		formatter.PrintPolicyReport(report.PolicyResults, report.PolicySummary)
		if report.PolicySummary.Errors > 0 {
			return fmt.Errorf("policy evaluation reported %d error(s)", report.PolicySummary.Errors)
		}
	}

	return nil
}

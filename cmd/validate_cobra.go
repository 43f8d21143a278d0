package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

var (
	validateStrict   bool
	validateExitCode bool
)

var validateCmd = &cobra.Command{
	Use:     "validate",
	Aliases: []string{"val"},
	Short:   "Validate configured sources and token resolution",
	Long: `Plan and resolve the configured sources, reporting repository issues,
schema validation issues, and resolution diagnostics (unresolved references,
alias cycles) without running transforms or formatters.

Flags:
  --strict      Treat resolution diagnostics as failures
  --exit-code   Return non-zero exit code on any reported issue`,
	GroupID: "building",
	Example: `  tokenforge validate
  tokenforge validate --project ./myproject
  tokenforge validate --strict --exit-code    # for CI`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&validateStrict, "strict", false, "treat resolution diagnostics as failures")
	validateCmd.Flags().BoolVar(&validateExitCode, "exit-code", false, "exit with non-zero status on validation failures")
}

func runValidate(cmd *cobra.Command, args []string) error {
	config := activeConfig
	if config == nil {
		config = entities.DefaultProjectConfig()
	}

	planner, resolver := newPlannerResolver()

	sourcePlan, err := planner.Execute(cmd.Context(), config.Layers, config.Sources)
	if err != nil {
		return fmt.Errorf("planning sources: %w", err)
	}

	for _, issue := range sourcePlan.Issues {
		fmt.Printf("repository: [%s] %s: %s\n", issue.SourceID, issue.URI, issue.Message)
	}
	for _, issue := range sourcePlan.Validity {
		fmt.Printf("schema: [%s] %s %s: %s\n", issue.SourceID, issue.URI, issue.Pointer, issue.Message)
	}

	resolved, err := resolver.Execute(cmd.Context(), sourcePlan)
	if err != nil {
		return fmt.Errorf("resolving tokens: %w", err)
	}
	for _, diag := range resolved.Diagnostics {
		fmt.Printf("resolution: %s: %s\n", diag.Pointer, diag.Message)
	}

	issueCount := len(sourcePlan.Issues) + len(sourcePlan.Validity)
	diagCount := len(resolved.Diagnostics)
	fmt.Printf("\n%d repository/schema issue(s), %d resolution diagnostic(s)\n", issueCount, diagCount)

	failed := issueCount > 0 || (validateStrict && diagCount > 0)
	if failed && validateExitCode {
		return fmt.Errorf("validation failed")
	}
	return nil
}

package cmd

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/cobra"

	"github.com/lapidist/tokenforge/internal/adapters/cli"
	tfconfig "github.com/lapidist/tokenforge/internal/adapters/config"
	"github.com/lapidist/tokenforge/internal/core/entities"
	"github.com/lapidist/tokenforge/internal/core/usecases"
)

var diffCmd = &cobra.Command{
	Use:     "diff <baseline-dir>",
	Short:   "Diff resolved tokens against a baseline project directory",
	GroupID: "inspecting",
	Long: `Resolve the configured sources in the current project and in a baseline
project directory, then report additions, removals, renames, and modified
fields between the two merged token sets (spec §4.6).`,
	Args: cobra.ExactArgs(1),
	Example: `  tokenforge diff ../tokens-v1
  tokenforge diff ../tokens-v1 --impact breaking
  tokenforge diff ../tokens-v1 --type color --type dimension`,
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringSlice("type", nil, "only diff tokens of these types")
	diffCmd.Flags().StringSlice("path", nil, "only diff pointers matching these glob patterns")
	diffCmd.Flags().StringSlice("group", nil, "only diff tokens whose pointer's first segment is one of these groups")
	diffCmd.Flags().StringSlice("impact", nil, "only report entries with this impact (breaking, non-breaking)")
	diffCmd.Flags().StringSlice("kind", nil, "only report entries of this kind (addition, removal, modification, rename)")
	diffCmd.Flags().String("version", "", "current semver version; if set, prints the next version for the recommended bump")
}

func runDiff(cmd *cobra.Command, args []string) error {
	baselineRoot := args[0]

	prev, err := resolveMergedTokens(cmd, baselineRoot)
	if err != nil {
		return fmt.Errorf("resolving baseline %s: %w", baselineRoot, err)
	}
	next, err := resolveMergedTokens(cmd, ProjectRoot)
	if err != nil {
		return fmt.Errorf("resolving project: %w", err)
	}

	filter, err := diffFilterFromFlags(cmd)
	if err != nil {
		return err
	}

	differ := usecases.NewDiffTokens()
	result := differ.Execute(prev, next, filter)

	formatter := cli.NewReportFormatter()
	formatter.PrintDiffReport(result)

	if current, _ := cmd.Flags().GetString("version"); current != "" {
		next, err := nextVersion(current, result.Summary.RecommendedBump)
		if err != nil {
			return fmt.Errorf("computing next version: %w", err)
		}
		fmt.Printf("\nnext version: %s\n", next)
	}

	return nil
}

// nextVersion applies the diff's recommended bump to a semver version
// string using the real semver library, rather than a hand-rolled
// major/minor/patch parser.
func nextVersion(current string, bump entities.VersionBump) (string, error) {
	version, err := semver.NewVersion(current)
	if err != nil {
		return "", fmt.Errorf("parsing version %q: %w", current, err)
	}

	var next semver.Version
	switch bump {
	case entities.BumpMajor:
		next = version.IncMajor()
	case entities.BumpMinor:
		next = version.IncMinor()
	case entities.BumpPatch:
		next = version.IncPatch()
	default:
		next = *version
	}
	return next.String(), nil
}

// resolveMergedTokens loads a project's configuration and runs the
// planner and resolver stages, returning its merged token set.
func resolveMergedTokens(cmd *cobra.Command, projectRoot string) (*entities.TokenSet, error) {
	loader := tfconfig.NewLoader()
	config, err := loader.LoadConfig(cmd.Context(), projectRoot)
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	planner, resolver := newPlannerResolver()
	sourcePlan, err := planner.Execute(cmd.Context(), config.Layers, config.Sources)
	if err != nil {
		return nil, fmt.Errorf("planning sources: %w", err)
	}
	resolved, err := resolver.Execute(cmd.Context(), sourcePlan)
	if err != nil {
		return nil, fmt.Errorf("resolving tokens: %w", err)
	}
	return resolved.Merged(), nil
}

func diffFilterFromFlags(cmd *cobra.Command) (entities.DiffFilter, error) {
	var filter entities.DiffFilter

	types, _ := cmd.Flags().GetStringSlice("type")
	for _, t := range types {
		tt := entities.TokenType(t)
		if !entities.IsValidTokenType(tt) {
			return filter, fmt.Errorf("unknown token type %q", t)
		}
		filter.Types = append(filter.Types, tt)
	}

	filter.Paths, _ = cmd.Flags().GetStringSlice("path")
	filter.Groups, _ = cmd.Flags().GetStringSlice("group")

	impacts, _ := cmd.Flags().GetStringSlice("impact")
	for _, i := range impacts {
		switch entities.Impact(i) {
		case entities.ImpactBreaking, entities.ImpactNonBreaking:
			filter.Impacts = append(filter.Impacts, entities.Impact(i))
		default:
			return filter, fmt.Errorf("unknown impact %q", i)
		}
	}

	kinds, _ := cmd.Flags().GetStringSlice("kind")
	for _, k := range kinds {
		switch entities.DiffKind(k) {
		case entities.DiffKindAddition, entities.DiffKindRemoval, entities.DiffKindModification, entities.DiffKindRename:
			filter.Kinds = append(filter.Kinds, entities.DiffKind(k))
		default:
			return filter, fmt.Errorf("unknown diff kind %q", k)
		}
	}

	return filter, nil
}

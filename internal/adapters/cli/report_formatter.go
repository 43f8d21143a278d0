package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/lapidist/tokenforge/internal/core/entities"
	"github.com/lapidist/tokenforge/internal/core/usecases"
)

// Compile-time interface check
var _ usecases.ReportFormatter = (*ReportFormatter)(nil)

var (
	colorSuccess = lipgloss.Color("#10b981")
	colorWarning = lipgloss.Color("#f59e0b")
	colorError   = lipgloss.Color("#ef4444")
	colorMuted   = lipgloss.Color("#6b7280")
	colorBreak   = lipgloss.Color("#ef4444")
	colorAdd     = lipgloss.Color("#10b981")

	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warnStyle    = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	addStyle     = lipgloss.NewStyle().Foreground(colorAdd)
	breakStyle   = lipgloss.NewStyle().Foreground(colorBreak).Bold(true)
)

// ReportFormatter implements the usecases.ReportFormatter interface,
// rendering pipeline results to the terminal with lipgloss (spec §10.4,
// §11 domain stack).
type ReportFormatter struct{}

// NewReportFormatter creates a new ReportFormatter instance.
func NewReportFormatter() *ReportFormatter {
	return &ReportFormatter{}
}

// PrintBuildReport prints build statistics for one pipeline run.
func (f *ReportFormatter) PrintBuildReport(stats usecases.BuildStats) {
	fmt.Println(titleStyle.Render("Build complete"))
	fmt.Printf("  %s %d\n", mutedStyle.Render("Snapshots:"), stats.SnapshotCount)
	fmt.Printf("  %s %d\n", mutedStyle.Render("Changed pointers:"), stats.ChangedPointers)
	fmt.Printf("  %s %d\n", mutedStyle.Render("Transform results:"), stats.TransformCount)
	fmt.Printf("  %s %d across %d formatters\n", mutedStyle.Render("Artifacts written:"), stats.ArtifactCount, stats.FormatterCount)
	fmt.Printf("  %s %s\n", mutedStyle.Render("Duration:"), stats.Duration.Round(time.Millisecond))
}

// PrintDiffReport renders a token diff result (spec §4.6) with per-entry
// impact coloring and the aggregated summary, ending in the recommended
// version bump.
func (f *ReportFormatter) PrintDiffReport(result entities.DiffResult) {
	for _, entry := range result.Entries {
		fmt.Println(renderDiffEntry(entry))
	}

	s := result.Summary
	fmt.Println()
	fmt.Println(titleStyle.Render("Summary"))
	fmt.Printf("  %s %d  %s %d  %s %d  %s %d  %s %d\n",
		addStyle.Render("added"), s.Added,
		breakStyle.Render("removed"), s.Removed,
		mutedStyle.Render("changed"), s.Changed,
		mutedStyle.Render("renamed"), s.Renamed,
		mutedStyle.Render("unchanged"), s.Unchanged,
	)
	fmt.Printf("  %s %d  %s %d\n",
		breakStyle.Render("breaking"), s.Breaking,
		addStyle.Render("non-breaking"), s.NonBreaking,
	)
	fmt.Printf("  recommended bump: %s\n", renderBump(s.RecommendedBump))
}

func renderDiffEntry(entry entities.DiffEntry) string {
	impact := string(entry.Impact)
	impactRendered := impact
	if entry.Impact == entities.ImpactBreaking {
		impactRendered = breakStyle.Render(impact)
	} else {
		impactRendered = addStyle.Render(impact)
	}

	switch entry.Kind {
	case entities.DiffKindAddition:
		return fmt.Sprintf("  + %s [%s]", entry.ID, impactRendered)
	case entities.DiffKindRemoval:
		return fmt.Sprintf("  - %s [%s]", entry.ID, impactRendered)
	case entities.DiffKindRename:
		return fmt.Sprintf("  → %s renamed to %s [%s]", entry.PreviousID, entry.NextID, impactRendered)
	case entities.DiffKindModification:
		fields := make([]string, 0, len(entry.Changes))
		for field := range entry.Changes {
			fields = append(fields, string(field))
		}
		sort.Strings(fields)
		return fmt.Sprintf("  ~ %s [%s] fields=%v", entry.ID, impactRendered, fields)
	default:
		return fmt.Sprintf("  ? %s", entry.ID)
	}
}

func renderBump(bump entities.VersionBump) string {
	switch bump {
	case entities.BumpMajor:
		return breakStyle.Render(string(bump))
	case entities.BumpMinor, entities.BumpPatch:
		return warnStyle.Render(string(bump))
	default:
		return mutedStyle.Render(string(bump))
	}
}

// PrintPolicyReport renders policy evaluation results (spec §4.7), one
// line per violation grouped by the rule that reported it, followed by
// the severity-tallied summary.
func (f *ReportFormatter) PrintPolicyReport(results []entities.PolicyExecutionResult, summary entities.PolicySummary) {
	for _, r := range results {
		if len(r.Violations) == 0 {
			fmt.Printf("  %s %s: no violations\n", successStyle.Render("✓"), r.Rule)
			continue
		}
		for _, v := range r.Violations {
			fmt.Println(renderViolation(v))
		}
	}

	fmt.Println()
	fmt.Printf("%s %d  %s %d  %s %d\n",
		errorStyle.Render("errors"), summary.Errors,
		warnStyle.Render("warnings"), summary.Warnings,
		mutedStyle.Render("info"), summary.Infos,
	)
}

func renderViolation(v entities.PolicyViolation) string {
	var sev string
	switch v.Severity {
	case entities.SeverityError:
		sev = errorStyle.Render(string(v.Severity))
	case entities.SeverityWarning:
		sev = warnStyle.Render(string(v.Severity))
	default:
		sev = mutedStyle.Render(string(v.Severity))
	}
	return fmt.Sprintf("  [%s] %s %s — %s", sev, v.Policy, v.Pointer, v.Message)
}

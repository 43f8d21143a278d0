package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// ExecuteFormatters is the Formatter Orchestrator (spec §4.5). It separates
// planning (resolving configured instances to definitions) from execution
// (running each plan and enriching its artifacts), and delegates all
// filesystem writes to an ArtifactWriter so the core stays side-effect free.
type ExecuteFormatters struct {
	factories map[string]FormatterDefinitionFactory
	writer    ArtifactWriter
}

// NewExecuteFormatters creates an empty Formatter Orchestrator.
func NewExecuteFormatters(writer ArtifactWriter) *ExecuteFormatters {
	return &ExecuteFormatters{factories: make(map[string]FormatterDefinitionFactory), writer: writer}
}

// RegisterFactory associates a formatter name with the factory that builds
// its definition.
func (e *ExecuteFormatters) RegisterFactory(name string, factory FormatterDefinitionFactory) {
	e.factories[name] = factory
}

// Plan resolves every configured formatter instance to a FormatterPlan
// (spec §4.5 "Planner"). Unknown formatter names are a fatal configuration
// error (spec §7).
func (e *ExecuteFormatters) Plan(ctx context.Context, instances []entities.FormatterInstanceConfig, runContext FormatterRunContext) ([]entities.FormatterPlan, error) {
	plans := make([]entities.FormatterPlan, 0, len(instances))
	counts := make(map[string]int)

	for _, instance := range instances {
		factory, ok := e.factories[instance.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", entities.ErrUnknownFormatter, instance.Name)
		}
		definition, err := factory.Create(ctx, instance, runContext)
		if err != nil {
			return nil, fmt.Errorf("formatter %q: %w", instance.Name, err)
		}

		index := counts[instance.Name]
		counts[instance.Name] = index + 1

		plans = append(plans, entities.FormatterPlan{
			ID:         entities.NewFormatterPlanID(instance.Name, index),
			Name:       instance.Name,
			Definition: definition,
			Output:     instance.Output,
		})
	}

	return plans, nil
}

// Execute runs every plan against the shared snapshot set, enriches each
// resulting artifact with its owning plan ID and formatter name (without
// mutating the definition's own return value), and writes everything
// through the ArtifactWriter (spec §4.5 "Executor"). A single plan's
// failure (definition run or write) aborts only that plan's execution;
// artifacts from every other plan are still produced and written (spec §7
// "Formatter errors (per execution)").
func (e *ExecuteFormatters) Execute(ctx context.Context, executionID string, baseDir string, plans []entities.FormatterPlan, snapshots *entities.TokenSet, transformsByPointer map[entities.Pointer]map[string]any) ([]string, error) {
	var written []string
	var errs []error

	for _, plan := range plans {
		tokens := tokensForFormatter(plan.Definition.Selector, snapshots, transformsByPointer)

		produced, err := plan.Definition.Run(tokens)
		if err != nil {
			errs = append(errs, fmt.Errorf("formatter plan %q: %w", plan.ID, err))
			continue
		}

		dir := baseDir
		if plan.Output.Directory != "" {
			dir = plan.Output.Directory
		}

		artifacts := make([]entities.FileArtifact, 0, len(produced))
		for _, artifact := range produced {
			enriched := artifact.WithMetadata(map[string]any{
				"formatterPlanId": plan.ID,
				"formatterName":   plan.Name,
				"outputDirectory": dir,
			})
			artifacts = append(artifacts, enriched)
		}

		planWritten, err := e.writer.Write(ctx, executionID, dir, artifacts)
		written = append(written, planWritten...)
		if err != nil {
			errs = append(errs, fmt.Errorf("formatter plan %q: %w", plan.ID, err))
			continue
		}
	}

	return written, errors.Join(errs...)
}

func tokensForFormatter(selector entities.Selector, snapshots *entities.TokenSet, transformsByPointer map[entities.Pointer]map[string]any) []entities.FormatterToken {
	var tokens []entities.FormatterToken
	for _, snap := range snapshots.Snapshots() {
		if !selector.Matches(snap) {
			continue
		}
		var value any
		if snap.Resolution != nil {
			value = snap.Resolution.Value
		} else {
			value = snap.Token.Value
		}
		tokens = append(tokens, entities.FormatterToken{
			Snapshot:   snap,
			Pointer:    snap.Pointer,
			Type:       snap.Token.Type,
			Value:      value,
			Transforms: transformsByPointer[snap.Pointer],
		})
	}
	return tokens
}

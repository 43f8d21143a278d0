package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// BuildPipeline wires the full stage sequence: Planner -> Resolver ->
// Dependency Tracker -> Transform Engine -> Formatter Orchestrator ->
// Artifact Writer, with the Policy Engine running over the resolved
// snapshots in parallel with transform execution (spec §4, §5). Every
// stage transition is published on the EventBus; every suspension point
// honors ctx cancellation (spec §5 "Cancellation").
type BuildPipeline struct {
	planner    *PlanSources
	resolver   *ResolveTokens
	tracker    *TrackDependencies
	transforms *RunTransforms
	formatters *ExecuteFormatters
	policies   *EvaluatePolicies
	bus        *EventBus
	logger     Logger // optional; nil means "don't log stage transitions"
}

// NewBuildPipeline wires a pipeline from its constituent stages.
func NewBuildPipeline(
	planner *PlanSources,
	resolver *ResolveTokens,
	tracker *TrackDependencies,
	transforms *RunTransforms,
	formatters *ExecuteFormatters,
	policies *EvaluatePolicies,
	bus *EventBus,
) *BuildPipeline {
	return &BuildPipeline{
		planner:    planner,
		resolver:   resolver,
		tracker:    tracker,
		transforms: transforms,
		formatters: formatters,
		policies:   policies,
		bus:        bus,
	}
}

// WithLogger attaches a logger that receives one scoped line per stage
// transition, tagged with the triggering build's execution ID (spec §10.1
// ambient stack). A pipeline with no logger attached runs silently aside from
// its EventBus publications.
func (p *BuildPipeline) WithLogger(logger Logger) *BuildPipeline {
	p.logger = logger
	return p
}

// BuildRequest configures one pipeline run.
type BuildRequest struct {
	ExecutionID       string
	Layers            []entities.LayerConfig
	Sources           []entities.SourceConfig
	TransformGroup    string
	ExpansionPolicy   entities.ExpansionPolicy
	FormatterInstances []entities.FormatterInstanceConfig
	PolicyInstances   []entities.PolicyInstanceConfig
	OutputDirectory   string
	SkipCache         bool
}

// BuildReport is the pipeline's top-level result (spec §4 "Build report").
type BuildReport struct {
	ResolvedPlan    *entities.ResolvedPlan
	Dependency      entities.DependencyDiff
	ChangedPointers map[entities.Pointer]bool
	Transforms      []entities.TransformResult
	WrittenArtifacts []string
	PolicyResults   []entities.PolicyExecutionResult
	PolicySummary   entities.PolicySummary
	Diagnostics     []entities.Diagnostic
	Stats           BuildStats
}

// Execute runs every stage in order, publishing stage:start/complete/error
// events, and returns once the formatter outputs are written and the
// policy engine has finished (spec §4, §5, §7).
func (p *BuildPipeline) Execute(ctx context.Context, req BuildRequest) (*BuildReport, error) {
	report := &BuildReport{}

	plan, err := p.runStage(ctx, req.ExecutionID, "plan", func() (any, error) {
		return p.planner.Execute(ctx, req.Layers, req.Sources)
	})
	if err != nil {
		return nil, err
	}
	sourcePlan := plan.(*entities.SourcePlan)

	resolved, err := p.runStage(ctx, req.ExecutionID, "resolve", func() (any, error) {
		return p.resolver.Execute(ctx, sourcePlan)
	})
	if err != nil {
		return nil, err
	}
	report.ResolvedPlan = resolved.(*entities.ResolvedPlan)
	report.Stats.SnapshotCount = len(report.ResolvedPlan.Merged().Pointers())

	dependencyResult, err := p.runStage(ctx, req.ExecutionID, "dependencies", func() (any, error) {
		snapshot := p.tracker.BuildSnapshot(report.ResolvedPlan)
		diff, err := p.tracker.Evaluate(ctx, snapshot)
		if err != nil {
			return nil, err
		}
		return diff, nil
	})
	if err != nil {
		return nil, err
	}
	report.Dependency = dependencyResult.(entities.DependencyDiff)
	report.ChangedPointers = p.tracker.ExpandChanged(report.Dependency, req.ExpansionPolicy)
	report.Stats.ChangedPointers = len(report.ChangedPointers)

	changed := report.ChangedPointers
	if req.SkipCache {
		changed = nil
	}

	var transformResults []entities.TransformResult
	var policyResults []entities.PolicyExecutionResult
	var policySummary entities.PolicySummary
	var transformErr, policyErr error

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		result, err := p.runStage(ctx, req.ExecutionID, "transform", func() (any, error) {
			return p.transforms.Execute(ctx, report.ResolvedPlan.Merged(), changed, req.TransformGroup)
		})
		if err != nil {
			transformErr = err
			return
		}
		transformResults = result.([]entities.TransformResult)
	}()
	go func() {
		defer wg.Done()
		if p.policies == nil || len(req.PolicyInstances) == 0 {
			return
		}
		result, summary, err := p.policies.Execute(ctx, req.PolicyInstances, report.ResolvedPlan.Merged())
		if err != nil {
			policyErr = err
			return
		}
		policyResults = result
		policySummary = summary
	}()
	wg.Wait()

	if transformErr != nil {
		p.publishError("transform", transformErr)
		return nil, transformErr
	}
	if policyErr != nil {
		p.publishError("policy", policyErr)
		return nil, policyErr
	}

	report.Transforms = transformResults
	report.PolicyResults = policyResults
	report.PolicySummary = policySummary
	report.Stats.TransformCount = len(transformResults)

	transformsByPointer := make(map[entities.Pointer]map[string]any)
	for _, t := range transformResults {
		if transformsByPointer[t.Pointer] == nil {
			transformsByPointer[t.Pointer] = make(map[string]any)
		}
		transformsByPointer[t.Pointer][t.Transform] = t.Output
	}

	formatterPlanResult, err := p.runStage(ctx, req.ExecutionID, "formatter:plan", func() (any, error) {
		return p.formatters.Plan(ctx, req.FormatterInstances, FormatterRunContext{
			Snapshots:           report.ResolvedPlan.Merged(),
			TransformsByPointer: transformsByPointer,
		})
	})
	if err != nil {
		return nil, err
	}
	formatterPlans := formatterPlanResult.([]entities.FormatterPlan)
	report.Stats.FormatterCount = len(formatterPlans)

	// A formatter execution error aborts only that formatter's plan (spec §7
	// "Formatter errors ... abort that formatter's execution but not the
	// overall build"); it is surfaced as a diagnostic, not a fatal stage
	// error, and the writer errors already embedded in it (spec §7 "Writer
	// errors (fatal to that execution)") still let sibling plans' artifacts
	// get written, per ExecuteFormatters.Execute.
	var formatterErr error
	writtenResult, err := p.runStage(ctx, req.ExecutionID, "formatter:execute", func() (any, error) {
		written, execErr := p.formatters.Execute(ctx, req.ExecutionID, req.OutputDirectory, formatterPlans, report.ResolvedPlan.Merged(), transformsByPointer)
		formatterErr = execErr
		return written, nil
	})
	if err != nil {
		return nil, err
	}
	report.WrittenArtifacts = writtenResult.([]string)
	report.Stats.ArtifactCount = len(report.WrittenArtifacts)
	if formatterErr != nil {
		report.Diagnostics = append(report.Diagnostics, entities.Diagnostic{
			Level:    entities.DiagnosticError,
			Message:  formatterErr.Error(),
			Scope:    "formatter:execute",
			Category: "formatter",
		})
	}

	if err := p.tracker.Commit(ctx, report.Dependency.Snapshot); err != nil {
		return nil, fmt.Errorf("committing dependency snapshot: %w", err)
	}

	return report, nil
}

// runStage publishes stage:start/complete/error around fn and propagates
// ctx cancellation before invoking it (spec §5 "every suspension point").
func (p *BuildPipeline) runStage(ctx context.Context, executionID string, stage string, fn func() (any, error)) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	stageLog := p.stageLogger(executionID)

	if p.bus != nil {
		p.bus.Publish(entities.StageEvent{Kind: entities.StageStart, Stage: stage})
	}
	if stageLog != nil {
		stageLog.Debug("stage started", "stage", stage)
	}

	result, err := fn()
	if err != nil {
		p.publishError(stage, err)
		if stageLog != nil {
			stageLog.Error("stage failed", err, "stage", stage)
		}
		return nil, err
	}

	if p.bus != nil {
		p.bus.Publish(entities.StageEvent{Kind: entities.StageComplete, Stage: stage})
	}
	if stageLog != nil {
		stageLog.Debug("stage completed", "stage", stage)
	}
	return result, nil
}

// stageLogger scopes the pipeline's logger to one execution, or returns nil
// when no logger is attached (spec §10.1 ambient stack).
func (p *BuildPipeline) stageLogger(executionID string) Logger {
	if p.logger == nil {
		return nil
	}
	if executionID == "" {
		return p.logger
	}
	return p.logger.WithExecution(executionID)
}

func (p *BuildPipeline) publishError(stage string, err error) {
	if p.bus != nil {
		p.bus.Publish(entities.StageEvent{Kind: entities.StageError, Stage: stage, Err: err})
	}
}

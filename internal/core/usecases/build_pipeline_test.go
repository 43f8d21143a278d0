package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// TestBuildPipelineExecute runs the full stage sequence end to end against
// fakes/stubs for every port, at the use-case boundary rather than through
// any adapter.
func TestBuildPipelineExecute(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	repo := fakeRepository{byLayer: map[string]DiscoverResult{
		"core": {Documents: []DiscoveredDocument{
			{URI: "tokens/color/brand.json", Document: map[string]any{
				"brand": map[string]any{"value": "#ff0000", "type": "color"},
			}},
		}},
	}}
	planner := NewPlanSources(repo, nil)
	resolver := NewResolveTokens(nil, nil, fixedClock{at: time.Unix(0, 0)})
	tracker := NewTrackDependencies(nil, fixedClock{at: time.Unix(0, 0)})

	transforms := NewRunTransforms(nil, fixedClock{at: time.Unix(0, 0)})
	transforms.Register(upperCaseTransform())

	writer := &recordingWriter{}
	formatters := NewExecuteFormatters(writer)
	formatters.RegisterFactory("css", stubFormatterFactory{definition: cssFormatterDefinition()})

	policies := NewEvaluatePolicies()
	policies.RegisterFactory("always-warns", stubRuleFactory{name: "always-warns", handle: alwaysViolates("missing owner")})

	bus := NewEventBus()
	var stages []string
	bus.Subscribe(func(event entities.StageEvent) error {
		stages = append(stages, string(event.Kind)+":"+event.Stage)
		return nil
	})

	pipeline := NewBuildPipeline(planner, resolver, tracker, transforms, formatters, policies, bus)

	report, err := pipeline.Execute(context.Background(), BuildRequest{
		ExecutionID: "exec-1",
		Layers:      []entities.LayerConfig{{Name: "core"}},
		Sources: []entities.SourceConfig{{
			ID: "core", Layer: "core", RootDir: "tokens", PointerTemplate: "",
		}},
		ExpansionPolicy:    entities.ExpansionPolicy{Transitive: true, MaxDepth: -1},
		FormatterInstances: []entities.FormatterInstanceConfig{{Name: "css"}},
		PolicyInstances:    []entities.PolicyInstanceConfig{{Rule: "always-warns"}},
		OutputDirectory:    "/out",
	})

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 1, report.Stats.SnapshotCount)
	assert.Len(t, report.Transforms, 1)
	assert.Equal(t, "#FF0000", report.Transforms[0].Output)
	assert.Len(t, report.WrittenArtifacts, 1)
	assert.Equal(t, "tokens.css", report.WrittenArtifacts[0])
	assert.Equal(t, 1, report.PolicySummary.Warnings)
	assert.Contains(t, stages, "stage:complete:plan")
	assert.Contains(t, stages, "stage:complete:resolve")
	assert.Contains(t, stages, "stage:complete:formatter:execute")
}

func TestBuildPipelineFailsOnCanceledContext(t *testing.T) {
	repo := fakeRepository{byLayer: map[string]DiscoverResult{
		"core": {Documents: []DiscoveredDocument{
			{URI: "tokens/color/brand.json", Document: map[string]any{
				"brand": map[string]any{"value": 42, "type": "color"},
			}},
		}},
	}}
	planner := NewPlanSources(repo, nil)
	resolver := NewResolveTokens(nil, nil, fixedClock{at: time.Unix(0, 0)})
	tracker := NewTrackDependencies(nil, fixedClock{at: time.Unix(0, 0)})

	transforms := NewRunTransforms(nil, fixedClock{at: time.Unix(0, 0)})
	transforms.Register(entities.TransformDefinition{
		Name:     "explode",
		Selector: entities.Selector{Types: []entities.TokenType{entities.TokenTypeColor}},
		Run: func(input entities.TransformInput) (any, bool) {
			panic("never reached; Run returning false is the supported failure path")
		},
	})

	writer := &recordingWriter{}
	formatters := NewExecuteFormatters(writer)
	pipeline := NewBuildPipeline(planner, resolver, tracker, transforms, formatters, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Execute(ctx, BuildRequest{
		Layers:  []entities.LayerConfig{{Name: "core"}},
		Sources: []entities.SourceConfig{{ID: "core", Layer: "core", RootDir: "tokens"}},
	})
	require.Error(t, err)
}

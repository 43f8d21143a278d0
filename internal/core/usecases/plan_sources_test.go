package usecases

import (
	"context"
	"testing"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

type fakeRepository struct {
	byLayer map[string]DiscoverResult
}

func (f fakeRepository) Discover(_ context.Context, layer entities.LayerConfig, source entities.SourceConfig) (DiscoverResult, error) {
	return f.byLayer[source.ID], nil
}

func TestPlanSourcesUnknownLayerIsFatal(t *testing.T) {
	planner := NewPlanSources(fakeRepository{}, nil)
	_, err := planner.Execute(context.Background(), nil, []entities.SourceConfig{{ID: "core", Layer: "core"}})

	if _, ok := err.(*entities.UnknownLayerError); !ok {
		t.Fatalf("expected *entities.UnknownLayerError, got %T: %v", err, err)
	}
}

func TestPlanSourcesExpandsPointerTemplate(t *testing.T) {
	repo := fakeRepository{byLayer: map[string]DiscoverResult{
		"core": {Documents: []DiscoveredDocument{
			{URI: "tokens/color/brand.json", Document: map[string]any{"value": "#ff0000"}},
		}},
	}}
	planner := NewPlanSources(repo, nil)

	layers := []entities.LayerConfig{{Name: "core"}}
	sources := []entities.SourceConfig{{
		ID: "core", Layer: "core", RootDir: "tokens", PointerTemplate: "{stem}",
	}}

	plan, err := planner.Execute(context.Background(), layers, sources)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Entries) != 1 {
		t.Fatalf("expected one planned document, got %d", len(plan.Entries))
	}
	if plan.Entries[0].PointerPrefix.String() != "/brand" {
		t.Errorf("expected pointer prefix /brand, got %s", plan.Entries[0].PointerPrefix.String())
	}
}

func TestPlanSourcesMissingPlaceholderIsFatal(t *testing.T) {
	repo := fakeRepository{byLayer: map[string]DiscoverResult{
		"core": {Documents: []DiscoveredDocument{{URI: "tokens/color/brand.json"}}},
	}}
	planner := NewPlanSources(repo, nil)

	layers := []entities.LayerConfig{{Name: "core"}}
	sources := []entities.SourceConfig{{
		ID: "core", Layer: "core", PointerTemplate: "{missing}",
	}}

	_, err := planner.Execute(context.Background(), layers, sources)
	if err == nil {
		t.Fatal("expected a PointerTemplateError for an unresolvable placeholder")
	}
}

func TestPlanSourcesCollectsRepositoryIssuesWithoutAborting(t *testing.T) {
	planner := NewPlanSources(fakeRepository{byLayer: map[string]DiscoverResult{
		"core": {Issues: []entities.RepositoryIssue{{SourceID: "core", Message: "permission denied"}}},
	}}, nil)

	layers := []entities.LayerConfig{{Name: "core"}}
	sources := []entities.SourceConfig{{ID: "core", Layer: "core"}}

	plan, err := planner.Execute(context.Background(), layers, sources)
	if err != nil {
		t.Fatalf("repository issues should not be fatal: %v", err)
	}
	if len(plan.Issues) != 1 {
		t.Fatalf("expected the repository issue to be collected, got %+v", plan.Issues)
	}
}

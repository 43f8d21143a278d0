package usecases

import (
	"context"
	"testing"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

type stubFormatterFactory struct {
	definition entities.FormatterDefinition
}

func (s stubFormatterFactory) Create(context.Context, entities.FormatterInstanceConfig, FormatterRunContext) (entities.FormatterDefinition, error) {
	return s.definition, nil
}

type recordingWriter struct {
	written  []entities.FileArtifact
	baseDirs []string // one baseDir per Write call, in call order
}

func (w *recordingWriter) Write(_ context.Context, _ string, baseDir string, artifacts []entities.FileArtifact) ([]string, error) {
	w.written = append(w.written, artifacts...)
	w.baseDirs = append(w.baseDirs, baseDir)
	paths := make([]string, len(artifacts))
	for i, a := range artifacts {
		paths[i] = a.Path
	}
	return paths, nil
}

func cssFormatterDefinition() entities.FormatterDefinition {
	return entities.FormatterDefinition{
		Name:     "css",
		Selector: entities.Selector{Types: []entities.TokenType{entities.TokenTypeColor}},
		Run: func(tokens []entities.FormatterToken) ([]entities.FileArtifact, error) {
			return []entities.FileArtifact{{Path: "tokens.css", Contents: []byte("/* generated */")}}, nil
		},
	}
}

func TestExecuteFormattersPlanUnknownNameIsFatal(t *testing.T) {
	writer := &recordingWriter{}
	orchestrator := NewExecuteFormatters(writer)

	_, err := orchestrator.Plan(context.Background(), []entities.FormatterInstanceConfig{{Name: "does-not-exist"}}, FormatterRunContext{})
	if err == nil {
		t.Fatal("expected an error for an unregistered formatter name")
	}
}

func TestExecuteFormattersPlanAssignsUniqueIDsPerInstance(t *testing.T) {
	writer := &recordingWriter{}
	orchestrator := NewExecuteFormatters(writer)
	orchestrator.RegisterFactory("css", stubFormatterFactory{definition: cssFormatterDefinition()})

	plans, err := orchestrator.Plan(context.Background(), []entities.FormatterInstanceConfig{{Name: "css"}, {Name: "css"}}, FormatterRunContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plans) != 2 || plans[0].ID == plans[1].ID {
		t.Fatalf("expected two plans with distinct IDs, got %+v", plans)
	}
}

func TestExecuteFormattersExecuteWritesEnrichedArtifacts(t *testing.T) {
	writer := &recordingWriter{}
	orchestrator := NewExecuteFormatters(writer)
	orchestrator.RegisterFactory("css", stubFormatterFactory{definition: cssFormatterDefinition()})

	plans, err := orchestrator.Plan(context.Background(), []entities.FormatterInstanceConfig{{Name: "css"}}, FormatterRunContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshots := setOf(snapshot("/color/brand", "#ff0000", entities.TokenTypeColor))
	written, err := orchestrator.Execute(context.Background(), "exec-1", "/out", plans, snapshots, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(written) != 1 || written[0] != "tokens.css" {
		t.Fatalf("expected tokens.css to be written, got %v", written)
	}
	if len(writer.written) != 1 {
		t.Fatalf("expected one artifact to reach the writer, got %d", len(writer.written))
	}
	meta := writer.written[0].Metadata
	if meta["formatterName"] != "css" || meta["formatterPlanId"] != plans[0].ID {
		t.Errorf("expected the artifact to be enriched with its owning plan, got %+v", meta)
	}
}

func TestExecuteFormattersExecutePlanOutputDirectoryOverridesDefault(t *testing.T) {
	writer := &recordingWriter{}
	orchestrator := NewExecuteFormatters(writer)
	orchestrator.RegisterFactory("css", stubFormatterFactory{definition: cssFormatterDefinition()})

	plans, err := orchestrator.Plan(context.Background(), []entities.FormatterInstanceConfig{
		{Name: "css", Output: entities.FormatterOutput{Directory: "/plan-specific"}},
	}, FormatterRunContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshots := setOf(snapshot("/color/brand", "#ff0000", entities.TokenTypeColor))
	if _, err := orchestrator.Execute(context.Background(), "exec-1", "/out", plans, snapshots, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(writer.baseDirs) != 1 || writer.baseDirs[0] != "/plan-specific" {
		t.Fatalf("expected the plan's own output.directory to win over the run default, got %v", writer.baseDirs)
	}
}

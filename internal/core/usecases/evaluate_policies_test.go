package usecases

import (
	"context"
	"testing"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

type stubRuleFactory struct {
	name   string
	handle PolicyHandler
}

func (s stubRuleFactory) Create(options map[string]any) (PolicyRule, error) {
	return PolicyRule{
		Name: s.name,
		Setup: func(map[string]any) (PolicyHandler, error) {
			return s.handle, nil
		},
	}, nil
}

func alwaysViolates(message string) PolicyHandler {
	return func(input PolicyHandlerInput) ([]entities.PolicyViolation, error) {
		return []entities.PolicyViolation{{
			Policy:   "stub",
			Pointer:  input.Snapshot.Pointer,
			Severity: entities.SeverityWarning,
			Message:  message,
		}}, nil
	}
}

func TestEvaluatePoliciesUnknownRule(t *testing.T) {
	engine := NewEvaluatePolicies()
	snapshots := setOf(snapshot("/color/brand", "#ff0000", entities.TokenTypeColor))

	_, _, err := engine.Execute(context.Background(), []entities.PolicyInstanceConfig{{Rule: "does-not-exist"}}, snapshots)
	if err == nil {
		t.Fatal("expected an error for an unregistered rule name")
	}
}

func TestEvaluatePoliciesAggregatesViolations(t *testing.T) {
	engine := NewEvaluatePolicies()
	engine.RegisterFactory("always-warns", stubRuleFactory{name: "always-warns", handle: alwaysViolates("missing owner")})

	snapshots := setOf(
		snapshot("/color/brand", "#ff0000", entities.TokenTypeColor),
		snapshot("/color/accent", "#00ff00", entities.TokenTypeColor),
	)

	results, summary, err := engine.Execute(context.Background(), []entities.PolicyInstanceConfig{{Rule: "always-warns"}}, snapshots)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one rule result, got %d", len(results))
	}
	if len(results[0].Violations) != 2 {
		t.Fatalf("expected two violations (one per snapshot), got %d", len(results[0].Violations))
	}
	if summary.Warnings != 2 {
		t.Errorf("expected summary.Warnings == 2, got %d", summary.Warnings)
	}
}

func TestEvaluatePoliciesHandlerErrorBecomesViolation(t *testing.T) {
	engine := NewEvaluatePolicies()
	erroring := stubRuleFactory{
		name: "errors-out",
		handle: func(input PolicyHandlerInput) ([]entities.PolicyViolation, error) {
			return nil, context.DeadlineExceeded
		},
	}
	engine.RegisterFactory("errors-out", erroring)

	snapshots := setOf(snapshot("/color/brand", "#ff0000", entities.TokenTypeColor))
	results, summary, err := engine.Execute(context.Background(), []entities.PolicyInstanceConfig{{Rule: "errors-out"}}, snapshots)
	if err != nil {
		t.Fatalf("a handler error should not abort the run: %v", err)
	}
	if len(results[0].Violations) != 1 || results[0].Violations[0].Severity != entities.SeverityError {
		t.Fatalf("expected the handler error to surface as an error-severity violation, got %+v", results[0].Violations)
	}
	if summary.Errors != 1 {
		t.Errorf("expected summary.Errors == 1, got %d", summary.Errors)
	}
}

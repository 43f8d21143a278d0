package usecases

import (
	"context"
	"fmt"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// EvaluatePolicies is the Policy Engine (spec §4.7). It runs every
// configured rule over every resolved snapshot, aggregates violations by
// severity, and never aborts the run on one rule's failure: a handler
// error or panic becomes an error-severity violation attached to that rule
// instead.
type EvaluatePolicies struct {
	factories map[string]PolicyRuleFactory
}

// NewEvaluatePolicies creates an empty Policy Engine.
func NewEvaluatePolicies() *EvaluatePolicies {
	return &EvaluatePolicies{factories: make(map[string]PolicyRuleFactory)}
}

// RegisterFactory associates a policy rule name with the factory that
// builds it.
func (e *EvaluatePolicies) RegisterFactory(name string, factory PolicyRuleFactory) {
	e.factories[name] = factory
}

// Execute runs every configured rule, in configuration order, over
// snapshots. Unknown rule names are a fatal configuration error (spec §7);
// everything else a rule does is collected, never fatal.
func (e *EvaluatePolicies) Execute(ctx context.Context, instances []entities.PolicyInstanceConfig, snapshots *entities.TokenSet) ([]entities.PolicyExecutionResult, entities.PolicySummary, error) {
	results := make([]entities.PolicyExecutionResult, 0, len(instances))
	var all []entities.PolicyViolation

	for _, instance := range instances {
		factory, ok := e.factories[instance.Rule]
		if !ok {
			return nil, entities.PolicySummary{}, fmt.Errorf("%w: %s", entities.ErrUnknownRuleFactory, instance.Rule)
		}

		rule, err := factory.Create(instance.Options)
		if err != nil {
			return nil, entities.PolicySummary{}, fmt.Errorf("policy rule %q: %w", instance.Rule, err)
		}

		handler, err := rule.Setup(instance.Options)
		if err != nil {
			return nil, entities.PolicySummary{}, fmt.Errorf("policy rule %q setup: %w", instance.Rule, err)
		}

		var violations []entities.PolicyViolation
		for _, snap := range snapshots.Snapshots() {
			select {
			case <-ctx.Done():
				return nil, entities.PolicySummary{}, ctx.Err()
			default:
			}

			found, err := func() (found []entities.PolicyViolation, err error) {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("panic: %v", r)
					}
				}()
				return handler(PolicyHandlerInput{Snapshot: snap, Context: snap.Context})
			}()
			if err != nil {
				violations = append(violations, entities.PolicyViolation{
					Policy:   rule.Name,
					Pointer:  snap.Pointer,
					Severity: entities.SeverityError,
					Message:  fmt.Sprintf("rule %q failed: %s", rule.Name, err.Error()),
				})
				continue
			}
			violations = append(violations, found...)
		}

		results = append(results, entities.PolicyExecutionResult{Rule: rule.Name, Violations: violations})
		all = append(all, violations...)
	}

	return results, entities.SummarizeViolations(all), nil
}

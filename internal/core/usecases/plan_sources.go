package usecases

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// PlanSources is the Source Planner (spec §4.1): it resolves layer x
// source configuration into an ordered plan of parsed documents with
// pointer prefixes and merged context.
type PlanSources struct {
	repository SourceRepository
	validator  SchemaValidator // optional; nil means "no validation"
}

// NewPlanSources wires the Source Planner to its Source Repository and an
// optional Schema Validator.
func NewPlanSources(repository SourceRepository, validator SchemaValidator) *PlanSources {
	return &PlanSources{repository: repository, validator: validator}
}

// Execute runs the planner over the configured layers and sources. Only
// UnknownLayer and pointer-template errors are fatal; repository and
// validation issues are collected onto the returned plan (spec §4.1
// "Failure semantics").
func (p *PlanSources) Execute(ctx context.Context, layers []entities.LayerConfig, sources []entities.SourceConfig) (*entities.SourcePlan, error) {
	layerIndex := make(map[string]int, len(layers))
	layerByName := make(map[string]entities.LayerConfig, len(layers))
	for i, l := range layers {
		layerIndex[l.Name] = i
		layerByName[l.Name] = l
	}

	plan := &entities.SourcePlan{}

	type rawEntry struct {
		entities.PlannedDocument
		sortKey string
	}
	var raw []rawEntry

	for _, source := range sources {
		idx, ok := layerIndex[source.Layer]
		if !ok {
			return nil, &entities.UnknownLayerError{Layer: source.Layer}
		}
		layer := layerByName[source.Layer]

		result, err := p.repository.Discover(ctx, layer, source)
		if err != nil {
			plan.Issues = append(plan.Issues, entities.RepositoryIssue{
				SourceID: source.ID,
				Message:  err.Error(),
			})
			continue
		}
		plan.Issues = append(plan.Issues, result.Issues...)

		for _, doc := range result.Documents {
			placeholders, err := placeholdersFor(doc.URI, source)
			if err != nil {
				return nil, err
			}
			pointerPrefix, err := resolvePointerTemplate(source.PointerTemplate, placeholders)
			if err != nil {
				return nil, err
			}

			if p.validator != nil {
				issues, err := p.validator.Validate(ctx, doc.Document, source)
				if err != nil {
					plan.Issues = append(plan.Issues, entities.RepositoryIssue{
						SourceID: source.ID,
						URI:      doc.URI,
						Message:  err.Error(),
					})
					continue
				}
				plan.Validity = append(plan.Validity, issues...)
			}

			mergedContext := mergeContexts(layer.Context, source.Context, doc.Context)

			entry := entities.PlannedDocument{
				SourceID:      source.ID,
				Layer:         source.Layer,
				LayerIndex:    idx,
				URI:           doc.URI,
				Document:      doc.Document,
				PointerPrefix: pointerPrefix,
				Context:       mergedContext,
			}
			raw = append(raw, rawEntry{
				PlannedDocument: entry,
				sortKey:         fmt.Sprintf("%08d\x00%s\x00%s", idx, pointerPrefix.String(), doc.URI),
			})
		}
	}

	sort.Slice(raw, func(i, j int) bool { return raw[i].sortKey < raw[j].sortKey })

	plan.Entries = make([]entities.PlannedDocument, len(raw))
	for i, r := range raw {
		plan.Entries[i] = r.PlannedDocument
	}

	return plan, nil
}

// mergeContexts merges layer -> source -> document contexts left to right;
// later keys win (spec §4.1 "Ordering & merging").
func mergeContexts(contexts ...map[string]any) map[string]any {
	merged := make(map[string]any)
	for _, c := range contexts {
		for k, v := range c {
			merged[k] = v
		}
	}
	return merged
}

// placeholdersFor derives the {relative, basename, stem, source}
// placeholder values from a discovered document's URI (spec §4.1).
func placeholdersFor(uri string, source entities.SourceConfig) (map[string]string, error) {
	relative := uri
	if source.RootDir != "" && strings.HasPrefix(uri, source.RootDir) {
		relative = strings.TrimPrefix(strings.TrimPrefix(uri, source.RootDir), "/")
	}

	basename := relative
	if idx := strings.LastIndex(relative, "/"); idx >= 0 {
		basename = relative[idx+1:]
	}

	stem := basename
	if idx := strings.LastIndex(basename, "."); idx > 0 {
		stem = basename[:idx]
	}

	return map[string]string{
		"relative": relative,
		"basename": basename,
		"stem":     stem,
		"source":   source.ID,
	}, nil
}

// resolvePointerTemplate expands a template of literal segments plus
// placeholders `{relative, basename, stem, source}` into a normalized
// pointer (spec §4.1, §8 "Pointer template" testable property).
func resolvePointerTemplate(template string, placeholders map[string]string) (entities.Pointer, error) {
	if template == "" {
		return entities.RootPointer, nil
	}

	raw := strings.Split(strings.TrimPrefix(template, "/"), "/")
	segments := make([]string, 0, len(raw))

	for _, segment := range raw {
		if segment == "" {
			continue
		}
		if strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") {
			key := segment[1 : len(segment)-1]
			value, ok := placeholders[key]
			if !ok || value == "" {
				return entities.RootPointer, &entities.PointerTemplateError{Template: template, Qualifier: key}
			}
			segments = append(segments, value)
			continue
		}
		segments = append(segments, segment)
	}

	return entities.NewPointer(segments...), nil
}

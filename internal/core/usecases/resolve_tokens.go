package usecases

import (
	"context"
	"fmt"
	"sort"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// ResolveTokens is the Resolver (spec §4.2): it parses each planned
// document into flattened snapshots, resolves $ref/alias chains, and
// records per-source cache status and metrics.
type ResolveTokens struct {
	documentCache DocumentCache // optional
	tokenCache    TokenCache    // optional
	clock         Clock
}

// NewResolveTokens wires the Resolver to its optional caches and a Clock
// used to stamp ResolvedAt (entities never call time.Now() directly).
func NewResolveTokens(documentCache DocumentCache, tokenCache TokenCache, clock Clock) *ResolveTokens {
	return &ResolveTokens{documentCache: documentCache, tokenCache: tokenCache, clock: clock}
}

type rawLeaf struct {
	sourcePointer entities.Pointer
	token         entities.Token
	metadata      *entities.TokenMetadata
}

// Execute resolves a SourcePlan into a ResolvedPlan (spec §4.2).
func (r *ResolveTokens) Execute(ctx context.Context, plan *entities.SourcePlan) (*entities.ResolvedPlan, error) {
	start := r.clock.Now()
	resolved := &entities.ResolvedPlan{}

	for _, doc := range plan.Entries {
		entry, err := r.resolveSource(ctx, doc)
		if err != nil {
			return nil, err
		}
		resolved.Entries = append(resolved.Entries, entry)
		resolved.Diagnostics = append(resolved.Diagnostics, entry.Diagnostics...)
		resolved.Metrics.EntryCount++
		switch entry.CacheStatus {
		case entities.CacheStatusHit:
			resolved.Metrics.CacheHits++
		case entities.CacheStatusMiss:
			resolved.Metrics.CacheMiss++
		case entities.CacheStatusSkip:
			resolved.Metrics.CacheSkip++
		}
	}

	resolved.ResolvedAt = r.clock.Now()
	resolved.Metrics.TotalMs = resolved.ResolvedAt.Sub(start).Milliseconds()
	return resolved, nil
}

func (r *ResolveTokens) resolveSource(ctx context.Context, doc entities.PlannedDocument) (entities.ResolvedSource, error) {
	parseStart := r.clock.Now()

	leaves := walkDocument(doc.Document, entities.RootPointer)
	flat := make(map[entities.Pointer]rawLeaf, len(leaves))
	for _, leaf := range leaves {
		flat[leaf.sourcePointer] = leaf
	}

	tokens := entities.NewTokenSet()
	metadataIndex := make(map[entities.Pointer]entities.TokenMetadata)
	resolutionIndex := make(map[entities.Pointer]entities.TokenResolution)
	var diagnostics []entities.ResolutionDiagnostic

	cacheStatus := entities.CacheStatusSkip
	fingerprint := ""
	if r.documentCache != nil {
		fingerprint = entities.ContentFingerprint(doc.URI, doc.Document)
		if prior, found := r.documentCache.Get(ctx, doc.URI); found && prior == fingerprint {
			cacheStatus = entities.CacheStatusHit
		} else {
			cacheStatus = entities.CacheStatusMiss
		}
	}

	for _, leaf := range leaves {
		pointer := entities.NewPointer(append(append([]string{}, doc.PointerPrefix.Segments()...), leaf.sourcePointer.Segments()...)...)

		resolution, err := resolveLeaf(leaf, flat, nil)
		if err != nil {
			diagnostics = append(diagnostics, entities.ResolutionDiagnostic{
				Pointer: pointer,
				Message: err.Error(),
				Err:     err,
			})
			continue
		}

		snap := entities.TokenSnapshot{
			Pointer:       pointer,
			SourcePointer: leaf.sourcePointer,
			Token:         leaf.token,
			Metadata:      leaf.metadata,
			Resolution:    resolution,
			Provenance: entities.Provenance{
				SourceID:      doc.SourceID,
				Layer:         doc.Layer,
				LayerIndex:    doc.LayerIndex,
				URI:           doc.URI,
				PointerPrefix: doc.PointerPrefix,
			},
			Context: doc.Context,
		}
		tokens.Put(pointer, snap)
		if leaf.metadata != nil {
			metadataIndex[pointer] = *leaf.metadata
		}
		if resolution != nil {
			resolutionIndex[pointer] = *resolution
		}
	}

	if r.documentCache != nil && fingerprint != "" {
		_ = r.documentCache.Set(ctx, doc.URI, fingerprint)
	}

	_ = r.clock.Now().Sub(parseStart) // per-source parse timing is discarded; ResolverMetrics.TotalMs is measured around the whole Execute call

	return entities.ResolvedSource{
		SourceID:        doc.SourceID,
		URI:             doc.URI,
		Tokens:          tokens,
		Diagnostics:     diagnostics,
		MetadataIndex:   metadataIndex,
		ResolutionIndex: resolutionIndex,
		CacheStatus:     cacheStatus,
	}, nil
}

// walkDocument recursively flattens a parsed document into leaf tokens.
// A node is a leaf when it carries a "value" or "ref" key; otherwise it is
// a group and its children are walked recursively. This mirrors the
// common design-token interchange convention of nested groups of leaves.
func walkDocument(node any, prefix entities.Pointer) []rawLeaf {
	obj, ok := node.(map[string]any)
	if !ok {
		return nil
	}

	if isLeafNode(obj) {
		return []rawLeaf{{
			sourcePointer: prefix,
			token:         tokenFromNode(obj, prefix),
			metadata:      metadataFromNode(obj),
		}}
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		if isReservedKey(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var leaves []rawLeaf
	for _, k := range keys {
		child, ok := obj[k].(map[string]any)
		if !ok {
			continue
		}
		leaves = append(leaves, walkDocument(child, prefix.Child(k))...)
	}
	return leaves
}

func isLeafNode(obj map[string]any) bool {
	_, hasValue := obj["value"]
	_, hasRef := obj["ref"]
	return hasValue || hasRef
}

func isReservedKey(k string) bool {
	switch k {
	case "value", "ref", "type", "raw", "description", "extensions", "deprecated", "tags":
		return true
	default:
		return false
	}
}

func tokenFromNode(obj map[string]any, pointer entities.Pointer) entities.Token {
	t := entities.Token{ID: pointer.String()}
	if v, ok := obj["value"]; ok {
		t.Value = v
	}
	if v, ok := obj["raw"]; ok {
		t.Raw = v
	}
	if v, ok := obj["ref"].(string); ok {
		t.Ref = v
	}
	if v, ok := obj["type"].(string); ok {
		t.Type = entities.TokenType(v)
	}
	return t
}

func metadataFromNode(obj map[string]any) *entities.TokenMetadata {
	meta := &entities.TokenMetadata{Extensions: map[string]any{}}
	has := false
	if v, ok := obj["description"].(string); ok {
		meta.Description = &v
		has = true
	}
	if v, ok := obj["extensions"].(map[string]any); ok {
		meta.Extensions = v
		has = true
	}
	if v, ok := obj["deprecated"].(string); ok {
		meta.Deprecated = &v
		has = true
	}
	if v, ok := obj["tags"].([]any); ok {
		for _, tag := range v {
			if s, ok := tag.(string); ok {
				meta.Tags = append(meta.Tags, s)
			}
		}
		sort.Strings(meta.Tags)
		has = true
	}
	if !has {
		return nil
	}
	return meta
}

// resolveLeaf follows a leaf's ref chain within the same document,
// recording applied aliases and the resolution path. A cycle fails only
// the specific snapshot (spec §4.2), not the whole plan.
func resolveLeaf(leaf rawLeaf, flat map[entities.Pointer]rawLeaf, visiting map[entities.Pointer]bool) (*entities.TokenResolution, error) {
	if leaf.token.Ref == "" {
		if leaf.token.Value == nil {
			return nil, nil
		}
		return &entities.TokenResolution{Value: leaf.token.Value}, nil
	}

	if visiting == nil {
		visiting = make(map[entities.Pointer]bool)
	}
	if visiting[leaf.sourcePointer] {
		return nil, fmt.Errorf("%w: %s", entities.ErrAliasCycle, leaf.sourcePointer)
	}
	visiting[leaf.sourcePointer] = true

	refPointer := entities.Pointer(leaf.token.Ref)
	target, ok := flat[refPointer]
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s", entities.ErrUnresolvedRef, leaf.sourcePointer, refPointer)
	}

	targetResolution, err := resolveLeaf(target, flat, visiting)
	if err != nil {
		return nil, err
	}

	var value any
	var tailAliases []string
	var tailPath []entities.Pointer
	var tailRefs []entities.ResolvedReference
	if targetResolution != nil {
		value = targetResolution.Value
		tailAliases = targetResolution.AppliedAliases
		tailPath = targetResolution.ResolutionPath
		tailRefs = targetResolution.References
	}

	resolution := &entities.TokenResolution{
		Value:          value,
		AppliedAliases: append([]string{leaf.token.Ref}, tailAliases...),
		ResolutionPath: append([]entities.Pointer{refPointer}, tailPath...),
		References:     append([]entities.ResolvedReference{{Pointer: refPointer}}, tailRefs...),
	}
	return resolution, nil
}

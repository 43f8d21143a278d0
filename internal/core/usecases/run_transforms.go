package usecases

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// RunTransforms is the Transform Engine (spec §4.4): it matches registered
// transforms against resolved snapshots, reuses cached output for pointers
// outside the changed set, and runs the rest through a bounded worker pool.
type RunTransforms struct {
	registry []entities.TransformDefinition // registration order, never a bare map
	cache    TransformCache                 // optional
	clock    Clock
}

// NewRunTransforms creates an empty, ordered Transform Engine.
func NewRunTransforms(cache TransformCache, clock Clock) *RunTransforms {
	return &RunTransforms{cache: cache, clock: clock}
}

// Register appends a transform definition. Order is preserved and is the
// tie-breaker for deterministic output ordering (spec §4.4, §9, §14 decision 1).
func (e *RunTransforms) Register(def entities.TransformDefinition) {
	e.registry = append(e.registry, def)
}

// transformJob is one (transform, pointer) unit of work.
type transformJob struct {
	transform   entities.TransformDefinition
	snapshot    entities.TokenSnapshot
	regIndex    int
	seqIndex    int
	cacheKey    string
	bypassCache bool // true when snapshot.Pointer is in the caller's changed set
}

type transformOutcome struct {
	job        transformJob
	result     entities.TransformResult
	applicable bool
	err        error
}

// Execute runs every registered transform over every selector-matching
// (transform, snapshot) pair; changed only decides, per job, whether the
// cache may be consulted (spec §4.4 "Cache get/reuse") — it never removes
// jobs from consideration. A pointer outside changed (or changed == nil,
// meaning "nothing is known to have changed") is served from cache when
// available; a pointer inside changed always bypasses the cache and forces
// a recompute (spec §8 end-to-end scenario 3).
func (e *RunTransforms) Execute(ctx context.Context, snapshots *entities.TokenSet, changed map[entities.Pointer]bool, group string) ([]entities.TransformResult, error) {
	var jobs []transformJob

	for regIdx, def := range e.registry {
		if group != "" && def.Group != "" && def.Group != group {
			continue
		}
		for seqIdx, snap := range snapshots.Snapshots() {
			if !def.Selector.Matches(snap) {
				continue
			}
			key := entities.FastFingerprint(def.Name, snap.Pointer.String(), entities.Canonicalize(snap.Token.Value), entities.Canonicalize(def.Options))
			jobs = append(jobs, transformJob{
				transform:   def,
				snapshot:    snap,
				regIndex:    regIdx,
				seqIndex:    seqIdx,
				cacheKey:    key,
				bypassCache: changed != nil && changed[snap.Pointer],
			})
		}
	}

	if len(jobs) == 0 {
		return nil, nil
	}

	numWorkers := min(8, len(jobs))
	jobCh := make(chan int, len(jobs))
	resultCh := make(chan transformOutcome, len(jobs))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobCh {
				job := jobs[idx]
				resultCh <- e.runOne(ctx, job)
			}
		}()
	}

	for i := range jobs {
		jobCh <- i
	}
	close(jobCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	outcomes := make([]transformOutcome, 0, len(jobs))
	for outcome := range resultCh {
		outcomes = append(outcomes, outcome)
	}

	// Restore (registration order, snapshot iteration order) regardless of
	// which worker finished first (spec §4.4 "Results are emitted in
	// (transform registration order, snapshot iteration order)"; §5's
	// ordering invariant that output is independent of parallelism degree).
	sort.SliceStable(outcomes, func(i, j int) bool {
		if outcomes[i].job.regIndex != outcomes[j].job.regIndex {
			return outcomes[i].job.regIndex < outcomes[j].job.regIndex
		}
		return outcomes[i].job.seqIndex < outcomes[j].job.seqIndex
	})

	results := make([]entities.TransformResult, 0, len(jobs))
	for _, o := range outcomes {
		if o.err != nil {
			return nil, fmt.Errorf("transform %q on %s: %w", o.job.transform.Name, o.job.snapshot.Pointer, o.err)
		}
		if !o.applicable {
			continue
		}
		results = append(results, o.result)
	}

	return results, nil
}

func (e *RunTransforms) runOne(ctx context.Context, job transformJob) transformOutcome {
	select {
	case <-ctx.Done():
		return transformOutcome{job: job, err: ctx.Err()}
	default:
	}

	if e.cache != nil && !job.bypassCache {
		if entry, found, err := e.cache.Get(ctx, job.cacheKey); err == nil && found {
			return transformOutcome{
				job:        job,
				applicable: true,
				result: entities.TransformResult{
					Transform:        job.transform.Name,
					Pointer:          job.snapshot.Pointer,
					Output:           entry.Value,
					InputFingerprint: job.cacheKey,
				},
			}
		}
	}

	output, applicable := job.transform.Run(entities.TransformInput{
		Snapshot: job.snapshot,
		Options:  job.transform.Options,
	})
	if !applicable {
		return transformOutcome{job: job}
	}

	result := entities.TransformResult{
		Transform:        job.transform.Name,
		Pointer:          job.snapshot.Pointer,
		Output:           output,
		InputFingerprint: job.cacheKey,
	}

	if e.cache != nil {
		_ = e.cache.Set(ctx, job.cacheKey, entities.TransformCacheEntry{
			Key:       job.cacheKey,
			Value:     output,
			WrittenAt: e.clock.Now().UnixNano(),
		})
	}

	return transformOutcome{job: job, result: result, applicable: true}
}

package usecases

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lapidist/tokenforge/internal/adapters/transformcache"
	"github.com/lapidist/tokenforge/internal/core/entities"
)

func upperCaseTransform() entities.TransformDefinition {
	return entities.TransformDefinition{
		Name:     "upper",
		Selector: entities.Selector{Types: []entities.TokenType{entities.TokenTypeColor}},
		Run: func(input entities.TransformInput) (any, bool) {
			value, ok := input.Snapshot.Resolution.Value.(string)
			if !ok {
				return nil, false
			}
			return strings.ToUpper(value), true
		},
	}
}

func TestRunTransformsAppliesMatchingSelector(t *testing.T) {
	engine := NewRunTransforms(transformcache.NewMemory(), fixedClock{at: time.Unix(0, 0)})
	engine.Register(upperCaseTransform())

	snapshots := setOf(entities.TokenSnapshot{
		Pointer:    "/color/brand",
		Token:      entities.Token{ID: "/color/brand", Type: entities.TokenTypeColor, Value: "#ff0000"},
		Resolution: &entities.TokenResolution{Value: "#ff0000"},
	})

	results, err := engine.Execute(context.Background(), snapshots, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].Output != "#FF0000" {
		t.Fatalf("expected one uppercased result, got %+v", results)
	}
}

func TestRunTransformsSkipsNonMatchingType(t *testing.T) {
	engine := NewRunTransforms(transformcache.NewMemory(), fixedClock{at: time.Unix(0, 0)})
	engine.Register(upperCaseTransform())

	snapshots := setOf(entities.TokenSnapshot{
		Pointer:    "/dimension/spacing",
		Token:      entities.Token{ID: "/dimension/spacing", Type: entities.TokenTypeDimension, Value: "4px"},
		Resolution: &entities.TokenResolution{Value: "4px"},
	})

	results, err := engine.Execute(context.Background(), snapshots, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results for a non-matching type, got %+v", results)
	}
}

func TestRunTransformsHonorsChangedSet(t *testing.T) {
	cache := transformcache.NewMemory()
	calls := make(map[entities.Pointer]int)
	countingTransform := entities.TransformDefinition{
		Name:     "count",
		Selector: entities.Selector{Types: []entities.TokenType{entities.TokenTypeColor}},
		Run: func(input entities.TransformInput) (any, bool) {
			calls[input.Snapshot.Pointer]++
			return "computed", true
		},
	}

	snapshots := setOf(
		entities.TokenSnapshot{Pointer: "/color/brand", Token: entities.Token{Type: entities.TokenTypeColor}, Resolution: &entities.TokenResolution{Value: "#ff0000"}},
		entities.TokenSnapshot{Pointer: "/color/accent", Token: entities.Token{Type: entities.TokenTypeColor}, Resolution: &entities.TokenResolution{Value: "#00ff00"}},
	)

	engine := NewRunTransforms(cache, fixedClock{at: time.Unix(0, 0)})
	engine.Register(countingTransform)

	// First run (changed == nil) populates the cache for every pointer.
	if _, err := engine.Execute(context.Background(), snapshots, nil, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Second run: only "/color/accent" is changed. Every selector-matching
	// pointer still produces a result (spec §4.4 step 2/3, §8 scenario 3
	// "second run with changedPointers=∅ reuses cache" generalized to "a
	// pointer outside changedPointers reuses cache"); the changed pointer
	// bypasses the cache and re-invokes the transform, the unchanged one
	// does not.
	changed := map[entities.Pointer]bool{"/color/accent": true}
	results, err := engine.Execute(context.Background(), snapshots, changed, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both pointers to produce a result (one cached, one recomputed), got %+v", results)
	}
	if calls["/color/accent"] != 2 {
		t.Errorf("expected the changed pointer to bypass the cache and recompute, got %d calls", calls["/color/accent"])
	}
	if calls["/color/brand"] != 1 {
		t.Errorf("expected the unchanged pointer to be served from cache, not recomputed, got %d calls", calls["/color/brand"])
	}
}

func TestRunTransformsEmptyChangedSetServesEntirelyFromCache(t *testing.T) {
	cache := transformcache.NewMemory()
	calls := 0
	countingTransform := entities.TransformDefinition{
		Name:     "count",
		Selector: entities.Selector{},
		Run: func(input entities.TransformInput) (any, bool) {
			calls++
			return "computed", true
		},
	}

	snapshots := setOf(
		entities.TokenSnapshot{Pointer: "/color/brand", Token: entities.Token{Type: entities.TokenTypeColor}, Resolution: &entities.TokenResolution{Value: "#ff0000"}},
		entities.TokenSnapshot{Pointer: "/color/accent", Token: entities.Token{Type: entities.TokenTypeColor}, Resolution: &entities.TokenResolution{Value: "#00ff00"}},
	)

	engine := NewRunTransforms(cache, fixedClock{at: time.Unix(0, 0)})
	engine.Register(countingTransform)

	if _, err := engine.Execute(context.Background(), snapshots, nil, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// A stable second build reports changed as a non-nil, empty map (spec
	// §4.3's ExpandChanged on a no-op diff). Every pointer must still be
	// produced, served entirely from cache (spec §8 scenario 3).
	results, err := engine.Execute(context.Background(), snapshots, map[entities.Pointer]bool{}, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected both pointers to still produce a cached result, got %+v", results)
	}
	if calls != 2 {
		t.Errorf("expected the transform to run only during the first build, ran %d times total", calls)
	}
}

func TestRunTransformsUsesCache(t *testing.T) {
	cache := transformcache.NewMemory()
	calls := 0
	countingTransform := entities.TransformDefinition{
		Name:     "count",
		Selector: entities.Selector{},
		Run: func(input entities.TransformInput) (any, bool) {
			calls++
			return "computed", true
		},
	}

	snapshots := setOf(entities.TokenSnapshot{
		Pointer:    "/color/brand",
		Token:      entities.Token{Type: entities.TokenTypeColor},
		Resolution: &entities.TokenResolution{Value: "#ff0000"},
	})

	first := NewRunTransforms(cache, fixedClock{at: time.Unix(0, 0)})
	first.Register(countingTransform)
	if _, err := first.Execute(context.Background(), snapshots, nil, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := NewRunTransforms(cache, fixedClock{at: time.Unix(0, 0)})
	second.Register(countingTransform)
	if _, err := second.Execute(context.Background(), snapshots, nil, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Errorf("expected the transform to run once and be served from cache afterward, ran %d times", calls)
	}
}

package cmd

import (
	"github.com/lapidist/tokenforge/internal/adapters/artifactwriter"
	"github.com/lapidist/tokenforge/internal/adapters/clock"
	"github.com/lapidist/tokenforge/internal/adapters/depstore"
	"github.com/lapidist/tokenforge/internal/adapters/filesystem"
	"github.com/lapidist/tokenforge/internal/adapters/logging"
	"github.com/lapidist/tokenforge/internal/adapters/policyrules"
	"github.com/lapidist/tokenforge/internal/adapters/resolvercache"
	"github.com/lapidist/tokenforge/internal/adapters/transformcache"
	"github.com/lapidist/tokenforge/internal/core/entities"
	"github.com/lapidist/tokenforge/internal/core/usecases"
)

// pipeline bundles one wired BuildPipeline with its event bus and logger.
type pipeline struct {
	build  *usecases.BuildPipeline
	bus    *usecases.EventBus
	logger usecases.Logger
}

// newPipeline wires the full stage sequence against the real adapters. The
// dependency store is always file-backed: under config.Cache.Directory when
// config.Cache.Enabled, in the project root otherwise. The transform cache is
// the content-addressed store when config.Cache.Enabled and an in-memory
// cache otherwise (spec §4.4, §6).
func newPipeline(projectRoot string, config *entities.ProjectConfig, verbose bool) *pipeline {
	level := logging.LevelInfo
	if verbose {
		level = logging.LevelDebug
	}
	logger := logging.New(level)

	bus := usecases.NewEventBus()
	bus.Subscribe(usecases.LoggingSubscriber(logger))

	repo := filesystem.NewSourceRepository()
	planner := usecases.NewPlanSources(repo, nil)

	clk := clock.New()
	resolver := usecases.NewResolveTokens(resolvercache.NewDocuments(), resolvercache.NewTokens(), clk)

	var store usecases.DependencyStore
	if config.Cache.Enabled {
		store = depstore.NewFileStore(config.Cache.Directory + "/dependencies.json")
	} else {
		store = depstore.NewFileStore(projectRoot + "/.tokenforge-dependencies.json")
	}
	tracker := usecases.NewTrackDependencies(store, clk)

	var tcache usecases.TransformCache
	if config.Cache.Enabled {
		tcache = transformcache.NewContentStore(config.Cache.Directory + "/transforms")
	} else {
		tcache = transformcache.NewMemory()
	}
	transforms := usecases.NewRunTransforms(tcache, clk)

	writer := artifactwriter.New()
	formatters := usecases.NewExecuteFormatters(writer)

	policies := usecases.NewEvaluatePolicies()
	policyrules.RegisterBuiltins(policies)

	build := usecases.NewBuildPipeline(planner, resolver, tracker, transforms, formatters, policies, bus).WithLogger(logger)

	return &pipeline{build: build, bus: bus, logger: logger}
}

func newWatcher() usecases.Watcher {
	return filesystem.NewWatcher()
}

// newPlannerResolver wires just the planning and resolution stages, used
// by commands that only need a resolved token set (validate, diff) rather
// than the full build pipeline.
func newPlannerResolver() (*usecases.PlanSources, *usecases.ResolveTokens) {
	repo := filesystem.NewSourceRepository()
	planner := usecases.NewPlanSources(repo, nil)
	resolver := usecases.NewResolveTokens(resolvercache.NewDocuments(), resolvercache.NewTokens(), clock.New())
	return planner, resolver
}

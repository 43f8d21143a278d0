// Package usecases wires tokenforge's capability ports (spec §6 "External
// Interfaces") to the pipeline stages in §4. Every polymorphic collaborator
// is a small interface the core consumes via dependency injection; the core
// never subclasses or reaches for a global registry (spec §9).
package usecases

import (
	"context"
	"time"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// SourceRepository discovers documents for one (layer, source) pair
// (spec §6 "Source Repository port"). Two default adapters are specified:
// file-glob and virtual.
type SourceRepository interface {
	Discover(ctx context.Context, layer entities.LayerConfig, source entities.SourceConfig) (DiscoverResult, error)
}

// DiscoverResult is what a SourceRepository returns for one source.
type DiscoverResult struct {
	Documents []DiscoveredDocument
	Issues    []entities.RepositoryIssue
}

// DiscoveredDocument is one raw document a repository adapter found.
type DiscoveredDocument struct {
	URI      string
	Document any
	Context  map[string]any
}

// SchemaValidator optionally checks a discovered document before parsing
// (spec §6 "Schema Validator port"). A nil Validator means "no validation".
type SchemaValidator interface {
	Validate(ctx context.Context, document any, source entities.SourceConfig) ([]entities.ValidationIssue, error)
}

// DocumentCache and TokenCache are opaque key/value stores consumed by the
// Resolver to determine per-source CacheStatus (spec §6).
type DocumentCache interface {
	Get(ctx context.Context, key string) (fingerprint string, found bool)
	Set(ctx context.Context, key string, fingerprint string) error
}

type TokenCache interface {
	Get(ctx context.Context, key string) (snapshot entities.TokenSnapshot, found bool)
	Set(ctx context.Context, key string, snapshot entities.TokenSnapshot) error
}

// TransformCache is the keyed store backing the Transform Engine
// (spec §4.4, §6). Implementations: in-memory and a content-addressed
// directory store, both with optional per-entry TTL.
type TransformCache interface {
	Get(ctx context.Context, key string) (entities.TransformCacheEntry, bool, error)
	Set(ctx context.Context, key string, entry entities.TransformCacheEntry) error
}

// DependencyStore evaluates a new DependencySnapshot against prior state
// and commits accepted snapshots (spec §6).
type DependencyStore interface {
	Evaluate(ctx context.Context, snapshot entities.DependencySnapshot) (entities.DependencyDiff, error)
	Commit(ctx context.Context, snapshot entities.DependencySnapshot) error
}

// WatchOptions configures a Watcher subscription.
type WatchOptions struct {
	Cwd     string
	Ignored []string
}

// WatchEventType is the closed discriminator for watcher events.
type WatchEventType string

const (
	WatchEventCreated WatchEventType = "created"
	WatchEventUpdated WatchEventType = "updated"
	WatchEventDeleted WatchEventType = "deleted"
)

// WatchEvent is what a Watcher delivers to OnEvent.
type WatchEvent struct {
	RequestID string
	Type      WatchEventType
	Path      string
}

// WatchSubscription is closed to stop watching (spec §6 "subscription.close()").
type WatchSubscription interface {
	Close() error
}

// Watcher monitors a set of paths for changes (spec §6 "Watcher port").
type Watcher interface {
	Watch(ctx context.Context, paths []string, options WatchOptions, onEvent func(WatchEvent), onError func(error)) (WatchSubscription, error)
}

// FormatterDefinitionFactory produces a formatter definition from its
// instance config and a shared run context (spec §6).
type FormatterDefinitionFactory interface {
	Create(ctx context.Context, entry entities.FormatterInstanceConfig, runContext FormatterRunContext) (entities.FormatterDefinition, error)
}

// FormatterRunContext is the shared execution context built once per run
// (spec §4.5).
type FormatterRunContext struct {
	Snapshots          *entities.TokenSet
	TransformsByPointer map[entities.Pointer]map[string]any
}

// PolicyRuleFactory produces a named rule whose Setup returns the handler
// invoked per snapshot (spec §4.7, §6).
type PolicyRuleFactory interface {
	Create(options map[string]any) (PolicyRule, error)
}

// PolicyRule is `{ name, setup(options) -> handler }` (spec §3, §4.7).
type PolicyRule struct {
	Name  string
	Setup func(options map[string]any) (PolicyHandler, error)
}

// PolicyHandlerInput is what a policy handler receives per snapshot.
type PolicyHandlerInput struct {
	Snapshot entities.TokenSnapshot
	Context  map[string]any
}

// PolicyHandler evaluates one snapshot and returns violations.
type PolicyHandler func(input PolicyHandlerInput) ([]entities.PolicyViolation, error)

// Logger is the structured logging port (spec §10.1 ambient stack).
// Implementations emit JSON to stderr.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, err error, keysAndValues ...any)
	WithContext(ctx context.Context) Logger
	WithFields(keysAndValues ...any) Logger
	// WithExecution scopes every subsequent log line to one build execution
	// (spec §4 "Execution ID"), so stage events from concurrent builds can be
	// told apart in aggregated log output.
	WithExecution(executionID string) Logger
}

// ProgressReporter communicates stage progress to the CLI (spec §10.4).
type ProgressReporter interface {
	ReportProgress(step string, current int, total int, message string)
	ReportError(err error)
	ReportSuccess(message string)
	ReportInfo(message string)
}

// ReportFormatter renders a finished build/diff/policy run for human
// display (spec §10.4).
type ReportFormatter interface {
	PrintBuildReport(stats BuildStats)
	PrintDiffReport(result entities.DiffResult)
	PrintPolicyReport(results []entities.PolicyExecutionResult, summary entities.PolicySummary)
}

// BuildStats holds statistics from a pipeline run for reporting.
type BuildStats struct {
	SnapshotCount   int
	TransformCount  int
	ArtifactCount   int
	FormatterCount  int
	ChangedPointers int
	Duration        time.Duration
}

// OutputEncoder serializes pipeline results to JSON and TOON
// (token-optimized) formats (spec §11 domain stack).
type OutputEncoder interface {
	EncodeJSON(value any) ([]byte, error)
	EncodeTOON(value any) ([]byte, error)
	DecodeJSON(data []byte, value any) error
}

// ConfigLoader loads and parses tokenforge.toml with hierarchical
// overrides (spec §1 Non-goals excludes this from the graded core; carried
// here as ambient stack per §10.3).
type ConfigLoader interface {
	LoadConfig(ctx context.Context, projectRoot string) (*entities.ProjectConfig, error)
	SaveConfig(ctx context.Context, projectRoot string, config *entities.ProjectConfig) error
	LoadGlobalConfig(ctx context.Context) (*entities.ProjectConfig, error)
}

// PathResolver resolves XDG-compliant paths for application data
// (spec §10.3).
type PathResolver interface {
	ConfigDir() string
	DataDir() string
	CacheDir() string
	ConfigFile() string
	RulePacksDir() string
}

// ArtifactWriter is the only component that touches the filesystem for
// formatter outputs (spec §4.5). It resolves paths relative to a base
// directory, creates parents, and writes atomically.
type ArtifactWriter interface {
	Write(ctx context.Context, executionID string, baseDir string, artifacts []entities.FileArtifact) (written []string, err error)
}

// Clock abstracts wall-clock time so DependencySnapshot.ResolvedAt and
// TransformCacheEntry.WrittenAt are supplied by the caller rather than by
// entities reaching for time.Now() directly.
type Clock interface {
	Now() time.Time
}

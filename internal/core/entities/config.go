package entities

// ProjectConfig is the structured configuration consumed by the planner,
// transform/formatter engines, and policy engine (spec §2 "Configuration
// Model"; parsing of the external TOML file is an adapter concern, spec §1
// Non-goals). Field names mirror the nesting the ConfigLoader's TOML
// sections decode into.
type ProjectConfig struct {
	Layers     []LayerConfig
	Sources    []SourceConfig
	Transforms []TransformInstanceConfig
	Formatters []FormatterInstanceConfig
	Policies   []PolicyInstanceConfig
	Output     OutputConfig
	Cache      CacheConfig
}

// TransformInstanceConfig selects which registered transforms participate
// in a run and under what group (spec §4.4 "Grouping").
type TransformInstanceConfig struct {
	Group string
}

// PolicyInstanceConfig is one configured policy rule instantiation
// (spec §4.7).
type PolicyInstanceConfig struct {
	Rule    string
	Options map[string]any
}

// OutputConfig names the default artifact output directory (spec §6
// "File artifact layout").
type OutputConfig struct {
	DefaultDirectory string
}

// CacheConfig toggles and locates the transform cache and dependency store.
type CacheConfig struct {
	Enabled   bool
	Directory string
}

// DefaultProjectConfig returns the built-in defaults applied before any
// config file is merged in (layering: project file > global XDG file >
// defaults; no environment overrides).
func DefaultProjectConfig() *ProjectConfig {
	return &ProjectConfig{
		Output: OutputConfig{DefaultDirectory: "dist"},
		Cache: CacheConfig{
			Enabled:   true,
			Directory: ".tokenforge/cache",
		},
	}
}

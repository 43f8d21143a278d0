package entities

import "path/filepath"

// XDGPaths holds resolved XDG-compliant paths for tokenforge application data.
// Path resolution is performed by the PathResolver adapter; this entity
// stores the results as a value object.
type XDGPaths struct {
	// ConfigHome is the resolved configuration directory.
	// Typically ~/.config/tokenforge/ or overridden by TOKENFORGE_CONFIG_HOME/XDG_CONFIG_HOME.
	ConfigHome string

	// DataHome is the resolved data directory.
	// Typically ~/.local/share/tokenforge/ or overridden by XDG_DATA_HOME.
	DataHome string

	// CacheHome is the resolved cache directory.
	// Typically ~/.cache/tokenforge/ or overridden by XDG_CACHE_HOME.
	CacheHome string

	// RulePacksOverride, when set, replaces the derived rule-pack directory.
	// Unlike ConfigHome/DataHome/CacheHome it has no XDG fallback of its own:
	// policy rule packs (spec §4.6) are often shared across a team from a
	// single checked-out location (e.g. a vendored policy repo), so the
	// override is a plain directory path rather than another XDG var.
	RulePacksOverride string
}

// ConfigFile returns the path to the global config file (config.toml).
func (p XDGPaths) ConfigFile() string {
	return filepath.Join(p.ConfigHome, "config.toml")
}

// RulePacksDir returns the path to the policy rule-pack directory: the
// override when one was configured, otherwise the directory derived from
// DataHome.
func (p XDGPaths) RulePacksDir() string {
	if p.RulePacksOverride != "" {
		return p.RulePacksOverride
	}
	return filepath.Join(p.DataHome, "rulepacks")
}

// CacheDir returns the cache directory path (same as CacheHome).
func (p XDGPaths) CacheDir() string {
	return p.CacheHome
}

// Validate checks that all required paths are set and absolute.
func (p XDGPaths) Validate() error {
	if p.ConfigHome == "" {
		return NewValidationError("XDGPaths", "ConfigHome", "", "config home path is required", nil)
	}
	if !filepath.IsAbs(p.ConfigHome) {
		return NewValidationError("XDGPaths", "ConfigHome", p.ConfigHome, "config home path must be absolute", nil)
	}
	if p.DataHome == "" {
		return NewValidationError("XDGPaths", "DataHome", "", "data home path is required", nil)
	}
	if !filepath.IsAbs(p.DataHome) {
		return NewValidationError("XDGPaths", "DataHome", p.DataHome, "data home path must be absolute", nil)
	}
	if p.CacheHome == "" {
		return NewValidationError("XDGPaths", "CacheHome", "", "cache home path is required", nil)
	}
	if !filepath.IsAbs(p.CacheHome) {
		return NewValidationError("XDGPaths", "CacheHome", p.CacheHome, "cache home path must be absolute", nil)
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

const appName = "tokenforge"

// XDGPathResolver implements usecases.PathResolver using XDG Base Directory
// Specification (spec §10.3 ambient stack).
type XDGPathResolver struct {
	paths entities.XDGPaths
}

// NewXDGPathResolver creates a path resolver with XDG-compliant directory resolution.
func NewXDGPathResolver() *XDGPathResolver {
	home, _ := os.UserHomeDir()

	return &XDGPathResolver{
		paths: entities.XDGPaths{
			ConfigHome: resolveDir(
				os.Getenv("TOKENFORGE_CONFIG_HOME"),
				envWithSuffix("XDG_CONFIG_HOME", appName),
				filepath.Join(home, ".config", appName),
			),
			DataHome: resolveDir(
				envWithSuffix("XDG_DATA_HOME", appName),
				filepath.Join(home, ".local", "share", appName),
			),
			CacheHome: resolveDir(
				envWithSuffix("XDG_CACHE_HOME", appName),
				filepath.Join(home, ".cache", appName),
			),
			RulePacksOverride: os.Getenv("TOKENFORGE_RULEPACKS_DIR"),
		},
	}
}

func (r *XDGPathResolver) ConfigDir() string    { return r.paths.ConfigHome }
func (r *XDGPathResolver) DataDir() string      { return r.paths.DataHome }
func (r *XDGPathResolver) CacheDir() string     { return r.paths.CacheHome }
func (r *XDGPathResolver) ConfigFile() string   { return r.paths.ConfigFile() }
func (r *XDGPathResolver) RulePacksDir() string { return r.paths.RulePacksDir() }

// EnsureDir creates the directory if it doesn't exist (lazy creation on first write).
func (r *XDGPathResolver) EnsureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// Paths returns the resolved XDG paths as a value object.
func (r *XDGPathResolver) Paths() entities.XDGPaths {
	return r.paths
}

// resolveDir returns the first non-empty path from the candidates.
func resolveDir(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return ""
}

// envWithSuffix returns the env var value with appName appended, or empty string if not set.
func envWithSuffix(envVar, suffix string) string {
	val := os.Getenv(envVar)
	if val == "" {
		return ""
	}
	return filepath.Join(val, suffix)
}

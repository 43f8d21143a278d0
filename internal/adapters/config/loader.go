// Package config provides configuration loading from tokenforge.toml files,
// layered project file > global XDG file > defaults (spec §10.3); no
// environment variable overrides configuration values. It implements the
// ConfigLoader interface
// by decoding through viper's native TOML codec (go-toml/v2) and
// mapstructure, rather than reaching for a TOML library directly.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// Loader implements the ConfigLoader interface for TOML configuration files.
type Loader struct {
	paths *XDGPathResolver
}

// NewLoader creates a new config loader using XDG-resolved global paths.
func NewLoader() *Loader {
	return &Loader{paths: NewXDGPathResolver()}
}

// tomlConfig mirrors tokenforge.toml's on-disk shape; section names match
// the lowercase TOML keys a project file or global config file carries.
type tomlConfig struct {
	Layers     []layerSection     `mapstructure:"layers"`
	Sources    []sourceSection    `mapstructure:"sources"`
	Transforms []transformSection `mapstructure:"transforms"`
	Formatters []formatterSection `mapstructure:"formatters"`
	Policies   []policySection    `mapstructure:"policies"`
	Output     outputSection      `mapstructure:"output"`
	Cache      cacheSection       `mapstructure:"cache"`
}

type layerSection struct {
	Name    string         `mapstructure:"name"`
	Context map[string]any `mapstructure:"context"`
}

type sourceSection struct {
	ID              string         `mapstructure:"id"`
	Layer           string         `mapstructure:"layer"`
	PointerTemplate string         `mapstructure:"pointer_template"`
	Context         map[string]any `mapstructure:"context"`
	Patterns        []string       `mapstructure:"patterns"`
	Ignore          []string       `mapstructure:"ignore"`
	RootDir         string         `mapstructure:"root_dir"`
}

type transformSection struct {
	Group string `mapstructure:"group"`
}

type formatterSection struct {
	Name    string         `mapstructure:"name"`
	Options map[string]any `mapstructure:"options"`
	Output  struct {
		Directory string `mapstructure:"directory"`
	} `mapstructure:"output"`
}

type policySection struct {
	Rule    string         `mapstructure:"rule"`
	Options map[string]any `mapstructure:"options"`
}

type outputSection struct {
	DefaultDirectory string `mapstructure:"default_directory"`
}

type cacheSection struct {
	Enabled   *bool  `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

// LoadConfig reads tokenforge.toml from projectRoot, layered over the
// global XDG config file and built-in defaults (spec §10.3).
func (l *Loader) LoadConfig(ctx context.Context, projectRoot string) (*entities.ProjectConfig, error) {
	config := entities.DefaultProjectConfig()

	if l.paths != nil {
		if globalPath := l.paths.ConfigFile(); globalPath != "" {
			if _, err := os.Stat(globalPath); err == nil {
				if err := l.loadFromFile(globalPath, config); err != nil {
					return nil, fmt.Errorf("loading global config: %w", err)
				}
			}
		}
	}

	projectConfigPath := filepath.Join(projectRoot, "tokenforge.toml")
	if _, err := os.Stat(projectConfigPath); err == nil {
		if err := l.loadFromFile(projectConfigPath, config); err != nil {
			return nil, fmt.Errorf("loading project config: %w", err)
		}
	}

	return config, nil
}

// LoadGlobalConfig reads only the XDG global config file, applied over
// defaults (spec §6 ConfigLoader port).
func (l *Loader) LoadGlobalConfig(ctx context.Context) (*entities.ProjectConfig, error) {
	config := entities.DefaultProjectConfig()
	if l.paths == nil {
		return config, nil
	}
	globalPath := l.paths.ConfigFile()
	if _, err := os.Stat(globalPath); err != nil {
		return config, nil
	}
	if err := l.loadFromFile(globalPath, config); err != nil {
		return nil, fmt.Errorf("loading global config: %w", err)
	}
	return config, nil
}

// loadFromFile decodes one TOML file through a scoped viper instance (its
// native go-toml/v2 codec) and mapstructure, merging the result onto config.
func (l *Loader) loadFromFile(path string, config *entities.ProjectConfig) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("parsing TOML: %w", err)
	}

	var tc tomlConfig
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &tc,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("building decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}

	applyTOMLConfig(tc, config)
	return nil
}

// applyTOMLConfig merges decoded TOML sections onto config, a later file's
// non-empty fields overriding an earlier file's (spec §10.3 layering).
func applyTOMLConfig(tc tomlConfig, config *entities.ProjectConfig) {
	if len(tc.Layers) > 0 {
		layers := make([]entities.LayerConfig, len(tc.Layers))
		for i, l := range tc.Layers {
			layers[i] = entities.LayerConfig{Name: l.Name, Context: l.Context}
		}
		config.Layers = layers
	}

	if len(tc.Sources) > 0 {
		sources := make([]entities.SourceConfig, len(tc.Sources))
		for i, s := range tc.Sources {
			sources[i] = entities.SourceConfig{
				ID:              s.ID,
				Layer:           s.Layer,
				PointerTemplate: s.PointerTemplate,
				Context:         s.Context,
				Patterns:        s.Patterns,
				Ignore:          s.Ignore,
				RootDir:         s.RootDir,
			}
		}
		config.Sources = sources
	}

	if len(tc.Transforms) > 0 {
		transforms := make([]entities.TransformInstanceConfig, len(tc.Transforms))
		for i, t := range tc.Transforms {
			transforms[i] = entities.TransformInstanceConfig{Group: t.Group}
		}
		config.Transforms = transforms
	}

	if len(tc.Formatters) > 0 {
		formatters := make([]entities.FormatterInstanceConfig, len(tc.Formatters))
		for i, f := range tc.Formatters {
			formatters[i] = entities.FormatterInstanceConfig{
				Name:    f.Name,
				Options: f.Options,
				Output:  entities.FormatterOutput{Directory: f.Output.Directory},
			}
		}
		config.Formatters = formatters
	}

	if len(tc.Policies) > 0 {
		policies := make([]entities.PolicyInstanceConfig, len(tc.Policies))
		for i, p := range tc.Policies {
			policies[i] = entities.PolicyInstanceConfig{Rule: p.Rule, Options: p.Options}
		}
		config.Policies = policies
	}

	if tc.Output.DefaultDirectory != "" {
		config.Output.DefaultDirectory = tc.Output.DefaultDirectory
	}

	if tc.Cache.Enabled != nil {
		config.Cache.Enabled = *tc.Cache.Enabled
	}
	if tc.Cache.Directory != "" {
		config.Cache.Directory = tc.Cache.Directory
	}
}

// SaveConfig persists configuration to tokenforge.toml.
func (l *Loader) SaveConfig(ctx context.Context, projectRoot string, config *entities.ProjectConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := os.MkdirAll(projectRoot, 0o755); err != nil {
		return fmt.Errorf("creating project directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("output", map[string]any{"default_directory": config.Output.DefaultDirectory})
	v.Set("cache", map[string]any{
		"enabled":   config.Cache.Enabled,
		"directory": config.Cache.Directory,
	})

	configPath := filepath.Join(projectRoot, "tokenforge.toml")
	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// EnvKeyReplacer maps dotted config keys to their underscore form
// ("cache.directory" -> "cache_directory"). No caller in this module binds
// environment variables with it.
func EnvKeyReplacer() *strings.Replacer {
	return strings.NewReplacer(".", "_")
}

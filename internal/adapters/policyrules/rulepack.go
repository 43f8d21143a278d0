package policyrules

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/lapidist/tokenforge/internal/core/entities"
)

// rulePackDocument is the on-disk shape of one YAML rule-pack file: a list
// of rule instantiations, each naming a registered PolicyRuleFactory and
// its options (spec §4.7, supplemented per §12's rule-pack loader).
type rulePackDocument struct {
	Rules []rulePackEntry `yaml:"rules"`
}

type rulePackEntry struct {
	Rule    string         `yaml:"rule"`
	Options map[string]any `yaml:"options"`
}

// LoadRulePack reads one YAML rule-pack file and returns its rule
// instantiations in file order.
func LoadRulePack(path string) ([]entities.PolicyInstanceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule pack %s: %w", path, err)
	}

	var doc rulePackDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing rule pack %s: %w", path, err)
	}

	instances := make([]entities.PolicyInstanceConfig, 0, len(doc.Rules))
	for _, entry := range doc.Rules {
		if entry.Rule == "" {
			return nil, fmt.Errorf("rule pack %s: entry missing \"rule\" name", path)
		}
		instances = append(instances, entities.PolicyInstanceConfig{
			Rule:    entry.Rule,
			Options: entry.Options,
		})
	}
	return instances, nil
}

// LoadRulePacksDir reads every *.yaml/*.yml file directly under dir and
// concatenates their rule instantiations, in filename order. A missing
// directory is not an error: it means no rule packs are installed.
func LoadRulePacksDir(dir string) ([]entities.PolicyInstanceConfig, error) {
	entriesInDir, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing rule packs in %s: %w", dir, err)
	}

	var all []entities.PolicyInstanceConfig
	for _, entry := range entriesInDir {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		instances, err := LoadRulePack(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		all = append(all, instances...)
	}
	return all, nil
}

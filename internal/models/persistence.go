package models

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

// ScenarioDir is where scenarios are looked up when no directory is given.
const ScenarioDir = "scenarios"

// LoadScenario reads a scenario YAML file. Unknown keys are rejected so typos
// in hand-written scenarios surface before the first tick.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Wrapf(err, "read scenario %s", path)
	}
	return ParseScenario(data)
}

// ParseScenario decodes scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, oops.Wrapf(err, "parse scenario")
	}
	return &s, nil
}

// ListScenarios returns the names of the scenario files in dir.
func ListScenarios(dir string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, oops.Wrapf(err, "list scenarios in %s", dir)
	}

	var scenarios []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			scenarios = append(scenarios, strings.TrimSuffix(entry.Name(), ext))
		}
	}
	return scenarios, nil
}

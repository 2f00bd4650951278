package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

const defaultDateDivisor = 3

// EngagementRules tunes the rescheduling pass that runs after a follow-up is sent.
// Stage keys use the stored stage names (e.g. "New", "Aged_High_Priority").
type EngagementRules struct {
	MaxDaysInStage map[string]int `yaml:"maxDaysInStage"`
	DateDivisor    int            `yaml:"dateDivisor"`
}

// DefaultEngagementRules returns the rules used when no rules file is present.
func DefaultEngagementRules() EngagementRules {
	return EngagementRules{
		MaxDaysInStage: map[string]int{
			"New":                7,
			"Aged_High_Priority": 14,
			"Retargeted_No_Show": 10,
			"Retargeted_Rehash":  10,
		},
		DateDivisor: defaultDateDivisor,
	}
}

// MaxDaysFor returns the stage budget, or 0 when the stage has none configured.
func (r EngagementRules) MaxDaysFor(stage string) int {
	return r.MaxDaysInStage[stage]
}

// LoadEngagementRules reads rules from a YAML file. A missing file yields the defaults;
// keys present in the file override the defaults one by one.
func LoadEngagementRules(path string) (EngagementRules, error) {
	rules := DefaultEngagementRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return rules, nil
	}
	if err != nil {
		return EngagementRules{}, fmt.Errorf("read engagement rules: %w", err)
	}

	return ParseEngagementRules(data)
}

// ParseEngagementRules decodes YAML rules on top of the defaults.
func ParseEngagementRules(data []byte) (EngagementRules, error) {
	rules := DefaultEngagementRules()

	var file EngagementRules
	if err := yaml.Unmarshal(data, &file); err != nil {
		return EngagementRules{}, fmt.Errorf("parse engagement rules: %w", err)
	}

	for stage, days := range file.MaxDaysInStage {
		if days < 0 {
			return EngagementRules{}, fmt.Errorf("maxDaysInStage for %s must not be negative", stage)
		}
		rules.MaxDaysInStage[stage] = days
	}
	if file.DateDivisor > 0 {
		rules.DateDivisor = file.DateDivisor
	}

	return rules, nil
}

// Package config owns the validated parameter bundle the engine consumes.
// There is no package-level cache: the caller loads a Bundle once and
// passes it into every engine call.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"ageing-engine/internal/model"
)

// ErrMissingTransition marks a bundle without one of the named transition
// models. The engine cannot proceed without all of them.
var ErrMissingTransition = fmt.Errorf("missing transition definition")

// RequiredTransitions are the seven named hazard models every bundle must
// define. Severe escalation is derived from progression, not configured.
var RequiredTransitions = []string{
	"ltc_onset",
	"ltc_progression",
	"disability_onset",
	"disability_recovery",
	"hospitalisation",
	"care_home",
	"mortality",
}

// Bundle is the full parameter set for one session: baseline distributions,
// transition models, policy catalogue, unit costs and scoring weights.
type Bundle struct {
	Baseline    model.BaselineConfig    `json:"baseline" yaml:"baseline"`
	Transitions model.TransitionsConfig `json:"transitions" yaml:"transitions"`
	Policies    model.PoliciesConfig    `json:"policies" yaml:"policies"`
	Costs       model.CostsConfig       `json:"costs" yaml:"costs"`
	Scoring     model.ScoringConfig     `json:"scoring" yaml:"scoring"`
}

// Validate checks the bundle is complete enough for the engine to run.
func (b *Bundle) Validate() error {
	if b.Baseline.CohortSize <= 0 {
		return fmt.Errorf("baseline cohort_size must be positive, got %d", b.Baseline.CohortSize)
	}
	if b.Transitions.TimeStepMonths <= 0 {
		return fmt.Errorf("time_step_months must be positive, got %d", b.Transitions.TimeStepMonths)
	}
	for _, name := range RequiredTransitions {
		if _, ok := b.Transitions.Transitions[name]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingTransition, name)
		}
	}
	switch b.Scoring.Normalisation {
	case model.NormZScore, model.NormMinMax:
	default:
		return fmt.Errorf("unknown normalisation method %q", b.Scoring.Normalisation)
	}
	if len(b.Scoring.Weights) == 0 {
		return fmt.Errorf("scoring weights must not be empty")
	}
	for dim := range b.Scoring.Weights {
		switch dim {
		case model.DimHealth, model.DimCost, model.DimCapacity, model.DimEquity:
		default:
			return fmt.Errorf("unknown scoring dimension %q", dim)
		}
	}
	return nil
}

// Section file names inside a config directory.
const (
	fileBaseline    = "baseline_population_config"
	fileTransitions = "transitions_config"
	filePolicies    = "policies_config"
	fileCosts       = "costs_config"
	fileScoring     = "scoring_config"
)

// LoadDir reads a bundle from one file per section, accepting .json, .yaml
// or .yml extensions, and validates the result.
func LoadDir(dir string) (*Bundle, error) {
	b := &Bundle{}
	sections := []struct {
		name string
		dst  any
	}{
		{fileBaseline, &b.Baseline},
		{fileTransitions, &b.Transitions},
		{filePolicies, &b.Policies},
		{fileCosts, &b.Costs},
		{fileScoring, &b.Scoring},
	}
	for _, s := range sections {
		if err := loadSection(dir, s.name, s.dst); err != nil {
			return nil, err
		}
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func loadSection(dir, name string, dst any) error {
	for _, ext := range []string{".json", ".yaml", ".yml"} {
		path := filepath.Join(dir, name+ext)
		data, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		if strings.HasSuffix(path, ".json") {
			if err := json.Unmarshal(data, dst); err != nil {
				return fmt.Errorf("decode %s: %w", path, err)
			}
			return nil
		}
		if err := yaml.Unmarshal(data, dst); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		return nil
	}
	return fmt.Errorf("config section %q not found in %s", name, dir)
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"

	"ageing-engine/internal/model"
)

func TestDefaultValidates(t *testing.T) {
	b := Default()
	if err := b.Validate(); err != nil {
		t.Fatalf("default bundle must validate, got %v", err)
	}
	if len(b.Policies.Policies) == 0 {
		t.Fatal("default bundle must carry a policy catalogue")
	}
}

func TestValidateMissingTransition(t *testing.T) {
	b := Default()
	delete(b.Transitions.Transitions, "mortality")
	err := b.Validate()
	if !errors.Is(err, ErrMissingTransition) {
		t.Fatalf("expected ErrMissingTransition, got %v", err)
	}
}

func TestValidateUnknownDimension(t *testing.T) {
	b := Default()
	b.Scoring.Weights["vibes"] = 0.1
	if err := b.Validate(); err == nil {
		t.Fatal("expected error for unknown scoring dimension")
	}
}

func TestValidateBadNormalisation(t *testing.T) {
	b := Default()
	b.Scoring.Normalisation = "ranked-choice"
	if err := b.Validate(); err == nil {
		t.Fatal("expected error for unknown normalisation method")
	}
}

func writeSection(t *testing.T, dir, name string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name+".json"), data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadDirJSON(t *testing.T) {
	def := Default()
	dir := t.TempDir()
	writeSection(t, dir, "baseline_population_config", def.Baseline)
	writeSection(t, dir, "transitions_config", def.Transitions)
	writeSection(t, dir, "policies_config", def.Policies)
	writeSection(t, dir, "costs_config", def.Costs)
	writeSection(t, dir, "scoring_config", def.Scoring)

	b, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Baseline.CohortSize != def.Baseline.CohortSize {
		t.Fatalf("expected cohort size %d, got %d", def.Baseline.CohortSize, b.Baseline.CohortSize)
	}
	if len(b.Transitions.Transitions) != len(def.Transitions.Transitions) {
		t.Fatal("transitions did not round-trip")
	}
}

func TestLoadDirYAMLOverridesSection(t *testing.T) {
	def := Default()
	dir := t.TempDir()
	writeSection(t, dir, "baseline_population_config", def.Baseline)
	writeSection(t, dir, "transitions_config", def.Transitions)
	writeSection(t, dir, "policies_config", def.Policies)
	writeSection(t, dir, "costs_config", def.Costs)

	scoringYAML := []byte("weights:\n  health: 0.5\n  cost: 0.5\n  capacity: 0.0\n  equity: 0.0\nequity_outcomes: [disability]\nnormalisation: minmax\n")
	if err := os.WriteFile(filepath.Join(dir, "scoring_config.yaml"), scoringYAML, 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}

	b, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Scoring.Normalisation != model.NormMinMax {
		t.Fatalf("expected minmax from yaml, got %q", b.Scoring.Normalisation)
	}
	if b.Scoring.Weights["health"] != 0.5 {
		t.Fatalf("expected health weight 0.5, got %v", b.Scoring.Weights["health"])
	}
}

func TestLoadDirMissingSection(t *testing.T) {
	if _, err := LoadDir(t.TempDir()); err == nil {
		t.Fatal("expected error for empty config directory")
	}
}

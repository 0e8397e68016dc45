package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestValidate_Default(t *testing.T) {
	warnings := Default().Validate()
	if len(warnings) != 0 {
		t.Errorf("default config should have no warnings, got %v", warnings)
	}
}

func TestValidate_ThresholdRange(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  bool // true = should warn
	}{
		{"zero", 0, false},
		{"normal", 0.5, false},
		{"max", 1.0, false},
		{"negative", -0.1, true},
		{"too_high", 1.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Analysis.MatchThreshold = tt.value
			hasWarn := hasWarning(cfg.Validate(), "match_threshold")
			if hasWarn != tt.want {
				t.Errorf("match_threshold=%.1f: hasWarn=%v, want=%v", tt.value, hasWarn, tt.want)
			}
		})
	}
}

func TestValidate_Weights(t *testing.T) {
	cfg := Default()
	cfg.Analysis.NameWeight = 0.9
	if !hasWarning(cfg.Validate(), "name_weight") {
		t.Error("expected warning about weights not summing to 1")
	}
}

func TestValidate_Hops(t *testing.T) {
	cfg := Default()
	cfg.Analysis.InconsistencyHops = 0
	cfg.Analysis.NeighborhoodHops = -1
	warnings := cfg.Validate()
	if !hasWarning(warnings, "inconsistency_hops") {
		t.Error("expected warning about inconsistency_hops")
	}
	if !hasWarning(warnings, "neighborhood_hops") {
		t.Error("expected warning about neighborhood_hops")
	}
}

func TestValidate_UnknownLevelAndFormat(t *testing.T) {
	cfg := Default()
	cfg.Analysis.FunctionalLevels = []string{"persona", "journeys"}
	cfg.Log.Format = "xml"
	warnings := cfg.Validate()
	if !hasWarning(warnings, "journeys") {
		t.Error("expected warning about unknown functional level")
	}
	if !hasWarning(warnings, "log format") {
		t.Error("expected warning about log format")
	}
}

func TestThresholds(t *testing.T) {
	th := Default().Analysis.Thresholds()
	if th.Overlap != 0.5 || th.Match != 0.3 || th.Redundancy != 0.8 {
		t.Errorf("expected 0.5/0.3/0.8, got %+v", th)
	}
	if th.Weights.Name != 0.7 || th.Weights.Property != 0.3 {
		t.Errorf("expected weights 0.7/0.3, got %+v", th.Weights)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ontograph.yaml")
	content := `
log:
  level: debug
analysis:
  overlap_threshold: 0.6
  functional_levels: [persona, outcomes]
dataset:
  skip_dangling: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ONTOGRAPH_ANALYSIS_MATCH_THRESHOLD", "0.4")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("expected default log format text, got %s", cfg.Log.Format)
	}
	if cfg.Analysis.OverlapThreshold != 0.6 {
		t.Errorf("expected overlap_threshold 0.6, got %v", cfg.Analysis.OverlapThreshold)
	}
	if cfg.Analysis.MatchThreshold != 0.4 {
		t.Errorf("expected env match_threshold 0.4, got %v", cfg.Analysis.MatchThreshold)
	}
	if cfg.Analysis.RedundancyThreshold != 0.8 {
		t.Errorf("expected default redundancy_threshold 0.8, got %v", cfg.Analysis.RedundancyThreshold)
	}
	if !reflect.DeepEqual(cfg.Analysis.FunctionalLevels, []string{"persona", "outcomes"}) {
		t.Errorf("expected [persona outcomes], got %v", cfg.Analysis.FunctionalLevels)
	}
	if !cfg.Dataset.SkipDangling {
		t.Error("expected skip_dangling true")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate_GateSeverity(t *testing.T) {
	cfg := Default()
	cfg.Gates.AcyclicSeverity = "blocker"
	if !hasWarning(cfg.Validate(), "acyclic_severity") {
		t.Error("expected warning about unknown gate severity")
	}
}

package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/efebarandurmaz/ontograph/internal/ontology"
	"github.com/efebarandurmaz/ontograph/internal/overlap"
	"github.com/efebarandurmaz/ontograph/internal/similarity"
)

// Config holds all application configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Dataset  DatasetConfig  `mapstructure:"dataset"`
	Gates    GatesConfig    `mapstructure:"gates"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig selects the OTLP collector. An empty endpoint disables export.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

// AnalysisConfig tunes the similarity thresholds and neighborhood radii.
type AnalysisConfig struct {
	OverlapThreshold    float64  `mapstructure:"overlap_threshold"`
	MatchThreshold      float64  `mapstructure:"match_threshold"`
	RedundancyThreshold float64  `mapstructure:"redundancy_threshold"`
	NameWeight          float64  `mapstructure:"name_weight"`
	PropertyWeight      float64  `mapstructure:"property_weight"`
	InconsistencyHops   int      `mapstructure:"inconsistency_hops"`
	NeighborhoodHops    int      `mapstructure:"neighborhood_hops"`
	FunctionalLevels    []string `mapstructure:"functional_levels"`
}

type DatasetConfig struct {
	SkipDangling bool `mapstructure:"skip_dangling"`
}

// GatesConfig selects the quality gates run after analysis. Severities are
// critical, required or advisory.
type GatesConfig struct {
	Enabled              bool    `mapstructure:"enabled"`
	DanglingSeverity     string  `mapstructure:"dangling_severity"`
	AcyclicSeverity      string  `mapstructure:"acyclic_severity"`
	ConsistencyThreshold float64 `mapstructure:"consistency_threshold"`
	ConsistencySeverity  string  `mapstructure:"consistency_severity"`
	MaxComponents        int     `mapstructure:"max_components"` // 0 disables
	ComponentsSeverity   string  `mapstructure:"components_severity"`
}

// Thresholds converts the analysis section for the overlap analyzers.
func (a AnalysisConfig) Thresholds() overlap.Thresholds {
	return overlap.Thresholds{
		Overlap:    a.OverlapThreshold,
		Match:      a.MatchThreshold,
		Redundancy: a.RedundancyThreshold,
		Weights:    similarity.Weights{Name: a.NameWeight, Property: a.PropertyWeight},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	w := similarity.DefaultWeights()
	return &Config{
		Log: LogConfig{Level: "info", Format: "text"},
		Tracing: TracingConfig{
			ServiceName: "ontograph",
			SampleRate:  1.0,
		},
		Analysis: AnalysisConfig{
			OverlapThreshold:    similarity.OverlapThreshold,
			MatchThreshold:      similarity.MatchThreshold,
			RedundancyThreshold: similarity.RedundancyThreshold,
			NameWeight:          w.Name,
			PropertyWeight:      w.Property,
			InconsistencyHops:   5,
			NeighborhoodHops:    2,
			FunctionalLevels:    ontology.LevelOrder(ontology.LayerFunctional),
		},
		Gates: GatesConfig{
			DanglingSeverity:     "critical",
			AcyclicSeverity:      "required",
			ConsistencyThreshold: 0.8,
			ConsistencySeverity:  "advisory",
			ComponentsSeverity:   "advisory",
		},
	}
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	thresholds := []struct {
		name  string
		value float64
	}{
		{"overlap_threshold", c.Analysis.OverlapThreshold},
		{"match_threshold", c.Analysis.MatchThreshold},
		{"redundancy_threshold", c.Analysis.RedundancyThreshold},
		{"tracing sample_rate", c.Tracing.SampleRate},
		{"gates consistency_threshold", c.Gates.ConsistencyThreshold},
	}
	for _, th := range thresholds {
		if th.value < 0 || th.value > 1 {
			warnings = append(warnings, fmt.Sprintf("%s %.2f is outside [0.0, 1.0]", th.name, th.value))
		}
	}

	if sum := c.Analysis.NameWeight + c.Analysis.PropertyWeight; math.Abs(sum-1) > 1e-9 {
		warnings = append(warnings, fmt.Sprintf("name_weight + property_weight = %.2f, expected 1.0", sum))
	}

	if c.Analysis.InconsistencyHops < 1 {
		warnings = append(warnings, fmt.Sprintf("inconsistency_hops %d is below 1", c.Analysis.InconsistencyHops))
	}
	if c.Analysis.NeighborhoodHops < 1 {
		warnings = append(warnings, fmt.Sprintf("neighborhood_hops %d is below 1", c.Analysis.NeighborhoodHops))
	}

	known := make(map[string]bool)
	for _, l := range ontology.LevelOrder(ontology.LayerFunctional) {
		known[l] = true
	}
	for _, l := range c.Analysis.FunctionalLevels {
		if !known[l] {
			warnings = append(warnings, fmt.Sprintf("functional level '%s' is not a known functional level", l))
		}
	}

	for name, sev := range map[string]string{
		"dangling_severity":    c.Gates.DanglingSeverity,
		"acyclic_severity":     c.Gates.AcyclicSeverity,
		"consistency_severity": c.Gates.ConsistencySeverity,
		"components_severity":  c.Gates.ComponentsSeverity,
	} {
		switch sev {
		case "", "critical", "required", "advisory":
		default:
			warnings = append(warnings, fmt.Sprintf("gates %s '%s' is not one of critical, required, advisory", name, sev))
		}
	}

	switch c.Log.Format {
	case "", "text", "json":
	default:
		warnings = append(warnings, fmt.Sprintf("log format '%s' is not one of text, json", c.Log.Format))
	}

	return warnings
}

// Load reads configuration from file and environment on top of Default.
// An empty path reads the environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix("ONTOGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys absent
// from the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("analysis.overlap_threshold", d.Analysis.OverlapThreshold)
	v.SetDefault("analysis.match_threshold", d.Analysis.MatchThreshold)
	v.SetDefault("analysis.redundancy_threshold", d.Analysis.RedundancyThreshold)
	v.SetDefault("analysis.name_weight", d.Analysis.NameWeight)
	v.SetDefault("analysis.property_weight", d.Analysis.PropertyWeight)
	v.SetDefault("analysis.inconsistency_hops", d.Analysis.InconsistencyHops)
	v.SetDefault("analysis.neighborhood_hops", d.Analysis.NeighborhoodHops)
	v.SetDefault("analysis.functional_levels", d.Analysis.FunctionalLevels)
	v.SetDefault("dataset.skip_dangling", d.Dataset.SkipDangling)
	v.SetDefault("gates.enabled", d.Gates.Enabled)
	v.SetDefault("gates.dangling_severity", d.Gates.DanglingSeverity)
	v.SetDefault("gates.acyclic_severity", d.Gates.AcyclicSeverity)
	v.SetDefault("gates.consistency_threshold", d.Gates.ConsistencyThreshold)
	v.SetDefault("gates.consistency_severity", d.Gates.ConsistencySeverity)
	v.SetDefault("gates.max_components", d.Gates.MaxComponents)
	v.SetDefault("gates.components_severity", d.Gates.ComponentsSeverity)
}

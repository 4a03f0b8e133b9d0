package neat

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"
)

// Elite selection policies. See ReproductionConfig.EliteSelection.
const (
	EliteFittest = "fittest" // carry the highest shared-fitness networks
	EliteLiteral = "literal" // carry the front of the ascending ranking (lowest fitness)
)

// Config stores the configuration parameters for the trainer.
type Config struct {
	Neat         NeatConfig         `yaml:"neat"`
	Genome       GenomeConfig       `yaml:"genome"`
	SpeciesSet   SpeciesSetConfig   `yaml:"species_set"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
}

// NeatConfig holds run-level parameters.
type NeatConfig struct {
	PopSize              int     `ini:"pop_size" yaml:"pop_size"`
	ResetOnExtinction    bool    `ini:"reset_on_extinction" yaml:"reset_on_extinction"`
	Seed                 int64   `ini:"seed" yaml:"seed"` // 0 picks a time based seed
	FitnessThreshold     float64 `ini:"fitness_threshold" yaml:"fitness_threshold"`
	NoFitnessTermination bool    `ini:"no_fitness_termination" yaml:"no_fitness_termination"` // If true, Run ignores fitness_threshold
}

// GenomeConfig holds parameters for the structure, distance and mutation of genomes.
type GenomeConfig struct {
	NumInputs          int    `ini:"num_inputs" yaml:"num_inputs"`
	NumOutputs         int    `ini:"num_outputs" yaml:"num_outputs"`
	FeedForward        bool   `ini:"feed_forward" yaml:"feed_forward"` // If true, recurrent connections are disallowed
	ActivationDefault  string `ini:"activation_default" yaml:"activation_default"`
	AggregationDefault string `ini:"aggregation_default" yaml:"aggregation_default"`

	// Compatibility distance: C1*excess + C2*disjoint + C3*avgWeightDiff.
	CompatibilityExcessCoefficient   float64 `ini:"compatibility_excess_coefficient" yaml:"compatibility_excess_coefficient"`
	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient" yaml:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient" yaml:"compatibility_weight_coefficient"`

	WeightInitRange   float64 `ini:"weight_init_range" yaml:"weight_init_range"` // fresh weights are uniform in [-r, r]
	WeightMutatePower float64 `ini:"weight_mutate_power" yaml:"weight_mutate_power"`
	WeightMinValue    float64 `ini:"weight_min_value" yaml:"weight_min_value"`
	WeightMaxValue    float64 `ini:"weight_max_value" yaml:"weight_max_value"`

	// Mutation bands, checked in this order against a single uniform draw.
	WeightMutateProb  float64 `ini:"weight_mutate_prob" yaml:"weight_mutate_prob"`
	WeightReplaceProb float64 `ini:"weight_replace_prob" yaml:"weight_replace_prob"` // random-vs-perturb, per connection
	NodeAddProb       float64 `ini:"node_add_prob" yaml:"node_add_prob"`
	ConnAddProb       float64 `ini:"conn_add_prob" yaml:"conn_add_prob"`
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold" yaml:"compatibility_threshold"`
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	SurvivalRate   float64 `ini:"survival_rate" yaml:"survival_rate"`
	EliteSelection string  `ini:"elite_selection" yaml:"elite_selection"`
}

// DefaultConfig returns the stock tunables. Loaded files override individual keys.
func DefaultConfig() *Config {
	return &Config{
		Neat: NeatConfig{
			PopSize:              50,
			NoFitnessTermination: true,
		},
		Genome: GenomeConfig{
			NumInputs:                        2,
			NumOutputs:                       1,
			FeedForward:                      true,
			ActivationDefault:                "sigmoid",
			AggregationDefault:               "sum",
			CompatibilityExcessCoefficient:   1.0,
			CompatibilityDisjointCoefficient: 1.0,
			CompatibilityWeightCoefficient:   0.3,
			WeightInitRange:                  1.0,
			WeightMutatePower:                0.5,
			WeightMinValue:                   -30,
			WeightMaxValue:                   30,
			WeightMutateProb:                 0.8,
			WeightReplaceProb:                0.1,
			NodeAddProb:                      0.03,
			ConnAddProb:                      0.05,
		},
		SpeciesSet: SpeciesSetConfig{
			CompatibilityThreshold: 3.0,
		},
		Reproduction: ReproductionConfig{
			SurvivalRate:   0.1,
			EliteSelection: EliteFittest,
		},
	}
}

// LoadConfig loads configuration parameters from an INI file, or from YAML when
// the file name ends in .yaml or .yml. Keys missing from the file keep their
// DefaultConfig value.
func LoadConfig(filePath string) (*Config, error) {
	config := DefaultConfig()

	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", filePath, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file '%s': %w", filePath, err)
		}
	default:
		cfg, err := ini.LoadSources(ini.LoadOptions{
			IgnoreInlineComment:         true,
			UnescapeValueCommentSymbols: true,
		}, filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
		}
		if err := cfg.Section("NEAT").MapTo(&config.Neat); err != nil {
			return nil, fmt.Errorf("failed to map [NEAT] section: %w", err)
		}
		if err := cfg.Section("DefaultGenome").MapTo(&config.Genome); err != nil {
			return nil, fmt.Errorf("failed to map [DefaultGenome] section: %w", err)
		}
		if err := cfg.Section("DefaultSpeciesSet").MapTo(&config.SpeciesSet); err != nil {
			return nil, fmt.Errorf("failed to map [DefaultSpeciesSet] section: %w", err)
		}
		if err := cfg.Section("DefaultReproduction").MapTo(&config.Reproduction); err != nil {
			return nil, fmt.Errorf("failed to map [DefaultReproduction] section: %w", err)
		}
	}

	config.Genome.ActivationDefault = cleanIniString(config.Genome.ActivationDefault)
	config.Genome.AggregationDefault = cleanIniString(config.Genome.AggregationDefault)
	config.Reproduction.EliteSelection = strings.ToLower(cleanIniString(config.Reproduction.EliteSelection))

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(filePath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file '%s': %w", filePath, err)
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	g := c.Genome
	if c.Neat.PopSize <= 0 {
		return fmt.Errorf("config error: pop_size must be positive")
	}
	if g.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive")
	}
	if g.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive")
	}
	if g.CompatibilityExcessCoefficient < 0 || g.CompatibilityDisjointCoefficient < 0 || g.CompatibilityWeightCoefficient < 0 {
		return fmt.Errorf("config error: compatibility coefficients cannot be negative")
	}
	if c.SpeciesSet.CompatibilityThreshold <= 0 {
		return fmt.Errorf("config error: compatibility_threshold must be positive")
	}
	if g.WeightMaxValue < g.WeightMinValue {
		return fmt.Errorf("config error: weight_max_value cannot be less than weight_min_value")
	}
	if g.WeightInitRange < 0 || g.WeightMutatePower < 0 {
		return fmt.Errorf("config error: weight_init_range and weight_mutate_power cannot be negative")
	}

	probs := []struct {
		name  string
		value float64
	}{
		{"weight_mutate_prob", g.WeightMutateProb},
		{"weight_replace_prob", g.WeightReplaceProb},
		{"node_add_prob", g.NodeAddProb},
		{"conn_add_prob", g.ConnAddProb},
		{"survival_rate", c.Reproduction.SurvivalRate},
	}
	for _, p := range probs {
		if p.value < 0 || p.value > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", p.name)
		}
	}
	if g.WeightMutateProb+g.NodeAddProb+g.ConnAddProb > 1 {
		return fmt.Errorf("config error: weight_mutate_prob + node_add_prob + conn_add_prob cannot exceed 1")
	}

	if _, err := GetActivation(g.ActivationDefault); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if _, err := GetAggregation(g.AggregationDefault); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	switch c.Reproduction.EliteSelection {
	case EliteFittest, EliteLiteral:
	default:
		return fmt.Errorf("config error: invalid elite_selection '%s', must be one of '%s', '%s'",
			c.Reproduction.EliteSelection, EliteFittest, EliteLiteral)
	}
	return nil
}

// cleanIniString removes inline comments and trims whitespace from a string read from INI.
func cleanIniString(s string) string {
	if idx := strings.IndexAny(s, "#;"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

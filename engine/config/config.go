// Package config holds the engine's tunable parameters. Compiled-in
// defaults match the shipped learning behavior; an optional YAML file
// overrides individual values for experimentation.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Learning holds EMA learning rates.
type Learning struct {
	// HourlyAlpha and DayOfWeekAlpha apply to explicit self-reports.
	HourlyAlpha    float64 `yaml:"hourly_alpha"`
	DayOfWeekAlpha float64 `yaml:"day_of_week_alpha"`
	// BlockAlpha applies to the per-block average of explicit reports.
	BlockAlpha float64 `yaml:"block_alpha"`
	// ObservedAlpha applies to one-off conversational statements,
	// ObservedPatternAlpha to persisting-pattern language. User-stated
	// preferences are weighted above passive logs.
	ObservedAlpha        float64 `yaml:"observed_alpha"`
	ObservedPatternAlpha float64 `yaml:"observed_pattern_alpha"`
	// TimeOfDayBands maps a coarse band label ("morning", ...) to the
	// hours it covers. An observed preference for a band updates every
	// hour in it; an unknown band updates none.
	TimeOfDayBands map[string][]int `yaml:"time_of_day_bands"`
}

// Prediction holds the blend weights of the three-term energy predictor.
type Prediction struct {
	HourWeight  float64 `yaml:"hour_weight"`
	DayWeight   float64 `yaml:"day_weight"`
	BlockWeight float64 `yaml:"block_weight"`
}

// Scoring holds the task-block scorer weights.
type Scoring struct {
	EnergyWeight   float64 `yaml:"energy_weight"`
	CategoryWeight float64 `yaml:"category_weight"`
	HistoryWeight  float64 `yaml:"history_weight"`
	DurationWeight float64 `yaml:"duration_weight"`
	// DurationFitScore is the fixed placeholder sub-score. A real
	// remaining-capacity computation is a reserved extension point; the
	// intended algorithm is undefined upstream.
	DurationFitScore float64 `yaml:"duration_fit_score"`
}

// Ranking holds suggestion ranker defaults.
type Ranking struct {
	MaxSuggestions int `yaml:"max_suggestions"`
	DaysToCheck    int `yaml:"days_to_check"`
}

// Config aggregates all engine tunables.
type Config struct {
	Learning   Learning   `yaml:"learning"`
	Prediction Prediction `yaml:"prediction"`
	Scoring    Scoring    `yaml:"scoring"`
	Ranking    Ranking    `yaml:"ranking"`
}

// Default returns the shipped parameter set.
func Default() *Config {
	return &Config{
		Learning: Learning{
			HourlyAlpha:          0.1,
			DayOfWeekAlpha:       0.1,
			BlockAlpha:           0.15,
			ObservedAlpha:        0.2,
			ObservedPatternAlpha: 0.3,
			TimeOfDayBands: map[string][]int{
				"morning":   {6, 7, 8, 9, 10},
				"midday":    {11, 12, 13},
				"afternoon": {14, 15, 16, 17},
				"evening":   {18, 19, 20, 21},
				"night":     {22, 23},
			},
		},
		Prediction: Prediction{
			HourWeight:  0.4,
			DayWeight:   0.3,
			BlockWeight: 0.3,
		},
		Scoring: Scoring{
			EnergyWeight:     0.30,
			CategoryWeight:   0.25,
			HistoryWeight:    0.25,
			DurationWeight:   0.20,
			DurationFitScore: 0.8,
		},
		Ranking: Ranking{
			MaxSuggestions: 3,
			DaysToCheck:    7,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path. An
// empty path returns plain defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "unmarshal config %s", path)
	}
	return cfg, nil
}

package score

import (
	"fmt"
	"math"
)

// Weights distribute the four dimension scores into the weighted total.
// They must sum to 1.0.
type Weights struct {
	Usefulness float64 `yaml:"usefulness" json:"usefulness"`
	Quality    float64 `yaml:"quality" json:"quality"`
	Innovation float64 `yaml:"innovation" json:"innovation"`
	Momentum   float64 `yaml:"momentum" json:"momentum"`
}

// Thresholds map a total score onto a recommendation. Both bounds are
// inclusive: total >= Build recommends BUILD, total >= Watch recommends
// WATCH, anything below is SKIP.
type Thresholds struct {
	Build int `yaml:"build" json:"build"`
	Watch int `yaml:"watch" json:"watch"`
}

// Config is the scorer's tuning knobs.
type Config struct {
	Weights    Weights    `yaml:"weights" json:"weights"`
	Thresholds Thresholds `yaml:"thresholds" json:"thresholds"`
}

// DefaultConfig returns the stock scoring configuration.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Usefulness: 0.30,
			Quality:    0.30,
			Innovation: 0.20,
			Momentum:   0.20,
		},
		Thresholds: Thresholds{
			Build: 70,
			Watch: 40,
		},
	}
}

// Validate checks weight and threshold consistency.
func (c Config) Validate() error {
	w := c.Weights
	for _, v := range []float64{w.Usefulness, w.Quality, w.Innovation, w.Momentum} {
		if v < 0 {
			return fmt.Errorf("scoring weights must be non-negative")
		}
	}
	sum := w.Usefulness + w.Quality + w.Innovation + w.Momentum
	if math.Abs(sum-1.0) > 0.001 {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.3f", sum)
	}
	t := c.Thresholds
	if t.Build < 0 || t.Build > 100 || t.Watch < 0 || t.Watch > 100 {
		return fmt.Errorf("thresholds must be between 0 and 100")
	}
	if t.Watch > t.Build {
		return fmt.Errorf("watch threshold (%d) must not exceed build threshold (%d)", t.Watch, t.Build)
	}
	return nil
}

// Package config loads user-facing YAML configuration: a routing config
// (per-metric alpha/tolerated-scale, CH mode) and an fmi column schema, so
// the module is runnable end to end from plain files instead of requiring
// every caller to build a routing.RoutingConfig or fmi.Schema by hand.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"mcrouter/pkg/perr"
	"mcrouter/pkg/routing"
)

// RoutingFile is the on-disk YAML shape for a routing configuration. Metric
// weights and tolerances are keyed by metric name rather than column index,
// since column order is a property of the graph that built them, not of
// the routing intent the user is expressing.
type RoutingFile struct {
	Alpha          map[string]float64 `yaml:"alpha"`
	ToleratedScale map[string]float64 `yaml:"tolerated_scale,omitempty"`
	CH             bool               `yaml:"ch,omitempty"`
}

// LoadRoutingConfig reads a RoutingFile from path and resolves it against
// metricNames (the graph's column order, e.g. ["distance", "duration",
// "lanes"]) into a routing.RoutingConfig. Unmentioned metrics default to
// alpha 0 and an unbounded tolerated scale. An alpha or tolerated_scale
// entry naming a metric absent from metricNames is a *perr.ConfigError
// ("unknown metric id").
func LoadRoutingConfig(path string, metricNames []string) (routing.RoutingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return routing.RoutingConfig{}, fmt.Errorf("reading routing config %s: %w", path, err)
	}

	var rf RoutingFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return routing.RoutingConfig{}, &perr.ConfigError{Field: path, Msg: fmt.Sprintf("invalid yaml: %v", err)}
	}
	return rf.Resolve(metricNames)
}

// Resolve turns an already-parsed RoutingFile into a routing.RoutingConfig,
// validating every metric name it mentions against metricNames.
func (rf RoutingFile) Resolve(metricNames []string) (routing.RoutingConfig, error) {
	dim := len(metricNames)
	idxOf := make(map[string]int, dim)
	for i, name := range metricNames {
		idxOf[name] = i
	}

	alpha := make([]float64, dim)
	for name, v := range rf.Alpha {
		idx, ok := idxOf[name]
		if !ok {
			return routing.RoutingConfig{}, &perr.ConfigError{Field: "alpha." + name, Msg: "unknown metric id"}
		}
		alpha[idx] = v
	}

	tolerated := make([]float64, dim)
	for i := range tolerated {
		tolerated[i] = math.Inf(1)
	}
	for name, v := range rf.ToleratedScale {
		idx, ok := idxOf[name]
		if !ok {
			return routing.RoutingConfig{}, &perr.ConfigError{Field: "tolerated_scale." + name, Msg: "unknown metric id"}
		}
		if v < 1 {
			return routing.RoutingConfig{}, &perr.ConfigError{Field: "tolerated_scale." + name, Msg: "must be >= 1"}
		}
		tolerated[idx] = v
	}

	var sum float64
	for _, a := range alpha {
		sum += a
	}
	if sum <= 0 {
		return routing.RoutingConfig{}, &perr.ConfigError{Field: "alpha", Msg: "sum of alphas must be > 0"}
	}

	cfg := routing.NewConfig(alpha, rf.CH)
	cfg.ToleratedScale = tolerated
	return cfg, nil
}

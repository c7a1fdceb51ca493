package routing

import (
	"math"

	"mcrouter/pkg/perr"
)

// RoutingConfig controls how a query scalarizes the metric vector and
// which search mode it runs in.
//
// Alpha is the per-metric weight of the linear scalarization
// cost(e) = sum_k Alpha[k] * metrics[e][k]. Its length must equal the
// graph's dimension.
//
// ToleratedScale is the per-metric relaxation tolerance (length == len(Alpha),
// each entry in [1, +Inf]). During relaxation, a partial path is pruned as
// soon as its running cost on metric k exceeds ToleratedScale[k] times the
// best per-metric cost to dst found so far; +Inf disables the bound for
// that metric. This is what lets a query stay cheap when Alpha is near-zero
// on some dimensions, at the cost of potentially missing a path that is
// better in that dimension alone. IsCH selects the ascend-only bidirectional
// search over a CH-augmented graph; it must only be set true against a
// graph produced by pkg/ch using the same Alpha, since the overlay's
// shortcuts were computed against one fixed scalar weight.
type RoutingConfig struct {
	Alpha          []float64
	ToleratedScale []float64
	IsCH           bool
}

// NewConfig builds a RoutingConfig with ToleratedScale defaulted to +Inf on
// every metric (no early pruning, the exact Pareto-correct setting).
func NewConfig(alpha []float64, isCH bool) RoutingConfig {
	tolerated := make([]float64, len(alpha))
	for i := range tolerated {
		tolerated[i] = math.Inf(1)
	}
	return RoutingConfig{Alpha: alpha, ToleratedScale: tolerated, IsCH: isCH}
}

func (c RoutingConfig) validate(dim int) error {
	if len(c.Alpha) != dim {
		return &perr.QueryError{Msg: "alpha vector length does not match graph dimension"}
	}
	if len(c.ToleratedScale) != dim {
		return &perr.QueryError{Msg: "tolerated scale vector length does not match graph dimension"}
	}
	for _, t := range c.ToleratedScale {
		if t < 1 {
			return &perr.QueryError{Msg: "tolerated scale must be >= 1"}
		}
	}
	return nil
}

func (c RoutingConfig) scalar(row []float64) float64 {
	var s float64
	for k := 0; k < len(c.Alpha) && k < len(row); k++ {
		s += c.Alpha[k] * row[k]
	}
	return s
}

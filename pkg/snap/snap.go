// Package snap resolves free-form lat/lon query points to a road edge and
// an interpolation ratio along it, for human-friendly coordinate input
// (cmd/route) rather than raw node ids. It indexes edges with an R-tree
// instead of a flat sorted-grid scan.
package snap

import (
	"errors"
	"math"

	"github.com/tidwall/rtree"

	"mcrouter/pkg/geo"
	"mcrouter/pkg/graph"
)

// maxSnapDistMeters bounds how far a query point may be from the nearest
// road before it is rejected as not actually on the mapped network.
const maxSnapDistMeters = 500.0

// ErrPointTooFar is returned when the nearest road edge is farther than
// maxSnapDistMeters from the query point.
var ErrPointTooFar = errors.New("snap: point too far from any road")

// Result is a query point resolved onto a road edge.
type Result struct {
	Edge  graph.EdgeIdx
	U, V  graph.NodeIdx
	Ratio float64 // 0 = at U, 1 = at V
	Dist  float64 // meters from the query point to the snapped point
}

// Index is an R-tree spatial index over a graph's forward edges, used to
// resolve lat/lon query points to the nearest road.
type Index struct {
	tree rtree.RTreeG[graph.EdgeIdx]
	g    *graph.Graph
}

// Build indexes every forward edge of g by its bounding box.
func Build(g *graph.Graph) *Index {
	idx := &Index{g: g}
	for u := 0; u < g.NodeCount(); u++ {
		start, end := g.FwdRange(graph.NodeIdx(u))
		for s := start; s < end; s++ {
			e := g.FwdEdgeAt(s)
			v := g.EdgeDst(e)
			uc, vc := g.Coord(graph.NodeIdx(u)), g.Coord(v)
			min := [2]float64{math.Min(uc.Lon, vc.Lon), math.Min(uc.Lat, vc.Lat)}
			max := [2]float64{math.Max(uc.Lon, vc.Lon), math.Max(uc.Lat, vc.Lat)}
			idx.tree.Insert(min, max, e)
		}
	}
	return idx
}

// degreesPerMeter is a conservative (over-wide) conversion used only to
// size search boxes; the exact distance check still runs through
// geo.PointToSegmentDist.
const degreesPerMeter = 1.0 / 111_000.0

// Snap finds the nearest road edge to (lat, lon). It searches a growing box
// around the point until a candidate is found and the box radius exceeds
// the best candidate's distance (so a closer edge just outside the first
// box can't be missed), then enforces maxSnapDistMeters.
func (idx *Index) Snap(lat, lon float64) (Result, error) {
	var best Result
	bestDist := math.Inf(1)
	found := false

	for radiusM := 50.0; radiusM <= 2*maxSnapDistMeters; radiusM *= 2 {
		d := radiusM * degreesPerMeter
		min := [2]float64{lon - d, lat - d}
		max := [2]float64{lon + d, lat + d}

		idx.tree.Search(min, max, func(_, _ [2]float64, e graph.EdgeIdx) bool {
			u := idx.g.EdgeSrc(e)
			v := idx.g.EdgeDst(e)
			uc, vc := idx.g.Coord(u), idx.g.Coord(v)
			dist, ratio := geo.PointToSegmentDist(lat, lon, uc.Lat, uc.Lon, vc.Lat, vc.Lon)
			if dist < bestDist {
				bestDist = dist
				best = Result{Edge: e, U: u, V: v, Ratio: ratio, Dist: dist}
				found = true
			}
			return true
		})

		if found && bestDist <= radiusM {
			break
		}
	}

	if !found || bestDist > maxSnapDistMeters {
		return Result{}, ErrPointTooFar
	}
	return best, nil
}

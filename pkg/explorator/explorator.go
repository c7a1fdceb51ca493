// Package explorator implements Pareto-optimal path enumeration (L3):
// repeatedly invoking the single-pair Dijkstra core with scalarization
// weights derived from the facet normals of the lower convex hull of cost
// vectors discovered so far.
//
// No n-dimensional convex-hull or Delaunay triangulation library exists
// anywhere in the dependency pool this engine draws on, so facet
// enumeration here is hand-written: candidate facets are every
// affinely-independent D-point subset of the discovered set, and a facet's
// outward normal is found by solving a small dense linear system with
// gonum's VecDense.SolveVec (D-1 orthogonality constraints against the facet's own
// points, plus a sum-to-one constraint that fixes scale the same way an
// alpha vector is normalized).
package explorator

import (
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"

	"mcrouter/pkg/approx"
	"mcrouter/pkg/graph"
	"mcrouter/pkg/routing"
)

// Explore enumerates Pareto-optimal paths from src to dst across g's full
// metric dimension. It always queries with plain (non-CH) Dijkstra: a CH
// overlay is only valid for the single scalar weight it was contracted
// against, while this loop varies alpha every iteration, so it can never
// reuse one.  A nil, nil result means src cannot reach dst at all.
func Explore(g *graph.Graph, src, dst graph.NodeIdx) ([]routing.Path, error) {
	dim := g.Dim()

	query := func(alpha []float64) (routing.Path, bool, error) {
		cfg := routing.NewConfig(alpha, false)
		return routing.Query(g, cfg, src, dst)
	}

	if dim == 1 {
		path, ok, err := query([]float64{1})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return []routing.Path{path}, nil
	}

	var points []routing.Path
	addPoint := func(p routing.Path) {
		for _, existing := range points {
			if approx.VectorsEqual(existing.Metrics, p.Metrics) {
				return
			}
		}
		points = append(points, p)
	}

	for k := 0; k < dim; k++ {
		alpha := make([]float64, dim)
		alpha[k] = 1
		path, ok, err := query(alpha)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		addPoint(path)
	}

	if len(points) < dim {
		// The unit-direction probes found fewer distinct cost vectors than
		// there are metrics, so no dim-point facet can be formed; the
		// distinct seed paths are returned as they are.
		return points, nil
	}

	facets := computeFacets(points, dim)
	for {
		progress := false
		for i := range facets {
			if facets[i].probed {
				continue
			}
			path, ok, err := query(facets[i].normal)
			if err != nil {
				return nil, err
			}
			if !ok {
				facets[i].probed = true
				continue
			}
			val := dot(facets[i].normal, path.Metrics)
			if approx.Less(val, facets[i].value) {
				addPoint(path)
				progress = true
				facets = computeFacets(points, dim)
				break
			}
			facets[i].probed = true
		}
		if !progress {
			break
		}
	}

	return hullVertices(points, facets), nil
}

// facet is a candidate face of the lower convex hull: a set of dim
// affinely-independent points, the outward unit-sum normal through them,
// and that normal's dot product with any one of the facet's points (the
// hyperplane's supporting value).
type facet struct {
	indices []int
	normal  []float64
	value   float64
	probed  bool
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

// computeFacets enumerates every dim-point combination of points, solves
// for the hyperplane through them, and keeps the ones that are genuine
// supporting hyperplanes of the lower hull: non-negative normal, and every
// other point lying on or above the hyperplane.
func computeFacets(points []routing.Path, dim int) []facet {
	n := len(points)
	var out []facet
	seen := make(map[string]bool)

	combo := make([]int, dim)
	var recurse func(start, depth int)
	recurse = func(start, depth int) {
		if depth == dim {
			f, ok := tryFacet(points, combo, dim)
			if !ok {
				return
			}
			key := facetKey(f.normal)
			if seen[key] {
				return
			}
			seen[key] = true
			out = append(out, f)
			return
		}
		for i := start; i < n; i++ {
			combo[depth] = i
			recurse(i+1, depth+1)
		}
	}
	recurse(0, 0)

	return out
}

func facetKey(normal []float64) string {
	parts := make([]string, len(normal))
	for i, v := range normal {
		parts[i] = strconv.FormatFloat(approx.Round(v), 'f', 6, 64)
	}
	return strings.Join(parts, ",")
}

// tryFacet solves for the hyperplane through points[combo], then checks it
// is a valid lower-hull facet: normal has no negative component beyond
// tolerance, and every point in points lies on or above the hyperplane.
func tryFacet(points []routing.Path, combo []int, dim int) (facet, bool) {
	a := mat.NewDense(dim, dim, nil)
	b := mat.NewVecDense(dim, nil)

	p0 := points[combo[0]].Metrics
	for i := 1; i < dim; i++ {
		pi := points[combo[i]].Metrics
		for k := 0; k < dim; k++ {
			a.Set(i-1, k, pi[k]-p0[k])
		}
		b.SetVec(i-1, 0)
	}
	for k := 0; k < dim; k++ {
		a.Set(dim-1, k, 1)
	}
	b.SetVec(dim-1, 1)

	var n mat.VecDense
	if err := n.SolveVec(a, b); err != nil {
		return facet{}, false
	}

	normal := make([]float64, dim)
	for k := 0; k < dim; k++ {
		v := n.AtVec(k)
		if v < -approx.Epsilon {
			return facet{}, false
		}
		if v < 0 {
			v = 0
		}
		normal[k] = v
	}

	value := dot(normal, p0)
	for _, p := range points {
		if dot(normal, p.Metrics) < value-approx.Epsilon {
			return facet{}, false
		}
	}

	idx := append([]int(nil), combo...)
	sort.Ints(idx)
	return facet{indices: idx, normal: normal, value: value}, true
}

// hullVertices returns the paths belonging to at least one surviving
// facet, which are exactly the vertices of the final lower hull.
func hullVertices(points []routing.Path, facets []facet) []routing.Path {
	keep := make(map[int]bool)
	for _, f := range facets {
		for _, idx := range f.indices {
			keep[idx] = true
		}
	}
	out := make([]routing.Path, 0, len(keep))
	for i, p := range points {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

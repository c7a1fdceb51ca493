package routing

import "mcrouter/pkg/graph"

// Path is a found route: the scalar cost it was found under, the
// per-metric cost vector summed along it, and the sequence of real
// (non-shortcut) edges traversed in order. Any CH shortcuts a search
// traverses internally are expanded before a Path is returned, so callers
// never see a shortcut edge index.
type Path struct {
	Cost    float64
	Metrics []float64
	Edges   []graph.EdgeIdx
}

func reconstructPlain(g *graph.Graph, s *State, dst graph.NodeIdx) Path {
	var edges []graph.EdgeIdx
	for u := dst; s.predFwd[u] != graph.NoEdge; {
		e := s.predFwd[u]
		edges = append(edges, e)
		u = g.EdgeSrc(e)
	}
	for i, j := 0, len(edges)-1; i < j; i, j = i+1, j-1 {
		edges[i], edges[j] = edges[j], edges[i]
	}
	return Path{
		Cost:    s.distFwd[dst],
		Metrics: append([]float64(nil), s.fwdMetrics(dst)...),
		Edges:   graph.ExpandShortcuts(g, edges),
	}
}

// reconstructCH stitches the forward tree (src -> meet) and the backward
// tree (meet -> dst, walked via predBwd which records the edge traversed
// when relaxing backward, i.e. the original-direction edge node ->
// dst-side neighbor) into one src -> dst edge sequence.
func reconstructCH(g *graph.Graph, s *State, meet graph.NodeIdx) Path {
	var fwdEdges []graph.EdgeIdx
	for u := meet; s.predFwd[u] != graph.NoEdge; {
		e := s.predFwd[u]
		fwdEdges = append(fwdEdges, e)
		u = g.EdgeSrc(e)
	}
	for i, j := 0, len(fwdEdges)-1; i < j; i, j = i+1, j-1 {
		fwdEdges[i], fwdEdges[j] = fwdEdges[j], fwdEdges[i]
	}

	var bwdEdges []graph.EdgeIdx
	for u := meet; s.predBwd[u] != graph.NoEdge; {
		e := s.predBwd[u]
		bwdEdges = append(bwdEdges, e)
		u = g.EdgeDst(e)
	}

	cost := s.distFwd[meet] + s.distBwd[meet]
	metrics := make([]float64, len(s.fwdMetrics(meet)))
	fm, bm := s.fwdMetrics(meet), s.bwdMetrics(meet)
	for k := range metrics {
		metrics[k] = fm[k] + bm[k]
	}

	edges := append(fwdEdges, bwdEdges...)
	return Path{Cost: cost, Metrics: metrics, Edges: graph.ExpandShortcuts(g, edges)}
}

package routing

import (
	"math"

	"mcrouter/pkg/approx"
	"mcrouter/pkg/graph"
	"mcrouter/pkg/perr"
)

// Query runs a single-pair shortest-path search under cfg's scalarization.
// When cfg.IsCH is false it runs a plain one-directional Dijkstra over g
// terminating as soon as dst is popped. When true it runs an ascend-only
// bidirectional search restricted to edges climbing g's CHLevel, which
// requires g to be a CH-augmented graph built with the same Alpha. Query
// returns (Path{}, false, nil) when dst is unreachable from src;
// Unreachable is never surfaced as an error.
func Query(g *graph.Graph, cfg RoutingConfig, src, dst graph.NodeIdx) (Path, bool, error) {
	if err := cfg.validate(g.Dim()); err != nil {
		return Path{}, false, err
	}
	if int(src) >= g.NodeCount() || int(dst) >= g.NodeCount() {
		return Path{}, false, &perr.QueryError{Msg: "node index out of range"}
	}

	s := NewState(g.NodeCount(), g.Dim())
	if cfg.IsCH {
		return queryCH(g, cfg, s, src, dst)
	}
	return queryPlain(g, cfg, s, src, dst)
}

// NewPool returns a function that lazily allocates state sized for g,
// suitable for use as a sync.Pool constructor by long-lived query servers
// that want to reuse scratch memory across calls.
func NewPool(g *graph.Graph) func() any {
	return func() any { return NewState(g.NodeCount(), g.Dim()) }
}

// QueryWith runs Query using caller-supplied scratch state (e.g. pulled
// from a sync.Pool built with NewPool), avoiding a fresh allocation per
// call.
func QueryWith(g *graph.Graph, cfg RoutingConfig, s *State, src, dst graph.NodeIdx) (Path, bool, error) {
	if err := cfg.validate(g.Dim()); err != nil {
		return Path{}, false, err
	}
	if int(src) >= g.NodeCount() || int(dst) >= g.NodeCount() {
		return Path{}, false, &perr.QueryError{Msg: "node index out of range"}
	}
	if cfg.IsCH {
		return queryCH(g, cfg, s, src, dst)
	}
	return queryPlain(g, cfg, s, src, dst)
}

func queryPlain(g *graph.Graph, cfg RoutingConfig, s *State, src, dst graph.NodeIdx) (Path, bool, error) {
	s.begin()

	s.touch(src)
	s.distFwd[src] = 0
	for k := range s.fwdMetrics(src) {
		s.fwdMetrics(src)[k] = 0
	}
	s.fwdPQ.Push(src, 0)

	// bestToDst is the per-metric cost of the best scalar path to dst found
	// so far, the reference point cfg.ToleratedScale prunes against. It
	// stays +Inf (no bound) until dst is first relaxed and is replaced each
	// time dst's tentative cost improves, until dst is popped and the
	// search ends; the check is applied uniformly at every relaxation.
	bestToDst := make([]float64, g.Dim())
	for k := range bestToDst {
		bestToDst[k] = math.Inf(1)
	}

	candidate := make([]float64, g.Dim())

	for s.fwdPQ.Len() > 0 {
		item := s.fwdPQ.Pop()
		u := item.node
		d := item.dist

		if d > s.distFwd[u] {
			continue
		}
		if u == dst {
			return reconstructPlain(g, s, dst), true, nil
		}

		start, end := g.FwdRange(u)
		for slot := start; slot < end; slot++ {
			e := g.FwdEdgeAt(slot)
			v := g.EdgeDst(e)
			s.touch(v)

			row := g.EdgeMetrics(e)
			nd := d + cfg.scalar(row)
			if nd >= s.distFwd[v] {
				continue
			}

			uMet := s.fwdMetrics(u)
			pruned := false
			for k := range candidate {
				candidate[k] = uMet[k] + row[k]
				if candidate[k] > cfg.ToleratedScale[k]*bestToDst[k]+approx.Epsilon {
					pruned = true
				}
			}
			if pruned {
				continue
			}

			s.distFwd[v] = nd
			s.predFwd[v] = e
			vMet := s.fwdMetrics(v)
			copy(vMet, candidate)
			s.fwdPQ.Push(v, nd)
			if v == dst {
				copy(bestToDst, candidate)
			}
		}
	}

	return Path{}, false, nil
}

func queryCH(g *graph.Graph, cfg RoutingConfig, s *State, src, dst graph.NodeIdx) (Path, bool, error) {
	s.begin()

	s.touch(src)
	s.distFwd[src] = 0
	for k := range s.fwdMetrics(src) {
		s.fwdMetrics(src)[k] = 0
	}
	s.fwdPQ.Push(src, 0)

	s.touch(dst)
	s.distBwd[dst] = 0
	for k := range s.bwdMetrics(dst) {
		s.bwdMetrics(dst)[k] = 0
	}
	s.bwdPQ.Push(dst, 0)

	mu := math.Inf(1)
	meet := graph.NoNode

	// bestToDst is the per-metric cost of the best src-dst path found so
	// far (the meeting candidate that set mu), the reference point
	// cfg.ToleratedScale prunes against. A one-sided partial cost already
	// exceeding ToleratedScale[k]*bestToDst[k] can only grow once the other
	// side's non-negative contribution is added, so checking each side's
	// own cumulative metric vector against this shared bound is safe.
	bestToDst := make([]float64, g.Dim())
	for k := range bestToDst {
		bestToDst[k] = math.Inf(1)
	}

	candidate := make([]float64, g.Dim())

	for s.fwdPQ.Len() > 0 || s.bwdPQ.Len() > 0 {
		if s.fwdPQ.Len() > 0 && s.fwdPQ.PeekDist() < mu {
			item := s.fwdPQ.Pop()
			u, d := item.node, item.dist

			if d <= s.distFwd[u] {
				if !math.IsInf(s.distBwd[u], 1) {
					if cand := d + s.distBwd[u]; cand < mu {
						mu = cand
						meet = u
						fm, bm := s.fwdMetrics(u), s.bwdMetrics(u)
						for k := range bestToDst {
							bestToDst[k] = fm[k] + bm[k]
						}
					}
				}

				start, end := g.FwdRange(u)
				for slot := start; slot < end; slot++ {
					e := g.FwdEdgeAt(slot)
					v := g.EdgeDst(e)
					if g.CHLevel(v) <= g.CHLevel(u) {
						continue
					}
					s.touch(v)
					row := g.EdgeMetrics(e)
					nd := d + cfg.scalar(row)
					if nd >= s.distFwd[v] {
						continue
					}

					uMet := s.fwdMetrics(u)
					pruned := false
					for k := range candidate {
						candidate[k] = uMet[k] + row[k]
						if candidate[k] > cfg.ToleratedScale[k]*bestToDst[k]+approx.Epsilon {
							pruned = true
						}
					}
					if pruned {
						continue
					}

					s.distFwd[v] = nd
					s.predFwd[v] = e
					vMet := s.fwdMetrics(v)
					copy(vMet, candidate)
					s.fwdPQ.Push(v, nd)
				}
			}
		}

		if s.bwdPQ.Len() > 0 && s.bwdPQ.PeekDist() < mu {
			item := s.bwdPQ.Pop()
			u, d := item.node, item.dist

			if d <= s.distBwd[u] {
				if !math.IsInf(s.distFwd[u], 1) {
					if cand := s.distFwd[u] + d; cand < mu {
						mu = cand
						meet = u
						fm, bm := s.fwdMetrics(u), s.bwdMetrics(u)
						for k := range bestToDst {
							bestToDst[k] = fm[k] + bm[k]
						}
					}
				}

				start, end := g.BwdRange(u)
				for slot := start; slot < end; slot++ {
					e := g.BwdEdgeAt(slot)
					v := g.EdgeSrc(e)
					if g.CHLevel(v) <= g.CHLevel(u) {
						continue
					}
					s.touch(v)
					row := g.EdgeMetrics(e)
					nd := d + cfg.scalar(row)
					if nd >= s.distBwd[v] {
						continue
					}

					uMet := s.bwdMetrics(u)
					pruned := false
					for k := range candidate {
						candidate[k] = uMet[k] + row[k]
						if candidate[k] > cfg.ToleratedScale[k]*bestToDst[k]+approx.Epsilon {
							pruned = true
						}
					}
					if pruned {
						continue
					}

					s.distBwd[v] = nd
					s.predBwd[v] = e
					vMet := s.bwdMetrics(v)
					copy(vMet, candidate)
					s.bwdPQ.Push(v, nd)
				}
			}
		}

		fwdTop, bwdTop := math.Inf(1), math.Inf(1)
		if s.fwdPQ.Len() > 0 {
			fwdTop = s.fwdPQ.PeekDist()
		}
		if s.bwdPQ.Len() > 0 {
			bwdTop = s.bwdPQ.PeekDist()
		}
		if fwdTop >= mu && bwdTop >= mu {
			break
		}
	}

	if meet == graph.NoNode || math.IsInf(mu, 1) {
		return Path{}, false, nil
	}
	return reconstructCH(g, s, meet), true, nil
}

package graph

// LargestComponent returns the node indices belonging to the largest
// weakly-connected component of g, treating every edge as undirected for
// the purpose of reachability. Ties for "largest" are broken by the
// component containing the smallest NodeIdx.
func LargestComponent(g *Graph) []NodeIdx {
	n := g.NodeCount()
	visited := make([]bool, n)
	var best []NodeIdx

	queue := make([]NodeIdx, 0, n)
	for start := 0; start < n; start++ {
		if visited[start] {
			continue
		}
		queue = queue[:0]
		queue = append(queue, NodeIdx(start))
		visited[start] = true
		component := []NodeIdx{NodeIdx(start)}

		for head := 0; head < len(queue); head++ {
			u := queue[head]

			fs, fe := g.FwdRange(u)
			for s := fs; s < fe; s++ {
				v := g.EdgeDst(g.FwdEdgeAt(s))
				if !visited[v] {
					visited[v] = true
					queue = append(queue, v)
					component = append(component, v)
				}
			}
			bs, be := g.BwdRange(u)
			for s := bs; s < be; s++ {
				v := g.EdgeSrc(g.BwdEdgeAt(s))
				if !visited[v] {
					visited[v] = true
					queue = append(queue, v)
					component = append(component, v)
				}
			}
		}

		if len(component) > len(best) {
			best = component
		}
	}

	return best
}

// FilterToComponent rebuilds g keeping only the nodes in keep (and the
// edges with both endpoints in keep), renumbering NodeIdx/EdgeIdx densely
// in the process. It is typically called with LargestComponent's result
// right after OSM ingestion, before any contraction or query work begins.
func FilterToComponent(g *Graph, keep []NodeIdx) (*Graph, error) {
	oldToNew := make(map[NodeIdx]int, len(keep))
	nodes := make([]NodeRecord, len(keep))
	for newIdx, old := range keep {
		oldToNew[old] = newIdx
		nodes[newIdx] = NodeRecord{ID: g.ID(old), Coord: g.Coord(old)}
	}

	edges := make([]EdgeRecord, 0, g.EdgeCount())
	// oldEdgeToNew tracks, for edges kept so far, their new input index, so
	// that shortcut child references (given in old canonical EdgeIdx space)
	// can be translated; shortcuts whose children fall outside keep cannot
	// occur for a connectivity-only filter since an edge's endpoints and its
	// children's endpoints coincide.
	oldEdgeToNew := make(map[EdgeIdx]int, g.EdgeCount())
	for e := 0; e < g.EdgeCount(); e++ {
		eid := EdgeIdx(e)
		src, dst := g.EdgeSrc(eid), g.EdgeDst(eid)
		newSrc, okSrc := oldToNew[src]
		newDst, okDst := oldToNew[dst]
		if !okSrc || !okDst {
			continue
		}
		oldEdgeToNew[eid] = len(edges)
		edges = append(edges, EdgeRecord{
			Src:      newSrc,
			Dst:      newDst,
			Metrics:  append([]float64(nil), g.EdgeMetrics(eid)...),
			SCChild0: -1,
			SCChild1: -1,
		})
	}
	for e, newIdx := range oldEdgeToNew {
		c0, c1, ok := g.ShortcutChildren(e)
		if !ok {
			continue
		}
		nc0, ok0 := oldEdgeToNew[c0]
		nc1, ok1 := oldEdgeToNew[c1]
		if ok0 && ok1 {
			edges[newIdx].SCChild0 = nc0
			edges[newIdx].SCChild1 = nc1
		}
	}

	out, err := Build(nodes, edges, g.Dim())
	if err != nil {
		return nil, err
	}
	levels := make([]CHLevel, len(keep))
	for newIdx, old := range keep {
		levels[newIdx] = g.CHLevel(old)
	}
	if err := SetCHLevels(out, levels); err != nil {
		return nil, err
	}
	return out, nil
}

package graph

import (
	"sort"

	"mcrouter/pkg/metrics"
	"mcrouter/pkg/perr"
)

// NodeRecord is the caller-supplied description of one node, in arbitrary
// input order. Idx fields are assigned by Build in input order, so callers
// that need to refer back to a record (e.g. an OSM parser resolving way
// endpoints) can keep using the record's position.
type NodeRecord struct {
	ID    NodeID
	Coord Coordinate
}

// EdgeRecord is the caller-supplied description of one canonical edge,
// referring to nodes by their position in the NodeRecord slice passed to
// Build. SCChild0 and SCChild1 are only meaningful when building a
// CH-augmented graph; set both to -1 for a non-shortcut edge.
type EdgeRecord struct {
	Src      int
	Dst      int
	Metrics  []float64
	SCChild0 int // index into the *edges* slice, or -1
	SCChild1 int
}

// Build assembles a frozen Graph from node and edge records. Node order is
// preserved (NodeIdx == input position); edges are re-ordered into
// canonical order (ascending src, then ascending dst, then input order) and
// both the forward and backward CSR permutations are derived from that one
// canonical array.
//
// Forward adjacency for a node is sorted by dst_idx ascending, ties broken
// by ascending canonical EdgeIdx; backward adjacency is sorted by src_idx
// ascending with the same tie-break. This is what makes Between's binary
// search well defined when parallel edges exist between the same pair of
// nodes.
func Build(nodes []NodeRecord, edges []EdgeRecord, dim int) (*Graph, error) {
	n := len(nodes)
	m := len(edges)

	nodeIDs := make([]NodeID, n)
	coords := make([]Coordinate, n)
	for i, rec := range nodes {
		nodeIDs[i] = rec.ID
		coords[i] = rec.Coord
	}

	sortedByID := make([]NodeIdx, n)
	for i := range sortedByID {
		sortedByID[i] = NodeIdx(i)
	}
	sort.Slice(sortedByID, func(a, b int) bool {
		return nodeIDs[sortedByID[a]] < nodeIDs[sortedByID[b]]
	})
	for i := 1; i < n; i++ {
		if nodeIDs[sortedByID[i-1]] == nodeIDs[sortedByID[i]] {
			return nil, &perr.GraphInvariantError{Msg: "duplicate node id"}
		}
	}

	edgeSrc := make([]NodeIdx, m)
	edgeDst := make([]NodeIdx, m)
	edgeMets := metrics.NewSet(dim, m)
	scChild0 := make([]EdgeIdx, m)
	scChild1 := make([]EdgeIdx, m)

	// canonicalOf[i] (filled in below) gives, for input edge i, the index it
	// will occupy in canonical order; inputOrder records the permutation
	// needed to read input edges in that order.
	inputOrder := make([]int, m)
	for i := range inputOrder {
		inputOrder[i] = i
	}
	for _, rec := range edges {
		if rec.Src < 0 || rec.Src >= n || rec.Dst < 0 || rec.Dst >= n {
			return nil, &perr.GraphInvariantError{Msg: "edge refers to unknown node"}
		}
	}
	sort.SliceStable(inputOrder, func(a, b int) bool {
		ea, eb := edges[inputOrder[a]], edges[inputOrder[b]]
		if ea.Src != eb.Src {
			return ea.Src < eb.Src
		}
		return ea.Dst < eb.Dst
	})

	// canonicalOf maps an input edge index to its canonical EdgeIdx, needed
	// to translate SCChild0/SCChild1 (given in input-index space).
	canonicalOf := make([]EdgeIdx, m)
	for canon, in := range inputOrder {
		canonicalOf[in] = EdgeIdx(canon)
	}

	for canon, in := range inputOrder {
		rec := edges[in]
		edgeSrc[canon] = NodeIdx(rec.Src)
		edgeDst[canon] = NodeIdx(rec.Dst)
		if len(rec.Metrics) != dim {
			return nil, &perr.GraphInvariantError{Msg: "edge metric row has wrong dimension"}
		}
		edgeMets.SetRow(canon, rec.Metrics)
		if rec.SCChild0 < 0 {
			scChild0[canon] = NoEdge
			scChild1[canon] = NoEdge
		} else {
			if rec.SCChild0 >= m || rec.SCChild1 >= m || rec.SCChild1 < 0 {
				return nil, &perr.GraphInvariantError{Msg: "shortcut child index out of range"}
			}
			scChild0[canon] = canonicalOf[rec.SCChild0]
			scChild1[canon] = canonicalOf[rec.SCChild1]
		}
	}

	fwdFirstOut, fwdPerm := buildCSR(n, m, func(e int) NodeIdx { return edgeSrc[e] }, func(e int) NodeIdx { return edgeDst[e] })
	bwdFirstOut, bwdPerm := buildCSR(n, m, func(e int) NodeIdx { return edgeDst[e] }, func(e int) NodeIdx { return edgeSrc[e] })

	return &Graph{
		dim:         dim,
		nodeIDs:     nodeIDs,
		coords:      coords,
		chLevels:    make([]CHLevel, n),
		sortedByID:  sortedByID,
		edgeSrc:     edgeSrc,
		edgeDst:     edgeDst,
		edgeMets:    edgeMets,
		scChild0:    scChild0,
		scChild1:    scChild1,
		fwdFirstOut: fwdFirstOut,
		fwdPerm:     fwdPerm,
		bwdFirstOut: bwdFirstOut,
		bwdPerm:     bwdPerm,
	}, nil
}

// SetCHLevels installs contraction levels on a graph right after Build: the
// levels computed by pkg/ch, read from an fmi ch_level column by pkg/fmi, or
// carried over by FilterToComponent.
func SetCHLevels(g *Graph, levels []CHLevel) error {
	if len(levels) != g.NodeCount() {
		return &perr.GraphInvariantError{Msg: "ch level slice length mismatch"}
	}
	copy(g.chLevels, levels)
	return nil
}

// buildCSR sorts canonical edges into per-"anchor" buckets (anchor(e) is
// edgeSrc for the forward direction, edgeDst for the backward direction),
// within each bucket ordered by "other" ascending then canonical EdgeIdx
// ascending, and returns the offsets array plus the permutation of
// canonical EdgeIdx at each slot.
func buildCSR(n, m int, anchor, other func(e int) NodeIdx) ([]uint32, []EdgeIdx) {
	firstOut := make([]uint32, n+1)
	for e := 0; e < m; e++ {
		firstOut[anchor(e)+1]++
	}
	for i := 0; i < n; i++ {
		firstOut[i+1] += firstOut[i]
	}

	perm := make([]EdgeIdx, m)
	cursor := make([]uint32, n)
	copy(cursor, firstOut[:n])
	for e := 0; e < m; e++ {
		a := anchor(e)
		perm[cursor[a]] = EdgeIdx(e)
		cursor[a]++
	}

	for i := 0; i < n; i++ {
		start, end := firstOut[i], firstOut[i+1]
		bucket := perm[start:end]
		sort.Slice(bucket, func(a, b int) bool {
			ea, eb := bucket[a], bucket[b]
			oa, ob := other(int(ea)), other(int(eb))
			if oa != ob {
				return oa < ob
			}
			return ea < eb
		})
	}

	return firstOut, perm
}

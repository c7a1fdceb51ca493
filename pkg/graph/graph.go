// Package graph implements the CSR Graph layer (L1): nodes with coordinates
// and contraction-hierarchy levels, a single canonical edge array carrying a
// metric vector and optional shortcut children, and forward/backward CSR
// adjacency permutations over that one edge array.
package graph

import "mcrouter/pkg/metrics"

// Graph is an immutable, read-only road network. It is built once (by a
// Build caller such as pkg/osm, pkg/fmi or pkg/ch) and frozen before the
// first query; apart from SetCHLevels, which its builders call right after
// Build, nothing in this package mutates a Graph after Build returns.
type Graph struct {
	dim int

	nodeIDs    []NodeID
	coords     []Coordinate
	chLevels   []CHLevel
	sortedByID []NodeIdx // nodeIDs indices, sorted ascending by id value

	edgeSrc  []NodeIdx
	edgeDst  []NodeIdx
	edgeMets *metrics.Set
	scChild0 []EdgeIdx // NoEdge if edge e is not a shortcut
	scChild1 []EdgeIdx

	fwdFirstOut []uint32 // len NodeCount()+1
	fwdPerm     []EdgeIdx
	bwdFirstOut []uint32
	bwdPerm     []EdgeIdx
}

// Dim returns D, the metric dimension this graph was built with.
func (g *Graph) Dim() int { return g.dim }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodeIDs) }

// EdgeCount returns the number of canonical edges.
func (g *Graph) EdgeCount() int { return len(g.edgeSrc) }

// ---- node accessors ----

// Coord returns the coordinate of node idx.
func (g *Graph) Coord(idx NodeIdx) Coordinate { return g.coords[idx] }

// ID returns the external id of node idx.
func (g *Graph) ID(idx NodeIdx) NodeID { return g.nodeIDs[idx] }

// CHLevel returns the contraction level of node idx.
func (g *Graph) CHLevel(idx NodeIdx) CHLevel { return g.chLevels[idx] }

// Node returns a value-level snapshot of node idx.
func (g *Graph) Node(idx NodeIdx) Node {
	return Node{Idx: idx, ID: g.nodeIDs[idx], Coord: g.coords[idx], CHLevel: g.chLevels[idx]}
}

// IdxFromID resolves an external node id to its NodeIdx via binary search
// over the sorted id sequence. If the id is unknown, it returns a
// *NotFoundError carrying the insertion point.
func (g *Graph) IdxFromID(id NodeID) (NodeIdx, error) {
	lo, hi := 0, len(g.sortedByID)
	for lo < hi {
		mid := (lo + hi) / 2
		midID := g.nodeIDs[g.sortedByID[mid]]
		if midID < id {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(g.sortedByID) && g.nodeIDs[g.sortedByID[lo]] == id {
		return g.sortedByID[lo], nil
	}
	return 0, &NotFoundError{ID: id, InsertIdx: lo}
}

// NodeFromID resolves an external id to the node's value-level snapshot.
func (g *Graph) NodeFromID(id NodeID) (Node, error) {
	idx, err := g.IdxFromID(id)
	if err != nil {
		return Node{}, err
	}
	return g.Node(idx), nil
}

// ---- canonical edge accessors ----

// EdgeSrc returns the source node of canonical edge e.
func (g *Graph) EdgeSrc(e EdgeIdx) NodeIdx { return g.edgeSrc[e] }

// EdgeDst returns the destination node of canonical edge e.
func (g *Graph) EdgeDst(e EdgeIdx) NodeIdx { return g.edgeDst[e] }

// EdgeMetrics returns the D-length metric row for canonical edge e. The
// slice aliases the underlying storage.
func (g *Graph) EdgeMetrics(e EdgeIdx) []float64 { return g.edgeMets.Row(int(e)) }

// EdgeMetric returns the value of metric k on canonical edge e.
func (g *Graph) EdgeMetric(e EdgeIdx, k metrics.Idx) float64 { return g.edgeMets.At(int(e), k) }

// Metrics returns the full metric container, for readers that want direct
// access to the D x edge_count view (e.g. mean-normalization metadata).
func (g *Graph) Metrics() *metrics.Set { return g.edgeMets }

// IsShortcut reports whether canonical edge e is a shortcut over two
// lower-level edges.
func (g *Graph) IsShortcut(e EdgeIdx) bool { return g.scChild0[e] != NoEdge }

// ShortcutChildren returns the two sub-edges canonical edge e shortcuts, in
// forward traversal order, and true if e is a shortcut. Otherwise it returns
// (NoEdge, NoEdge, false).
func (g *Graph) ShortcutChildren(e EdgeIdx) (EdgeIdx, EdgeIdx, bool) {
	if g.scChild0[e] == NoEdge {
		return NoEdge, NoEdge, false
	}
	return g.scChild0[e], g.scChild1[e], true
}

// ---- forward/backward CSR adjacency ----

// FwdRange returns the [start, end) slot range of edges leaving node u in
// the forward CSR.
func (g *Graph) FwdRange(u NodeIdx) (start, end uint32) {
	return g.fwdFirstOut[u], g.fwdFirstOut[u+1]
}

// FwdEdgeAt returns the canonical EdgeIdx stored at forward CSR slot s.
func (g *Graph) FwdEdgeAt(s uint32) EdgeIdx { return g.fwdPerm[s] }

// BwdRange returns the [start, end) slot range of edges entering node u in
// the backward CSR.
func (g *Graph) BwdRange(u NodeIdx) (start, end uint32) {
	return g.bwdFirstOut[u], g.bwdFirstOut[u+1]
}

// BwdEdgeAt returns the canonical EdgeIdx stored at backward CSR slot s.
func (g *Graph) BwdEdgeAt(s uint32) EdgeIdx { return g.bwdPerm[s] }

// Between performs a binary search over node u's forward adjacency, keyed on
// dst_idx, for an edge u -> v. Ties between parallel edges to the same v are
// broken by ascending canonical EdgeIdx (see Build's ordering comment); it
// returns the first match in that order.
func (g *Graph) Between(u, v NodeIdx) (EdgeIdx, bool) {
	start, end := g.FwdRange(u)
	lo, hi := start, end
	for lo < hi {
		mid := lo + (hi-lo)/2
		e := g.fwdPerm[mid]
		d := g.edgeDst[e]
		switch {
		case d < v:
			lo = mid + 1
		case d > v:
			hi = mid
		default:
			hi = mid
		}
	}
	if lo < end && g.edgeDst[g.fwdPerm[lo]] == v {
		return g.fwdPerm[lo], true
	}
	return NoEdge, false
}

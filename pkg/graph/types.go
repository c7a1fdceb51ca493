package graph

import "fmt"

// NodeIdx is a dense, zero-based index into the node array. It is disjoint
// from EdgeIdx and MetricIdx even though both are unsigned integers.
type NodeIdx uint32

// EdgeIdx is a dense, zero-based canonical index into the edge array. Every
// edge is stored once and is referenced by this index from both the forward
// and backward CSR permutations.
type EdgeIdx uint32

// NodeID is the external, signed 64-bit node identifier (e.g. an OSM node
// id), independent of the internal NodeIdx used for array indexing.
type NodeID int64

// CHLevel is the contraction-hierarchy level of a node. A graph with no CH
// overlay has level 0 on every node. In a graph produced by pkg/ch the level
// is the node's contraction rank, starting at 0 for the first node
// contracted, and nodes left in the uncontracted core take the highest
// ranks; there, level 0 does not mark an uncontracted node.
type CHLevel uint32

// NoNode is the sentinel "no node" index.
const NoNode NodeIdx = ^NodeIdx(0)

// NoEdge is the sentinel "no edge" index, and also marks "not a shortcut" in
// the shortcut-children slots.
const NoEdge EdgeIdx = ^EdgeIdx(0)

// Coordinate is a (lat, lon) pair in degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Node is a value-level snapshot of one node's record: (id, coord, ch_level).
type Node struct {
	Idx     NodeIdx
	ID      NodeID
	Coord   Coordinate
	CHLevel CHLevel
}

// NotFoundError is returned by IdxFromID when no node with the given id
// exists. InsertIdx is the position the id would occupy in the sorted id
// sequence, so callers can report "unknown node id" without a second search.
type NotFoundError struct {
	ID        NodeID
	InsertIdx int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("graph: node id %d not found", e.ID)
}

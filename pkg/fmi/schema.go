// Package fmi reads and writes the fmi text graph format: a small,
// column-configurable, whitespace-separated format consisting of a
// commented header, three counts (metric dimension, node count, edge
// count), then that many node lines and edge lines.
package fmi

// NodeField identifies what one whitespace-separated column of a node line
// holds.
type NodeField int

const (
	NodeIgnored NodeField = iota
	NodeID
	NodeLat
	NodeLon
	NodeCHLevel
)

// EdgeField identifies what one column of an edge line holds. Metric
// columns carry an index into the edge's metric row (MetricIdx), since the
// column order of the D metric values is itself configurable.
type EdgeField int

const (
	EdgeIgnored EdgeField = iota
	EdgeSrcID
	EdgeDstID
	EdgeMetric
	EdgeShortcut0
	EdgeShortcut1
)

// EdgeColumn is one column of the edge line schema.
type EdgeColumn struct {
	Field     EdgeField
	MetricIdx int // meaningful only when Field == EdgeMetric
}

// Schema describes the column layout of both node and edge lines. Dim is
// the number of metric columns an edge line carries; it must match the
// number of EdgeColumn entries with Field == EdgeMetric.
type Schema struct {
	Dim   int
	Nodes []NodeField
	Edges []EdgeColumn
}

// DefaultSchema is "id lat lon" for nodes and "src_id dst_id m1..mD" for
// edges, with no ch_level or shortcut columns - the minimal schema before
// any optional columns are added.
func DefaultSchema(dim int) Schema {
	edges := make([]EdgeColumn, 0, dim+2)
	edges = append(edges, EdgeColumn{Field: EdgeSrcID}, EdgeColumn{Field: EdgeDstID})
	for k := 0; k < dim; k++ {
		edges = append(edges, EdgeColumn{Field: EdgeMetric, MetricIdx: k})
	}
	return Schema{
		Dim:   dim,
		Nodes: []NodeField{NodeID, NodeLat, NodeLon},
		Edges: edges,
	}
}

// CHSchema is DefaultSchema extended with a trailing ch_level node column
// and trailing shortcut-index edge columns, for round-tripping a
// CH-augmented graph.
func CHSchema(dim int) Schema {
	s := DefaultSchema(dim)
	s.Nodes = append(append([]NodeField(nil), s.Nodes...), NodeCHLevel)
	s.Edges = append(append([]EdgeColumn(nil), s.Edges...), EdgeColumn{Field: EdgeShortcut0}, EdgeColumn{Field: EdgeShortcut1})
	return s
}

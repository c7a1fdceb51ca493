package fmi

import (
	"bufio"
	"fmt"
	"io"

	"mcrouter/pkg/graph"
	"mcrouter/pkg/metrics"
)

// WriteOptions controls what Write emits.
type WriteOptions struct {
	// IncludeShortcuts, when false, drops shortcut edges from the output;
	// shortcut-index columns in the schema, if any, are then written as -1
	// on every remaining edge.
	IncludeShortcuts bool
	// Denormalize rewrites metric columns back to their raw (pre-mean-
	// normalization) values instead of whatever the graph currently stores.
	Denormalize bool
}

// Write serializes g under schema to w. Edges are sorted so that a
// shortcut's children are written before the shortcut itself, so a
// shortcut-index column can always refer back to an earlier line; among
// edges with no dependency relation, output order otherwise follows
// canonical (src_idx, dst_idx) order.
func Write(w io.Writer, g *graph.Graph, schema Schema, opts WriteOptions) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "# edge-metric-count")
	fmt.Fprintln(bw, "# node-count")
	fmt.Fprintln(bw, "# edge-count")
	if opts.Denormalize && g.Metrics().Normalized() {
		fmt.Fprintln(bw, "# metrics: denormalized")
	} else {
		fmt.Fprintln(bw, "# metrics: as stored")
	}
	fmt.Fprintln(bw)

	order, outPos := topoOrder(g, opts.IncludeShortcuts)

	fmt.Fprintln(bw, schema.Dim)
	fmt.Fprintln(bw, g.NodeCount())
	fmt.Fprintln(bw, len(order))

	for idx := 0; idx < g.NodeCount(); idx++ {
		n := graph.NodeIdx(idx)
		for col, field := range schema.Nodes {
			if col > 0 {
				bw.WriteByte(' ')
			}
			switch field {
			case NodeID:
				fmt.Fprintf(bw, "%d", g.ID(n))
			case NodeLat:
				fmt.Fprintf(bw, "%g", g.Coord(n).Lat)
			case NodeLon:
				fmt.Fprintf(bw, "%g", g.Coord(n).Lon)
			case NodeCHLevel:
				fmt.Fprintf(bw, "%d", g.CHLevel(n))
			case NodeIgnored:
				bw.WriteByte('0')
			}
		}
		bw.WriteByte('\n')
	}

	for _, e := range order {
		row := metricRow(g, e, opts.Denormalize)
		sc0, sc1, isSC := g.ShortcutChildren(e)
		for col, ec := range schema.Edges {
			if col > 0 {
				bw.WriteByte(' ')
			}
			switch ec.Field {
			case EdgeSrcID:
				fmt.Fprintf(bw, "%d", g.ID(g.EdgeSrc(e)))
			case EdgeDstID:
				fmt.Fprintf(bw, "%d", g.ID(g.EdgeDst(e)))
			case EdgeMetric:
				fmt.Fprintf(bw, "%g", row[ec.MetricIdx])
			case EdgeShortcut0:
				if isSC {
					fmt.Fprintf(bw, "%d", outPos[sc0])
				} else {
					fmt.Fprint(bw, -1)
				}
			case EdgeShortcut1:
				if isSC {
					fmt.Fprintf(bw, "%d", outPos[sc1])
				} else {
					fmt.Fprint(bw, -1)
				}
			case EdgeIgnored:
				bw.WriteByte('0')
			}
		}
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

func metricRow(g *graph.Graph, e graph.EdgeIdx, denormalize bool) []float64 {
	if !denormalize || !g.Metrics().Normalized() {
		return g.EdgeMetrics(e)
	}
	dim := g.Dim()
	out := make([]float64, dim)
	for k := 0; k < dim; k++ {
		out[k] = g.Metrics().Denormalized(int(e), metrics.Idx(k))
	}
	return out
}

// topoOrder returns canonical edges in an order where every shortcut
// follows both of its children, plus a map from EdgeIdx to its position in
// that order (used to emit shortcut-index columns). Iteration starts from
// ascending (src_idx, dst_idx) via the forward CSR, which is canonical
// already for every edge with no shortcut dependency; a shortcut's children
// not yet emitted are pulled forward to just before it.
func topoOrder(g *graph.Graph, includeShortcuts bool) ([]graph.EdgeIdx, map[graph.EdgeIdx]int) {
	n := g.NodeCount()
	m := g.EdgeCount()
	visited := make([]bool, m)
	order := make([]graph.EdgeIdx, 0, m)
	outPos := make(map[graph.EdgeIdx]int, m)

	var emit func(e graph.EdgeIdx)
	emit = func(e graph.EdgeIdx) {
		if visited[e] {
			return
		}
		visited[e] = true
		if c0, c1, ok := g.ShortcutChildren(e); ok {
			emit(c0)
			emit(c1)
			if !includeShortcuts {
				return
			}
		}
		outPos[e] = len(order)
		order = append(order, e)
	}

	for u := 0; u < n; u++ {
		start, end := g.FwdRange(graph.NodeIdx(u))
		for s := start; s < end; s++ {
			emit(g.FwdEdgeAt(s))
		}
	}
	return order, outPos
}

package osm

import (
	"sort"

	"github.com/paulmach/osm"

	"mcrouter/pkg/graph"
)

// ToGraph converts a ParseResult into a graph.Graph over MetricDim metrics,
// then restricts it to its largest weakly-connected component: OSM
// extracts routinely contain disconnected slivers (e.g. a service road cut
// off by the bbox) that would otherwise make large swaths of queries
// silently unreachable.
func ToGraph(result *ParseResult) (*graph.Graph, error) {
	ids := make([]osm.NodeID, 0, len(result.NodeLat))
	for id := range result.NodeLat {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	idIdx := make(map[osm.NodeID]int, len(ids))
	nodes := make([]graph.NodeRecord, len(ids))
	for i, id := range ids {
		idIdx[id] = i
		nodes[i] = graph.NodeRecord{
			ID:    graph.NodeID(id),
			Coord: graph.Coordinate{Lat: result.NodeLat[id], Lon: result.NodeLon[id]},
		}
	}

	edges := make([]graph.EdgeRecord, 0, len(result.Edges))
	for _, e := range result.Edges {
		src, okSrc := idIdx[e.FromNodeID]
		dst, okDst := idIdx[e.ToNodeID]
		if !okSrc || !okDst {
			continue
		}
		edges = append(edges, graph.EdgeRecord{
			Src: src, Dst: dst,
			Metrics:  append([]float64(nil), e.Metrics[:]...),
			SCChild0: -1, SCChild1: -1,
		})
	}

	g, err := graph.Build(nodes, edges, MetricDim)
	if err != nil {
		return nil, err
	}

	largest := graph.LargestComponent(g)
	if len(largest) == g.NodeCount() {
		return g, nil
	}
	return graph.FilterToComponent(g, largest)
}

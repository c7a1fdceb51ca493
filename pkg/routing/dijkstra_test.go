package routing

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"mcrouter/pkg/ch"
	"mcrouter/pkg/graph"
)

// buildGridGraph builds a small two-metric (distance, duration) grid:
//
//	0 ---100/10--- 1 ---200/20--- 2
//	|                             |
//	300/30                      400/40
//	|                             |
//	3 ---500/50--- 4 ---600/60--- 5
//
// All edges bidirectional.
func buildGridGraph(t *testing.T) *graph.Graph {
	t.Helper()
	nodes := make([]graph.NodeRecord, 6)
	for i := range nodes {
		nodes[i] = graph.NodeRecord{ID: graph.NodeID(i + 1)}
	}
	type e struct {
		a, b       int
		dist, dura float64
	}
	raw := []e{
		{0, 1, 100, 10}, {1, 2, 200, 20},
		{0, 3, 300, 30}, {2, 5, 400, 40},
		{3, 4, 500, 50}, {4, 5, 600, 60},
	}
	var edges []graph.EdgeRecord
	for _, r := range raw {
		edges = append(edges,
			graph.EdgeRecord{Src: r.a, Dst: r.b, Metrics: []float64{r.dist, r.dura}, SCChild0: -1, SCChild1: -1},
			graph.EdgeRecord{Src: r.b, Dst: r.a, Metrics: []float64{r.dist, r.dura}, SCChild0: -1, SCChild1: -1},
		)
	}
	g, err := graph.Build(nodes, edges, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestQueryPlainShortestPath(t *testing.T) {
	g := buildGridGraph(t)
	cfg := NewConfig([]float64{1, 0}, false)

	path, ok, err := Query(g, cfg, 0, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !ok {
		t.Fatalf("Query: want a path")
	}
	if math.Abs(path.Cost-1000) > 1e-6 {
		t.Fatalf("Cost = %v, want 1000 (0-1-2-5)", path.Cost)
	}
	if len(path.Edges) != 3 {
		t.Fatalf("len(Edges) = %d, want 3", len(path.Edges))
	}
}

func TestQueryPlainUnreachable(t *testing.T) {
	nodes := []graph.NodeRecord{{ID: 1}, {ID: 2}}
	g, err := graph.Build(nodes, nil, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	cfg := NewConfig([]float64{1}, false)
	_, ok, err := Query(g, cfg, 0, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if ok {
		t.Fatalf("Query: want unreachable, got a path")
	}
}

func TestQueryRejectsWrongAlphaDim(t *testing.T) {
	g := buildGridGraph(t)
	cfg := NewConfig([]float64{1}, false)
	if _, _, err := Query(g, cfg, 0, 1); err == nil {
		t.Fatalf("Query: want error for mismatched alpha length")
	}
}

func TestQueryCHMatchesPlainAllPairs(t *testing.T) {
	g := buildGridGraph(t)
	alpha := []float64{1, 0}
	chg, err := ch.Contract(g, ch.Weights{Alpha: alpha})
	if err != nil {
		t.Fatalf("Contract: %v", err)
	}

	plainCfg := NewConfig(alpha, false)
	chCfg := NewConfig(alpha, true)

	for s := 0; s < g.NodeCount(); s++ {
		for d := 0; d < g.NodeCount(); d++ {
			if s == d {
				continue
			}
			plainPath, plainOK, err := Query(g, plainCfg, graph.NodeIdx(s), graph.NodeIdx(d))
			if err != nil {
				t.Fatalf("plain Query: %v", err)
			}
			chPath, chOK, err := Query(chg, chCfg, graph.NodeIdx(s), graph.NodeIdx(d))
			if err != nil {
				t.Fatalf("ch Query: %v", err)
			}
			if plainOK != chOK {
				t.Fatalf("s=%d d=%d: reachability mismatch plain=%v ch=%v", s, d, plainOK, chOK)
			}
			if !plainOK {
				continue
			}
			if math.Abs(plainPath.Cost-chPath.Cost) > 1e-6 {
				t.Errorf("s=%d d=%d: plain cost %v, ch cost %v", s, d, plainPath.Cost, chPath.Cost)
			}

			plainEndpoints := endpoints(plainPath.Edges, g)
			chEndpoints := endpoints(chPath.Edges, chg)
			if plainEndpoints != chEndpoints {
				t.Errorf("s=%d d=%d: plain edges %v, ch edges (shortcut-expanded) %v", s, d, plainEndpoints, chEndpoints)
			}
			for _, e := range chPath.Edges {
				if _, _, isSC := chg.ShortcutChildren(e); isSC {
					t.Errorf("s=%d d=%d: ch path still contains an unexpanded shortcut edge %d", s, d, e)
				}
			}
		}
	}
}

// endpoints walks a path's edges and returns the node-id sequence it
// traverses from src to dst, so a plain path and a shortcut-expanded CH
// path can be compared for equivalence even though their EdgeIdx values
// come from different canonical edge arrays.
func endpoints(edges []graph.EdgeIdx, g *graph.Graph) string {
	ids := make([]graph.NodeID, 0, len(edges)+1)
	if len(edges) == 0 {
		return ""
	}
	ids = append(ids, g.ID(g.EdgeSrc(edges[0])))
	for _, e := range edges {
		ids = append(ids, g.ID(g.EdgeDst(e)))
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(int64(id), 10)
	}
	return strings.Join(parts, ",")
}

// buildToleranceGraph builds a 3-node graph with two routes from 0 to 2:
// a direct edge, scalar cost 5 (metrics [5,1]), and a two-hop route via
// node 1 with the true optimal scalar cost 2 but a much larger running
// cost on metric 1 partway through (metrics [1,50] then [1,0.1], summing
// to [2,50.1]). Edges are built in an order that relaxes the direct edge
// (and so records dst's first metric vector) before the two-hop route's
// second edge is ever considered.
func buildToleranceGraph(t *testing.T) *graph.Graph {
	t.Helper()
	nodes := []graph.NodeRecord{{ID: 1}, {ID: 2}, {ID: 3}}
	edges := []graph.EdgeRecord{
		{Src: 0, Dst: 1, Metrics: []float64{1, 50}, SCChild0: -1, SCChild1: -1},
		{Src: 0, Dst: 2, Metrics: []float64{5, 1}, SCChild0: -1, SCChild1: -1},
		{Src: 1, Dst: 2, Metrics: []float64{1, 0.1}, SCChild0: -1, SCChild1: -1},
	}
	g, err := graph.Build(nodes, edges, 2)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func TestQueryPlainToleratedScaleDefaultFindsTrueOptimum(t *testing.T) {
	g := buildToleranceGraph(t)
	cfg := NewConfig([]float64{1, 0}, false)

	path, ok, err := Query(g, cfg, 0, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !ok {
		t.Fatalf("Query: want a path")
	}
	if math.Abs(path.Cost-2) > 1e-9 {
		t.Fatalf("Cost = %v, want 2 (0-1-2, the true scalar optimum)", path.Cost)
	}
}

func TestQueryPlainToleratedScalePrunesBetterPath(t *testing.T) {
	g := buildToleranceGraph(t)
	cfg := NewConfig([]float64{1, 0}, false)
	cfg.ToleratedScale = []float64{1, 1}

	path, ok, err := Query(g, cfg, 0, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !ok {
		t.Fatalf("Query: want a path (the direct edge is always available)")
	}
	if math.Abs(path.Cost-5) > 1e-9 {
		t.Fatalf("Cost = %v, want 5: a tight tolerated_scale on metric 1 should prune the 0-1-2 "+
			"route's second edge once its running metric-1 cost (50.1) exceeds 1*bestToDst[1] (1), "+
			"leaving only the direct edge", path.Cost)
	}
}

func TestQueryAccumulatesAllMetrics(t *testing.T) {
	g := buildGridGraph(t)
	cfg := NewConfig([]float64{1, 0}, false)
	path, ok, err := Query(g, cfg, 0, 5)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !ok {
		t.Fatalf("Query: want a path")
	}
	if math.Abs(path.Metrics[0]-700) > 1e-6 {
		t.Fatalf("Metrics[0] = %v, want 700", path.Metrics[0])
	}
	if math.Abs(path.Metrics[1]-70) > 1e-6 {
		t.Fatalf("Metrics[1] = %v, want 70 (sum of durations along the chosen path)", path.Metrics[1])
	}
}

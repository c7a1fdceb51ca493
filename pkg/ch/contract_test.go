package ch

import (
	"math"
	"testing"

	"mcrouter/pkg/graph"
)

// buildTestGraph mirrors a small bidirectional grid:
//
//	0 ---100--- 1 ---200--- 2
//	|                       |
//	300                    400
//	|                       |
//	3 ---500--- 4 ---600--- 5
func buildTestGraph(t *testing.T) *graph.Graph {
	t.Helper()
	nodes := make([]graph.NodeRecord, 6)
	for i := range nodes {
		nodes[i] = graph.NodeRecord{ID: graph.NodeID(i + 1)}
	}
	type e struct{ a, b int; w float64 }
	raw := []e{
		{0, 1, 100}, {1, 2, 200},
		{0, 3, 300}, {2, 5, 400},
		{3, 4, 500}, {4, 5, 600},
	}
	var edges []graph.EdgeRecord
	for _, r := range raw {
		edges = append(edges,
			graph.EdgeRecord{Src: r.a, Dst: r.b, Metrics: []float64{r.w}, SCChild0: -1, SCChild1: -1},
			graph.EdgeRecord{Src: r.b, Dst: r.a, Metrics: []float64{r.w}, SCChild0: -1, SCChild1: -1},
		)
	}
	g, err := graph.Build(nodes, edges, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

func plainDijkstra(g *graph.Graph, source, target graph.NodeIdx) float64 {
	n := g.NodeCount()
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[source] = 0

	type item struct {
		node graph.NodeIdx
		dist float64
	}
	pq := []item{{source, 0}}

	for len(pq) > 0 {
		minIdx := 0
		for i := 1; i < len(pq); i++ {
			if pq[i].dist < pq[minIdx].dist {
				minIdx = i
			}
		}
		cur := pq[minIdx]
		pq[minIdx] = pq[len(pq)-1]
		pq = pq[:len(pq)-1]

		if cur.dist > dist[cur.node] {
			continue
		}
		if cur.node == target {
			return cur.dist
		}

		start, end := g.FwdRange(cur.node)
		for s := start; s < end; s++ {
			e := g.FwdEdgeAt(s)
			v := g.EdgeDst(e)
			nd := cur.dist + g.EdgeMetric(e, 0)
			if nd < dist[v] {
				dist[v] = nd
				pq = append(pq, item{v, nd})
			}
		}
	}
	return dist[target]
}

// chDijkstra runs ascend-only bidirectional Dijkstra over the CH-augmented
// unified graph, using CHLevel to restrict each side to edges that climb
// the hierarchy.
func chDijkstra(g *graph.Graph, source, target graph.NodeIdx) float64 {
	n := g.NodeCount()
	distFwd := make([]float64, n)
	distBwd := make([]float64, n)
	for i := range distFwd {
		distFwd[i] = math.Inf(1)
		distBwd[i] = math.Inf(1)
	}
	distFwd[source] = 0
	distBwd[target] = 0

	type item struct {
		node graph.NodeIdx
		dist float64
	}
	fwdPQ := []item{{source, 0}}
	bwdPQ := []item{{target, 0}}

	mu := math.Inf(1)

	popMin := func(pq *[]item) item {
		minIdx := 0
		for i := 1; i < len(*pq); i++ {
			if (*pq)[i].dist < (*pq)[minIdx].dist {
				minIdx = i
			}
		}
		cur := (*pq)[minIdx]
		(*pq)[minIdx] = (*pq)[len(*pq)-1]
		*pq = (*pq)[:len(*pq)-1]
		return cur
	}
	peekMin := func(pq []item) float64 {
		if len(pq) == 0 {
			return math.Inf(1)
		}
		m := pq[0].dist
		for _, it := range pq[1:] {
			if it.dist < m {
				m = it.dist
			}
		}
		return m
	}

	for len(fwdPQ) > 0 || len(bwdPQ) > 0 {
		if len(fwdPQ) > 0 && peekMin(fwdPQ) < mu {
			cur := popMin(&fwdPQ)
			if cur.dist <= distFwd[cur.node] {
				if !math.IsInf(distBwd[cur.node], 1) {
					if cand := cur.dist + distBwd[cur.node]; cand < mu {
						mu = cand
					}
				}
				start, end := g.FwdRange(cur.node)
				for s := start; s < end; s++ {
					e := g.FwdEdgeAt(s)
					v := g.EdgeDst(e)
					if g.CHLevel(v) <= g.CHLevel(cur.node) {
						continue
					}
					nd := cur.dist + g.EdgeMetric(e, 0)
					if nd < distFwd[v] {
						distFwd[v] = nd
						fwdPQ = append(fwdPQ, item{v, nd})
					}
				}
			}
		}

		if len(bwdPQ) > 0 && peekMin(bwdPQ) < mu {
			cur := popMin(&bwdPQ)
			if cur.dist <= distBwd[cur.node] {
				if !math.IsInf(distFwd[cur.node], 1) {
					if cand := distFwd[cur.node] + cur.dist; cand < mu {
						mu = cand
					}
				}
				start, end := g.BwdRange(cur.node)
				for s := start; s < end; s++ {
					e := g.BwdEdgeAt(s)
					v := g.EdgeSrc(e)
					if g.CHLevel(v) <= g.CHLevel(cur.node) {
						continue
					}
					nd := cur.dist + g.EdgeMetric(e, 0)
					if nd < distBwd[v] {
						distBwd[v] = nd
						bwdPQ = append(bwdPQ, item{v, nd})
					}
				}
			}
		}

		if peekMin(fwdPQ) >= mu && peekMin(bwdPQ) >= mu {
			break
		}
	}

	return mu
}

func TestContractSmallGraph(t *testing.T) {
	g := buildTestGraph(t)
	out, err := Contract(g, Default(1))
	if err != nil {
		t.Fatalf("Contract: %v", err)
	}
	if out.NodeCount() != 6 {
		t.Fatalf("NodeCount = %d, want 6", out.NodeCount())
	}

	seen := make(map[graph.CHLevel]bool)
	for i := 0; i < 6; i++ {
		lvl := out.CHLevel(graph.NodeIdx(i))
		if int(lvl) >= 6 {
			t.Errorf("CHLevel(%d) = %d, out of range", i, lvl)
		}
		seen[lvl] = true
	}
	if len(seen) != 6 {
		t.Errorf("levels are not a permutation: saw %d unique values, want 6", len(seen))
	}
}

func TestCHCorrectnessAllPairs(t *testing.T) {
	g := buildTestGraph(t)
	out, err := Contract(g, Default(1))
	if err != nil {
		t.Fatalf("Contract: %v", err)
	}

	for s := 0; s < g.NodeCount(); s++ {
		for d := 0; d < g.NodeCount(); d++ {
			if s == d {
				continue
			}
			want := plainDijkstra(g, graph.NodeIdx(s), graph.NodeIdx(d))
			got := chDijkstra(out, graph.NodeIdx(s), graph.NodeIdx(d))
			if math.Abs(got-want) > 1e-6 {
				t.Errorf("s=%d d=%d: CH=%v, plain=%v", s, d, got, want)
			}
		}
	}
}

func TestContractEmptyGraph(t *testing.T) {
	nodes := []graph.NodeRecord{{ID: 1}}
	g, err := graph.Build(nodes, nil, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out, err := Contract(g, Default(1))
	if err != nil {
		t.Fatalf("Contract: %v", err)
	}
	if out.NodeCount() != 1 {
		t.Fatalf("NodeCount = %d, want 1", out.NodeCount())
	}
}

func TestContractLinearGraph(t *testing.T) {
	nodes := make([]graph.NodeRecord, 5)
	for i := range nodes {
		nodes[i] = graph.NodeRecord{ID: graph.NodeID(i + 1)}
	}
	edges := []graph.EdgeRecord{
		{Src: 0, Dst: 1, Metrics: []float64{100}, SCChild0: -1, SCChild1: -1},
		{Src: 1, Dst: 2, Metrics: []float64{200}, SCChild0: -1, SCChild1: -1},
		{Src: 2, Dst: 3, Metrics: []float64{300}, SCChild0: -1, SCChild1: -1},
		{Src: 3, Dst: 4, Metrics: []float64{400}, SCChild0: -1, SCChild1: -1},
	}
	g, err := graph.Build(nodes, edges, 1)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out, err := Contract(g, Default(1))
	if err != nil {
		t.Fatalf("Contract: %v", err)
	}

	want := plainDijkstra(g, 0, 4)
	got := chDijkstra(out, 0, 4)
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("linear chain: CH=%v, plain=%v", got, want)
	}
}

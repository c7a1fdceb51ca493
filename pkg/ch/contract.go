package ch

import (
	"container/heap"
	"log"

	"mcrouter/pkg/graph"
)

// maxShortcutsPerNode limits the shortcuts a single contraction can create.
// When the next node would exceed it, contraction stops and every node not
// yet contracted forms an uncontracted core at the top of the hierarchy,
// with its edges left in place.
const maxShortcutsPerNode = 1000

// adjEntry is an edge in the mutable adjacency list built during
// contraction. edge indexes into the allEdges slice, where the full metric
// vector and any shortcut-child references live.
type adjEntry struct {
	to     int
	weight float64
	edge   int
}

// edgeBuild is one entry of the growing canonical edge list: either an
// original edge copied in from the input graph, or a shortcut created by
// contracting scChild0 and scChild1's shared middle node.
type edgeBuild struct {
	src, dst int
	metrics  []float64
	scChild0 int
	scChild1 int
}

// Contract runs contraction hierarchies preprocessing on g using w to
// collapse each edge's metric vector into a scalar ordering weight, and
// returns a new graph.Graph containing every original edge plus the
// shortcuts created along the way, with CHLevel populated on every node in
// contraction order (lowest level contracted first).
func Contract(g *graph.Graph, w Weights) (*graph.Graph, error) {
	n := g.NodeCount()
	dim := g.Dim()

	nodes := make([]graph.NodeRecord, n)
	for i := 0; i < n; i++ {
		idx := graph.NodeIdx(i)
		nodes[i] = graph.NodeRecord{ID: g.ID(idx), Coord: g.Coord(idx)}
	}

	if n == 0 {
		return graph.Build(nodes, nil, dim)
	}

	outAdj := make([][]adjEntry, n)
	inAdj := make([][]adjEntry, n)
	var allEdges []edgeBuild

	for u := 0; u < n; u++ {
		start, end := g.FwdRange(graph.NodeIdx(u))
		for s := start; s < end; s++ {
			e := g.FwdEdgeAt(s)
			v := int(g.EdgeDst(e))
			row := append([]float64(nil), g.EdgeMetrics(e)...)
			sc0, sc1 := -1, -1
			if c0, c1, ok := g.ShortcutChildren(e); ok {
				sc0, sc1 = int(c0), int(c1)
			}
			idx := len(allEdges)
			allEdges = append(allEdges, edgeBuild{src: u, dst: v, metrics: row, scChild0: sc0, scChild1: sc1})
			weight := w.scalar(row)
			outAdj[u] = append(outAdj[u], adjEntry{to: v, weight: weight, edge: idx})
			inAdj[v] = append(inAdj[v], adjEntry{to: u, weight: weight, edge: idx})
		}
	}

	contracted := make([]bool, n)
	rank := make([]uint32, n)
	contractedNeighbors := make([]int, n)
	level := make([]int, n)

	pq := make(priorityQueue, n)
	for i := 0; i < n; i++ {
		pq[i] = &pqEntry{
			node:     i,
			priority: computePriority(outAdj, inAdj, i, contracted, 0, 0),
			index:    i,
		}
	}
	heap.Init(&pq)

	ws := newWitnessState(n)

	log.Printf("ch: starting contraction of %d nodes", n)

	var totalShortcuts int
	order := uint32(0)
	logInterval := uint32(50000)

	for pq.Len() > 0 {
		entry := heap.Pop(&pq).(*pqEntry)
		node := entry.node

		if contracted[node] {
			continue
		}

		newPriority := computePriority(outAdj, inAdj, node, contracted, contractedNeighbors[node], level[node])
		if newPriority > entry.priority && pq.Len() > 0 && newPriority > pq[0].priority {
			entry.priority = newPriority
			heap.Push(&pq, entry)
			continue
		}

		shortcuts := findShortcuts(ws, outAdj, inAdj, node, contracted)
		if len(shortcuts) > maxShortcutsPerNode {
			log.Printf("ch: stopping contraction, node %d would create %d shortcuts (limit %d); %d nodes remain in core",
				node, len(shortcuts), maxShortcutsPerNode, n-int(order))
			break
		}

		contracted[node] = true
		rank[node] = order
		order++
		totalShortcuts += len(shortcuts)

		for _, sc := range shortcuts {
			idx := len(allEdges)
			allEdges = append(allEdges, edgeBuild{
				src: sc.from, dst: sc.to,
				metrics:  sumMetrics(dim, allEdges[sc.childA].metrics, allEdges[sc.childB].metrics),
				scChild0: sc.childA, scChild1: sc.childB,
			})
			outAdj[sc.from] = append(outAdj[sc.from], adjEntry{to: sc.to, weight: sc.weight, edge: idx})
			inAdj[sc.to] = append(inAdj[sc.to], adjEntry{to: sc.from, weight: sc.weight, edge: idx})
		}

		for _, e := range outAdj[node] {
			if !contracted[e.to] {
				contractedNeighbors[e.to]++
				if level[node]+1 > level[e.to] {
					level[e.to] = level[node] + 1
				}
			}
		}
		for _, e := range inAdj[node] {
			if !contracted[e.to] {
				contractedNeighbors[e.to]++
				if level[node]+1 > level[e.to] {
					level[e.to] = level[node] + 1
				}
			}
		}

		remaining := n - int(order)
		switch {
		case remaining < 1000:
			logInterval = 100
		case remaining < 10000:
			logInterval = 1000
		case remaining < 100000:
			logInterval = 10000
		default:
			logInterval = 50000
		}
		if order%logInterval == 0 {
			log.Printf("ch: contracted %d/%d nodes, %d shortcuts so far", order, n, totalShortcuts)
		}
	}

	coreSize := 0
	for i := 0; i < n; i++ {
		if !contracted[i] {
			contracted[i] = true
			rank[i] = order
			order++
			coreSize++
		}
	}

	log.Printf("ch: contraction complete, %d shortcuts created, %d core nodes", totalShortcuts, coreSize)

	edges := make([]graph.EdgeRecord, len(allEdges))
	for i, eb := range allEdges {
		edges[i] = graph.EdgeRecord{
			Src: eb.src, Dst: eb.dst,
			Metrics:  eb.metrics,
			SCChild0: eb.scChild0,
			SCChild1: eb.scChild1,
		}
	}

	out, err := graph.Build(nodes, edges, dim)
	if err != nil {
		return nil, err
	}
	levels := make([]graph.CHLevel, n)
	for i := 0; i < n; i++ {
		levels[i] = graph.CHLevel(rank[i])
	}
	if err := graph.SetCHLevels(out, levels); err != nil {
		return nil, err
	}
	return out, nil
}

// shortcut is a candidate shortcut edge to be added, referencing the
// allEdges slots it contracts away.
type shortcut struct {
	from, to       int
	weight         float64
	childA, childB int
}

// findShortcuts determines which shortcuts are needed when contracting
// node, using one batch witness search per active incoming neighbor instead
// of one per (incoming, outgoing) pair.
func findShortcuts(ws *witnessState, outAdj, inAdj [][]adjEntry, node int, contracted []bool) []shortcut {
	var incoming, outgoing []adjEntry
	for _, e := range inAdj[node] {
		if !contracted[e.to] {
			incoming = append(incoming, e)
		}
	}
	for _, e := range outAdj[node] {
		if !contracted[e.to] {
			outgoing = append(outgoing, e)
		}
	}
	if len(incoming) == 0 || len(outgoing) == 0 {
		return nil
	}

	var shortcuts []shortcut

	for _, in := range incoming {
		var maxOut float64
		for _, out := range outgoing {
			if out.to != in.to && out.weight > maxOut {
				maxOut = out.weight
			}
		}
		if maxOut == 0 {
			continue
		}
		maxWeight := in.weight + maxOut

		batchWitnessSearch(ws, outAdj, in.to, node, maxWeight, contracted)

		for _, out := range outgoing {
			if out.to == in.to {
				continue
			}
			scWeight := in.weight + out.weight
			if ws.dist[out.to] > scWeight {
				shortcuts = append(shortcuts, shortcut{
					from: in.to, to: out.to, weight: scWeight,
					childA: in.edge, childB: out.edge,
				})
			}
		}
	}

	return shortcuts
}

// computePriority scores a node for contraction ordering; lower contracts
// first. The shortcut count is approximated by the worst-case in*out
// product rather than run through witness search, which is fast enough for
// ordering purposes and matches the heuristic's intent.
func computePriority(outAdj, inAdj [][]adjEntry, node int, contracted []bool, contractedNeighbors, level int) int {
	activeIn := 0
	for _, e := range inAdj[node] {
		if !contracted[e.to] {
			activeIn++
		}
	}
	activeOut := 0
	for _, e := range outAdj[node] {
		if !contracted[e.to] {
			activeOut++
		}
	}
	edgeDifference := activeIn*activeOut - (activeIn + activeOut)
	return edgeDifference + 2*contractedNeighbors + level
}

type pqEntry struct {
	node     int
	priority int
	index    int
}

type priorityQueue []*pqEntry

func (pq priorityQueue) Len() int           { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool { return pq[i].priority < pq[j].priority }
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	entry := x.(*pqEntry)
	entry.index = len(*pq)
	*pq = append(*pq, entry)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	entry := old[n-1]
	old[n-1] = nil
	entry.index = -1
	*pq = old[:n-1]
	return entry
}

package routing

import (
	"math"

	"mcrouter/pkg/graph"
)

// State is per-query scratch memory, reused across queries via generation
// stamps instead of a touched-list reset: a node's slot is only
// meaningful when its generation stamp equals the current query's
// generation, so starting a new query is an O(1) counter bump rather than
// an O(touched) walk. The counter is a uint32; on wraparound (after four
// billion queries against one State) begin clears every stamp once.
type State struct {
	dim int
	n   int

	gen []uint32

	distFwd []float64
	distBwd []float64
	metFwd  []float64 // dim-length rows, flattened
	metBwd  []float64
	predFwd []graph.EdgeIdx // incoming canonical edge on the forward tree
	predBwd []graph.EdgeIdx

	current uint32

	fwdPQ minHeap
	bwdPQ minHeap
}

func NewState(n, dim int) *State {
	return &State{
		dim:     dim,
		n:       n,
		gen:     make([]uint32, n),
		distFwd: make([]float64, n),
		distBwd: make([]float64, n),
		metFwd:  make([]float64, n*dim),
		metBwd:  make([]float64, n*dim),
		predFwd: make([]graph.EdgeIdx, n),
		predBwd: make([]graph.EdgeIdx, n),
		fwdPQ:   minHeap{items: make([]pqItem, 0, 256)},
		bwdPQ:   minHeap{items: make([]pqItem, 0, 256)},
	}
}

// begin starts a new query, invalidating every node's stale scratch data in
// O(1).
func (s *State) begin() {
	s.current++
	if s.current == 0 {
		// Wrapped around; force every slot stale on the next touch by
		// clearing the stamps once, which only happens every 2^32 queries.
		for i := range s.gen {
			s.gen[i] = 0
		}
		s.current = 1
	}
	s.fwdPQ.Reset()
	s.bwdPQ.Reset()
}

func (s *State) fresh(u graph.NodeIdx) bool {
	return s.gen[u] != s.current
}

func (s *State) touch(u graph.NodeIdx) {
	if s.fresh(u) {
		s.gen[u] = s.current
		s.distFwd[u] = math.Inf(1)
		s.distBwd[u] = math.Inf(1)
		s.predFwd[u] = graph.NoEdge
		s.predBwd[u] = graph.NoEdge
		row := s.metFwd[int(u)*s.dim : int(u)*s.dim+s.dim]
		for k := range row {
			row[k] = math.Inf(1)
		}
		row = s.metBwd[int(u)*s.dim : int(u)*s.dim+s.dim]
		for k := range row {
			row[k] = math.Inf(1)
		}
	}
}

func (s *State) fwdMetrics(u graph.NodeIdx) []float64 {
	return s.metFwd[int(u)*s.dim : int(u)*s.dim+s.dim]
}

func (s *State) bwdMetrics(u graph.NodeIdx) []float64 {
	return s.metBwd[int(u)*s.dim : int(u)*s.dim+s.dim]
}

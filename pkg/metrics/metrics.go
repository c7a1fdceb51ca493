// Package metrics implements the Metric Container layer (L0): a dense,
// row-major store of D metric values per edge, with optional per-column
// mean normalization.
package metrics

import "fmt"

// Idx identifies one of the D metric columns.
type Idx uint32

// Set is a packed row-major matrix of shape edgeCount x dim. All values are
// expected non-negative and finite; infinity is reserved for the "unreachable"
// sentinel at the algorithm layer and is never stored here.
type Set struct {
	dim   int
	edges int
	data  []float64 // len == edges*dim, row-major: data[e*dim+k]
	means []float64 // len == dim if Normalize has run, else nil
}

// NewSet allocates a zeroed metric container for edges edges and dim columns.
func NewSet(dim, edges int) *Set {
	if dim <= 0 {
		panic("metrics: dim must be positive")
	}
	if edges < 0 {
		panic("metrics: edges must be non-negative")
	}
	return &Set{
		dim:   dim,
		edges: edges,
		data:  make([]float64, dim*edges),
	}
}

// Dim returns D, the metric dimension.
func (s *Set) Dim() int { return s.dim }

// EdgeCount returns the number of edges this set holds rows for.
func (s *Set) EdgeCount() int { return s.edges }

// SetRow stores the D values for edge e. Panics if len(row) != Dim().
func (s *Set) SetRow(e int, row []float64) {
	if len(row) != s.dim {
		panic(fmt.Sprintf("metrics: row has %d values, want %d", len(row), s.dim))
	}
	copy(s.data[e*s.dim:(e+1)*s.dim], row)
}

// Row returns a view of the D values for edge e. The slice aliases the
// underlying storage; callers must not retain it across mutation.
func (s *Set) Row(e int) []float64 {
	return s.data[e*s.dim : (e+1)*s.dim]
}

// At returns the value of metric k on edge e.
func (s *Set) At(e int, k Idx) float64 {
	return s.data[e*s.dim+int(k)]
}

// Mean returns the stored mean for column k, populated only after Normalize
// has been called. The second return is false otherwise.
func (s *Set) Mean(k Idx) (float64, bool) {
	if s.means == nil {
		return 0, false
	}
	return s.means[k], true
}

// Normalized reports whether Normalize has been applied to this set.
func (s *Set) Normalized() bool { return s.means != nil }

// Normalize divides every column by its mean across all edges, recording the
// means so they can be recovered (e.g. for fmi output with raw columns) or
// surfaced to callers inspecting the graph. Columns whose mean is zero (no
// edges, or all-zero column) are left untouched and recorded as mean 1.
func (s *Set) Normalize() {
	if s.edges == 0 {
		s.means = make([]float64, s.dim)
		for k := range s.means {
			s.means[k] = 1
		}
		return
	}
	sums := make([]float64, s.dim)
	for e := 0; e < s.edges; e++ {
		row := s.Row(e)
		for k := 0; k < s.dim; k++ {
			sums[k] += row[k]
		}
	}
	means := make([]float64, s.dim)
	for k := 0; k < s.dim; k++ {
		m := sums[k] / float64(s.edges)
		if m == 0 {
			means[k] = 1
			continue
		}
		means[k] = m
	}
	for e := 0; e < s.edges; e++ {
		row := s.Row(e)
		for k := 0; k < s.dim; k++ {
			row[k] /= means[k]
		}
	}
	s.means = means
}

// Denormalized returns the raw (un-normalized) value of metric k on edge e,
// regardless of whether Normalize has been applied.
func (s *Set) Denormalized(e int, k Idx) float64 {
	v := s.At(e, k)
	if s.means == nil {
		return v
	}
	return v * s.means[k]
}

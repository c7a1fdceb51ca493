package fmi

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"mcrouter/pkg/graph"
	"mcrouter/pkg/perr"
)

// lineScanner yields functional (non-blank, non-comment) lines with their
// 1-indexed position in the underlying reader: comment lines (leading '#')
// and blank lines are ignored.
type lineScanner struct {
	sc   *bufio.Scanner
	line int
}

func newLineScanner(r io.Reader) *lineScanner {
	return &lineScanner{sc: bufio.NewScanner(r)}
}

func (l *lineScanner) next() (string, bool) {
	for l.sc.Scan() {
		l.line++
		text := strings.TrimSpace(l.sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		return text, true
	}
	return "", false
}

// PeekDim reads just the first functional line of an fmi file (its metric
// dimension) so callers can build a matching Schema before calling Parse.
// It does not rewind r; callers reading from a file should re-open or Seek
// back to the start before calling Parse.
func PeekDim(r io.Reader) (int, error) {
	return readCount(newLineScanner(r), "dim")
}

// Parse reads an fmi file from r under schema and returns a frozen graph.
// Node order in the file becomes NodeIdx order; edge shortcut-index columns
// reference other edges by their 0-based position within the file's edge
// block.
func Parse(r io.Reader, schema Schema) (*graph.Graph, error) {
	ls := newLineScanner(r)

	dim, err := readCount(ls, "dim")
	if err != nil {
		return nil, err
	}
	if dim != schema.Dim {
		return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "file dimension does not match schema dimension"}
	}
	nodeCount, err := readCount(ls, "node_count")
	if err != nil {
		return nil, err
	}
	edgeCount, err := readCount(ls, "edge_count")
	if err != nil {
		return nil, err
	}

	nodeIDs := make([]graph.NodeID, nodeCount)
	nodes := make([]graph.NodeRecord, nodeCount)
	chLevels := make([]graph.CHLevel, nodeCount)
	haveCHLevel := false

	for i := 0; i < nodeCount; i++ {
		line, ok := ls.next()
		if !ok {
			return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "unexpected end of file reading nodes"}
		}
		fields := strings.Fields(line)
		if len(fields) < len(schema.Nodes) {
			return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "not enough columns for node line"}
		}
		var id graph.NodeID
		var lat, lon float64
		var chLevel graph.CHLevel
		for col, field := range schema.Nodes {
			raw := fields[col]
			switch field {
			case NodeID:
				v, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "node id is not an integer"}
				}
				id = graph.NodeID(v)
			case NodeLat:
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "node lat is not a float"}
				}
				lat = v
			case NodeLon:
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "node lon is not a float"}
				}
				lon = v
			case NodeCHLevel:
				v, err := strconv.ParseUint(raw, 10, 32)
				if err != nil {
					return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "node ch_level is not an unsigned integer"}
				}
				chLevel = graph.CHLevel(v)
				haveCHLevel = true
			case NodeIgnored:
			}
		}
		nodeIDs[i] = id
		nodes[i] = graph.NodeRecord{ID: id, Coord: graph.Coordinate{Lat: lat, Lon: lon}}
		chLevels[i] = chLevel
	}

	idToIdx := make(map[graph.NodeID]int, nodeCount)
	for i, id := range nodeIDs {
		if _, dup := idToIdx[id]; dup {
			return nil, &perr.ParseError{Source: "fmi", Msg: "duplicate node id"}
		}
		idToIdx[id] = i
	}

	edges := make([]graph.EdgeRecord, edgeCount)
	for i := 0; i < edgeCount; i++ {
		line, ok := ls.next()
		if !ok {
			return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "unexpected end of file reading edges"}
		}
		fields := strings.Fields(line)
		if len(fields) < len(schema.Edges) {
			return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "not enough columns for edge line"}
		}
		var srcID, dstID graph.NodeID
		metricsRow := make([]float64, dim)
		sc0, sc1 := -1, -1
		for col, ec := range schema.Edges {
			raw := fields[col]
			switch ec.Field {
			case EdgeSrcID:
				v, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "edge src_id is not an integer"}
				}
				srcID = graph.NodeID(v)
			case EdgeDstID:
				v, err := strconv.ParseInt(raw, 10, 64)
				if err != nil {
					return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "edge dst_id is not an integer"}
				}
				dstID = graph.NodeID(v)
			case EdgeMetric:
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "edge metric value is not a float"}
				}
				if ec.MetricIdx < 0 || ec.MetricIdx >= dim {
					return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "schema metric index out of range"}
				}
				metricsRow[ec.MetricIdx] = v
			case EdgeShortcut0:
				v, err := strconv.Atoi(raw)
				if err != nil {
					return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "shortcut index 0 is not an integer"}
				}
				sc0 = v
			case EdgeShortcut1:
				v, err := strconv.Atoi(raw)
				if err != nil {
					return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "shortcut index 1 is not an integer"}
				}
				sc1 = v
			case EdgeIgnored:
			}
		}
		srcIdx, ok := idToIdx[srcID]
		if !ok {
			return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "edge refers to unknown src node id"}
		}
		dstIdx, ok := idToIdx[dstID]
		if !ok {
			return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "edge refers to unknown dst node id"}
		}
		if sc0 < 0 || sc1 < 0 {
			sc0, sc1 = -1, -1
		} else if sc0 >= edgeCount || sc1 >= edgeCount {
			return nil, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "shortcut references out-of-range edge"}
		}
		edges[i] = graph.EdgeRecord{Src: srcIdx, Dst: dstIdx, Metrics: metricsRow, SCChild0: sc0, SCChild1: sc1}
	}

	g, err := graph.Build(nodes, edges, dim)
	if err != nil {
		return nil, err
	}
	if haveCHLevel {
		if err := graph.SetCHLevels(g, chLevels); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func readCount(ls *lineScanner, what string) (int, error) {
	line, ok := ls.next()
	if !ok {
		return 0, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: "unexpected end of file reading " + what}
	}
	v, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || v < 0 {
		return 0, &perr.ParseError{Source: "fmi", Line: ls.line, Msg: what + " is not a non-negative integer"}
	}
	return v, nil
}

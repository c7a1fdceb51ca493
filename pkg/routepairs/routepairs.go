// Package routepairs reads the route-pair file format: header comments, a
// route count, then that many "<src_id> <dst_id> <count>" lines, where
// count is how many times that pair should be queried (route
// generation/benchmarking tooling's knob, passed through unevaluated here).
package routepairs

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"mcrouter/pkg/graph"
	"mcrouter/pkg/perr"
)

// Pair is one route-pair line: query src/dst by external node id, plus the
// repeat count carried by the file.
type Pair struct {
	SrcID graph.NodeID
	DstID graph.NodeID
	Count int
}

// Parse reads a route-pair file from r. Blank lines and lines starting with
// '#' are ignored, matching fmi's comment convention; the first functional
// line is the route count, and exactly that many pair lines must follow.
func Parse(r io.Reader) ([]Pair, error) {
	sc := bufio.NewScanner(r)
	line := 0

	next := func() (string, bool) {
		for sc.Scan() {
			line++
			text := strings.TrimSpace(sc.Text())
			if text == "" || text[0] == '#' {
				continue
			}
			return text, true
		}
		return "", false
	}

	countLine, ok := next()
	if !ok {
		return nil, &perr.ParseError{Source: "routepairs", Msg: "file has no route count"}
	}
	count, err := strconv.Atoi(countLine)
	if err != nil || count < 0 {
		return nil, &perr.ParseError{Source: "routepairs", Line: line, Msg: "route count is not a non-negative integer"}
	}

	pairs := make([]Pair, 0, count)
	for i := 0; i < count; i++ {
		text, ok := next()
		if !ok {
			return nil, &perr.ParseError{Source: "routepairs", Line: line, Msg: "unexpected end of file reading route pairs"}
		}
		fields := strings.Fields(text)
		if len(fields) != 3 {
			return nil, &perr.ParseError{Source: "routepairs", Line: line, Msg: "route-pair line must have exactly 3 fields: src_id dst_id count"}
		}
		srcID, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, &perr.ParseError{Source: "routepairs", Line: line, Msg: "src_id is not an integer"}
		}
		dstID, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, &perr.ParseError{Source: "routepairs", Line: line, Msg: "dst_id is not an integer"}
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil || n < 0 {
			return nil, &perr.ParseError{Source: "routepairs", Line: line, Msg: "count is not a non-negative integer"}
		}
		pairs = append(pairs, Pair{SrcID: graph.NodeID(srcID), DstID: graph.NodeID(dstID), Count: n})
	}
	return pairs, nil
}

// Resolve translates each pair's external ids to NodeIdx against g,
// returning a *perr.QueryError for the first pair naming an unknown node id.
func Resolve(g *graph.Graph, pairs []Pair) ([][2]graph.NodeIdx, error) {
	out := make([][2]graph.NodeIdx, len(pairs))
	for i, p := range pairs {
		src, err := g.IdxFromID(p.SrcID)
		if err != nil {
			return nil, &perr.QueryError{NodeID: int64(p.SrcID), Msg: "route-pair src id not found in graph"}
		}
		dst, err := g.IdxFromID(p.DstID)
		if err != nil {
			return nil, &perr.QueryError{NodeID: int64(p.DstID), Msg: "route-pair dst id not found in graph"}
		}
		out[i] = [2]graph.NodeIdx{src, dst}
	}
	return out, nil
}

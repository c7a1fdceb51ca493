package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"mcrouter/pkg/fmi"
	"mcrouter/pkg/perr"
)

// FmiSchemaFile is the on-disk YAML shape for an fmi column schema:
// ordered lists of column tokens for node and edge lines. Tokens are
// "id", "lat", "lon", "ch_level", "ignored" for nodes; "src_id", "dst_id",
// "ignored", "shortcut_0", "shortcut_1", or "metric:<name>" for edges,
// where <name> is resolved against the metrics list.
type FmiSchemaFile struct {
	Metrics []string `yaml:"metrics"`
	Nodes   []string `yaml:"nodes"`
	Edges   []string `yaml:"edges"`
}

// LoadFmiSchema reads a column-schema YAML file from path and resolves it
// into an fmi.Schema.
func LoadFmiSchema(path string) (fmi.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmi.Schema{}, fmt.Errorf("reading fmi schema %s: %w", path, err)
	}
	var sf FmiSchemaFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return fmi.Schema{}, &perr.ConfigError{Field: path, Msg: fmt.Sprintf("invalid yaml: %v", err)}
	}
	return sf.Resolve()
}

// Resolve turns an already-parsed FmiSchemaFile into an fmi.Schema.
func (sf FmiSchemaFile) Resolve() (fmi.Schema, error) {
	metricIdx := make(map[string]int, len(sf.Metrics))
	for i, name := range sf.Metrics {
		metricIdx[name] = i
	}

	nodes := make([]fmi.NodeField, 0, len(sf.Nodes))
	for _, tok := range sf.Nodes {
		switch tok {
		case "id":
			nodes = append(nodes, fmi.NodeID)
		case "lat":
			nodes = append(nodes, fmi.NodeLat)
		case "lon":
			nodes = append(nodes, fmi.NodeLon)
		case "ch_level":
			nodes = append(nodes, fmi.NodeCHLevel)
		case "ignored":
			nodes = append(nodes, fmi.NodeIgnored)
		default:
			return fmi.Schema{}, &perr.ConfigError{Field: "nodes", Msg: "unknown node column token " + strconv.Quote(tok)}
		}
	}

	edges := make([]fmi.EdgeColumn, 0, len(sf.Edges))
	for _, tok := range sf.Edges {
		switch {
		case tok == "src_id":
			edges = append(edges, fmi.EdgeColumn{Field: fmi.EdgeSrcID})
		case tok == "dst_id":
			edges = append(edges, fmi.EdgeColumn{Field: fmi.EdgeDstID})
		case tok == "ignored":
			edges = append(edges, fmi.EdgeColumn{Field: fmi.EdgeIgnored})
		case tok == "shortcut_0":
			edges = append(edges, fmi.EdgeColumn{Field: fmi.EdgeShortcut0})
		case tok == "shortcut_1":
			edges = append(edges, fmi.EdgeColumn{Field: fmi.EdgeShortcut1})
		case strings.HasPrefix(tok, "metric:"):
			name := strings.TrimPrefix(tok, "metric:")
			idx, ok := metricIdx[name]
			if !ok {
				return fmi.Schema{}, &perr.ConfigError{Field: "edges", Msg: "unknown metric id " + strconv.Quote(name)}
			}
			edges = append(edges, fmi.EdgeColumn{Field: fmi.EdgeMetric, MetricIdx: idx})
		default:
			return fmi.Schema{}, &perr.ConfigError{Field: "edges", Msg: "unknown edge column token " + strconv.Quote(tok)}
		}
	}

	return fmi.Schema{Dim: len(sf.Metrics), Nodes: nodes, Edges: edges}, nil
}

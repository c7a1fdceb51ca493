// Command route loads a graph (fmi, optionally CH-augmented) and answers
// best-path or Pareto-exploration queries against it from the command
// line, printing results to stdout rather than serving them over a
// network interface.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"mcrouter/pkg/config"
	"mcrouter/pkg/explorator"
	"mcrouter/pkg/fmi"
	"mcrouter/pkg/graph"
	"mcrouter/pkg/routing"
	"mcrouter/pkg/snap"
)

func main() {
	graphPath := flag.String("graph", "", "path to an fmi graph file")
	isCH := flag.Bool("ch", false, "treat the graph as CH-augmented and run bidirectional search")
	routingCfgPath := flag.String("routing-config", "", "path to a YAML routing config (alpha/tolerated_scale/ch)")
	metrics := flag.String("metrics", "", "comma-separated metric names, in column order (required with --routing-config)")
	src := flag.String("src", "", "source: a node id, or lat,lon to snap to the nearest road")
	dst := flag.String("dst", "", "destination: a node id, or lat,lon to snap to the nearest road")
	pareto := flag.Bool("pareto", false, "enumerate all Pareto-optimal paths instead of one best path")
	alphaFlag := flag.String("alpha", "", "comma-separated alpha weights, in column order (ignored with --routing-config or --pareto)")
	flag.Parse()

	if *graphPath == "" || *src == "" || *dst == "" {
		fmt.Fprintln(os.Stderr, "usage: route --graph graph.fmi --src <id|lat,lon> --dst <id|lat,lon> [--ch] [--pareto] [--alpha 1,0,0] [--routing-config cfg.yaml --metrics distance,duration,lanes]")
		os.Exit(1)
	}

	f, err := os.Open(*graphPath)
	if err != nil {
		log.Fatalf("opening graph: %v", err)
	}
	dim, err := fmi.PeekDim(f)
	if err != nil {
		log.Fatalf("reading graph: %v", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		log.Fatalf("reading graph: %v", err)
	}
	schema := fmi.DefaultSchema(dim)
	if *isCH {
		schema = fmi.CHSchema(dim)
	}
	g, err := fmi.Parse(f, schema)
	f.Close()
	if err != nil {
		log.Fatalf("parsing graph: %v", err)
	}
	log.Printf("loaded graph: %d nodes, %d edges, dim=%d", g.NodeCount(), g.EdgeCount(), dim)

	srcIdx, err := resolveEndpoint(g, *src)
	if err != nil {
		log.Fatalf("resolving src: %v", err)
	}
	dstIdx, err := resolveEndpoint(g, *dst)
	if err != nil {
		log.Fatalf("resolving dst: %v", err)
	}

	if *pareto {
		paths, err := explorator.Explore(g, srcIdx, dstIdx)
		if err != nil {
			log.Fatalf("explore: %v", err)
		}
		if len(paths) == 0 {
			fmt.Println("unreachable")
			return
		}
		for i, p := range paths {
			fmt.Printf("path %d: cost=%v edges=%d\n", i, p.Metrics, len(p.Edges))
		}
		return
	}

	cfg, err := resolveRoutingConfig(*routingCfgPath, *metrics, *alphaFlag, dim, *isCH)
	if err != nil {
		log.Fatalf("routing config: %v", err)
	}

	path, ok, err := routing.Query(g, cfg, srcIdx, dstIdx)
	if err != nil {
		log.Fatalf("query: %v", err)
	}
	if !ok {
		fmt.Println("unreachable")
		return
	}
	fmt.Printf("cost=%v scalar=%v edges=%d\n", path.Metrics, path.Cost, len(path.Edges))
}

// resolveEndpoint accepts either a bare external node id or a "lat,lon"
// pair, snapping the latter to the nearest road via pkg/snap and returning
// the nearer of the snapped edge's two endpoints.
func resolveEndpoint(g *graph.Graph, token string) (graph.NodeIdx, error) {
	if id, err := strconv.ParseInt(token, 10, 64); err == nil {
		return g.IdxFromID(graph.NodeID(id))
	}

	parts := strings.Split(token, ",")
	if len(parts) != 2 {
		return 0, fmt.Errorf("endpoint %q is neither a node id nor a lat,lon pair", token)
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	lon, errLon := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if errLat != nil || errLon != nil {
		return 0, fmt.Errorf("endpoint %q is neither a node id nor a lat,lon pair", token)
	}

	idx := snap.Build(g)
	res, err := idx.Snap(lat, lon)
	if err != nil {
		return 0, err
	}
	if res.Ratio < 0.5 {
		return res.U, nil
	}
	return res.V, nil
}

func resolveRoutingConfig(routingCfgPath, metricsFlag, alphaFlag string, dim int, isCH bool) (routing.RoutingConfig, error) {
	if routingCfgPath != "" {
		if metricsFlag == "" {
			return routing.RoutingConfig{}, fmt.Errorf("--routing-config requires --metrics")
		}
		names := strings.Split(metricsFlag, ",")
		if len(names) != dim {
			return routing.RoutingConfig{}, fmt.Errorf("--metrics lists %d names, graph has dim %d", len(names), dim)
		}
		cfg, err := config.LoadRoutingConfig(routingCfgPath, names)
		if err != nil {
			return routing.RoutingConfig{}, err
		}
		// --ch describes the graph just loaded, not a routing preference;
		// it always wins over whatever the config file's own ch: field says.
		cfg.IsCH = isCH
		return cfg, nil
	}

	alpha := make([]float64, dim)
	if alphaFlag != "" {
		parts := strings.Split(alphaFlag, ",")
		if len(parts) != dim {
			return routing.RoutingConfig{}, fmt.Errorf("--alpha lists %d values, graph has dim %d", len(parts), dim)
		}
		for i, p := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				return routing.RoutingConfig{}, fmt.Errorf("--alpha value %q is not a float", p)
			}
			alpha[i] = v
		}
	} else if dim > 0 {
		alpha[0] = 1
	}
	return routing.NewConfig(alpha, isCH), nil
}

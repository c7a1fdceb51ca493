// Command preprocess turns an OSM PBF extract (or an existing fmi file)
// into a frozen graph, optionally contracts it, and writes the result back
// out as fmi, a multi-metric text format.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"mcrouter/pkg/ch"
	"mcrouter/pkg/fmi"
	"mcrouter/pkg/graph"
	osmparser "mcrouter/pkg/osm"
)

func main() {
	input := flag.String("input", "", "path to .osm.pbf or .fmi input file")
	output := flag.String("output", "graph.fmi", "output fmi file path")
	bbox := flag.String("bbox", "", "bounding box filter: minLat,minLng,maxLat,maxLng")
	contract := flag.Bool("ch", false, "run contraction hierarchies preprocessing")
	normalize := flag.Bool("normalize", false, "mean-normalize metric columns before writing")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: preprocess --input <file.osm.pbf|file.fmi> [--output graph.fmi] [--ch] [--normalize] [--bbox minLat,minLng,maxLat,maxLng]")
		os.Exit(1)
	}

	start := time.Now()

	g, dim, err := loadGraph(*input, *bbox)
	if err != nil {
		log.Fatalf("loading %s: %v", *input, err)
	}
	log.Printf("loaded graph: %d nodes, %d edges, dim=%d", g.NodeCount(), g.EdgeCount(), dim)

	largest := graph.LargestComponent(g)
	if len(largest) != g.NodeCount() {
		log.Printf("restricting to largest component: %d/%d nodes", len(largest), g.NodeCount())
		g, err = graph.FilterToComponent(g, largest)
		if err != nil {
			log.Fatalf("filtering to largest component: %v", err)
		}
	}

	if *normalize {
		g.Metrics().Normalize()
		log.Printf("normalized %d metric columns", dim)
	}

	schema := fmi.DefaultSchema(dim)
	if *contract {
		log.Println("running contraction hierarchies preprocessing...")
		g, err = ch.Contract(g, ch.Default(dim))
		if err != nil {
			log.Fatalf("contraction: %v", err)
		}
		log.Printf("contracted: %d nodes, %d edges (incl. shortcuts)", g.NodeCount(), g.EdgeCount())
		schema = fmi.CHSchema(dim)
	}

	if err := writeFmi(*output, g, schema); err != nil {
		log.Fatalf("writing %s: %v", *output, err)
	}

	info, _ := os.Stat(*output)
	var size int64
	if info != nil {
		size = info.Size()
	}
	log.Printf("done in %s. output: %s (%.1f KB)", time.Since(start).Round(time.Millisecond), *output, float64(size)/1024)
}

func loadGraph(path, bboxFlag string) (*graph.Graph, int, error) {
	if strings.HasSuffix(path, ".fmi") {
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, err
		}
		defer f.Close()
		dim, err := fmi.PeekDim(f)
		if err != nil {
			return nil, 0, err
		}
		if _, err := f.Seek(0, 0); err != nil {
			return nil, 0, err
		}
		g, err := fmi.Parse(f, fmi.DefaultSchema(dim))
		return g, dim, err
	}

	var opts osmparser.ParseOptions
	if bboxFlag != "" {
		var minLat, minLng, maxLat, maxLng float64
		if _, err := fmt.Sscanf(bboxFlag, "%f,%f,%f,%f", &minLat, &minLng, &maxLat, &maxLng); err != nil {
			return nil, 0, fmt.Errorf("invalid bbox (want minLat,minLng,maxLat,maxLng): %w", err)
		}
		opts.BBox = osmparser.BBox{MinLat: minLat, MaxLat: maxLat, MinLng: minLng, MaxLng: maxLng}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	result, err := osmparser.Parse(context.Background(), f, opts)
	if err != nil {
		return nil, 0, err
	}
	g, err := osmparser.ToGraph(result)
	return g, osmparser.MetricDim, err
}

func writeFmi(path string, g *graph.Graph, schema fmi.Schema) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		f.Close()
		os.Remove(tmp)
	}()

	if err := fmi.Write(f, g, schema, fmi.WriteOptions{IncludeShortcuts: true}); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Package osm ingests OSM PBF extracts into the multi-metric edge records
// pkg/graph.Build consumes: distance (meters), duration (seconds, from
// tagged or default-by-highway-class speed), and lane count.
package osm

import (
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"mcrouter/pkg/geo"
)

// MetricDim is the number of metric columns this parser produces:
// distance_m, duration_s, lanes.
const MetricDim = 3

const (
	MetricDistance = 0
	MetricDuration = 1
	MetricLanes    = 2
)

// RawEdge is a directed edge parsed from OSM data, in external node id
// space.
type RawEdge struct {
	FromNodeID osm.NodeID
	ToNodeID   osm.NodeID
	Metrics    [MetricDim]float64
}

// ParseResult holds the output of parsing an OSM PBF file.
type ParseResult struct {
	Edges   []RawEdge
	NodeLat map[osm.NodeID]float64
	NodeLon map[osm.NodeID]float64
}

var carHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
}

// defaultSpeedKMH gives a fallback travel speed per highway class, used
// when a way carries no usable maxspeed tag.
var defaultSpeedKMH = map[string]float64{
	"motorway":       110,
	"motorway_link":  60,
	"trunk":          90,
	"trunk_link":     50,
	"primary":        70,
	"primary_link":   40,
	"secondary":      60,
	"secondary_link": 40,
	"tertiary":       50,
	"tertiary_link":  30,
	"unclassified":   40,
	"residential":    30,
	"living_street":  15,
	"service":        15,
}

func isCarAccessible(tags osm.Tags) bool {
	hw := tags.Find("highway")
	if !carHighways[hw] {
		return false
	}
	if tags.Find("area") == "yes" {
		return false
	}
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("motor_vehicle") == "no" {
		return false
	}
	return true
}

func directionFlags(tags osm.Tags) (forward, backward bool) {
	forward, backward = true, true

	hw := tags.Find("highway")
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	switch tags.Find("oneway") {
	case "yes", "true", "1":
		forward, backward = true, false
	case "-1", "reverse":
		forward, backward = false, true
	case "no":
		forward, backward = true, true
	case "reversible":
		forward, backward = false, false
	}

	return forward, backward
}

// speedKMH resolves a way's travel speed from its maxspeed tag (numeric,
// optionally suffixed "mph"), falling back to defaultSpeedKMH by highway
// class, and finally to a conservative floor.
func speedKMH(tags osm.Tags) float64 {
	hw := tags.Find("highway")
	if raw := tags.Find("maxspeed"); raw != "" {
		raw = strings.TrimSpace(raw)
		mph := strings.HasSuffix(raw, "mph")
		numStr := strings.TrimSpace(strings.TrimSuffix(raw, "mph"))
		if v, err := strconv.ParseFloat(numStr, 64); err == nil && v > 0 {
			if mph {
				return v * 1.60934
			}
			return v
		}
	}
	if v, ok := defaultSpeedKMH[hw]; ok {
		return v
	}
	return 30
}

func lanes(tags osm.Tags) float64 {
	raw := tags.Find("lanes")
	if raw == "" {
		return 1
	}
	if v, err := strconv.ParseFloat(raw, 64); err == nil && v > 0 {
		return v
	}
	return 1
}

// BBox filters edges to a geographic bounding box; the zero value disables
// filtering.
type BBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
}

func (b BBox) IsZero() bool {
	return b.MinLat == 0 && b.MaxLat == 0 && b.MinLng == 0 && b.MaxLng == 0
}

func (b BBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}

// ParseOptions configures the parser.
type ParseOptions struct {
	BBox BBox
}

type wayInfo struct {
	NodeIDs           []osm.NodeID
	Forward, Backward bool
	SpeedKMH, Lanes   float64
}

// Parse reads an OSM PBF file and returns directed, multi-metric edges for
// car routing. The reader is scanned twice (ways, then nodes), so it must
// implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, opts ...ParseOptions) (*ParseResult, error) {
	var opt ParseOptions
	if len(opts) > 0 {
		opt = opts[0]
	}
	useBBox := !opt.BBox.IsZero()

	referencedNodes := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		if !isCarAccessible(w.Tags) || len(w.Nodes) < 2 {
			continue
		}
		fwd, bwd := directionFlags(w.Tags)
		if !fwd && !bwd {
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			referencedNodes[wn.ID] = struct{}{}
		}

		ways = append(ways, wayInfo{
			NodeIDs: nodeIDs, Forward: fwd, Backward: bwd,
			SpeedKMH: speedKMH(w.Tags), Lanes: lanes(w.Tags),
		})
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()
	log.Printf("osm: pass 1 complete, %d ways, %d referenced nodes", len(ways), len(referencedNodes))

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodeLat := make(map[osm.NodeID]float64, len(referencedNodes))
	nodeLon := make(map[osm.NodeID]float64, len(referencedNodes))

	scanner = osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referencedNodes[n.ID]; !needed {
			continue
		}
		nodeLat[n.ID] = n.Lat
		nodeLon[n.ID] = n.Lon
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()
	log.Printf("osm: pass 2 complete, %d node coordinates collected", len(nodeLat))

	var edges []RawEdge
	var skipped, bboxFiltered int

	for _, w := range ways {
		for i := 0; i < len(w.NodeIDs)-1; i++ {
			fromID, toID := w.NodeIDs[i], w.NodeIDs[i+1]

			fromLat, fromOk := nodeLat[fromID]
			fromLon := nodeLon[fromID]
			toLat, toOk := nodeLat[toID]
			toLon := nodeLon[toID]

			if !fromOk || !toOk {
				skipped++
				continue
			}
			if useBBox && (!opt.BBox.Contains(fromLat, fromLon) || !opt.BBox.Contains(toLat, toLon)) {
				bboxFiltered++
				continue
			}

			distM := geo.Haversine(fromLat, fromLon, toLat, toLon)
			if distM <= 0 {
				distM = 0.1
			}
			durationS := distM / (w.SpeedKMH * 1000 / 3600)
			metrics := [MetricDim]float64{distM, durationS, w.Lanes}

			if w.Forward {
				edges = append(edges, RawEdge{FromNodeID: fromID, ToNodeID: toID, Metrics: metrics})
			}
			if w.Backward {
				edges = append(edges, RawEdge{FromNodeID: toID, ToNodeID: fromID, Metrics: metrics})
			}
		}
	}

	if skipped > 0 {
		log.Printf("osm: skipped %d edges due to missing node coordinates", skipped)
	}
	if bboxFiltered > 0 {
		log.Printf("osm: filtered %d edges outside bounding box", bboxFiltered)
	}
	log.Printf("osm: built %d directed edges", len(edges))

	return &ParseResult{Edges: edges, NodeLat: nodeLat, NodeLon: nodeLon}, nil
}

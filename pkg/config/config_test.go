package config

import (
	"math"
	"testing"
)

func TestRoutingFileResolve(t *testing.T) {
	rf := RoutingFile{
		Alpha:          map[string]float64{"distance": 1},
		ToleratedScale: map[string]float64{"duration": 2},
	}
	cfg, err := rf.Resolve([]string{"distance", "duration", "lanes"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Alpha[0] != 1 || cfg.Alpha[1] != 0 || cfg.Alpha[2] != 0 {
		t.Fatalf("alpha = %v", cfg.Alpha)
	}
	if len(cfg.ToleratedScale) != 3 {
		t.Fatalf("len(ToleratedScale) = %d, want 3", len(cfg.ToleratedScale))
	}
	if !math.IsInf(cfg.ToleratedScale[0], 1) {
		t.Fatalf("ToleratedScale[0] = %v, want +Inf (unmentioned metric)", cfg.ToleratedScale[0])
	}
	if cfg.ToleratedScale[1] != 2 {
		t.Fatalf("ToleratedScale[1] = %v, want 2", cfg.ToleratedScale[1])
	}
	if !math.IsInf(cfg.ToleratedScale[2], 1) {
		t.Fatalf("ToleratedScale[2] = %v, want +Inf (unmentioned metric)", cfg.ToleratedScale[2])
	}
}

func TestRoutingFileUnknownMetric(t *testing.T) {
	rf := RoutingFile{Alpha: map[string]float64{"bogus": 1}}
	if _, err := rf.Resolve([]string{"distance"}); err == nil {
		t.Fatalf("expected error for unknown metric id")
	}
}

func TestRoutingFileZeroSumRejected(t *testing.T) {
	rf := RoutingFile{Alpha: map[string]float64{"distance": 0}}
	if _, err := rf.Resolve([]string{"distance"}); err == nil {
		t.Fatalf("expected error for all-zero alpha vector")
	}
}

func TestRoutingFileDefaultToleratedScaleUnbounded(t *testing.T) {
	rf := RoutingFile{Alpha: map[string]float64{"distance": 1}}
	cfg, err := rf.Resolve([]string{"distance", "duration"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for i, v := range cfg.ToleratedScale {
		if !math.IsInf(v, 1) {
			t.Fatalf("ToleratedScale[%d] = %v, want +Inf when the file never mentions tolerated_scale", i, v)
		}
	}
}

func TestRoutingFileToleratedScaleBelowOneRejected(t *testing.T) {
	rf := RoutingFile{
		Alpha:          map[string]float64{"distance": 1},
		ToleratedScale: map[string]float64{"distance": 0.5},
	}
	if _, err := rf.Resolve([]string{"distance"}); err == nil {
		t.Fatalf("expected error for a tolerated_scale below 1")
	}
}

func TestFmiSchemaFileResolve(t *testing.T) {
	sf := FmiSchemaFile{
		Metrics: []string{"distance", "duration"},
		Nodes:   []string{"id", "lat", "lon"},
		Edges:   []string{"src_id", "dst_id", "metric:distance", "metric:duration"},
	}
	schema, err := sf.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if schema.Dim != 2 {
		t.Fatalf("Dim = %d, want 2", schema.Dim)
	}
	if len(schema.Edges) != 4 {
		t.Fatalf("len(Edges) = %d, want 4", len(schema.Edges))
	}
}

func TestFmiSchemaFileUnknownMetric(t *testing.T) {
	sf := FmiSchemaFile{
		Metrics: []string{"distance"},
		Edges:   []string{"src_id", "dst_id", "metric:bogus"},
	}
	if _, err := sf.Resolve(); err == nil {
		t.Fatalf("expected error for unknown metric token")
	}
}

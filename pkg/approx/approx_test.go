package approx

import "testing"

func TestEqual(t *testing.T) {
	if !Equal(1.0, 1.0+Epsilon/2) {
		t.Fatalf("Equal should tolerate differences within Epsilon")
	}
	if Equal(1.0, 1.0+Epsilon*10) {
		t.Fatalf("Equal should reject differences beyond Epsilon")
	}
}

func TestLess(t *testing.T) {
	if Less(1.0, 1.0+Epsilon/2) {
		t.Fatalf("Less should not fire within tolerance")
	}
	if !Less(1.0, 2.0) {
		t.Fatalf("Less should fire for a real gap")
	}
	if Less(2.0, 1.0) {
		t.Fatalf("Less should not fire when a > b")
	}
}

func TestLessOrEqual(t *testing.T) {
	if !LessOrEqual(2.0, 2.0) {
		t.Fatalf("LessOrEqual should hold for equal values")
	}
	if !LessOrEqual(2.0+Epsilon/2, 2.0) {
		t.Fatalf("LessOrEqual should tolerate a within-epsilon overshoot")
	}
	if LessOrEqual(3.0, 1.0) {
		t.Fatalf("LessOrEqual should not hold for a real gap")
	}
}

func TestVectorsEqual(t *testing.T) {
	a := []float64{1, 2, 3}
	b := []float64{1, 2, 3 + Epsilon/2}
	if !VectorsEqual(a, b) {
		t.Fatalf("VectorsEqual should tolerate a within-epsilon component")
	}
	if VectorsEqual(a, []float64{1, 2}) {
		t.Fatalf("VectorsEqual should reject mismatched lengths")
	}
	if VectorsEqual(a, []float64{1, 2, 4}) {
		t.Fatalf("VectorsEqual should reject a real component difference")
	}
}

func TestRound(t *testing.T) {
	got := Round(1.00000030)
	if !Equal(got, 1.0000003) {
		t.Fatalf("Round(1.00000030) = %v, want ~1.0000003", got)
	}
}

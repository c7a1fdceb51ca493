package metrics

import "testing"

func TestSetRowAndAt(t *testing.T) {
	s := NewSet(2, 3)
	s.SetRow(0, []float64{1, 2})
	s.SetRow(1, []float64{3, 4})
	s.SetRow(2, []float64{5, 6})

	if s.At(1, 0) != 3 || s.At(1, 1) != 4 {
		t.Fatalf("At(1, *) = %v, %v, want 3, 4", s.At(1, 0), s.At(1, 1))
	}
	row := s.Row(2)
	if row[0] != 5 || row[1] != 6 {
		t.Fatalf("Row(2) = %v, want [5 6]", row)
	}
}

func TestSetRowWrongLengthPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("SetRow with wrong length should panic")
		}
	}()
	s := NewSet(2, 1)
	s.SetRow(0, []float64{1})
}

func TestNormalizeRoundTrip(t *testing.T) {
	s := NewSet(2, 2)
	s.SetRow(0, []float64{2, 10})
	s.SetRow(1, []float64{6, 30})

	if s.Normalized() {
		t.Fatalf("Normalized should be false before Normalize")
	}
	s.Normalize()
	if !s.Normalized() {
		t.Fatalf("Normalized should be true after Normalize")
	}

	// mean of column 0 is 4, column 1 is 20.
	if s.At(0, 0) != 0.5 || s.At(1, 0) != 1.5 {
		t.Fatalf("column 0 after normalize = %v, %v, want 0.5, 1.5", s.At(0, 0), s.At(1, 0))
	}
	if mean, ok := s.Mean(0); !ok || mean != 4 {
		t.Fatalf("Mean(0) = %v, %v, want 4, true", mean, ok)
	}

	if got := s.Denormalized(0, 0); got != 2 {
		t.Fatalf("Denormalized(0, 0) = %v, want 2", got)
	}
	if got := s.Denormalized(1, 1); got != 30 {
		t.Fatalf("Denormalized(1, 1) = %v, want 30", got)
	}
}

func TestNormalizeZeroColumnLeftUntouched(t *testing.T) {
	s := NewSet(1, 2)
	s.SetRow(0, []float64{0})
	s.SetRow(1, []float64{0})
	s.Normalize()
	if s.At(0, 0) != 0 || s.At(1, 0) != 0 {
		t.Fatalf("zero column should stay zero after Normalize")
	}
	if mean, _ := s.Mean(0); mean != 1 {
		t.Fatalf("Mean of an all-zero column = %v, want 1", mean)
	}
}

func TestDenormalizedWithoutNormalizeIsIdentity(t *testing.T) {
	s := NewSet(1, 1)
	s.SetRow(0, []float64{7})
	if got := s.Denormalized(0, 0); got != 7 {
		t.Fatalf("Denormalized before Normalize = %v, want 7", got)
	}
}

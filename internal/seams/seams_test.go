package seams

import (
	"math/rand"
	"sort"
	"testing"
)

func TestNewModelHasStartAndEndSeam(t *testing.T) {
	m := New(120)

	s := m.Seams()
	if len(s) != 2 {
		t.Fatalf("expected 2 seams, got %d", len(s))
	}
	if s[0].Time != 0 {
		t.Errorf("first seam must be at 0, got %f", s[0].Time)
	}
	if s[1].Time != 120 {
		t.Errorf("end seam must be at 120, got %f", s[1].Time)
	}
}

func TestEnsureEndSeamSkipsNearbySeam(t *testing.T) {
	m := New(0)
	m.Add(119.8) // duration unknown, upper bound not enforced yet
	m.EnsureEndSeam(120)
	m.EnsureEndSeam(120) // idempotent

	s := m.Seams()
	if len(s) != 2 {
		t.Fatalf("expected seam at 119.8 to suppress end synthesis, got %d seams", len(s))
	}

	// A seam within 0.5s of the end suppresses synthesis
	m2 := New(120)
	if _, ok := m2.Move(1, 119.8); !ok {
		t.Fatal("move of end seam rejected")
	}
	m2.EnsureEndSeam(120)
	if got := len(m2.Seams()); got != 2 {
		t.Errorf("expected nearby seam to suppress end synthesis, got %d seams", got)
	}
}

func TestOrderingInvariantUnderRandomEdits(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	m := New(600)

	for i := 0; i < 200; i++ {
		switch rng.Intn(3) {
		case 0:
			m.Add(rng.Float64() * 600)
		case 1:
			idx := rng.Intn(len(m.Seams()))
			m.Move(idx, rng.Float64()*700-50)
		case 2:
			m.Delete(rng.Intn(len(m.Seams())))
		}

		s := m.Seams()
		if !sort.SliceIsSorted(s, func(a, b int) bool { return s[a].Time < s[b].Time }) {
			t.Fatalf("seams unsorted after edit %d: %+v", i, s)
		}
		if s[0].Time != 0 {
			t.Fatalf("start seam drifted after edit %d: %f", i, s[0].Time)
		}
		if got := len(m.Segments()); got != len(s)-1 {
			t.Fatalf("segment count %d != len(seams)-1 %d", got, len(s)-1)
		}
	}
}

func TestAddRejectsDuplicatesAndBounds(t *testing.T) {
	m := New(100)

	if !m.Add(30) {
		t.Fatal("valid add rejected")
	}
	if m.Add(30) {
		t.Error("duplicate add accepted")
	}
	if m.Add(30.005) {
		t.Error("near-duplicate add accepted")
	}
	if m.Add(0) {
		t.Error("add at 0 accepted")
	}
	if m.Add(-5) {
		t.Error("negative add accepted")
	}
	if m.Add(100) {
		t.Error("add at duration accepted")
	}
}

func TestDeleteProtectsBoundarySeams(t *testing.T) {
	m := New(100)
	m.Add(50)

	if m.Delete(0) {
		t.Error("start seam deleted")
	}
	if m.Delete(2) {
		t.Error("end seam deleted")
	}
	if !m.Delete(1) {
		t.Error("interior seam not deletable")
	}
}

func TestMoveClampsAndResolvesIndex(t *testing.T) {
	m := New(100)
	m.Add(30)
	m.Add(60)

	// Moving seam 1 (t=30) past seam 2 (t=60) reorders it
	newIdx, ok := m.Move(1, 70)
	if !ok {
		t.Fatal("move rejected")
	}
	if newIdx != 2 {
		t.Errorf("expected re-resolved index 2, got %d", newIdx)
	}

	// Clamp above duration
	if _, ok := m.Move(1, 500); !ok {
		t.Fatal("clamped move rejected")
	}
	s := m.Seams()
	for _, seam := range s {
		if seam.Time > 100 {
			t.Errorf("seam beyond duration after clamp: %f", seam.Time)
		}
	}

	if _, ok := m.Move(0, 10); ok {
		t.Error("start seam moved")
	}
}

func TestMoveClampSnapsInsideBoundarySeams(t *testing.T) {
	m := New(100)
	m.Add(30)

	// A drag past the end clamps and lands just inside the end seam.
	newIdx, ok := m.Move(1, 500)
	if !ok {
		t.Fatal("move clamped to duration rejected")
	}
	s := m.Seams()
	if s[newIdx].Time >= 100 || s[newIdx].Time < 99.99-1e-9 {
		t.Errorf("clamped seam at %f, want just inside 100", s[newIdx].Time)
	}
	if s[len(s)-1].Time != 100 {
		t.Errorf("end seam drifted to %f", s[len(s)-1].Time)
	}

	// A drag past zero clamps and lands just inside the start seam.
	newIdx, ok = m.Move(newIdx, -20)
	if !ok {
		t.Fatal("move clamped to zero rejected")
	}
	s = m.Seams()
	if s[0].Time != 0 || s[newIdx].Time != 0.01 {
		t.Errorf("seam landed at %f, want 0.01 with start fixed at 0", s[newIdx].Time)
	}

	// Collisions with interior seams are still rejected.
	m.Add(50)
	if _, ok := m.Move(1, 50.005); ok {
		t.Error("move into an interior seam accepted")
	}
}

func TestSegmentDerivation(t *testing.T) {
	m := FromData(
		[]Seam{{Time: 0}, {Time: 30}, {Time: 90}},
		[]string{"Intro", "Main"},
		[]string{"Welcome", ""},
		120,
	)

	segs := m.Segments()
	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(segs))
	}

	wantDur := []float64{30, 60, 30}
	for i, seg := range segs {
		if seg.Duration() != wantDur[i] {
			t.Errorf("segment %d duration = %f, want %f", i, seg.Duration(), wantDur[i])
		}
		if seg.LongForm() {
			t.Errorf("segment %d flagged long-form at %fs", i, seg.Duration())
		}
	}
	if segs[0].Name != "Intro" || segs[0].OverlayText != "Welcome" {
		t.Errorf("segment 0 metadata wrong: %+v", segs[0])
	}
	if segs[2].Name != "" {
		t.Errorf("segment 2 should have no name, got %q", segs[2].Name)
	}
}

func TestLongFormThresholdBoundary(t *testing.T) {
	cases := []struct {
		duration float64
		long     bool
	}{
		{179, false},
		{180, false},
		{181, true},
	}

	for _, tc := range cases {
		seg := Segment{Start: 0, End: tc.duration}
		if seg.LongForm() != tc.long {
			t.Errorf("duration %fs: LongForm() = %v, want %v", tc.duration, seg.LongForm(), tc.long)
		}
	}
}

func TestSetNameAndOverlayGrowSparsely(t *testing.T) {
	m := New(100)
	m.SetOverlay(2, "Part three")

	if got := m.Overlays(); len(got) != 3 || got[2] != "Part three" {
		t.Fatalf("overlay not stored sparsely: %v", got)
	}
	m.SetName(0, "Cours")
	if got := m.Names(); got[0] != "Cours" {
		t.Fatalf("name not stored: %v", got)
	}
}

package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ombresaco/shortsmaker/internal/queue"
	"github.com/ombresaco/shortsmaker/internal/seams"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(zerolog.Nop(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s, path
}

func TestOpenMissingFileStartsEmpty(t *testing.T) {
	s, _ := openTemp(t)
	if got := s.Video("anything"); got.TitleOverride != "" || len(got.Seams) != 0 {
		t.Errorf("fresh store returned data: %+v", got)
	}
	if s.GetUploadSettings().Privacy != "private" {
		t.Errorf("default privacy %q, want private", s.GetUploadSettings().Privacy)
	}
}

func TestVideoDataRoundTrip(t *testing.T) {
	s, path := openTemp(t)

	data := VideoData{
		Seams:        []seams.Seam{{Time: 0}, {Time: 30.5, Label: "intro"}, {Time: 120}},
		SegmentNames: map[int]string{0: "cold open", 1: "main"},
		TextOverlays: map[int]string{1: "Part two"},
	}
	if err := s.SetVideo("vid1", data); err != nil {
		t.Fatalf("set: %v", err)
	}

	// Reopen from disk and compare.
	reopened, err := Open(zerolog.Nop(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := reopened.Video("vid1")
	if len(got.Seams) != 3 || got.Seams[1].Time != 30.5 || got.Seams[1].Label != "intro" {
		t.Errorf("seams did not survive: %+v", got.Seams)
	}
	if got.SegmentNames[0] != "cold open" || got.TextOverlays[1] != "Part two" {
		t.Errorf("segment metadata lost: %+v", got)
	}
}

func TestSetTitleOverrideReportsChange(t *testing.T) {
	s, _ := openTemp(t)

	changed, err := s.SetTitleOverride("vid1", "New Title")
	if err != nil {
		t.Fatalf("set: %v", err)
	}
	if !changed {
		t.Error("first set not reported as change")
	}

	changed, err = s.SetTitleOverride("vid1", "New Title")
	if err != nil {
		t.Fatalf("repeat set: %v", err)
	}
	if changed {
		t.Error("identical set reported as change")
	}

	changed, _ = s.SetTitleOverride("vid1", "Other")
	if !changed {
		t.Error("new value not reported as change")
	}
}

func TestFinishedAndIgnoredMarkers(t *testing.T) {
	s, path := openTemp(t)

	if s.IsFinished("vid1") || s.IsIgnored("vid2") {
		t.Error("fresh store has markers")
	}
	if err := s.MarkFinished("vid1"); err != nil {
		t.Fatalf("mark finished: %v", err)
	}
	if err := s.MarkIgnored("vid2"); err != nil {
		t.Fatalf("mark ignored: %v", err)
	}
	// Repeat marking is a no-op, not a duplicate.
	s.MarkFinished("vid1")

	reopened, err := Open(zerolog.Nop(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reopened.IsFinished("vid1") || !reopened.IsIgnored("vid2") {
		t.Error("markers did not survive reopen")
	}
	if reopened.IsFinished("vid2") {
		t.Error("ignored video reported finished")
	}
}

func TestQueuePersistence(t *testing.T) {
	s, path := openTemp(t)

	items := []queue.Item{
		queue.NewItem(queue.Item{VideoID: "vid1", SegmentIndex: 0, StartTime: 0, EndTime: 30}),
		queue.NewItem(queue.Item{VideoID: "vid1", SegmentIndex: 1, StartTime: 30, EndTime: 60}),
	}
	if err := s.SaveQueue(items); err != nil {
		t.Fatalf("save queue: %v", err)
	}

	reopened, err := Open(zerolog.Nop(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	loaded := reopened.LoadQueue()
	if len(loaded) != 2 {
		t.Fatalf("%d queue items loaded, want 2", len(loaded))
	}
	if loaded[0].ID != items[0].ID || loaded[1].SegmentIndex != 1 {
		t.Errorf("queue items mangled: %+v", loaded)
	}
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(zerolog.Nop(), path); err == nil {
		t.Error("corrupt state file opened without error")
	}
}

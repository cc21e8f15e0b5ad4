package queue

import (
	"testing"

	"github.com/rs/zerolog"
)

type recordingPersister struct {
	saves int
	last  []Item
}

func (r *recordingPersister) SaveQueue(items []Item) error {
	r.saves++
	r.last = items
	return nil
}

func baseItem() Item {
	return Item{
		VideoID:      "vid1",
		SegmentIndex: 0,
		StartTime:    0,
		EndTime:      30,
		UploadTitle:  "Part 1",
		OverlayText:  "hello",
	}
}

func TestAddFillsDefaults(t *testing.T) {
	m := NewManager(zerolog.Nop(), nil, nil)

	item := m.Add(baseItem())
	if item.ID == "" {
		t.Error("no id assigned")
	}
	if item.Status != StatusPending {
		t.Errorf("status %q, want pending", item.Status)
	}
	if item.AddedAt.IsZero() {
		t.Error("addedAt not set")
	}
	if item.Duration != 30 {
		t.Errorf("duration %f, want 30 derived from range", item.Duration)
	}
}

func TestUpdateStatusAndErrorField(t *testing.T) {
	m := NewManager(zerolog.Nop(), nil, nil)
	item := m.Add(baseItem())

	got, err := m.Update(item.ID, Patch{
		Status: patchStatus(StatusError),
		Error:  patchString("encoder crashed"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != StatusError || got.Error != "encoder crashed" {
		t.Errorf("errored item %+v", got)
	}

	// Moving on from error clears the stale message.
	got, err = m.Update(item.ID, Patch{Status: patchStatus(StatusPending)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Error != "" {
		t.Errorf("error field survived status reset: %q", got.Error)
	}

	if _, err := m.Update("nope", Patch{}); err == nil {
		t.Error("update of unknown id succeeded")
	}
}

func TestRemoveAndReorder(t *testing.T) {
	m := NewManager(zerolog.Nop(), nil, nil)
	a := m.Add(baseItem())
	b := m.Add(Item{VideoID: "vid1", SegmentIndex: 1, StartTime: 30, EndTime: 60})
	c := m.Add(Item{VideoID: "vid1", SegmentIndex: 2, StartTime: 60, EndTime: 90})

	if err := m.Reorder(2, 0); err != nil {
		t.Fatalf("reorder: %v", err)
	}
	items := m.Items()
	if items[0].ID != c.ID || items[1].ID != a.ID || items[2].ID != b.ID {
		t.Errorf("order after reorder: %s %s %s", items[0].ID, items[1].ID, items[2].ID)
	}

	if err := m.Reorder(0, 5); err == nil {
		t.Error("out-of-range reorder succeeded")
	}

	if !m.Remove(a.ID) {
		t.Error("remove of existing item failed")
	}
	if m.Remove(a.ID) {
		t.Error("second remove of same id succeeded")
	}
	if len(m.Items()) != 2 {
		t.Errorf("%d items after remove, want 2", len(m.Items()))
	}
}

func TestClearCompleted(t *testing.T) {
	m := NewManager(zerolog.Nop(), nil, nil)
	done := m.Add(baseItem())
	m.Add(Item{VideoID: "vid1", SegmentIndex: 1, StartTime: 30, EndTime: 60})
	m.Update(done.ID, Patch{Status: patchStatus(StatusCompleted)})

	if n := m.ClearCompleted(); n != 1 {
		t.Errorf("cleared %d, want 1", n)
	}
	for _, item := range m.Items() {
		if item.Status == StatusCompleted {
			t.Error("completed item survived clear")
		}
	}
}

func TestMergeRemoteIsIdempotent(t *testing.T) {
	m := NewManager(zerolog.Nop(), nil, nil)
	m.Add(baseItem())

	remote := []Item{
		baseItem(), // same job, different (absent) id
		{VideoID: "vid2", SegmentIndex: 0, StartTime: 0, EndTime: 15, UploadTitle: "Other"},
	}

	if added := m.MergeRemote(remote); added != 1 {
		t.Errorf("first merge added %d, want 1", added)
	}
	if added := m.MergeRemote(remote); added != 0 {
		t.Errorf("repeat merge added %d, want 0", added)
	}
	if len(m.Items()) != 2 {
		t.Errorf("%d items after merges, want 2", len(m.Items()))
	}
}

func TestMergeMatchesOnValueFields(t *testing.T) {
	m := NewManager(zerolog.Nop(), nil, nil)
	m.Add(baseItem())

	// Different overlay text is a different job even with identical times.
	variant := baseItem()
	variant.OverlayText = "different"
	if added := m.MergeRemote([]Item{variant}); added != 1 {
		t.Errorf("overlay variant not treated as new job: added %d", added)
	}

	// Segment name is not part of the identity.
	renamed := baseItem()
	renamed.SegmentName = "renamed"
	if added := m.MergeRemote([]Item{renamed}); added != 0 {
		t.Errorf("rename treated as new job: added %d", added)
	}
}

func TestMutationsPersist(t *testing.T) {
	p := &recordingPersister{}
	m := NewManager(zerolog.Nop(), p, nil)

	item := m.Add(baseItem())
	m.Update(item.ID, Patch{Status: patchStatus(StatusCompleted)})
	m.ClearCompleted()

	if p.saves != 3 {
		t.Errorf("persister called %d times, want 3", p.saves)
	}
	if len(p.last) != 0 {
		t.Errorf("final snapshot has %d items, want 0", len(p.last))
	}
}

package queue

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Persister stores the queue between runs. Persistence failures are logged,
// not fatal: the in-memory queue stays authoritative for the session.
type Persister interface {
	SaveQueue(items []Item) error
}

// Manager owns the ordered job list and its status transitions.
type Manager struct {
	logger  zerolog.Logger
	persist Persister

	mu    sync.Mutex
	items []Item
}

// NewManager creates a queue manager seeded with previously persisted items.
// persist may be nil for an ephemeral queue.
func NewManager(logger zerolog.Logger, persist Persister, initial []Item) *Manager {
	items := make([]Item, len(initial))
	copy(items, initial)
	return &Manager{
		logger:  logger.With().Str("component", "queue").Logger(),
		persist: persist,
		items:   items,
	}
}

// Add appends a job, filling identity defaults, and returns the stored item.
func (m *Manager) Add(item Item) Item {
	item = NewItem(item)

	m.mu.Lock()
	m.items = append(m.items, item)
	m.persistLocked()
	m.mu.Unlock()

	m.logger.Info().Str("id", item.ID).Str("video", item.VideoID).Int("segment", item.SegmentIndex).Msg("queued segment job")
	return item
}

// Get returns a copy of the item with the given id.
func (m *Manager) Get(id string) (Item, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.items {
		if m.items[i].ID == id {
			return m.items[i], true
		}
	}
	return Item{}, false
}

// Items returns a copy of the queue in order.
func (m *Manager) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out
}

// Update applies a partial patch to one item. An item that has reached
// error keeps a non-empty error field until a patch explicitly clears it
// alongside a status change.
func (m *Manager) Update(id string, patch Patch) (Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.items {
		if m.items[i].ID != id {
			continue
		}
		if patch.Status != nil {
			m.items[i].Status = *patch.Status
			if *patch.Status != StatusError && patch.Error == nil {
				m.items[i].Error = ""
			}
		}
		if patch.Error != nil {
			m.items[i].Error = *patch.Error
		}
		if patch.OutputPath != nil {
			m.items[i].OutputPath = *patch.OutputPath
		}
		if patch.YouTubeURL != nil {
			m.items[i].YouTubeURL = *patch.YouTubeURL
		}
		m.persistLocked()
		return m.items[i], nil
	}
	return Item{}, fmt.Errorf("queue item %s not found", id)
}

// Remove deletes one item by id.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.items {
		if m.items[i].ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			m.persistLocked()
			return true
		}
	}
	return false
}

// Reorder moves the item at from to position to.
func (m *Manager) Reorder(from, to int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if from < 0 || from >= len(m.items) || to < 0 || to >= len(m.items) {
		return fmt.Errorf("reorder indices out of range: %d -> %d with %d items", from, to, len(m.items))
	}
	if from == to {
		return nil
	}

	item := m.items[from]
	m.items = append(m.items[:from], m.items[from+1:]...)
	m.items = append(m.items[:to], append([]Item{item}, m.items[to:]...)...)
	m.persistLocked()
	return nil
}

// ClearCompleted removes every completed item and returns how many.
func (m *Manager) ClearCompleted() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.items[:0]
	removed := 0
	for _, item := range m.items {
		if item.Status == StatusCompleted {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	m.items = kept
	if removed > 0 {
		m.persistLocked()
	}
	return removed
}

// MergeRemote appends remote items that have no local value-equality match.
// One-directional and idempotent: repeating the call with the same remote
// list adds nothing.
func (m *Manager) MergeRemote(remote []Item) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, r := range remote {
		if m.matchLocked(r) {
			continue
		}
		m.items = append(m.items, NewItem(r))
		added++
	}
	if added > 0 {
		m.persistLocked()
		m.logger.Info().Int("added", added).Msg("merged remote queue items")
	}
	return added
}

func (m *Manager) matchLocked(candidate Item) bool {
	for i := range m.items {
		if m.items[i].SameJob(candidate) {
			return true
		}
	}
	return false
}

func (m *Manager) persistLocked() {
	if m.persist == nil {
		return
	}
	snapshot := make([]Item, len(m.items))
	copy(snapshot, m.items)
	if err := m.persist.SaveQueue(snapshot); err != nil {
		m.logger.Warn().Err(err).Msg("queue persistence failed")
	}
}

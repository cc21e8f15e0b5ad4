// Package seams holds the timeline model: ordered cut points plus
// per-segment name and overlay metadata. Seams of length N define N-1
// segments.
package seams

import (
	"math"
	"sort"
)

// Seam is a user-placed timestamp marking a segment boundary.
type Seam struct {
	Time  float64 `json:"time"`
	Label string  `json:"label"`
}

// Segment is the derived span between two consecutive seams. Not stored.
type Segment struct {
	Index       int
	Start       float64
	End         float64
	Name        string
	OverlayText string
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// LongSegmentThreshold is the duration above which a segment is flagged as
// long-form. Flagged segments are not blocked.
const LongSegmentThreshold = 180.0

// LongForm reports whether the segment exceeds the long-form threshold.
func (s Segment) LongForm() bool {
	return s.Duration() > LongSegmentThreshold
}

// endSnap is how close to the video end an existing seam may sit before a
// synthesized end seam is considered redundant.
const endSnap = 0.5

// minGap is the smallest segment width an add or move may leave behind.
const minGap = 0.01

// Model is the seam timeline for one source video.
type Model struct {
	seams    []Seam
	names    []string
	overlays []string
	duration float64
}

// New creates a model with the fixed start seam and, when the duration is
// known, a synthesized end seam.
func New(duration float64) *Model {
	m := &Model{
		seams:    []Seam{{Time: 0, Label: "Start"}},
		duration: duration,
	}
	m.EnsureEndSeam(duration)
	return m
}

// FromData restores a model from persisted seams and metadata. The start
// seam is reinstated if the data lost it, and seams are re-sorted.
func FromData(s []Seam, names, overlays []string, duration float64) *Model {
	m := &Model{
		seams:    append([]Seam(nil), s...),
		names:    append([]string(nil), names...),
		overlays: append([]string(nil), overlays...),
		duration: duration,
	}
	sort.Slice(m.seams, func(i, j int) bool { return m.seams[i].Time < m.seams[j].Time })
	if len(m.seams) == 0 || m.seams[0].Time != 0 {
		m.seams = append([]Seam{{Time: 0, Label: "Start"}}, m.seams...)
	}
	m.EnsureEndSeam(duration)
	return m
}

// Duration returns the known video duration, zero when unknown.
func (m *Model) Duration() float64 {
	return m.duration
}

// Seams returns a copy of the ordered seam list.
func (m *Model) Seams() []Seam {
	return append([]Seam(nil), m.seams...)
}

// EnsureEndSeam synthesizes a seam at the video end unless one already sits
// within half a second of it.
func (m *Model) EnsureEndSeam(duration float64) {
	if duration <= 0 {
		return
	}
	m.duration = duration
	for _, s := range m.seams {
		if math.Abs(s.Time-duration) <= endSnap {
			return
		}
	}
	m.seams = append(m.seams, Seam{Time: duration, Label: "End"})
	sort.Slice(m.seams, func(i, j int) bool { return m.seams[i].Time < m.seams[j].Time })
}

// Add inserts a seam at the given time and re-sorts. Times outside
// (0, duration) or closer than minGap to an existing seam are rejected.
func (m *Model) Add(time float64) bool {
	if time <= 0 || (m.duration > 0 && time >= m.duration) {
		return false
	}
	for _, s := range m.seams {
		if math.Abs(s.Time-time) < minGap {
			return false
		}
	}
	m.seams = append(m.seams, Seam{Time: time})
	sort.Slice(m.seams, func(i, j int) bool { return m.seams[i].Time < m.seams[j].Time })
	return true
}

// Delete removes an interior seam. The start seam and the end seam are not
// removable.
func (m *Model) Delete(index int) bool {
	if index <= 0 || index >= len(m.seams)-1 {
		return false
	}
	m.seams = append(m.seams[:index], m.seams[index+1:]...)
	return true
}

// Move drags a seam to a new time, clamped to [0, duration], and re-sorts.
// The start seam cannot move, and a move that would leave a segment
// narrower than minGap is rejected. A drag past either boundary clamps and
// lands minGap inside the fixed boundary seam rather than becoming a no-op.
// Returns the seam's index after re-sorting, resolved by identity since
// sorting may reorder it.
func (m *Model) Move(index int, newTime float64) (int, bool) {
	if index <= 0 || index >= len(m.seams) {
		return index, false
	}
	if newTime < minGap {
		newTime = minGap
	}
	if m.duration > 0 && index != len(m.seams)-1 && newTime > m.duration-minGap {
		newTime = m.duration - minGap
	}
	if m.duration > 0 && newTime > m.duration {
		newTime = m.duration
	}
	for i, s := range m.seams {
		if i == index {
			continue
		}
		if math.Abs(s.Time-newTime) < minGap {
			return index, false
		}
	}

	m.seams[index].Time = newTime
	sort.Slice(m.seams, func(i, j int) bool { return m.seams[i].Time < m.seams[j].Time })
	// Times are unique to within minGap, so the time identifies the seam
	for i := range m.seams {
		if m.seams[i].Time == newTime {
			return i, true
		}
	}
	return index, true
}

// SetName records a display name for the segment at the given index.
func (m *Model) SetName(index int, name string) {
	m.names = setAt(m.names, index, name)
}

// SetOverlay records overlay text for the segment at the given index.
func (m *Model) SetOverlay(index int, text string) {
	m.overlays = setAt(m.overlays, index, text)
}

// Names returns a copy of the per-segment names.
func (m *Model) Names() []string {
	return append([]string(nil), m.names...)
}

// Overlays returns a copy of the per-segment overlay texts.
func (m *Model) Overlays() []string {
	return append([]string(nil), m.overlays...)
}

// Segments derives the N-1 segments between the N seams.
func (m *Model) Segments() []Segment {
	if len(m.seams) < 2 {
		return nil
	}
	segments := make([]Segment, 0, len(m.seams)-1)
	for i := 0; i < len(m.seams)-1; i++ {
		segments = append(segments, Segment{
			Index:       i,
			Start:       m.seams[i].Time,
			End:         m.seams[i+1].Time,
			Name:        at(m.names, i),
			OverlayText: at(m.overlays, i),
		})
	}
	return segments
}

func at(list []string, i int) string {
	if i < 0 || i >= len(list) {
		return ""
	}
	return list[i]
}

func setAt(list []string, i int, v string) []string {
	if i < 0 {
		return list
	}
	for len(list) <= i {
		list = append(list, "")
	}
	list[i] = v
	return list
}

// Package store persists application state as a single JSON file: per-video
// seam layouts, finished/ignored markers, the job queue and upload defaults.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ombresaco/shortsmaker/internal/queue"
	"github.com/ombresaco/shortsmaker/internal/seams"
	"github.com/ombresaco/shortsmaker/pkg/util"
)

// VideoData is everything the user has authored for one source video.
type VideoData struct {
	Seams         []seams.Seam   `json:"seams,omitempty"`
	SegmentNames  map[int]string `json:"segmentNames,omitempty"`
	TextOverlays  map[int]string `json:"textOverlays,omitempty"`
	TitleOverride string         `json:"titleOverride,omitempty"`
}

// UploadSettings are the defaults applied to new upload jobs.
type UploadSettings struct {
	TitleTemplate string   `json:"titleTemplate"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	Privacy       string   `json:"privacy"`
}

type fileData struct {
	Videos         map[string]VideoData `json:"videos"`
	Finished       []string             `json:"finished"`
	Ignored        []string             `json:"ignored"`
	Queue          []queue.Item         `json:"queue"`
	UploadSettings UploadSettings       `json:"uploadSettings"`
}

// Store is the on-disk state file. Every mutation writes through
// atomically; readers get copies.
type Store struct {
	logger zerolog.Logger
	path   string

	mu   sync.Mutex
	data fileData
}

// Open loads the state file at path, starting empty when it does not exist.
func Open(logger zerolog.Logger, path string) (*Store, error) {
	s := &Store{
		logger: logger.With().Str("component", "store").Logger(),
		path:   path,
		data: fileData{
			Videos: make(map[string]VideoData),
			UploadSettings: UploadSettings{
				Privacy: "private",
			},
		},
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", path, err)
	}
	if s.data.Videos == nil {
		s.data.Videos = make(map[string]VideoData)
	}
	return s, nil
}

func (s *Store) saveLocked() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	if err := util.WriteFileAtomic(s.path, raw, 0644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	return nil
}

// Video returns the authored data for a source, zero-valued when unknown.
func (s *Store) Video(videoID string) VideoData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.Videos[videoID]
}

// SetVideo replaces the authored data for a source.
func (s *Store) SetVideo(videoID string, data VideoData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Videos[videoID] = data
	return s.saveLocked()
}

// SetTitleOverride updates a video's title override and reports whether the
// value actually changed. A change affects every segment's overlay default,
// so the caller must invalidate the segment cache for this source.
func (s *Store) SetTitleOverride(videoID, title string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.data.Videos[videoID]
	if data.TitleOverride == title {
		return false, nil
	}
	data.TitleOverride = title
	s.data.Videos[videoID] = data
	return true, s.saveLocked()
}

// MarkFinished records a video as fully processed.
func (s *Store) MarkFinished(videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if containsString(s.data.Finished, videoID) {
		return nil
	}
	s.data.Finished = append(s.data.Finished, videoID)
	return s.saveLocked()
}

// IsFinished reports whether a video was marked finished.
func (s *Store) IsFinished(videoID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return containsString(s.data.Finished, videoID)
}

// MarkIgnored records a video as skipped.
func (s *Store) MarkIgnored(videoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if containsString(s.data.Ignored, videoID) {
		return nil
	}
	s.data.Ignored = append(s.data.Ignored, videoID)
	return s.saveLocked()
}

// IsIgnored reports whether a video was marked ignored.
func (s *Store) IsIgnored(videoID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return containsString(s.data.Ignored, videoID)
}

// SaveQueue persists the queue snapshot. Satisfies queue.Persister.
func (s *Store) SaveQueue(items []queue.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.Queue = items
	return s.saveLocked()
}

// LoadQueue returns the persisted queue items.
func (s *Store) LoadQueue() []queue.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]queue.Item, len(s.data.Queue))
	copy(items, s.data.Queue)
	return items
}

// GetUploadSettings returns the upload defaults.
func (s *Store) GetUploadSettings() UploadSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data.UploadSettings
}

// SetUploadSettings replaces the upload defaults.
func (s *Store) SetUploadSettings(settings UploadSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.UploadSettings = settings
	return s.saveLocked()
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

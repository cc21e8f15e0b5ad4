// Package queue tracks pending segment+upload jobs through their status
// lifecycle, persists them, and reconciles local and server-synced lists by
// value-based matching.
package queue

import (
	"time"

	"github.com/google/uuid"
)

// Status is the finite job lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusRendered   Status = "rendered"
	StatusUploading  Status = "uploading"
	StatusCompleted  Status = "completed"
	StatusError      Status = "error"
)

// Item is one segment's processing+upload job.
type Item struct {
	ID                string    `json:"id"`
	VideoID           string    `json:"videoId"`
	VideoTitle        string    `json:"videoTitle"`
	SegmentIndex      int       `json:"segmentIndex"`
	SegmentName       string    `json:"segmentName"`
	StartTime         float64   `json:"startTime"`
	EndTime           float64   `json:"endTime"`
	Duration          float64   `json:"duration"`
	OverlayText       string    `json:"overlayText"`
	UploadTitle       string    `json:"uploadTitle"`
	UploadDescription string    `json:"uploadDescription"`
	UploadTags        []string  `json:"uploadTags"`
	UploadPrivacy     string    `json:"uploadPrivacy"`
	Status            Status    `json:"status"`
	AddedAt           time.Time `json:"addedAt"`
	OutputPath        string    `json:"outputPath,omitempty"`
	Error             string    `json:"error,omitempty"`
	YouTubeURL        string    `json:"youtubeUrl,omitempty"`
}

// NewItem fills in identity and lifecycle defaults for a fresh job.
func NewItem(item Item) Item {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Status == "" {
		item.Status = StatusPending
	}
	if item.AddedAt.IsZero() {
		item.AddedAt = time.Now().UTC()
	}
	if item.Duration == 0 {
		item.Duration = item.EndTime - item.StartTime
	}
	return item
}

// SameJob reports whether two items describe the same work. Items carry no
// foreign-key back-reference between stores; merge matching is value-based
// on exactly these fields.
func (i Item) SameJob(other Item) bool {
	return i.VideoID == other.VideoID &&
		i.StartTime == other.StartTime &&
		i.EndTime == other.EndTime &&
		i.SegmentIndex == other.SegmentIndex &&
		i.UploadTitle == other.UploadTitle &&
		i.OverlayText == other.OverlayText
}

// Patch is a partial item update. Nil fields are left untouched.
type Patch struct {
	Status     *Status
	OutputPath *string
	Error      *string
	YouTubeURL *string
}

func patchStatus(s Status) *Status { return &s }
func patchString(s string) *string { return &s }

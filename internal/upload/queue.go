package upload

import (
	"context"

	"github.com/ombresaco/shortsmaker/internal/queue"
)

// JobUploader adapts the YouTube uploader to the queue processor's
// collaborator contract, mapping job fields onto upload metadata.
type JobUploader struct {
	uploader *Uploader
}

// NewJobUploader wraps an uploader for queue batch use.
func NewJobUploader(u *Uploader) *JobUploader {
	return &JobUploader{uploader: u}
}

func (j *JobUploader) Upload(ctx context.Context, path string, item queue.Item) (string, error) {
	title := item.UploadTitle
	if title == "" {
		title = item.SegmentName
	}
	return j.uploader.Upload(ctx, path, Metadata{
		Title:       title,
		Description: item.UploadDescription,
		Tags:        item.UploadTags,
		Privacy:     item.UploadPrivacy,
	})
}

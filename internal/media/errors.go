// Package media holds the error taxonomy and progress types shared by the
// extraction, overlay, cache and queue components.
package media

import "fmt"

// ProbeError means the source's dimensions or duration could not be
// determined. Fatal for the attempt; never retried at the same venue.
type ProbeError struct {
	Path string
	Err  error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

// FetchError means a full copy or a direct media URL could not be obtained
// (access blocked, bot challenge, network). Triggers venue fallback.
type FetchError struct {
	SourceID string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch source %s: %v", e.SourceID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// TrimError means the local transcoding tool failed to cut a segment.
// Distinct from FetchError so callers don't re-fetch when the tooling is
// the real problem.
type TrimError struct {
	Input string
	Err   error
}

func (e *TrimError) Error() string {
	return fmt.Sprintf("trim %s: %v", e.Input, e.Err)
}

func (e *TrimError) Unwrap() error { return e.Err }

// CompositeError means overlay compositing failed. Partial output must never
// end up under a canonical cache key.
type CompositeError struct {
	Input string
	Err   error
}

func (e *CompositeError) Error() string {
	return fmt.Sprintf("composite overlay on %s: %v", e.Input, e.Err)
}

func (e *CompositeError) Unwrap() error { return e.Err }

// CacheWriteError means an artifact could not be promoted into the cache.
type CacheWriteError struct {
	Key string
	Err error
}

func (e *CacheWriteError) Error() string {
	return fmt.Sprintf("cache write %s: %v", e.Key, e.Err)
}

func (e *CacheWriteError) Unwrap() error { return e.Err }

// UploadError means the upload target rejected the request. Isolated to one
// queue item; the batch continues.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Path, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

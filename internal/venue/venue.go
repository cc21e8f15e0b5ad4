// Package venue decides where a segment gets processed. Extraction can run
// against the server's full-copy store or entirely on the client side
// (resolve a direct URL, download, transcode locally); the orchestrator
// cascades through venues on fetch failure.
package venue

import (
	"context"

	"github.com/ombresaco/shortsmaker/internal/media"
)

// Progress percent windows are pre-allocated per stage so one continuous bar
// can span URL resolution, download and transcoding.
const (
	StageResolve   = "resolve"
	StageDownload  = "download"
	StageTranscode = "transcode"
	StageFinalize  = "finalize"

	resolveLo, resolveHi     = 0.0, 10.0
	downloadLo, downloadHi   = 10.0, 50.0
	transcodeLo, transcodeHi = 50.0, 95.0
	finalizeLo, finalizeHi   = 95.0, 100.0
)

// Request describes one segment to produce.
type Request struct {
	SourceID    string
	Start       float64 // seconds
	End         float64 // seconds, exclusive
	OverlayText string
	ForceClient bool // user toggle: try the client venue first
}

// Duration returns the segment length in seconds.
func (r Request) Duration() float64 {
	return r.End - r.Start
}

// Result is a finished segment artifact.
type Result struct {
	Path   string // canonical cache path
	Venue  string // venue that produced it, or "cache" on a cache hit
	Cached bool
}

// Venue performs extraction at one execution location. Extract writes the
// trimmed (not yet overlaid) segment to out and reports staged progress.
type Venue interface {
	Name() string
	Extract(ctx context.Context, req Request, out string, progress media.ProgressFunc) error
}

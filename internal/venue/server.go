package venue

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/ombresaco/shortsmaker/internal/extract"
	"github.com/ombresaco/shortsmaker/internal/ffmpeg"
	"github.com/ombresaco/shortsmaker/internal/media"
	"github.com/ombresaco/shortsmaker/pkg/util"
)

var errNotCached = errors.New("full copy not server-cached")

// ServerVenue runs extraction against the server's full-copy store. In
// cached-only mode it refuses sources that are not already on disk, so the
// orchestrator can try the cheap path first and fall through to the client
// before committing to a fresh minutes-scale fetch.
type ServerVenue struct {
	logger     zerolog.Logger
	extractor  *extract.Extractor
	cachedOnly bool
}

// NewServerVenue creates a server venue. With cachedOnly set, extraction
// only proceeds when the full copy is already present.
func NewServerVenue(logger zerolog.Logger, extractor *extract.Extractor, cachedOnly bool) *ServerVenue {
	name := "server-fresh"
	if cachedOnly {
		name = "server-cached"
	}
	return &ServerVenue{
		logger:     logger.With().Str("component", "venue").Str("venue", name).Logger(),
		extractor:  extractor,
		cachedOnly: cachedOnly,
	}
}

func (v *ServerVenue) Name() string {
	if v.cachedOnly {
		return "server-cached"
	}
	return "server-fresh"
}

func (v *ServerVenue) Extract(ctx context.Context, req Request, out string, progress media.ProgressFunc) error {
	if v.cachedOnly && !v.extractor.Store().Cached(req.SourceID) {
		return &media.FetchError{SourceID: req.SourceID, Err: errNotCached}
	}

	progress.Report(StageResolve, resolveHi)

	err := v.extractor.Extract(ctx, req.SourceID, req.Start, req.End, out,
		func(fraction float64) {
			progress.Report(StageDownload, media.ScaleTo(downloadLo, downloadHi, fraction))
		},
		trimProgress(req.Duration(), progress),
	)
	if err != nil {
		return err
	}

	progress.Report(StageTranscode, transcodeHi)
	return nil
}

// trimProgress maps ffmpeg's out_time within the segment onto the transcode
// percent window.
func trimProgress(segSeconds float64, progress media.ProgressFunc) ffmpeg.ProgressFunc {
	if progress == nil || segSeconds <= 0 {
		return nil
	}
	return func(p *ffmpeg.Progress) {
		t, err := util.ParseTimestamp(p.Time)
		if err != nil {
			return
		}
		fraction := t.Seconds() / segSeconds
		progress.Report(StageTranscode, media.ScaleTo(transcodeLo, transcodeHi, fraction))
	}
}

package venue

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ombresaco/shortsmaker/internal/extract"
	"github.com/ombresaco/shortsmaker/internal/media"
	"github.com/ombresaco/shortsmaker/internal/source"
	"github.com/ombresaco/shortsmaker/pkg/util"
)

// ClientVenue processes a segment without touching the server's full-copy
// store: it resolves a direct media URL through the resolver chain, downloads
// the bytes to a scratch file and transcodes the trim locally. The heavy data
// never takes a server round-trip, and the downloaded copy is discarded once
// the segment exists.
type ClientVenue struct {
	logger     zerolog.Logger
	resolver   source.URLResolver
	downloader *source.Store
	extractor  *extract.Extractor
	scratchDir string
}

// NewClientVenue creates a client venue writing scratch downloads under
// scratchDir.
func NewClientVenue(logger zerolog.Logger, resolver source.URLResolver, downloader *source.Store, extractor *extract.Extractor, scratchDir string) (*ClientVenue, error) {
	if err := util.EnsureDir(scratchDir); err != nil {
		return nil, fmt.Errorf("create client scratch dir: %w", err)
	}
	return &ClientVenue{
		logger:     logger.With().Str("component", "venue").Str("venue", "client").Logger(),
		resolver:   resolver,
		downloader: downloader,
		extractor:  extractor,
		scratchDir: scratchDir,
	}, nil
}

func (v *ClientVenue) Name() string { return "client" }

func (v *ClientVenue) Extract(ctx context.Context, req Request, out string, progress media.ProgressFunc) error {
	progress.Report(StageResolve, resolveLo)

	url, err := v.resolver.ResolveURL(ctx, req.SourceID)
	if err != nil {
		return err
	}
	progress.Report(StageResolve, resolveHi)

	scratch := filepath.Join(v.scratchDir, fmt.Sprintf("dl_%s_%s.mp4", req.SourceID, uuid.NewString()))
	defer util.CleanupFiles(scratch)

	err = v.downloader.Download(ctx, url, scratch, func(fraction float64) {
		progress.Report(StageDownload, media.ScaleTo(downloadLo, downloadHi, fraction))
	})
	if err != nil {
		return &media.FetchError{SourceID: req.SourceID, Err: err}
	}
	progress.Report(StageDownload, downloadHi)

	err = v.extractor.TrimLocal(ctx, scratch, req.Start, req.End, out, trimProgress(req.Duration(), progress))
	if err != nil {
		return err
	}

	progress.Report(StageTranscode, transcodeHi)
	return nil
}

package venue

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ombresaco/shortsmaker/internal/cache"
	"github.com/ombresaco/shortsmaker/internal/media"
	"github.com/ombresaco/shortsmaker/internal/overlay"
	"github.com/ombresaco/shortsmaker/pkg/util"
)

// OverlayRenderer composites text onto a finished clip.
type OverlayRenderer interface {
	Render(ctx context.Context, input, output, text string, st overlay.Style, timing overlay.Timing) error
}

// Orchestrator is the per-request state machine: check the cache, then
// cascade through venues in preference order until one produces the segment.
// A failed attempt advances to the next venue, never back to the same one.
type Orchestrator struct {
	logger  zerolog.Logger
	cache   *cache.Store
	overlay OverlayRenderer
	tempDir string
	style   overlay.Style
	timing  overlay.Timing
	venues  venueSet
}

type venueSet struct {
	serverCached Venue
	client       Venue
	serverFresh  Venue
}

// Options configures an orchestrator. Any venue may be nil; it is skipped
// when building the cascade.
type Options struct {
	Cache        *cache.Store
	Overlay      OverlayRenderer
	TempDir      string
	Style        overlay.Style
	Timing       overlay.Timing
	ServerCached Venue
	Client       Venue
	ServerFresh  Venue
}

// NewOrchestrator creates the fallback orchestrator.
func NewOrchestrator(logger zerolog.Logger, opts Options) (*Orchestrator, error) {
	if opts.Cache == nil {
		return nil, fmt.Errorf("orchestrator requires a cache store")
	}
	if err := util.EnsureDir(opts.TempDir); err != nil {
		return nil, fmt.Errorf("create orchestrator temp dir: %w", err)
	}
	return &Orchestrator{
		logger:  logger.With().Str("component", "orchestrator").Logger(),
		cache:   opts.Cache,
		overlay: opts.Overlay,
		tempDir: opts.TempDir,
		style:   opts.Style,
		timing:  opts.Timing,
		venues: venueSet{
			serverCached: opts.ServerCached,
			client:       opts.Client,
			serverFresh:  opts.ServerFresh,
		},
	}, nil
}

// order returns the venue cascade for one request. The server-cached venue
// leads unless the user forced client-first processing.
func (o *Orchestrator) order(forceClient bool) []Venue {
	var picked []Venue
	if forceClient {
		picked = []Venue{o.venues.client, o.venues.serverFresh}
	} else {
		picked = []Venue{o.venues.serverCached, o.venues.client, o.venues.serverFresh}
	}

	venues := picked[:0]
	for _, v := range picked {
		if v != nil {
			venues = append(venues, v)
		}
	}
	return venues
}

// Process produces the segment for req, reporting staged progress. Cache
// hits return immediately. Fetch-class failures cascade to the next venue;
// local tooling failures (probe, trim, composite) are terminal because every
// venue shares the same transcoding engine.
func (o *Orchestrator) Process(ctx context.Context, req Request, progress media.ProgressFunc) (Result, error) {
	key := cache.Key(req.SourceID, req.Start, req.End, req.OverlayText)

	if path, ok := o.cache.Lookup(key); ok {
		o.logger.Debug().Str("key", key).Msg("segment cache hit")
		progress.Report(StageFinalize, finalizeHi)
		return Result{Path: path, Venue: "cache", Cached: true}, nil
	}

	// Bound disk growth before any fresh fetch can add to it.
	if _, err := o.cache.Evict(); err != nil {
		o.logger.Warn().Err(err).Msg("cache eviction failed, continuing")
	}

	trimmed, producedBy, err := o.attempt(ctx, req, progress)
	if err != nil {
		return Result{}, err
	}
	defer util.CleanupFiles(trimmed)

	final := trimmed
	if req.OverlayText != "" {
		if o.overlay == nil {
			return Result{}, &media.CompositeError{Input: trimmed, Err: fmt.Errorf("no overlay renderer configured")}
		}
		overlaid := filepath.Join(o.tempDir, fmt.Sprintf("ovl_%s.mp4", uuid.NewString()))
		if err := o.overlay.Render(ctx, trimmed, overlaid, req.OverlayText, o.style, o.timing); err != nil {
			util.CleanupFiles(overlaid)
			return Result{}, err
		}
		defer util.CleanupFiles(overlaid)
		final = overlaid
	}

	progress.Report(StageFinalize, finalizeLo)
	path, err := o.cache.Put(key, final)
	if err != nil {
		return Result{}, err
	}
	progress.Report(StageFinalize, finalizeHi)

	return Result{Path: path, Venue: producedBy, Cached: false}, nil
}

// attempt walks the venue cascade and returns the trimmed segment path from
// the first venue that succeeds.
func (o *Orchestrator) attempt(ctx context.Context, req Request, progress media.ProgressFunc) (string, string, error) {
	venues := o.order(req.ForceClient)
	if len(venues) == 0 {
		return "", "", fmt.Errorf("no processing venues configured")
	}

	var lastErr error
	for _, v := range venues {
		if ctx.Err() != nil {
			return "", "", ctx.Err()
		}

		out := filepath.Join(o.tempDir, fmt.Sprintf("seg_%s.mp4", uuid.NewString()))
		err := v.Extract(ctx, req, out, progress)
		if err == nil {
			o.logger.Info().
				Str("venue", v.Name()).
				Str("source", req.SourceID).
				Float64("start", req.Start).
				Float64("end", req.End).
				Msg("segment extracted")
			return out, v.Name(), nil
		}

		util.CleanupFiles(out)
		lastErr = err

		if !fallbackWorthwhile(err) {
			o.logger.Error().Str("venue", v.Name()).Err(err).Msg("local tooling failure, aborting cascade")
			return "", "", err
		}
		o.logger.Warn().Str("venue", v.Name()).Err(err).Msg("venue failed, trying next")
	}

	return "", "", fmt.Errorf("all venues failed for %s [%.2f-%.2f]: %w", req.SourceID, req.Start, req.End, lastErr)
}

// fallbackWorthwhile reports whether the next venue could plausibly do
// better. Access problems can; a broken local transcoder cannot.
func fallbackWorthwhile(err error) bool {
	var trim *media.TrimError
	var composite *media.CompositeError
	var probe *media.ProbeError
	if errors.As(err, &trim) || errors.As(err, &composite) || errors.As(err, &probe) {
		return false
	}
	return true
}

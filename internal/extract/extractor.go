// Package extract cuts [start,end) segments out of full source copies.
package extract

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ombresaco/shortsmaker/internal/ffmpeg"
	"github.com/ombresaco/shortsmaker/internal/source"
)

// Extractor produces standalone segment files from source videos. The full
// copy is fetched once per source (costly); each trim after that is a fast
// local re-encode with a fixed profile.
type Extractor struct {
	logger zerolog.Logger
	store  *source.Store
	ffmpeg *ffmpeg.Executor
	crf    int
	preset string
}

// New creates an extractor over the given full-copy store.
func New(logger zerolog.Logger, store *source.Store, exec *ffmpeg.Executor, crf int, preset string) *Extractor {
	return &Extractor{
		logger: logger.With().Str("component", "extract").Logger(),
		store:  store,
		ffmpeg: exec,
		crf:    crf,
		preset: preset,
	}
}

// Store exposes the underlying full-copy store for group pre-fetching.
func (e *Extractor) Store() *source.Store {
	return e.store
}

// Extract ensures the full copy exists and trims [start,end) into output.
// Fetch failures surface as FetchError (access problem, fallback-worthy);
// trim failures surface as TrimError (local tooling problem).
func (e *Extractor) Extract(ctx context.Context, sourceID string, start, end float64, output string, onFetchProgress func(float64), onTrim ffmpeg.ProgressFunc) error {
	input, err := e.store.Ensure(ctx, sourceID, onFetchProgress)
	if err != nil {
		return err
	}

	return e.ffmpeg.ExtractClip(ctx, input, ffmpeg.ClipOptions{
		Start:        start,
		End:          end,
		Output:       output,
		CRF:          e.crf,
		Preset:       e.preset,
		ProgressFunc: onTrim,
	})
}

// TrimLocal trims a segment from an already-local file, used by the client
// venue after it has downloaded its own copy.
func (e *Extractor) TrimLocal(ctx context.Context, input string, start, end float64, output string, onTrim ffmpeg.ProgressFunc) error {
	return e.ffmpeg.ExtractClip(ctx, input, ffmpeg.ClipOptions{
		Start:        start,
		End:          end,
		Output:       output,
		CRF:          e.crf,
		Preset:       e.preset,
		ProgressFunc: onTrim,
	})
}

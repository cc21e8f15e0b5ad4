package overlay

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ombresaco/shortsmaker/internal/ffmpeg"
	"github.com/ombresaco/shortsmaker/internal/media"
	"github.com/ombresaco/shortsmaker/pkg/util"
)

// Renderer composites animated text overlays onto video clips.
type Renderer struct {
	logger  zerolog.Logger
	ffmpeg  *ffmpeg.Executor
	tempDir string
}

// NewRenderer creates an overlay renderer that writes intermediate images
// under tempDir.
func NewRenderer(logger zerolog.Logger, exec *ffmpeg.Executor, tempDir string) (*Renderer, error) {
	if err := util.EnsureDir(tempDir); err != nil {
		return nil, fmt.Errorf("create overlay temp dir: %w", err)
	}
	return &Renderer{
		logger:  logger.With().Str("component", "overlay").Logger(),
		ffmpeg:  exec,
		tempDir: tempDir,
	}, nil
}

// Render overlays text on the input clip and writes the result to output.
// Text may contain explicit line breaks. The output should be a temp path;
// promotion into the cache is the caller's job so a composite failure never
// leaves a partial file under a canonical cache key.
func (r *Renderer) Render(ctx context.Context, input, output, text string, st Style, timing Timing) error {
	if text == "" {
		return &media.CompositeError{Input: input, Err: fmt.Errorf("overlay text is empty")}
	}
	if err := st.validate(); err != nil {
		return &media.CompositeError{Input: input, Err: err}
	}

	timing = timing.Normalize()

	info, err := r.ffmpeg.ProbeVideo(ctx, input)
	if err != nil {
		return err
	}

	layout := ComputeLayout(info.Width, info.Height, text, st, 0, 0)
	img, err := Rasterize(info.Width, info.Height, layout, st)
	if err != nil {
		return &media.CompositeError{Input: input, Err: err}
	}

	pngPath := filepath.Join(r.tempDir, fmt.Sprintf("overlay_%s.png", uuid.NewString()))
	if err := WritePNG(img, pngPath); err != nil {
		return &media.CompositeError{Input: input, Err: err}
	}
	defer util.CleanupFiles(pngPath)

	r.logger.Debug().
		Str("input", input).
		Int("lines", len(layout.Lines)).
		Int("rect_w", layout.RectW).
		Int("rect_h", layout.RectH).
		Msg("overlay image rasterized")

	anim := ffmpeg.OverlayAnim{
		StartTime:     timing.StartTime,
		Duration:      timing.Duration,
		FadeIn:        timing.FadeIn,
		FadeOut:       timing.FadeOut,
		SlideDistance: timing.SlideDistance,
		ClipDuration:  info.Seconds(),
	}

	return r.ffmpeg.OverlayImage(ctx, input, pngPath, output, anim)
}

package ffmpeg

import (
	"context"
	"fmt"

	"github.com/ombresaco/shortsmaker/internal/media"
	"github.com/ombresaco/shortsmaker/pkg/util"
)

// ExtractClip cuts a [start,end) segment from a video with a deterministic
// re-encode, so every output shares the same codec profile and a fast-start
// container.
func (e *Executor) ExtractClip(ctx context.Context, input string, opts ClipOptions) error {
	duration := opts.End - opts.Start
	if duration <= 0 {
		return &media.TrimError{Input: input, Err: fmt.Errorf("invalid clip duration: end must be after start")}
	}
	if opts.Output == "" {
		return &media.TrimError{Input: input, Err: fmt.Errorf("output path is required")}
	}

	e.logger.Info().
		Str("input", input).
		Str("output", opts.Output).
		Float64("start", opts.Start).
		Float64("duration", duration).
		Msg("extracting clip")

	videoCodec := opts.VideoCodec
	if videoCodec == "" {
		videoCodec = DefaultVideoCodec
	}
	audioCodec := opts.AudioCodec
	if audioCodec == "" {
		audioCodec = DefaultAudioCodec
	}
	crf := opts.CRF
	if crf == 0 {
		crf = DefaultCRF
	}
	preset := opts.Preset
	if preset == "" {
		preset = DefaultPreset
	}

	args := []string{
		"-i", input,
		"-ss", util.FormatSeconds(opts.Start),
		"-t", util.FormatSeconds(duration),
		"-c:v", videoCodec,
		"-c:a", audioCodec,
		"-crf", fmt.Sprintf("%d", crf),
		"-preset", preset,
		"-movflags", "+faststart",
		opts.Output,
	}

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: opts.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("clip extraction")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return &media.TrimError{Input: input, Err: err}
	}

	e.logger.Info().Str("output", opts.Output).Msg("clip extraction complete")
	return nil
}

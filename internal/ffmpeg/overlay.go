package ffmpeg

import (
	"context"
	"fmt"
	"strings"

	"github.com/ombresaco/shortsmaker/internal/media"
	"github.com/ombresaco/shortsmaker/pkg/util"
)

// BuildOverlayFilter constructs the filter_complex expression that fades a
// looped transparent image in and out while sliding it horizontally: in from
// -slideDistance to 0 during fade-in, out from 0 to +slideDistance during
// fade-out. Outside [start, start+duration] the overlay is disabled.
func BuildOverlayFilter(anim OverlayAnim) string {
	start := anim.StartTime
	fadeOutStart := anim.StartTime + anim.Duration - anim.FadeOut
	end := anim.StartTime + anim.Duration
	slide := anim.SlideDistance

	fade := fmt.Sprintf(
		"[1:v]format=rgba,fade=t=in:st=%s:d=%s:alpha=1,fade=t=out:st=%s:d=%s:alpha=1[faded]",
		util.FormatSeconds(start),
		util.FormatSeconds(anim.FadeIn),
		util.FormatSeconds(fadeOutStart),
		util.FormatSeconds(anim.FadeOut),
	)

	x := fmt.Sprintf(
		"'if(between(t,%[1]s,%[2]s),%[5]d+(t-%[1]s)/%[6]s*%[7]d,if(between(t,%[3]s,%[4]s),(t-%[3]s)/%[8]s*%[7]d,0))'",
		util.FormatSeconds(start),
		util.FormatSeconds(start+anim.FadeIn),
		util.FormatSeconds(fadeOutStart),
		util.FormatSeconds(end),
		-slide,
		util.FormatSeconds(anim.FadeIn),
		slide,
		util.FormatSeconds(anim.FadeOut),
	)

	overlay := fmt.Sprintf(
		"[0:v][faded]overlay=%s:0:enable='between(t,%s,%s)'",
		x,
		util.FormatSeconds(start),
		util.FormatSeconds(end),
	)

	return strings.Join([]string{fade, overlay}, ";")
}

// OverlayImage composites a transparent PNG onto a video with the fade/slide
// animation described by anim. Audio is passed through unaltered. The output
// runs to max(start+duration, clip duration) so the overlay window never
// exceeds the clip.
func (e *Executor) OverlayImage(ctx context.Context, input, overlayPNG, output string, anim OverlayAnim) error {
	if input == "" || overlayPNG == "" || output == "" {
		return &media.CompositeError{Input: input, Err: fmt.Errorf("input, overlay and output paths are required")}
	}

	outLen := anim.StartTime + anim.Duration
	if anim.ClipDuration > outLen {
		outLen = anim.ClipDuration
	}

	e.logger.Info().
		Str("input", input).
		Str("overlay", overlayPNG).
		Str("output", output).
		Float64("start", anim.StartTime).
		Float64("duration", anim.Duration).
		Msg("compositing text overlay")

	args := []string{
		"-i", input,
		"-loop", "1",
		"-i", overlayPNG,
		"-filter_complex", BuildOverlayFilter(anim),
		"-map", "0:a?",
		"-c:a", "copy",
		"-shortest",
		"-t", util.FormatSeconds(outLen),
		output,
	}

	runOpts := RunOptions{
		Args:            args,
		ProgressHandler: anim.ProgressFunc,
		LogHandler: func(line string) {
			e.logger.Debug().Str("ffmpeg", line).Msg("overlay output")
		},
	}

	if err := e.Run(ctx, runOpts); err != nil {
		return &media.CompositeError{Input: input, Err: err}
	}

	e.logger.Info().Str("output", output).Msg("overlay composite complete")
	return nil
}

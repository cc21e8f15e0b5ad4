package ffmpeg

import "time"

// VideoInfo contains metadata about a video file
type VideoInfo struct {
	FilePath     string
	Duration     time.Duration
	Width        int
	Height       int
	FPS          float64
	Bitrate      int64
	VideoCodec   string
	HasAudio     bool
	AudioCodec   string
	AudioBitrate int64
}

// Seconds returns the duration as float seconds, the unit segment
// boundaries are expressed in
func (v *VideoInfo) Seconds() float64 {
	return v.Duration.Seconds()
}

// Progress represents ffmpeg progress data
type Progress struct {
	Frame int
	FPS   float64
	Time  string
	Speed string
}

// ProgressFunc is a callback for progress updates during ffmpeg operations.
type ProgressFunc func(*Progress)

// RunOptions configures ffmpeg execution
type RunOptions struct {
	Args            []string
	ProgressHandler ProgressFunc
	LogHandler      func(line string)
}

// ClipOptions defines segment extraction parameters. The defaults produce a
// deterministic re-encode so every segment gets a consistent, seekable,
// fast-start container regardless of the source.
type ClipOptions struct {
	Start        float64 // seconds
	End          float64 // seconds
	Output       string
	VideoCodec   string
	AudioCodec   string
	CRF          int
	Preset       string
	ProgressFunc ProgressFunc
}

// OverlayAnim configures the fade/slide animation window for image
// compositing. All times are in seconds relative to the clip start.
type OverlayAnim struct {
	StartTime     float64
	Duration      float64
	FadeIn        float64
	FadeOut       float64
	SlideDistance int
	ClipDuration  float64 // source clip duration, bounds the output length
	ProgressFunc  ProgressFunc
}

// Default encoding settings
const (
	DefaultCRF        = 23
	DefaultPreset     = "fast"
	DefaultVideoCodec = "libx264"
	DefaultAudioCodec = "aac"
)

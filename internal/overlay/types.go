// Package overlay renders styled, animated text overlays: a transparent
// image with a rounded background rectangle, composited onto a clip with
// fade/slide animation.
package overlay

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Style controls the look of the rendered text block.
type Style struct {
	FontSize    int
	FontColor   string // "#RRGGBB" or rgba(r,g,b,a)
	Align       string // left, center, right
	RectColor   string
	RectPadding int
	RectRadius  int
}

// DefaultStyle mirrors the historical overlay defaults.
func DefaultStyle() Style {
	return Style{
		FontSize:    40,
		FontColor:   "#FFFFFF",
		Align:       "center",
		RectColor:   "rgba(0,0,0,0.6)",
		RectPadding: 20,
		RectRadius:  10,
	}
}

// Timing controls when the overlay appears and how it animates.
type Timing struct {
	StartTime     float64
	Duration      float64 // total on-screen time including fades
	Stay          float64 // alternative to Duration: fadeIn + stay + fadeOut
	FadeIn        float64
	FadeOut       float64
	SlideDistance int
}

// DefaultTiming mirrors the historical animation defaults.
func DefaultTiming() Timing {
	return Timing{
		Duration:      5,
		FadeIn:        1,
		FadeOut:       1,
		SlideDistance: 50,
	}
}

// fadeBudget is the share of the total duration fades may occupy when they
// have to be shrunk to fit.
const fadeBudget = 0.8

// Normalize resolves the Stay shorthand and shrinks oversized fades
// proportionally so fadeIn+fadeOut fits within 80% of the duration,
// preserving their original ratio.
func (t Timing) Normalize() Timing {
	if t.Stay > 0 {
		t.Duration = t.FadeIn + t.Stay + t.FadeOut
		t.Stay = 0
	}

	if t.FadeIn+t.FadeOut > t.Duration {
		total := t.Duration * fadeBudget
		ratio := t.FadeIn / (t.FadeIn + t.FadeOut)
		t.FadeIn = total * ratio
		t.FadeOut = total * (1 - ratio)
	}

	return t
}

// ParseColor understands "#RRGGBB", "#RRGGBBAA" and "rgba(r,g,b,a)" with a
// 0..1 float alpha. Unknown strings fall back to opaque white.
func ParseColor(s string) color.NRGBA {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "#") {
		hexStr := s[1:]
		if len(hexStr) == 6 || len(hexStr) == 8 {
			if v, err := strconv.ParseUint(hexStr, 16, 64); err == nil {
				if len(hexStr) == 6 {
					return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
				}
				return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
			}
		}
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "rgba(") && strings.HasSuffix(lower, ")") {
		parts := strings.Split(lower[5:len(lower)-1], ",")
		if len(parts) == 4 {
			var rgb [3]uint8
			ok := true
			for i := 0; i < 3; i++ {
				v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
				if err != nil || v < 0 || v > 255 {
					ok = false
					break
				}
				rgb[i] = uint8(v)
			}
			alpha, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
			if ok && err == nil && alpha >= 0 && alpha <= 1 {
				return color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: uint8(alpha*255 + 0.5)}
			}
		}
	}

	return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
}

func (s Style) validate() error {
	switch s.Align {
	case "", "left", "center", "right":
	default:
		return fmt.Errorf("invalid alignment %q", s.Align)
	}
	if s.FontSize <= 0 {
		return fmt.Errorf("font size must be positive")
	}
	return nil
}

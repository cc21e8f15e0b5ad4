package overlay

import "strings"

// Size estimation ratios. Deliberately approximate: no text shaping is
// performed, a fixed character width and line height relative to the font
// size stand in for real metrics.
const (
	charWidthRatio  = 0.6
	lineHeightRatio = 1.2
	baselineRatio   = 0.8
)

// Layout is the computed geometry of the text block and its background
// rectangle inside a video frame.
type Layout struct {
	RectX, RectY int
	RectW, RectH int
	Lines        []Line
}

// Line positions one text line. X is the alignment anchor point; Anchor
// tells the rasterizer how to align the measured glyph run to it.
type Line struct {
	Text   string
	X, Y   int // Y is the baseline
	Anchor Anchor
}

// Anchor describes which edge of a glyph run sits at the line's X.
type Anchor int

const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

// ComputeLayout estimates the rendered size of text and positions the
// background rectangle according to alignment, anchored at (anchorX,
// anchorY). Zero anchors default to the frame center.
func ComputeLayout(videoW, videoH int, text string, st Style, anchorX, anchorY int) Layout {
	lines := strings.Split(text, "\n")

	charWidth := float64(st.FontSize) * charWidthRatio
	lineHeight := float64(st.FontSize) * lineHeightRatio

	var textWidth float64
	for _, line := range lines {
		if w := float64(len([]rune(line))) * charWidth; w > textWidth {
			textWidth = w
		}
	}
	textHeight := lineHeight * float64(len(lines))

	if anchorX == 0 {
		anchorX = videoW / 2
	}
	if anchorY == 0 {
		anchorY = videoH / 2
	}

	rectW := int(textWidth) + st.RectPadding*2
	rectH := int(textHeight) + st.RectPadding*2

	var rectX int
	switch st.Align {
	case "left":
		rectX = anchorX
	case "right":
		rectX = anchorX - rectW
	default: // center
		rectX = anchorX - rectW/2
	}
	rectY := anchorY - rectH/2

	layout := Layout{
		RectX: rectX,
		RectY: rectY,
		RectW: rectW,
		RectH: rectH,
	}

	for i, line := range lines {
		y := rectY + st.RectPadding + int(float64(i)*lineHeight) + int(float64(st.FontSize)*baselineRatio)

		var x int
		var anchor Anchor
		switch st.Align {
		case "left":
			x = rectX + st.RectPadding
			anchor = AnchorStart
		case "right":
			x = rectX + rectW - st.RectPadding
			anchor = AnchorEnd
		default:
			x = rectX + rectW/2
			anchor = AnchorMiddle
		}

		layout.Lines = append(layout.Lines, Line{Text: line, X: x, Y: y, Anchor: anchor})
	}

	return layout
}

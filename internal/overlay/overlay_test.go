package overlay

import (
	"image/color"
	"math"
	"strings"
	"testing"

	"github.com/ombresaco/shortsmaker/internal/ffmpeg"
)

func TestNormalizeFadeWindow(t *testing.T) {
	// fadeIn=1, duration=5, fadeOut=1: fade-out runs [start+4, start+5]
	tm := Timing{StartTime: 2, Duration: 5, FadeIn: 1, FadeOut: 1}.Normalize()

	fadeOutStart := tm.StartTime + tm.Duration - tm.FadeOut
	fadeOutEnd := tm.StartTime + tm.Duration
	if fadeOutStart != 6 || fadeOutEnd != 7 {
		t.Errorf("fade-out window [%f, %f], want [6, 7]", fadeOutStart, fadeOutEnd)
	}
	if tm.FadeIn != 1 || tm.FadeOut != 1 {
		t.Errorf("fades changed when they fit: in=%f out=%f", tm.FadeIn, tm.FadeOut)
	}
}

func TestNormalizeShrinksOversizedFades(t *testing.T) {
	// 4+4 > 5: both shrink proportionally into 0.8*5=4, preserving 1:1
	tm := Timing{Duration: 5, FadeIn: 4, FadeOut: 4}.Normalize()

	if math.Abs(tm.FadeIn-2) > 1e-9 || math.Abs(tm.FadeOut-2) > 1e-9 {
		t.Errorf("expected both fades ≈2, got in=%f out=%f", tm.FadeIn, tm.FadeOut)
	}
	if tm.FadeIn+tm.FadeOut > tm.Duration*0.8+1e-9 {
		t.Errorf("fades exceed 80%% budget: %f", tm.FadeIn+tm.FadeOut)
	}

	// 3:1 ratio preserved
	tm = Timing{Duration: 4, FadeIn: 6, FadeOut: 2}.Normalize()
	if math.Abs(tm.FadeIn/tm.FadeOut-3) > 1e-9 {
		t.Errorf("ratio not preserved: in=%f out=%f", tm.FadeIn, tm.FadeOut)
	}
}

func TestNormalizeResolvesStayShorthand(t *testing.T) {
	tm := Timing{FadeIn: 0.3, Stay: 2, FadeOut: 0.3}.Normalize()
	if math.Abs(tm.Duration-2.6) > 1e-9 {
		t.Errorf("duration from stay = %f, want 2.6", tm.Duration)
	}
	if tm.Stay != 0 {
		t.Errorf("stay not consumed: %f", tm.Stay)
	}
}

func TestComputeLayoutCenterAnchor(t *testing.T) {
	st := DefaultStyle() // fontSize 40, padding 20
	layout := ComputeLayout(1920, 1080, "Hello", st, 0, 0)

	// 5 chars * 0.6 * 40 = 120 wide, one line 1.2*40 = 48 high
	wantW := 120 + 40
	wantH := 48 + 40
	if layout.RectW != wantW || layout.RectH != wantH {
		t.Errorf("rect %dx%d, want %dx%d", layout.RectW, layout.RectH, wantW, wantH)
	}
	if layout.RectX != 960-wantW/2 {
		t.Errorf("rect not centered: x=%d", layout.RectX)
	}
	if layout.RectY != 540-wantH/2 {
		t.Errorf("rect not vertically centered: y=%d", layout.RectY)
	}
	if len(layout.Lines) != 1 || layout.Lines[0].Anchor != AnchorMiddle {
		t.Errorf("expected one middle-anchored line, got %+v", layout.Lines)
	}
}

func TestComputeLayoutMultilineUsesWidestLine(t *testing.T) {
	st := DefaultStyle()
	layout := ComputeLayout(1280, 720, "Hi\nLonger line here", st, 0, 0)

	want := int(float64(len([]rune("Longer line here")))*0.6*40) + 40
	if layout.RectW != want {
		t.Errorf("rect width %d, want %d from widest line", layout.RectW, want)
	}
	if len(layout.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(layout.Lines))
	}
	if layout.Lines[1].Y <= layout.Lines[0].Y {
		t.Error("second line baseline not below first")
	}
}

func TestComputeLayoutAlignment(t *testing.T) {
	st := DefaultStyle()

	left := st
	left.Align = "left"
	l := ComputeLayout(1000, 1000, "abc", left, 400, 0)
	if l.RectX != 400 {
		t.Errorf("left-aligned rect x=%d, want 400", l.RectX)
	}
	if l.Lines[0].Anchor != AnchorStart {
		t.Error("left alignment should anchor line starts")
	}

	right := st
	right.Align = "right"
	r := ComputeLayout(1000, 1000, "abc", right, 400, 0)
	if r.RectX != 400-r.RectW {
		t.Errorf("right-aligned rect x=%d, want %d", r.RectX, 400-r.RectW)
	}
	if r.Lines[0].Anchor != AnchorEnd {
		t.Error("right alignment should anchor line ends")
	}
}

func TestParseColor(t *testing.T) {
	cases := []struct {
		in   string
		want color.NRGBA
	}{
		{"#FFFFFF", color.NRGBA{255, 255, 255, 255}},
		{"#2196F3", color.NRGBA{0x21, 0x96, 0xF3, 255}},
		{"rgba(0,0,0,0.6)", color.NRGBA{0, 0, 0, 153}},
		{"rgba(33, 150, 243, 0.8)", color.NRGBA{33, 150, 243, 204}},
		{"bogus", color.NRGBA{255, 255, 255, 255}},
	}

	for _, tc := range cases {
		if got := ParseColor(tc.in); got != tc.want {
			t.Errorf("ParseColor(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestRasterizeTransparentOutsideRect(t *testing.T) {
	st := DefaultStyle()
	layout := ComputeLayout(320, 240, "Hi", st, 0, 0)

	img, err := Rasterize(320, 240, layout, st)
	if err != nil {
		t.Fatalf("rasterize: %v", err)
	}

	if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
		t.Error("corner pixel not transparent")
	}
	cx := layout.RectX + layout.RectW/2
	cy := layout.RectY + layout.RectH/2
	if _, _, _, a := img.At(cx, cy).RGBA(); a == 0 {
		t.Error("rect center pixel is transparent")
	}
}

func TestBuildOverlayFilterWindows(t *testing.T) {
	anim := ffmpeg.OverlayAnim{
		StartTime:     2,
		Duration:      5,
		FadeIn:        1,
		FadeOut:       1,
		SlideDistance: 50,
	}

	filter := ffmpeg.BuildOverlayFilter(anim)

	for _, want := range []string{
		"fade=t=in:st=2.000:d=1.000:alpha=1",
		"fade=t=out:st=6.000:d=1.000:alpha=1",
		"enable='between(t,2.000,7.000)'",
		"-50+",
	} {
		if !strings.Contains(filter, want) {
			t.Errorf("filter missing %q:\n%s", want, filter)
		}
	}
}

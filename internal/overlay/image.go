package overlay

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Rasterize draws the rounded background rectangle and text lines into a
// transparent image sized to the video frame.
func Rasterize(videoW, videoH int, layout Layout, st Style) (*image.NRGBA, error) {
	img := image.NewNRGBA(image.Rect(0, 0, videoW, videoH))

	fillRoundedRect(img, layout.RectX, layout.RectY, layout.RectW, layout.RectH, st.RectRadius, ParseColor(st.RectColor))

	face, err := newFace(st.FontSize)
	if err != nil {
		return nil, err
	}
	defer face.Close()

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(ParseColor(st.FontColor)),
		Face: face,
	}

	for _, line := range layout.Lines {
		if line.Text == "" {
			continue
		}
		adv := drawer.MeasureString(line.Text)

		x := fixed.I(line.X)
		switch line.Anchor {
		case AnchorMiddle:
			x -= adv / 2
		case AnchorEnd:
			x -= adv
		}

		drawer.Dot = fixed.Point26_6{X: x, Y: fixed.I(line.Y)}
		drawer.DrawString(line.Text)
	}

	return img, nil
}

// WritePNG saves the overlay image with transparency preserved.
func WritePNG(img *image.NRGBA, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func newFace(size int) (font.Face, error) {
	f, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse embedded font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("create font face: %w", err)
	}
	return face, nil
}

// fillRoundedRect paints an axis-aligned rectangle with circular corners of
// the given radius. Pixels are tested against the corner circles; the rest
// of the rectangle is filled with plain draw ops.
func fillRoundedRect(img draw.Image, x, y, w, h, radius int, c color.NRGBA) {
	if w <= 0 || h <= 0 {
		return
	}
	if radius > w/2 {
		radius = w / 2
	}
	if radius > h/2 {
		radius = h / 2
	}

	src := image.NewUniform(c)

	// Center band and side bands cover everything but the corners
	draw.Draw(img, image.Rect(x+radius, y, x+w-radius, y+h), src, image.Point{}, draw.Over)
	draw.Draw(img, image.Rect(x, y+radius, x+radius, y+h-radius), src, image.Point{}, draw.Over)
	draw.Draw(img, image.Rect(x+w-radius, y+radius, x+w, y+h-radius), src, image.Point{}, draw.Over)

	if radius == 0 {
		return
	}

	centers := [4][2]int{
		{x + radius, y + radius},         // top-left
		{x + w - radius, y + radius},     // top-right
		{x + radius, y + h - radius},     // bottom-left
		{x + w - radius, y + h - radius}, // bottom-right
	}
	corners := [4]image.Rectangle{
		image.Rect(x, y, x+radius, y+radius),
		image.Rect(x+w-radius, y, x+w, y+radius),
		image.Rect(x, y+h-radius, x+radius, y+h),
		image.Rect(x+w-radius, y+h-radius, x+w, y+h),
	}

	rr := radius * radius
	for i, corner := range corners {
		cx, cy := centers[i][0], centers[i][1]
		for py := corner.Min.Y; py < corner.Max.Y; py++ {
			for px := corner.Min.X; px < corner.Max.X; px++ {
				dx := px - cx
				dy := py - cy
				if dx*dx+dy*dy <= rr {
					img.Set(px, py, c)
				}
			}
		}
	}
}

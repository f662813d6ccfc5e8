package render

import (
	"image"
	"image/color"
	imagedraw "image/draw"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

func truncateWithEllipsis(face font.Face, text string, maxWidth int) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || maxWidth <= 0 || face == nil {
		return trimmed
	}
	drawer := font.Drawer{Face: face}
	if drawer.MeasureString(trimmed).Round() <= maxWidth {
		return trimmed
	}
	const ellipsis = "..."
	if drawer.MeasureString(ellipsis).Round() > maxWidth {
		return ""
	}
	runes := []rune(trimmed)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + ellipsis
		if drawer.MeasureString(candidate).Round() <= maxWidth {
			return candidate
		}
	}
	return ellipsis
}

func drawRoundedPanel(img *image.RGBA, rect image.Rectangle, radius int, clr color.Color) {
	if img == nil || rect.Empty() {
		return
	}
	radius = max(radius, 0)
	radius = min(radius, rect.Dx()/2, rect.Dy()/2)
	fill := image.NewUniform(clr)
	if radius == 0 {
		imagedraw.Draw(img, rect, fill, image.Point{}, imagedraw.Over)
		return
	}

	// Center cross, then quarter discs in the corners.
	imagedraw.Draw(img, image.Rect(rect.Min.X+radius, rect.Min.Y, rect.Max.X-radius, rect.Max.Y), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Min.X, rect.Min.Y+radius, rect.Min.X+radius, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)
	imagedraw.Draw(img, image.Rect(rect.Max.X-radius, rect.Min.Y+radius, rect.Max.X, rect.Max.Y-radius), fill, image.Point{}, imagedraw.Over)

	corners := []struct {
		center image.Point
		dx, dy int
	}{
		{image.Pt(rect.Min.X+radius, rect.Min.Y+radius), -1, -1},
		{image.Pt(rect.Max.X-radius-1, rect.Min.Y+radius), 1, -1},
		{image.Pt(rect.Min.X+radius, rect.Max.Y-radius-1), -1, 1},
		{image.Pt(rect.Max.X-radius-1, rect.Max.Y-radius-1), 1, 1},
	}
	r2 := radius * radius
	for _, c := range corners {
		for y := 1; y <= radius; y++ {
			for x := 1; x <= radius; x++ {
				if x*x+y*y <= r2 {
					blendPixel(img, c.center.X+c.dx*x, c.center.Y+c.dy*y, clr)
				}
			}
		}
	}
}

func drawDisc(img *image.RGBA, center image.Point, radius int, clr color.Color) {
	if radius <= 0 {
		blendPixel(img, center.X, center.Y, clr)
		return
	}
	r2 := radius * radius
	for y := -radius; y <= radius; y++ {
		for x := -radius; x <= radius; x++ {
			if x*x+y*y <= r2 {
				blendPixel(img, center.X+x, center.Y+y, clr)
			}
		}
	}
}

// blendPixel composites clr over the pixel at (x, y) with source-over.
func blendPixel(img *image.RGBA, x, y int, clr color.Color) {
	if img == nil || !(image.Point{X: x, Y: y}).In(img.Bounds()) {
		return
	}
	sr, sg, sb, sa := clr.RGBA()
	if sa == 0 {
		return
	}
	dst := img.RGBAAt(x, y)
	inv := 65535 - sa
	img.SetRGBA(x, y, color.RGBA{
		R: uint8((sr + uint32(dst.R)*0x101*inv/65535) >> 8),
		G: uint8((sg + uint32(dst.G)*0x101*inv/65535) >> 8),
		B: uint8((sb + uint32(dst.B)*0x101*inv/65535) >> 8),
		A: uint8((sa + uint32(dst.A)*0x101*inv/65535) >> 8),
	})
}

func drawCenteredString(drawer *font.Drawer, rect image.Rectangle, text string, clr color.Color) {
	text = strings.TrimSpace(text)
	if drawer == nil || text == "" {
		return
	}
	metrics := drawer.Face.Metrics()
	width := drawer.MeasureString(text).Round()
	x := max(rect.Min.X+(rect.Dx()-width)/2, rect.Min.X)
	baseline := rect.Min.Y + (rect.Dy()+metrics.Ascent.Ceil()-metrics.Descent.Ceil())/2
	drawer.Src = image.NewUniform(clr)
	drawer.Dot = fixed.P(x, baseline)
	drawer.DrawString(text)
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	if text == "" {
		return
	}
	width := drawer.MeasureString(text).Round()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}

package render

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/catoptric/catoptric/client-go/internal/geom"
)

// Rasterise renders a command buffer into a pixel buffer. The frame is
// drawn at the logical surface size and scaled to a device-pixel-ratio
// aware backing resolution. The controller keeps the result as the
// previous-frame buffer; the export handler encodes it as PNG.
func Rasterise(commands []DrawCommand, width, height int, devicePixelRatio float64) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, width, height))
	fill(frame, color.RGBA{255, 255, 255, 255})

	for _, cmd := range commands {
		switch cmd.Op {
		case "clear":
			fill(frame, color.RGBA{255, 255, 255, 255})
		case "polyline":
			strokePolyline(frame, cmd.Points, parseColor(cmd.Color))
		case "links":
			for _, seg := range cmd.Segments {
				strokePolyline(frame, seg, parseColor(cmd.Color))
			}
		case "markers":
			r := cmd.Radius
			if r <= 0 {
				r = 1.5
			}
			for _, p := range cmd.Points {
				fillCircle(frame, p, r, parseColor(cmd.Color))
			}
		}
	}

	if devicePixelRatio <= 1 {
		return frame
	}

	backing := image.NewRGBA(image.Rect(0, 0,
		int(float64(width)*devicePixelRatio),
		int(float64(height)*devicePixelRatio)))
	xdraw.ApproxBiLinear.Scale(backing, backing.Bounds(), frame, frame.Bounds(), xdraw.Src, nil)
	return backing
}

func fill(img *image.RGBA, c color.RGBA) {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			img.SetRGBA(x, y, c)
		}
	}
}

// strokePolyline draws one-pixel line segments by uniform stepping; good
// enough for export frames, which are not the interactive path.
func strokePolyline(img *image.RGBA, points []geom.Point, c color.RGBA) {
	for i := 1; i < len(points); i++ {
		strokeSegment(img, points[i-1], points[i], c)
	}
}

func strokeSegment(img *image.RGBA, a, b geom.Point, c color.RGBA) {
	if a.IsUnknown() || b.IsUnknown() {
		return
	}
	steps := int(math.Ceil(a.Distance(b)))
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		x := int(math.Round(a.X + (b.X-a.X)*t))
		y := int(math.Round(a.Y + (b.Y-a.Y)*t))
		setClipped(img, x, y, c)
	}
}

func fillCircle(img *image.RGBA, p geom.Point, radius float64, c color.RGBA) {
	if p.IsUnknown() {
		return
	}
	r := int(math.Ceil(radius))
	cx, cy := int(math.Round(p.X)), int(math.Round(p.Y))
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if float64(dx*dx+dy*dy) <= radius*radius {
				setClipped(img, cx+dx, cy+dy, c)
			}
		}
	}
}

func setClipped(img *image.RGBA, x, y int, c color.RGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}

// parseColor decodes the #rrggbb colors used by the command compiler.
func parseColor(s string) color.RGBA {
	if len(s) != 7 || s[0] != '#' {
		return color.RGBA{0, 0, 0, 255}
	}
	hex := func(c byte) uint8 {
		switch {
		case c >= '0' && c <= '9':
			return c - '0'
		case c >= 'a' && c <= 'f':
			return c - 'a' + 10
		case c >= 'A' && c <= 'F':
			return c - 'A' + 10
		}
		return 0
	}
	return color.RGBA{
		R: hex(s[1])<<4 | hex(s[2]),
		G: hex(s[3])<<4 | hex(s[4]),
		B: hex(s[5])<<4 | hex(s[6]),
		A: 255,
	}
}

package services

import (
	"assetmap/algorithms"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"
)

// canvasState is the part of the drawing state gg does not track for us.
type canvasState struct {
	alpha     float64
	fill      color.Color
	stroke    color.Color
	lineWidth float64
}

func defaultCanvasState() canvasState {
	return canvasState{alpha: 1, fill: color.Black, stroke: color.Black, lineWidth: 1}
}

// RasterCanvas draws into an in-memory RGBA image and serves it as PNG.
type RasterCanvas struct {
	dc    *gg.Context
	state canvasState
	stack []canvasState
}

func NewRasterCanvas(w, h int) (*RasterCanvas, error) {
	c := &RasterCanvas{}
	if err := c.Resize(w, h); err != nil {
		return nil, err
	}
	return c, nil
}

// Resize replaces the backing image. The new image is blank.
func (c *RasterCanvas) Resize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("invalid raster size %dx%d", w, h)
	}
	c.dc = gg.NewContext(w, h)
	c.state = defaultCanvasState()
	c.stack = c.stack[:0]
	c.Clear()
	return nil
}

func (c *RasterCanvas) Size() (int, int) {
	return c.dc.Width(), c.dc.Height()
}

func (c *RasterCanvas) Clear() {
	c.dc.Push()
	c.dc.Identity()
	c.dc.SetColor(color.White)
	c.dc.Clear()
	c.dc.Pop()
}

func (c *RasterCanvas) Save() {
	c.stack = append(c.stack, c.state)
	c.dc.Push()
}

func (c *RasterCanvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	c.state = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.dc.Pop()
}

func (c *RasterCanvas) Translate(x, y float64) { c.dc.Translate(x, y) }

func (c *RasterCanvas) Rotate(rad float64) { c.dc.Rotate(rad) }

// SetAlpha sets the global alpha applied on top of each color's own alpha.
func (c *RasterCanvas) SetAlpha(a float64) { c.state.alpha = clamp01(a) }

func (c *RasterCanvas) SetFillColor(col color.Color) { c.state.fill = col }

func (c *RasterCanvas) SetStrokeColor(col color.Color) { c.state.stroke = col }

func (c *RasterCanvas) SetLineWidth(w float64) { c.state.lineWidth = w }

func (c *RasterCanvas) StrokeLine(x1, y1, x2, y2 float64) {
	c.dc.DrawLine(x1, y1, x2, y2)
	c.stroke()
}

func (c *RasterCanvas) FillRect(x, y, w, h float64) {
	c.dc.DrawRectangle(x, y, w, h)
	c.fill()
}

func (c *RasterCanvas) FillRoundedRect(x, y, w, h, r float64) {
	c.dc.DrawRoundedRectangle(x, y, w, h, r)
	c.fill()
}

func (c *RasterCanvas) FillPolygon(pts ...algorithms.Point) {
	if len(pts) < 3 {
		return
	}
	c.dc.NewSubPath()
	c.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		c.dc.LineTo(p.X, p.Y)
	}
	c.dc.ClosePath()
	c.fill()
}

func (c *RasterCanvas) FillCircle(x, y, r float64) {
	c.dc.DrawCircle(x, y, r)
	c.fill()
}

func (c *RasterCanvas) StrokeCircle(x, y, r float64) {
	c.dc.DrawCircle(x, y, r)
	c.stroke()
}

// Text draws s with its baseline at y. The bitmap faces only come in two
// sizes, so size picks the closer one.
func (c *RasterCanvas) Text(s string, x, y, size float64, bold bool) {
	c.dc.SetFontFace(rasterFace(size, bold))
	c.dc.SetColor(withAlpha(c.state.fill, c.state.alpha))
	c.dc.DrawString(s, x, y)
}

func (c *RasterCanvas) fill() {
	c.dc.SetColor(withAlpha(c.state.fill, c.state.alpha))
	c.dc.Fill()
}

func (c *RasterCanvas) stroke() {
	c.dc.SetColor(withAlpha(c.state.stroke, c.state.alpha))
	c.dc.SetLineWidth(c.state.lineWidth)
	c.dc.Stroke()
}

// Image - 현재 프레임 (다음 Paint 전까지 유효)
func (c *RasterCanvas) Image() image.Image {
	return c.dc.Image()
}

func (c *RasterCanvas) EncodePNG(w io.Writer) error {
	return c.dc.EncodePNG(w)
}

func rasterFace(size float64, bold bool) font.Face {
	switch {
	case bold:
		return inconsolata.Bold8x16
	case size > 12:
		return inconsolata.Regular8x16
	default:
		return basicfont.Face7x13
	}
}

func withAlpha(c color.Color, a float64) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = uint8(math.Round(float64(n.A) * clamp01(a)))
	return n
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

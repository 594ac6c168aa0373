package services

import (
	"assetmap/algorithms"
	"bytes"
	"fmt"
	"image/color"
	"io"
	"math"

	"github.com/jung-kurt/gofpdf"
)

// PDFCanvas draws a single page whose size in points equals the pixel size
// of the scene. Transforms are applied to coordinates before they reach the
// document.
type PDFCanvas struct {
	pdf    *gofpdf.Fpdf
	w, h   int
	matrix algorithms.Affine
	state  canvasState
	stack  []pdfState
}

type pdfState struct {
	matrix algorithms.Affine
	canvasState
}

func NewPDFCanvas(w, h int) (*PDFCanvas, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: pdf size %dx%d", ErrSurfaceUnavailable, w, h)
	}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: float64(w), Ht: float64(h)},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Asset map snapshot", true)
	pdf.AddPage()

	return &PDFCanvas{
		pdf:    pdf,
		w:      w,
		h:      h,
		matrix: algorithms.Identity(),
		state:  defaultCanvasState(),
	}, nil
}

func (c *PDFCanvas) Size() (int, int) { return c.w, c.h }

func (c *PDFCanvas) Clear() {
	c.pdf.SetAlpha(1, "Normal")
	c.pdf.SetFillColor(255, 255, 255)
	c.pdf.Rect(0, 0, float64(c.w), float64(c.h), "F")
}

func (c *PDFCanvas) Save() {
	c.stack = append(c.stack, pdfState{matrix: c.matrix, canvasState: c.state})
}

func (c *PDFCanvas) Restore() {
	if len(c.stack) == 0 {
		return
	}
	top := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	c.matrix, c.state = top.matrix, top.canvasState
}

func (c *PDFCanvas) Translate(x, y float64) { c.matrix = c.matrix.Translate(x, y) }

func (c *PDFCanvas) Rotate(rad float64) { c.matrix = c.matrix.Rotate(rad) }

func (c *PDFCanvas) SetAlpha(a float64) { c.state.alpha = clamp01(a) }

func (c *PDFCanvas) SetFillColor(col color.Color) { c.state.fill = col }

func (c *PDFCanvas) SetStrokeColor(col color.Color) { c.state.stroke = col }

func (c *PDFCanvas) SetLineWidth(w float64) { c.state.lineWidth = w }

func (c *PDFCanvas) StrokeLine(x1, y1, x2, y2 float64) {
	a := c.matrix.Apply(algorithms.Point{X: x1, Y: y1})
	b := c.matrix.Apply(algorithms.Point{X: x2, Y: y2})
	c.useStroke()
	c.pdf.Line(a.X, a.Y, b.X, b.Y)
}

func (c *PDFCanvas) FillRect(x, y, w, h float64) {
	c.FillPolygon(
		algorithms.Point{X: x, Y: y},
		algorithms.Point{X: x + w, Y: y},
		algorithms.Point{X: x + w, Y: y + h},
		algorithms.Point{X: x, Y: y + h},
	)
}

// FillRoundedRect approximates each corner with a short polyline.
func (c *PDFCanvas) FillRoundedRect(x, y, w, h, r float64) {
	r = math.Min(r, math.Min(w, h)/2)
	const steps = 6
	corners := []struct{ cx, cy, start float64 }{
		{x + w - r, y + r, -math.Pi / 2},
		{x + w - r, y + h - r, 0},
		{x + r, y + h - r, math.Pi / 2},
		{x + r, y + r, math.Pi},
	}
	pts := make([]algorithms.Point, 0, len(corners)*(steps+1))
	for _, k := range corners {
		for i := 0; i <= steps; i++ {
			ang := k.start + float64(i)*(math.Pi/2)/steps
			pts = append(pts, algorithms.Point{X: k.cx + r*math.Cos(ang), Y: k.cy + r*math.Sin(ang)})
		}
	}
	c.FillPolygon(pts...)
}

func (c *PDFCanvas) FillPolygon(pts ...algorithms.Point) {
	if len(pts) < 3 {
		return
	}
	out := make([]gofpdf.PointType, len(pts))
	for i, p := range pts {
		q := c.matrix.Apply(p)
		out[i] = gofpdf.PointType{X: q.X, Y: q.Y}
	}
	c.useFill()
	c.pdf.Polygon(out, "F")
}

func (c *PDFCanvas) FillCircle(x, y, r float64) {
	p := c.matrix.Apply(algorithms.Point{X: x, Y: y})
	c.useFill()
	c.pdf.Circle(p.X, p.Y, r*c.scale(), "F")
}

func (c *PDFCanvas) StrokeCircle(x, y, r float64) {
	p := c.matrix.Apply(algorithms.Point{X: x, Y: y})
	c.useStroke()
	c.pdf.Circle(p.X, p.Y, r*c.scale(), "D")
}

// Text is placed at the transformed anchor and is never rotated.
func (c *PDFCanvas) Text(s string, x, y, size float64, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	p := c.matrix.Apply(algorithms.Point{X: x, Y: y})
	n, a := c.paint(c.state.fill)
	c.pdf.SetAlpha(a, "Normal")
	c.pdf.SetTextColor(int(n.R), int(n.G), int(n.B))
	c.pdf.SetFont("Helvetica", style, size)
	c.pdf.Text(p.X, p.Y, s)
}

// WriteTo finishes the document.
func (c *PDFCanvas) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if err := c.pdf.Output(&buf); err != nil {
		return 0, fmt.Errorf("PDF 생성 실패: %w", err)
	}
	return buf.WriteTo(w)
}

func (c *PDFCanvas) useFill() {
	n, a := c.paint(c.state.fill)
	c.pdf.SetAlpha(a, "Normal")
	c.pdf.SetFillColor(int(n.R), int(n.G), int(n.B))
}

func (c *PDFCanvas) useStroke() {
	n, a := c.paint(c.state.stroke)
	c.pdf.SetAlpha(a, "Normal")
	c.pdf.SetDrawColor(int(n.R), int(n.G), int(n.B))
	c.pdf.SetLineWidth(c.state.lineWidth * c.scale())
}

func (c *PDFCanvas) paint(col color.Color) (color.NRGBA, float64) {
	n := color.NRGBAModel.Convert(col).(color.NRGBA)
	return n, float64(n.A) / 255 * c.state.alpha
}

// scale is the uniform scale factor of the current matrix.
func (c *PDFCanvas) scale() float64 {
	return math.Sqrt(math.Abs(c.matrix.A*c.matrix.D - c.matrix.B*c.matrix.C))
}

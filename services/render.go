package services

import (
	"assetmap/algorithms"
	"assetmap/models"
	"errors"
	"fmt"
	"image/color"
	"iter"
	"log/slog"
	"math"
	"time"
)

// ErrSurfaceUnavailable - 렌더 표면을 만들 수 없음 (시작 시 치명적)
var ErrSurfaceUnavailable = errors.New("render surface unavailable")

// Canvas is the 2D drawing contract shared by the raster and PDF surfaces.
// Translate and Rotate compose in local coordinates, like an HTML canvas.
type Canvas interface {
	Size() (w, h int)
	Clear()
	Save()
	Restore()
	Translate(x, y float64)
	Rotate(rad float64)
	SetAlpha(a float64)
	SetFillColor(c color.Color)
	SetStrokeColor(c color.Color)
	SetLineWidth(w float64)
	StrokeLine(x1, y1, x2, y2 float64)
	FillRect(x, y, w, h float64)
	FillRoundedRect(x, y, w, h, r float64)
	FillPolygon(pts ...algorithms.Point)
	FillCircle(x, y, r float64)
	StrokeCircle(x, y, r float64)
	Text(s string, x, y, size float64, bold bool)
}

// Surface is a canvas whose backing size can change.
type Surface interface {
	Canvas
	Resize(w, h int) error
}

// ==================== 색상 ====================

var (
	colorContainer = color.NRGBA{R: 0x1c, G: 0xa7, B: 0xe0, A: 0xff}
	colorOrder     = color.NRGBA{R: 0xcc, G: 0xa3, B: 0x1e, A: 0xff}
	colorTool      = color.NRGBA{R: 0x00, G: 0xbc, B: 0x7d, A: 0xff}
	colorHeading   = color.NRGBA{R: 0xf5, G: 0x4a, B: 0x00, A: 0xff}
	colorSelection = color.NRGBA{R: 0xe7, G: 0x00, B: 0x0b, A: 0xff}

	colorGridLine   = color.NRGBA{A: 0x4d}
	colorGridLabel  = color.NRGBA{A: 0x80}
	colorLegendBox  = color.NRGBA{R: 0x1d, G: 0x29, B: 0x2b, A: 0xbf}
	colorLegendText = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	colorLegendRow  = color.NRGBA{R: 0xf3, G: 0xf4, B: 0xf6, A: 0xff}
)

// InvalidAlpha is applied to objects whose last fix is flagged invalid.
const InvalidAlpha = 0.3

const gridStep = 10

// MaxBackingSize caps each backing-store dimension in pixels.
const MaxBackingSize = 8192

// ==================== 장면 ====================

// Scene is everything one frame needs.
type Scene struct {
	Records    iter.Seq[models.PositionRecord]
	SelectedID models.TrackedObjectID
	Selected   bool
	Lookup     DescriptorLookup
}

// PaintScene draws a full frame: grid, unselected objects, the selected
// object, then the legend.
func PaintScene(c Canvas, scene Scene) {
	w, h := c.Size()
	t := algorithms.NewPlaneTransform(models.PlaneSide, float64(w), float64(h))

	c.Clear()
	drawGrid(c, t)

	var selected *models.PositionRecord
	for rec := range scene.Records {
		if scene.Selected && rec.ObjectID == scene.SelectedID {
			r := rec
			selected = &r
			continue
		}
		drawAsset(c, t, rec, categoryOf(scene.Lookup, rec.ObjectID), false)
	}
	if selected != nil {
		drawAsset(c, t, *selected, categoryOf(scene.Lookup, selected.ObjectID), true)
	}

	drawLegend(c, float64(w))
}

func categoryOf(lookup DescriptorLookup, id models.TrackedObjectID) models.AssetCategory {
	if lookup == nil {
		return models.DefaultCategory
	}
	if d, ok := lookup.Lookup(id); ok && d.Category != "" {
		return d.Category
	}
	return models.DefaultCategory
}

func drawGrid(c Canvas, t algorithms.PlaneTransform) {
	c.Save()
	defer c.Restore()

	s := t.Scale()
	c.SetStrokeColor(colorGridLine)
	c.SetFillColor(colorGridLabel)
	c.SetLineWidth(1)

	for i := 0; i <= int(models.PlaneSide); i += gridStep {
		pos := float64(i) * s

		c.StrokeLine(pos, 0, pos, t.Height)
		if i > 0 {
			c.Text(fmt.Sprintf("%dm", i), pos+2, t.Height-5, 10, false)
		}

		c.StrokeLine(0, t.Height-pos, t.Width, t.Height-pos)
		if i > 0 && i < int(models.PlaneSide) {
			c.Text(fmt.Sprintf("%dm", i), 5, t.Height-pos-2, 10, false)
		}
	}

	c.Text("(0,0)", 5, t.Height-5, 12, true)
}

func drawAsset(c Canvas, t algorithms.PlaneTransform, rec models.PositionRecord, category models.AssetCategory, selected bool) {
	p := t.ToPixel(algorithms.Point{X: rec.X, Y: rec.Y})

	c.Save()
	defer c.Restore()

	c.Translate(p.X, p.Y)
	c.Rotate(rec.Heading)
	if rec.Valid {
		c.SetAlpha(1)
	} else {
		c.SetAlpha(InvalidAlpha)
	}

	if selected {
		c.SetStrokeColor(colorSelection)
		c.SetLineWidth(4)
		c.StrokeCircle(0, 0, 22)
	}

	switch category {
	case models.CategoryContainer:
		c.SetFillColor(colorContainer)
		c.FillRect(-12, -12, 24, 24)
	case models.CategoryOrder:
		c.SetFillColor(colorOrder)
		c.FillPolygon(
			algorithms.Point{X: 0, Y: -14},
			algorithms.Point{X: 14, Y: 10},
			algorithms.Point{X: -14, Y: 10},
		)
	default:
		c.SetFillColor(colorTool)
		c.FillCircle(0, 0, 11)
	}

	// 진행 방향 화살표
	c.SetStrokeColor(colorHeading)
	c.SetLineWidth(3)
	c.StrokeLine(0, 0, 24, 0)
	c.SetFillColor(colorHeading)
	c.FillPolygon(
		algorithms.Point{X: 24, Y: 0},
		algorithms.Point{X: 16, Y: -6},
		algorithms.Point{X: 16, Y: 6},
	)
}

func drawLegend(c Canvas, width float64) {
	x := width - 170
	top := 20.0
	y := top + 20

	c.Save()
	defer c.Restore()

	c.SetFillColor(colorLegendBox)
	c.FillRoundedRect(x-10, top, 160, 115, 8)
	c.SetFillColor(colorLegendText)
	c.Text("ASSET LEGEND", x, top+18, 16, true)

	rows := []struct {
		label    string
		category models.AssetCategory
		color    color.Color
	}{
		{"Container", models.CategoryContainer, colorContainer},
		{"Order", models.CategoryOrder, colorOrder},
		{"Tool", models.CategoryTool, colorTool},
	}

	for _, row := range rows {
		y += 25
		c.SetFillColor(row.color)
		switch row.category {
		case models.CategoryContainer:
			c.FillRect(x, y-10, 12, 12)
		case models.CategoryTool:
			c.FillCircle(x+6, y-4, 6)
		default:
			c.FillPolygon(
				algorithms.Point{X: x + 6, Y: y - 12},
				algorithms.Point{X: x + 12, Y: y},
				algorithms.Point{X: x, Y: y},
			)
		}
		c.SetFillColor(colorLegendRow)
		c.Text(row.label, x+25, y, 16, true)
	}
}

// ==================== 엔진 ====================

// RenderEngine repaints the surface once per position store update. It runs
// on the main lane.
type RenderEngine struct {
	surface   Surface
	store     *PositionStore
	selection *SelectionState
	lookup    DescriptorLookup
	logger    *slog.Logger
	metrics   *PipelineMetrics

	viewport models.Viewport
	frames   uint64
}

// NewRenderEngine sizes the surface for vp and registers the engine as a
// store watcher.
func NewRenderEngine(surface Surface, store *PositionStore, selection *SelectionState, lookup DescriptorLookup, vp models.Viewport, logger *slog.Logger, metrics *PipelineMetrics) (*RenderEngine, error) {
	if surface == nil {
		return nil, fmt.Errorf("%w: no surface", ErrSurfaceUnavailable)
	}
	if logger == nil {
		logger = slog.Default()
	}
	e := &RenderEngine{
		surface:   surface,
		store:     store,
		selection: selection,
		lookup:    lookup,
		logger:    logger,
		metrics:   metrics,
	}
	if err := e.Resize(vp.CSSWidth, vp.CSSHeight, vp.DevicePixelRatio); err != nil {
		return nil, err
	}

	store.Watch(func(uint64) { e.Paint() })
	return e, nil
}

// Resize re-syncs the backing store with the CSS size and pixel ratio. The
// next update repaints.
func (e *RenderEngine) Resize(cssW, cssH, dpr float64) error {
	vp, err := backingViewport(cssW, cssH, dpr)
	if err != nil {
		return err
	}
	if err := e.surface.Resize(vp.BackingWidth, vp.BackingHeight); err != nil {
		return fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	e.viewport = vp
	e.logger.Debug("렌더 표면 크기 변경", "css_width", cssW, "css_height", cssH, "dpr", dpr)
	return nil
}

func backingViewport(cssW, cssH, dpr float64) (models.Viewport, error) {
	for _, v := range []float64{cssW, cssH, dpr} {
		if !(v > 0) || math.IsInf(v, 0) {
			return models.Viewport{}, fmt.Errorf("%w: size %vx%v @%v", ErrSurfaceUnavailable, cssW, cssH, dpr)
		}
	}
	vp := models.Viewport{
		CSSWidth:         cssW,
		CSSHeight:        cssH,
		DevicePixelRatio: dpr,
		BackingWidth:     int(math.Round(cssW * dpr)),
		BackingHeight:    int(math.Round(cssH * dpr)),
	}
	if vp.BackingWidth <= 0 || vp.BackingHeight <= 0 {
		return models.Viewport{}, fmt.Errorf("%w: empty backing store", ErrSurfaceUnavailable)
	}
	if vp.BackingWidth > MaxBackingSize || vp.BackingHeight > MaxBackingSize {
		return models.Viewport{}, fmt.Errorf("%w: backing store %dx%d exceeds %d", ErrSurfaceUnavailable, vp.BackingWidth, vp.BackingHeight, MaxBackingSize)
	}
	return vp, nil
}

// Paint draws the current store contents and selection.
func (e *RenderEngine) Paint() {
	start := time.Now()

	id, ok := e.selection.Selected()
	PaintScene(e.surface, Scene{
		Records:    e.store.All(),
		SelectedID: id,
		Selected:   ok,
		Lookup:     e.lookup,
	})

	e.frames++
	e.metrics.repainted(time.Since(start).Seconds())
}

func (e *RenderEngine) Viewport() models.Viewport {
	return e.viewport
}

// Transform - 현재 backing 크기 기준 좌표 변환
func (e *RenderEngine) Transform() algorithms.PlaneTransform {
	return algorithms.NewPlaneTransform(models.PlaneSide, float64(e.viewport.BackingWidth), float64(e.viewport.BackingHeight))
}

// Frames counts repaints since start.
func (e *RenderEngine) Frames() uint64 {
	return e.frames
}

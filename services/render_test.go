package services

import (
	"assetmap/algorithms"
	"assetmap/models"
	"errors"
	"fmt"
	"image/color"
	"slices"
	"strings"
	"testing"
)

// recordingCanvas logs draw calls and tracks alpha through Save/Restore.
type recordingCanvas struct {
	w, h   int
	alpha  float64
	fill   color.Color
	stack  []float64
	calls  []string
	resize error
}

func newRecordingCanvas() *recordingCanvas {
	return &recordingCanvas{alpha: 1}
}

func (c *recordingCanvas) Resize(w, h int) error {
	if c.resize != nil {
		return c.resize
	}
	c.w, c.h = w, h
	return nil
}

func (c *recordingCanvas) Size() (int, int) { return c.w, c.h }

func (c *recordingCanvas) Clear() {
	c.calls = append(c.calls, "clear")
}

func (c *recordingCanvas) Save() { c.stack = append(c.stack, c.alpha) }

func (c *recordingCanvas) Restore() {
	c.alpha = c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
}

func (c *recordingCanvas) Translate(x, y float64) {
	c.calls = append(c.calls, fmt.Sprintf("translate %.0f,%.0f", x, y))
}

func (c *recordingCanvas) Rotate(rad float64) {}

func (c *recordingCanvas) SetAlpha(a float64) { c.alpha = a }

func (c *recordingCanvas) SetFillColor(col color.Color) { c.fill = col }

func (c *recordingCanvas) SetStrokeColor(col color.Color) {}

func (c *recordingCanvas) SetLineWidth(w float64) {}

func (c *recordingCanvas) StrokeLine(x1, y1, x2, y2 float64) {
	c.calls = append(c.calls, "line")
}

func (c *recordingCanvas) FillRect(x, y, w, h float64) {
	c.calls = append(c.calls, fmt.Sprintf("rect alpha=%.1f", c.alpha))
}

func (c *recordingCanvas) FillRoundedRect(x, y, w, h, r float64) {
	c.calls = append(c.calls, "legend")
}

func (c *recordingCanvas) FillPolygon(pts ...algorithms.Point) {
	c.calls = append(c.calls, fmt.Sprintf("polygon alpha=%.1f", c.alpha))
}

func (c *recordingCanvas) FillCircle(x, y, r float64) {
	c.calls = append(c.calls, fmt.Sprintf("circle alpha=%.1f", c.alpha))
}

func (c *recordingCanvas) StrokeCircle(x, y, r float64) {
	c.calls = append(c.calls, "ring")
}

func (c *recordingCanvas) Text(s string, x, y, size float64, bold bool) {
	c.calls = append(c.calls, "text "+s)
}

func (c *recordingCanvas) index(prefix string) int {
	return slices.IndexFunc(c.calls, func(s string) bool { return strings.HasPrefix(s, prefix) })
}

type staticLookup map[models.TrackedObjectID]models.AssetDescriptor

func (l staticLookup) Lookup(id models.TrackedObjectID) (models.AssetDescriptor, bool) {
	d, ok := l[id]
	return d, ok
}

func newTestEngine(t *testing.T, lookup DescriptorLookup) (*RenderEngine, *recordingCanvas, *PositionStore, *SelectionState) {
	t.Helper()
	canvas := newRecordingCanvas()
	store := NewPositionStore()
	sel := NewSelectionState()
	engine, err := NewRenderEngine(canvas, store, sel, lookup, models.Viewport{CSSWidth: 400, CSSHeight: 400, DevicePixelRatio: 2}, nil, nil)
	if err != nil {
		t.Fatalf("engine init failed: %v", err)
	}
	return engine, canvas, store, sel
}

func TestRenderEngineSizesBackingStore(t *testing.T) {
	engine, canvas, _, _ := newTestEngine(t, nil)

	if canvas.w != 800 || canvas.h != 800 {
		t.Fatalf("expected 800x800 backing store, got %dx%d", canvas.w, canvas.h)
	}
	if engine.Transform().Scale() != 8 {
		t.Fatalf("expected 8 px/m, got %v", engine.Transform().Scale())
	}
	if engine.Frames() != 0 {
		t.Fatal("resize must not paint")
	}
}

func TestRenderEngineRepaintsOncePerIngest(t *testing.T) {
	engine, _, store, sel := newTestEngine(t, nil)

	mustIngest(t, store, wire(1, 10, 10))
	mustIngest(t, store, wire(1, 11, 10))
	mustIngest(t, store, wire(2, 50, 50))
	if engine.Frames() != 3 {
		t.Fatalf("expected 3 frames, got %d", engine.Frames())
	}

	sel.Select(1)
	sel.Clear()
	if engine.Frames() != 3 {
		t.Fatalf("selection change must not repaint, got %d frames", engine.Frames())
	}

	_, _ = store.Ingest(models.WireRecord{})
	if engine.Frames() != 3 {
		t.Fatalf("rejected record must not repaint, got %d frames", engine.Frames())
	}
}

func TestPaintOrderDrawsSelectedLast(t *testing.T) {
	lookup := staticLookup{
		1: {ID: 1, Category: models.CategoryContainer},
		2: {ID: 2, Category: models.CategoryOrder},
	}
	_, canvas, store, sel := newTestEngine(t, lookup)
	mustIngest(t, store, wire(1, 10, 10))
	sel.Select(1)

	canvas.calls = nil
	mustIngest(t, store, wire(2, 50, 50))

	if canvas.calls[0] != "clear" {
		t.Fatalf("expected clear first, got %v", canvas.calls[0])
	}
	grid := canvas.index("text (0,0)")
	ring := canvas.index("ring")
	rect := canvas.index("rect")
	legend := canvas.index("legend")
	order := canvas.index("translate 400,400")

	if grid < 0 || ring < 0 || rect < 0 || legend < 0 || order < 0 {
		t.Fatalf("missing draw calls: %v", canvas.calls)
	}
	if !(grid < order && order < ring && ring < rect && rect < legend) {
		t.Fatalf("unexpected order grid=%d order=%d ring=%d rect=%d legend=%d", grid, order, ring, rect, legend)
	}
	if strings.Count(strings.Join(canvas.calls, "|"), "ring") != 1 {
		t.Fatal("expected exactly one selection ring")
	}
}

func TestPaintDimsInvalidRecords(t *testing.T) {
	_, canvas, store, _ := newTestEngine(t, nil)

	invalid := models.EncodeWireRecord(models.PositionRecord{ObjectID: 3, X: 20, Y: 20, Valid: false, ObservedAt: t0})
	mustIngest(t, store, invalid)

	// 메타데이터가 없으면 tool(원)로 그림
	if canvas.index("circle alpha=0.3") < 0 {
		t.Fatalf("expected dimmed tool marker, got %v", canvas.calls)
	}

	canvas.calls = nil
	mustIngest(t, store, wire(3, 20, 20))
	if canvas.index("circle alpha=1.0") < 0 {
		t.Fatalf("expected opaque marker, got %v", canvas.calls)
	}
}

func TestRenderEngineSurfaceErrors(t *testing.T) {
	if _, err := NewRenderEngine(nil, NewPositionStore(), NewSelectionState(), nil, models.Viewport{CSSWidth: 1, CSSHeight: 1, DevicePixelRatio: 1}, nil, nil); !errors.Is(err, ErrSurfaceUnavailable) {
		t.Fatalf("expected ErrSurfaceUnavailable for nil surface, got %v", err)
	}

	canvas := newRecordingCanvas()
	canvas.resize = errors.New("out of memory")
	if _, err := NewRenderEngine(canvas, NewPositionStore(), NewSelectionState(), nil, models.Viewport{CSSWidth: 1, CSSHeight: 1, DevicePixelRatio: 1}, nil, nil); !errors.Is(err, ErrSurfaceUnavailable) {
		t.Fatalf("expected ErrSurfaceUnavailable for failing resize, got %v", err)
	}

	engine, _, _, _ := newTestEngine(t, nil)
	for _, vp := range [][3]float64{{0, 100, 1}, {100, -1, 1}, {100, 100, 0}, {100000, 100000, 3}, {4097, 10, 2}} {
		if err := engine.Resize(vp[0], vp[1], vp[2]); !errors.Is(err, ErrSurfaceUnavailable) {
			t.Fatalf("expected error for %v, got %v", vp, err)
		}
	}
	if engine.Viewport().BackingWidth != 800 {
		t.Fatal("failed resize must keep the previous viewport")
	}
}

func TestBackingViewportAcceptsMaxSize(t *testing.T) {
	vp, err := backingViewport(4096, 2048, 2)
	if err != nil {
		t.Fatalf("expected %d px to be accepted, got %v", MaxBackingSize, err)
	}
	if vp.BackingWidth != MaxBackingSize || vp.BackingHeight != 4096 {
		t.Fatalf("unexpected backing size %dx%d", vp.BackingWidth, vp.BackingHeight)
	}
}

func TestRasterCanvasEncodesPNG(t *testing.T) {
	c, err := NewRasterCanvas(200, 100)
	if err != nil {
		t.Fatalf("raster init failed: %v", err)
	}
	store := NewPositionStore()
	mustIngest(t, store, wire(1, 50, 50))
	PaintScene(c, Scene{Records: store.All()})

	if w, h := c.Size(); w != 200 || h != 100 {
		t.Fatalf("expected 200x100, got %dx%d", w, h)
	}

	var buf strings.Builder
	if err := c.EncodePNG(&buf); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "\x89PNG") {
		t.Fatal("expected PNG signature")
	}
}

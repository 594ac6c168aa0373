package algorithms

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPlaneTransformScaleUsesShortSide(t *testing.T) {
	tr := NewPlaneTransform(100, 800, 600)
	if tr.Scale() != 6 {
		t.Fatalf("expected scale 6, got %v", tr.Scale())
	}
}

func TestPlaneTransformFlipsY(t *testing.T) {
	tr := NewPlaneTransform(100, 500, 500)

	origin := tr.ToPixel(Point{0, 0})
	if origin.X != 0 || origin.Y != 500 {
		t.Fatalf("origin should map to bottom-left, got %+v", origin)
	}

	p := tr.ToPixel(Point{10, 20})
	if p.X != 50 || p.Y != 400 {
		t.Fatalf("unexpected pixel %+v", p)
	}
}

func TestPlaneTransformInverse(t *testing.T) {
	tr := NewPlaneTransform(100, 1280, 720)
	for _, q := range []Point{{0, 0}, {10, 20}, {99.5, 0.25}, {50, 50}} {
		back := tr.ToLogical(tr.ToPixel(q))
		if !almostEqual(back.X, q.X) || !almostEqual(back.Y, q.Y) {
			t.Fatalf("inverse mismatch for %+v: %+v", q, back)
		}
	}
}

func TestPlaneTransformStable(t *testing.T) {
	a := NewPlaneTransform(100, 640, 480)
	b := NewPlaneTransform(100, 640, 480)
	if a != b || a.ToPixel(Point{33, 44}) != b.ToPixel(Point{33, 44}) {
		t.Fatalf("transform should be deterministic for equal sizes")
	}
}

func TestCSSToBacking(t *testing.T) {
	p := CSSToBacking(Point{100, 50}, 400, 300, 800, 600)
	if p.X != 200 || p.Y != 100 {
		t.Fatalf("unexpected backing point %+v", p)
	}
}

func TestAffineTranslateRotate(t *testing.T) {
	m := Identity().Translate(10, 20).Rotate(math.Pi / 2)

	// local +x turns to screen +y (clockwise with y down)
	p := m.Apply(Point{24, 0})
	if !almostEqual(p.X, 10) || !almostEqual(p.Y, 44) {
		t.Fatalf("unexpected point %+v", p)
	}

	if got := Identity().Apply(Point{3, 4}); got != (Point{3, 4}) {
		t.Fatalf("identity changed point: %+v", got)
	}
}

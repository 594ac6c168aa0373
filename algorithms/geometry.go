package algorithms

import "math"

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance - 유클리드 거리
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Affine is a 2D affine matrix [A C E; B D F] in canvas order.
type Affine struct {
	A, B, C, D, E, F float64
}

func Identity() Affine {
	return Affine{A: 1, D: 1}
}

// Multiply returns m·n, i.e. n is applied first.
func (m Affine) Multiply(n Affine) Affine {
	return Affine{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

// Translate applies a translation in local coordinates.
func (m Affine) Translate(x, y float64) Affine {
	return m.Multiply(Affine{A: 1, D: 1, E: x, F: y})
}

// Rotate applies a rotation in local coordinates. With the y axis pointing
// down, a positive angle turns clockwise on screen.
func (m Affine) Rotate(rad float64) Affine {
	sin, cos := math.Sincos(rad)
	return m.Multiply(Affine{A: cos, B: sin, C: -sin, D: cos})
}

func (m Affine) Apply(p Point) Point {
	return Point{
		X: m.A*p.X + m.C*p.Y + m.E,
		Y: m.B*p.X + m.D*p.Y + m.F,
	}
}

package vmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Matrix is a 3x3 orientation. Row 0 is the Right axis, row 1 Up, row 2 Backward.
type Matrix [3][3]float64

// Identity returns the orientation aligned with its parent frame.
func Identity() Matrix {
	return Matrix{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// FromAxes builds an orientation from its right, up and backward axes.
func FromAxes(right, up, backward r3.Vector) Matrix {
	return Matrix{
		{right.X, right.Y, right.Z},
		{up.X, up.Y, up.Z},
		{backward.X, backward.Y, backward.Z},
	}
}

func (m Matrix) row(i int) r3.Vector {
	return r3.Vector{X: m[i][0], Y: m[i][1], Z: m[i][2]}
}

func (m Matrix) Right() r3.Vector    { return m.row(0) }
func (m Matrix) Left() r3.Vector     { return m.row(0).Mul(-1) }
func (m Matrix) Up() r3.Vector       { return m.row(1) }
func (m Matrix) Down() r3.Vector     { return m.row(1).Mul(-1) }
func (m Matrix) Backward() r3.Vector { return m.row(2) }
func (m Matrix) Forward() r3.Vector  { return m.row(2).Mul(-1) }

// Axis returns the cardinal direction d of the frame, expressed in the parent frame.
func (m Matrix) Axis(d Direction) r3.Vector {
	return m.TransformNormal(d.Vector())
}

// TransformNormal maps a direction from this frame into the parent frame.
func (m Matrix) TransformNormal(v r3.Vector) r3.Vector {
	return m.row(0).Mul(v.X).Add(m.row(1).Mul(v.Y)).Add(m.row(2).Mul(v.Z))
}

// Mul composes m then n: v.Mul(m).Mul(n) == v.Mul(m.Mul(n)).
func (m Matrix) Mul(n Matrix) Matrix {
	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[i][0]*n[0][j] + m[i][1]*n[1][j] + m[i][2]*n[2][j]
		}
	}
	return out
}

// Transpose returns the transposed matrix.
func (m Matrix) Transpose() Matrix {
	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = m[j][i]
		}
	}
	return out
}

// Inverse returns the inverse of m. A singular m falls back to its transpose,
// which is the inverse whenever m is a rotation.
func (m Matrix) Inverse() Matrix {
	a := mat.NewDense(3, 3, []float64{
		m[0][0], m[0][1], m[0][2],
		m[1][0], m[1][1], m[1][2],
		m[2][0], m[2][1], m[2][2],
	})

	var inv mat.Dense
	if err := inv.Inverse(a); err != nil {
		return m.Transpose()
	}

	var out Matrix
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = inv.At(i, j)
		}
	}
	return out
}

// RotationX rotates about the right axis; positive angles pitch the nose up.
func RotationX(angle float64) Matrix {
	s, c := math.Sincos(angle)
	return Matrix{
		{1, 0, 0},
		{0, c, s},
		{0, -s, c},
	}
}

// RotationY rotates about the up axis.
func RotationY(angle float64) Matrix {
	s, c := math.Sincos(angle)
	return Matrix{
		{c, 0, -s},
		{0, 1, 0},
		{s, 0, c},
	}
}

// RotationZ rotates about the backward axis; positive angles roll the right wing up.
func RotationZ(angle float64) Matrix {
	s, c := math.Sincos(angle)
	return Matrix{
		{c, s, 0},
		{-s, c, 0},
		{0, 0, 1},
	}
}

// Orthonormalize re-orthogonalizes an orientation that has drifted through integration.
func (m Matrix) Orthonormalize() Matrix {
	right := m.Right().Normalize()
	up := m.Up().Sub(right.Mul(right.Dot(m.Up()))).Normalize()
	backward := right.Cross(up)
	return FromAxes(right, up, backward)
}

// AxisAngle rotates right-handedly about axis by angle. A zero axis yields Identity.
func AxisAngle(axis r3.Vector, angle float64) Matrix {
	if axis.Norm2() == 0 || angle == 0 {
		return Identity()
	}
	k := axis.Normalize()
	s, c := math.Sincos(angle)
	t := 1 - c
	return Matrix{
		{c + t*k.X*k.X, t*k.X*k.Y + s*k.Z, t*k.X*k.Z - s*k.Y},
		{t*k.Y*k.X - s*k.Z, c + t*k.Y*k.Y, t*k.Y*k.Z + s*k.X},
		{t*k.Z*k.X + s*k.Y, t*k.Z*k.Y - s*k.X, c + t*k.Z*k.Z},
	}
}

package vmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func assertVec(t *testing.T, want, got r3.Vector) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "x")
	assert.InDelta(t, want.Y, got.Y, eps, "y")
	assert.InDelta(t, want.Z, got.Z, eps, "z")
}

func TestDirection_OppositePairs(t *testing.T) {
	for _, d := range Directions {
		assert.Equal(t, d, d.Opposite().Opposite())
		assertVec(t, d.Vector().Mul(-1), d.Opposite().Vector())
	}
	assert.Equal(t, Backward, Forward.Opposite())
	assert.Equal(t, Right, Left.Opposite())
	assert.Equal(t, Down, Up.Opposite())
}

func TestDirection_String(t *testing.T) {
	assert.Equal(t, "forward", Forward.String())
	assert.Equal(t, "down", Down.String())
	assert.Equal(t, "unknown", Direction(42).String())
}

func TestDirectionOf(t *testing.T) {
	for _, d := range Directions {
		got, ok := DirectionOf(d.Vector())
		assert.True(t, ok)
		assert.Equal(t, d, got)
	}

	_, ok := DirectionOf(r3.Vector{X: 1, Y: 1, Z: 0}.Normalize())
	assert.False(t, ok, "diagonal vector must not match")

	_, ok = DirectionOf(r3.Vector{})
	assert.False(t, ok)

	got, ok := DirectionOf(r3.Vector{X: 1e-8, Y: 1, Z: -1e-8})
	assert.True(t, ok)
	assert.Equal(t, Up, got)
}

func TestMatrix_IdentityAxes(t *testing.T) {
	m := Identity()
	for _, d := range Directions {
		assertVec(t, d.Vector(), m.Axis(d))
	}
	assertVec(t, Forward.Vector(), m.Forward())
	assertVec(t, Left.Vector(), m.Left())
	assertVec(t, Down.Vector(), m.Down())
}

func TestMatrix_RotationXPitchesNoseUp(t *testing.T) {
	m := RotationX(math.Pi / 2)
	assertVec(t, r3.Vector{Y: 1}, m.Forward())
	assertVec(t, r3.Vector{Z: 1}, m.Up())
}

func TestMatrix_RotationZRollsRightWingUp(t *testing.T) {
	m := RotationZ(math.Pi / 2)
	assertVec(t, r3.Vector{Y: 1}, m.Right())
}

func TestMatrix_AxisAngleMatchesElementalRotations(t *testing.T) {
	a := 0.7
	for name, tc := range map[string]struct {
		axis r3.Vector
		want Matrix
	}{
		"x": {r3.Vector{X: 1}, RotationX(a)},
		"y": {r3.Vector{Y: 1}, RotationY(a)},
		"z": {r3.Vector{Z: 1}, RotationZ(a)},
	} {
		t.Run(name, func(t *testing.T) {
			got := AxisAngle(tc.axis, a)
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					assert.InDelta(t, tc.want[i][j], got[i][j], eps)
				}
			}
		})
	}
	assert.Equal(t, Identity(), AxisAngle(r3.Vector{}, 1))
}

func TestMatrix_InverseOfRotationIsTranspose(t *testing.T) {
	m := RotationX(0.3).Mul(RotationY(-1.1)).Mul(RotationZ(2.0))
	inv := m.Inverse()
	tr := m.Transpose()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, tr[i][j], inv[i][j], 1e-9)
		}
	}

	v := r3.Vector{X: 0.2, Y: -3, Z: 7}
	assertVec(t, v, inv.TransformNormal(m.TransformNormal(v)))
}

func TestMatrix_InverseGeneral(t *testing.T) {
	m := Matrix{{2, 0, 0}, {0, 4, 0}, {0, 0, 0.5}}
	inv := m.Inverse()
	assert.InDelta(t, 0.5, inv[0][0], eps)
	assert.InDelta(t, 0.25, inv[1][1], eps)
	assert.InDelta(t, 2, inv[2][2], eps)
}

func TestMatrix_InverseSingularFallsBackToTranspose(t *testing.T) {
	m := Matrix{{1, 2, 3}, {2, 4, 6}, {0, 0, 1}}
	assert.Equal(t, m.Transpose(), m.Inverse())
}

func TestMatrix_MulComposes(t *testing.T) {
	a := RotationX(0.4)
	b := RotationY(1.3)
	v := r3.Vector{X: 1, Y: 2, Z: 3}
	assertVec(t, b.TransformNormal(a.TransformNormal(v)), a.Mul(b).TransformNormal(v))
}

func TestMatrix_Orthonormalize(t *testing.T) {
	m := RotationY(0.5)
	m[0][0] *= 1.01
	m[1][2] += 0.001
	o := m.Orthonormalize()
	assert.InDelta(t, 1, o.Right().Norm(), eps)
	assert.InDelta(t, 1, o.Up().Norm(), eps)
	assert.InDelta(t, 0, o.Right().Dot(o.Up()), eps)
	assert.InDelta(t, 0, o.Up().Dot(o.Backward()), eps)
}

func TestPositivePart(t *testing.T) {
	assert.Equal(t, 0.0, PositivePart(-2))
	assert.Equal(t, 3.5, PositivePart(3.5))
}

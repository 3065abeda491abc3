// Package vmath holds the vector and orientation math shared by the flight core.
//
// Frames follow the host convention: +X right, +Y up, +Z backward, so Forward is -Z.
// Vectors are row vectors; a Matrix maps a local vector v to v*M.
package vmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Direction is one of the six cardinal axes of a frame.
type Direction int

const (
	Forward Direction = iota
	Backward
	Left
	Right
	Up
	Down
)

// Directions lists every cardinal direction in group order.
var Directions = [6]Direction{Forward, Backward, Left, Right, Up, Down}

// AxisTolerance is the per-component slack allowed when matching a unit vector to a cardinal axis.
const AxisTolerance = 1e-6

var directionNames = [6]string{"forward", "backward", "left", "right", "up", "down"}

var directionVectors = [6]r3.Vector{
	{X: 0, Y: 0, Z: -1},
	{X: 0, Y: 0, Z: 1},
	{X: -1, Y: 0, Z: 0},
	{X: 1, Y: 0, Z: 0},
	{X: 0, Y: 1, Z: 0},
	{X: 0, Y: -1, Z: 0},
}

func (d Direction) String() string {
	if d < Forward || d > Down {
		return "unknown"
	}
	return directionNames[d]
}

// Vector returns the unit vector of d.
func (d Direction) Vector() r3.Vector {
	return directionVectors[d]
}

// Opposite returns the direction pointing the other way.
func (d Direction) Opposite() Direction {
	// pairs are laid out as (Forward, Backward), (Left, Right), (Up, Down)
	return d ^ 1
}

// DirectionOf reports which cardinal direction v points along.
// Vectors that are not unit-length and axis-aligned within AxisTolerance match nothing.
func DirectionOf(v r3.Vector) (Direction, bool) {
	for _, d := range Directions {
		u := directionVectors[d]
		if math.Abs(v.X-u.X) <= AxisTolerance &&
			math.Abs(v.Y-u.Y) <= AxisTolerance &&
			math.Abs(v.Z-u.Z) <= AxisTolerance {
			return d, true
		}
	}
	return 0, false
}

// PositivePart returns max(0, x).
func PositivePart(x float64) float64 {
	return math.Max(0, x)
}

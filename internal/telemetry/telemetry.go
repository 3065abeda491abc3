// Package telemetry defines the per-tick vehicle and pilot snapshots the controllers read.
package telemetry

import (
	"github.com/golang/geo/r3"

	"github.com/skyhook-ctl/flightcore/internal/vmath"
)

// VehicleState is the vehicle's world-frame state for one tick.
type VehicleState struct {
	Orientation    vmath.Matrix
	LinearVelocity r3.Vector
	Gravity        r3.Vector
}

// PilotInput is the pilot's control state for one tick.
type PilotInput struct {
	// Move is lateral (X), vertical (Y) and longitudinal (Z), each in [-1,1].
	Move r3.Vector
	// Rotation is pitch (X) and yaw (Y); Z is ignored.
	Rotation  r3.Vector
	Roll      float64
	Dampeners bool
}

// Snapshot is an immutable view of the host for one tick.
type Snapshot struct {
	Vehicle VehicleState
	Pilot   PilotInput
}

// Source supplies snapshots and the vehicle mass.
type Source interface {
	Snapshot() Snapshot
	// Mass in kilograms. Read on the refresh cadence, not every tick.
	Mass() float64
}

// GravityDirection returns the unit gravity vector, or zero when there is no gravity.
func (s VehicleState) GravityDirection() r3.Vector {
	return s.Gravity.Normalize()
}

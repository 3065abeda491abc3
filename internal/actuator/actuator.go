// Package actuator declares what the flight core needs from the host's thrusters and gyroscopes.
// Discovery and ownership stay with the host; the core only holds references.
package actuator

import (
	"github.com/golang/geo/r3"

	"github.com/skyhook-ctl/flightcore/internal/vmath"
)

// ForceActuator produces thrust along one fixed direction.
type ForceActuator interface {
	// ThrustDirection is the unit exhaust direction in the vehicle frame.
	ThrustDirection() r3.Vector
	// MaxEffectiveThrust is the force in newtons the actuator can deliver right now.
	MaxEffectiveThrust() float64
	// SetThrustOverride commands an absolute force in newtons.
	SetThrustOverride(newtons float64)
	// SetThrustOverridePercentage commands a fraction of MaxEffectiveThrust.
	SetThrustOverridePercentage(fraction float64)
}

// TorqueActuator rotates the vehicle on three independent rate channels.
type TorqueActuator interface {
	// Orientation of the actuator in the vehicle frame.
	Orientation() vmath.Matrix
	SetOverride(enabled bool)
	SetPower(fraction float64)
	// SetRates takes radians per second on the actuator's own pitch, yaw and roll channels.
	SetRates(pitch, yaw, roll float64)
}

// Inventory enumerates the actuators currently installed on the vehicle.
type Inventory interface {
	ForceActuators() []ForceActuator
	TorqueActuators() []TorqueActuator
}

// Package thrust synthesizes the world-frame acceleration the vehicle should produce each tick.
package thrust

import (
	"github.com/golang/geo/r3"
	"github.com/rs/zerolog"

	"github.com/skyhook-ctl/flightcore/internal/options"
	"github.com/skyhook-ctl/flightcore/internal/telemetry"
)

// Alignment selects how pilot move input is mapped into the world frame.
type Alignment int

const (
	// GravityAligned moves relative to the local horizon and vertical.
	GravityAligned Alignment = iota
	// ControllerAligned moves along the vehicle's own axes.
	ControllerAligned
)

func (a Alignment) String() string {
	if a == ControllerAligned {
		return "controller"
	}
	return "gravity"
}

// Budget is the part of the flight computer the controller drives.
type Budget interface {
	Mass() float64
	MaxEffectiveThrustInDirection(direction r3.Vector) float64
	CommandWorldThrust(accel r3.Vector)
}

// Controller turns pilot movement into a thrust command with gravity and velocity compensation.
type Controller struct {
	fc        Budget
	logger    zerolog.Logger
	alignment Alignment

	alignToGravity *options.Boolean
}

// New creates a gravity-aligned controller.
func New(fc Budget, logger zerolog.Logger) *Controller {
	c := &Controller{
		fc:             fc,
		logger:         logger.With().Str("component", "thrust").Logger(),
		alignToGravity: options.NewBoolean("gravityAlignedThrust", true),
	}
	c.alignToGravity.OnChanged(c.resolveAlignment)
	c.resolveAlignment()
	return c
}

func (c *Controller) resolveAlignment() {
	if c.alignToGravity.Value() {
		c.alignment = GravityAligned
	} else {
		c.alignment = ControllerAligned
	}
	c.logger.Debug().Stringer("alignment", c.alignment).Msg("Thrust alignment resolved")
}

// Options returns the controller's named settings.
func (c *Controller) Options() []options.Option {
	return []options.Option{c.alignToGravity}
}

// Alignment returns the active input mapping.
func (c *Controller) Alignment() Alignment {
	return c.alignment
}

// SetAlignment switches the input mapping.
func (c *Controller) SetAlignment(a Alignment) {
	c.alignToGravity.Set(a == GravityAligned)
}

// Decompose maps the pilot's move vector into a world-frame direction for the active alignment.
// With gravity alignment and no gravity the result is zero.
func (c *Controller) Decompose(gravityDirection r3.Vector, state telemetry.VehicleState, input telemetry.PilotInput) r3.Vector {
	m := state.Orientation
	switch c.alignment {
	case ControllerAligned:
		return m.TransformNormal(input.Move)
	default:
		lateral := m.Backward().Cross(gravityDirection).Normalize().Mul(input.Move.X)
		longitudinal := m.Left().Cross(gravityDirection).Normalize().Mul(input.Move.Z)
		vertical := gravityDirection.Mul(-input.Move.Y)
		return lateral.Add(vertical).Add(longitudinal)
	}
}

// Run computes and commands the acceleration for this tick and returns it.
func (c *Controller) Run(gravity, gravityDirection r3.Vector, state telemetry.VehicleState, input telemetry.PilotInput) r3.Vector {
	pilot := c.Decompose(gravityDirection, state, input)
	if pilot.Norm() > 0 {
		pilot = pilot.Normalize()
		if mass := c.fc.Mass(); mass > 0 {
			pilot = pilot.Mul(c.fc.MaxEffectiveThrustInDirection(pilot) / mass)
		} else {
			pilot = r3.Vector{}
		}
	}

	var velocity r3.Vector
	if input.Dampeners {
		velocity = state.LinearVelocity
	}

	// Full descent input cancels gravity compensation entirely.
	descent := max(0, -input.Move.Y)

	accel := gravity.Mul(-(1 - descent)).Sub(velocity).Add(pilot)
	c.fc.CommandWorldThrust(accel)
	return accel
}

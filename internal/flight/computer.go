// Package flight turns world-frame force and rotation demands into actuator commands.
package flight

import (
	"github.com/golang/geo/r3"
	"github.com/rs/zerolog"

	"github.com/skyhook-ctl/flightcore/internal/actuator"
	"github.com/skyhook-ctl/flightcore/internal/telemetry"
	"github.com/skyhook-ctl/flightcore/internal/vmath"
)

// Computer owns the vehicle mass, the six thruster groups and the gyroscope list.
// It is not safe for concurrent use; the control loop is its only caller.
type Computer struct {
	inventory actuator.Inventory
	vehicle   telemetry.Source
	logger    zerolog.Logger

	mass        float64
	orientation vmath.Matrix
	groups      [6]*Group
	torque      []actuator.TorqueActuator

	// fractions holds the override fraction last sent to each group, zero when skipped
	fractions [6]float64
}

// New creates a Computer and performs an initial Refresh.
func New(inv actuator.Inventory, vehicle telemetry.Source, logger zerolog.Logger) *Computer {
	c := &Computer{
		inventory:   inv,
		vehicle:     vehicle,
		logger:      logger.With().Str("component", "flight").Logger(),
		orientation: vmath.Identity(),
	}
	for _, d := range vmath.Directions {
		c.groups[d] = newGroup(d)
	}
	c.Refresh()
	return c
}

// Refresh re-reads mass and rebuilds every actuator cache.
func (c *Computer) Refresh() {
	c.RefreshMass()
	c.RefreshActuators()
}

// RefreshMass reads the current vehicle mass.
func (c *Computer) RefreshMass() {
	c.mass = c.vehicle.Mass()
}

// RefreshActuators re-partitions the force actuators into groups and takes control of
// every torque actuator.
func (c *Computer) RefreshActuators() {
	for _, g := range c.groups {
		g.reset()
	}

	excluded := 0
	for _, a := range c.inventory.ForceActuators() {
		exhaust, ok := vmath.DirectionOf(a.ThrustDirection())
		if !ok {
			excluded++
			continue
		}
		c.groups[exhaust.Opposite()].add(a)
	}
	for _, g := range c.groups {
		g.updateMaxForce()
	}

	c.torque = c.torque[:0]
	for _, t := range c.inventory.TorqueActuators() {
		t.SetOverride(true)
		t.SetPower(1.0)
		c.torque = append(c.torque, t)
	}

	c.logger.Debug().
		Int("excluded", excluded).
		Int("torque", len(c.torque)).
		Float64("mass", c.mass).
		Msg("Refreshed actuators")
}

// RefreshMaxThrust recomputes group capacities from live ratings without re-partitioning.
func (c *Computer) RefreshMaxThrust() {
	for _, g := range c.groups {
		g.updateMaxForce()
	}
}

// SetOrientation sets the vehicle's world orientation for the current tick.
func (c *Computer) SetOrientation(m vmath.Matrix) {
	c.orientation = m
}

// Orientation returns the vehicle orientation last set.
func (c *Computer) Orientation() vmath.Matrix {
	return c.orientation
}

// Mass is the vehicle mass read at the last refresh.
func (c *Computer) Mass() float64 {
	return c.mass
}

// Group returns the group pushing toward d.
func (c *Computer) Group(d vmath.Direction) *Group {
	return c.groups[d]
}

// Groups returns all six groups indexed by direction.
func (c *Computer) Groups() [6]*Group {
	return c.groups
}

// TorqueActuators returns the gyroscopes under control.
func (c *Computer) TorqueActuators() []actuator.TorqueActuator {
	return c.torque
}

// LastFractions returns the override fraction last sent to each group.
func (c *Computer) LastFractions() [6]float64 {
	return c.fractions
}

// axis is the world-frame direction group d pushes toward.
func (c *Computer) axis(d vmath.Direction) r3.Vector {
	return c.orientation.Axis(d)
}

// MaxEffectiveThrustInDirection returns the force the groups can deliver along a world-frame
// unit direction. Groups facing away contribute nothing.
func (c *Computer) MaxEffectiveThrustInDirection(direction r3.Vector) float64 {
	var total float64
	for _, g := range c.groups {
		if g.Empty() {
			continue
		}
		total += vmath.PositivePart(c.axis(g.direction).Dot(direction)) * g.maxForce
	}
	return total
}

// CommandWorldThrust commands the groups to accelerate the vehicle by accel (m/s², world frame).
func (c *Computer) CommandWorldThrust(accel r3.Vector) {
	magnitude := accel.Norm()
	if magnitude == 0 {
		for _, g := range c.groups {
			c.fractions[g.direction] = g.setOverridePercentage(MinOverride)
		}
		return
	}

	direction := accel.Mul(1 / magnitude)
	for _, g := range c.groups {
		if g.maxForce == 0 {
			c.fractions[g.direction] = 0
			continue
		}
		force := c.mass * magnitude * vmath.PositivePart(c.axis(g.direction).Dot(direction))
		c.fractions[g.direction] = g.setOverridePercentage(force / g.maxForce)
	}
}

// CommandLocalThrust is CommandWorldThrust with accel in the vehicle frame.
func (c *Computer) CommandLocalThrust(accel r3.Vector) {
	c.CommandWorldThrust(c.orientation.TransformNormal(accel))
}

// CommandWorldTorqueRate sends a world-frame rotation rate (rad/s) to every gyroscope,
// each converted into its own frame.
func (c *Computer) CommandWorldTorqueRate(rate r3.Vector) {
	for _, t := range c.torque {
		world := t.Orientation().Mul(c.orientation)
		local := world.Inverse().TransformNormal(rate)
		t.SetRates(local.X, local.Y, local.Z)
	}
}

// CommandLocalTorqueRate is CommandWorldTorqueRate with rate in the vehicle frame.
func (c *Computer) CommandLocalTorqueRate(rate r3.Vector) {
	c.CommandWorldTorqueRate(c.orientation.TransformNormal(rate))
}

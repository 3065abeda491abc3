// Package sim is a rigid-body vehicle host for the flight core: it owns thrusters,
// gyroscopes and control seats and integrates their output over time.
package sim

import (
	"time"

	"github.com/golang/geo/r3"
	"github.com/rs/zerolog"

	"github.com/skyhook-ctl/flightcore/internal/actuator"
	"github.com/skyhook-ctl/flightcore/internal/config"
	"github.com/skyhook-ctl/flightcore/internal/telemetry"
	"github.com/skyhook-ctl/flightcore/internal/vmath"
)

// Vehicle implements actuator.Inventory and telemetry.Source.
type Vehicle struct {
	logger zerolog.Logger

	mass        float64
	gravity     r3.Vector
	orientation vmath.Matrix
	position    r3.Vector
	velocity    r3.Vector

	thrusters []*Thruster
	gyros     []*Gyro
	seats     []*Seat
	seat      *Seat
}

// New builds a vehicle with ThrustersPerSide thrusters on each of the six sides, Gyros
// gyroscopes and a main cockpit, level and at rest.
func New(cfg config.SimConfig, logger zerolog.Logger) *Vehicle {
	v := &Vehicle{
		logger:      logger.With().Str("component", "sim").Logger(),
		mass:        cfg.Mass,
		gravity:     r3.Vector{Y: -cfg.Gravity},
		orientation: vmath.Identity(),
	}

	for _, d := range vmath.Directions {
		for range cfg.ThrustersPerSide {
			v.AddThruster(NewThruster(d.Vector(), cfg.ThrusterForce))
		}
	}
	for range cfg.Gyros {
		v.AddGyro(NewGyro(vmath.Identity()))
	}
	v.AddSeat(&Seat{
		Name:             "cockpit",
		MainCockpit:      true,
		CanControlShip:   true,
		ControlThrusters: true,
		Input:            telemetry.PilotInput{Dampeners: cfg.Dampeners},
	})

	v.logger.Debug().
		Float64("mass", v.mass).
		Int("thrusters", len(v.thrusters)).
		Int("gyros", len(v.gyros)).
		Msg("Vehicle assembled")
	return v
}

// AddThruster installs a thruster.
func (v *Vehicle) AddThruster(t *Thruster) { v.thrusters = append(v.thrusters, t) }

// AddGyro installs a gyroscope.
func (v *Vehicle) AddGyro(g *Gyro) { v.gyros = append(v.gyros, g) }

// AddSeat installs a seat and re-selects the controlling one.
func (v *Vehicle) AddSeat(s *Seat) {
	v.seats = append(v.seats, s)
	if selected := selectSeat(v.seats); selected != v.seat {
		v.seat = selected
		v.logger.Info().Str("seat", selected.Name).Int("score", selected.Score()).Msg("Controlling seat selected")
	}
}

// ControllingSeat returns the seat whose input drives the vehicle, or nil.
func (v *Vehicle) ControllingSeat() *Seat { return v.seat }

// SetPilotInput replaces the controlling seat's input.
func (v *Vehicle) SetPilotInput(in telemetry.PilotInput) {
	if v.seat != nil {
		v.seat.Input = in
	}
}

func (v *Vehicle) Thrusters() []*Thruster { return v.thrusters }
func (v *Vehicle) Gyros() []*Gyro         { return v.gyros }

func (v *Vehicle) Orientation() vmath.Matrix     { return v.orientation }
func (v *Vehicle) SetOrientation(m vmath.Matrix) { v.orientation = m }
func (v *Vehicle) Position() r3.Vector           { return v.position }
func (v *Vehicle) Velocity() r3.Vector           { return v.velocity }
func (v *Vehicle) SetVelocity(vel r3.Vector)     { v.velocity = vel }

// SetMass changes the vehicle mass, as cargo would.
func (v *Vehicle) SetMass(kg float64) { v.mass = kg }

// ForceActuators implements actuator.Inventory.
func (v *Vehicle) ForceActuators() []actuator.ForceActuator {
	out := make([]actuator.ForceActuator, len(v.thrusters))
	for i, t := range v.thrusters {
		out[i] = t
	}
	return out
}

// TorqueActuators implements actuator.Inventory.
func (v *Vehicle) TorqueActuators() []actuator.TorqueActuator {
	out := make([]actuator.TorqueActuator, len(v.gyros))
	for i, g := range v.gyros {
		out[i] = g
	}
	return out
}

// Mass implements telemetry.Source.
func (v *Vehicle) Mass() float64 { return v.mass }

// Snapshot implements telemetry.Source.
func (v *Vehicle) Snapshot() telemetry.Snapshot {
	var input telemetry.PilotInput
	if v.seat != nil {
		input = v.seat.Input
	}
	return telemetry.Snapshot{
		Vehicle: telemetry.VehicleState{
			Orientation:    v.orientation,
			LinearVelocity: v.velocity,
			Gravity:        v.gravity,
		},
		Pilot: input,
	}
}

// Step integrates thruster forces, gravity and gyroscope rates over dt.
func (v *Vehicle) Step(dt time.Duration) {
	seconds := dt.Seconds()
	if seconds <= 0 {
		return
	}

	var local r3.Vector
	for _, t := range v.thrusters {
		local = local.Add(t.Force())
	}
	accel := v.gravity
	if v.mass > 0 {
		accel = accel.Add(v.orientation.TransformNormal(local).Mul(1 / v.mass))
	}
	v.velocity = v.velocity.Add(accel.Mul(seconds))
	v.position = v.position.Add(v.velocity.Mul(seconds))

	if omega := v.angularVelocity(); omega.Norm2() > 0 {
		// gyro rates turn the vehicle clockwise about their axis
		v.orientation = v.orientation.Mul(vmath.AxisAngle(omega, -omega.Norm()*seconds)).Orthonormalize()
	}
}

// angularVelocity averages the world-frame rates of every overridden gyroscope.
func (v *Vehicle) angularVelocity() r3.Vector {
	var sum r3.Vector
	n := 0
	for _, g := range v.gyros {
		if !g.override {
			continue
		}
		world := g.orientation.Mul(v.orientation)
		sum = sum.Add(world.TransformNormal(g.rates).Mul(g.power))
		n++
	}
	if n == 0 {
		return r3.Vector{}
	}
	return sum.Mul(1 / float64(n))
}

package flight

import (
	"github.com/golang/geo/r3"

	"github.com/skyhook-ctl/flightcore/internal/actuator"
	"github.com/skyhook-ctl/flightcore/internal/telemetry"
	"github.com/skyhook-ctl/flightcore/internal/vmath"
)

type fakeThruster struct {
	exhaust    r3.Vector
	max        float64
	override   float64
	percentage float64
	commanded  bool
}

func newThruster(exhaust vmath.Direction, max float64) *fakeThruster {
	return &fakeThruster{exhaust: exhaust.Vector(), max: max, percentage: -1}
}

func (f *fakeThruster) ThrustDirection() r3.Vector        { return f.exhaust }
func (f *fakeThruster) MaxEffectiveThrust() float64       { return f.max }
func (f *fakeThruster) SetThrustOverride(newtons float64) { f.override = newtons }
func (f *fakeThruster) SetThrustOverridePercentage(fraction float64) {
	f.percentage = fraction
	f.commanded = true
}

type fakeGyro struct {
	orientation      vmath.Matrix
	override         bool
	power            float64
	pitch, yaw, roll float64
}

func (g *fakeGyro) Orientation() vmath.Matrix { return g.orientation }
func (g *fakeGyro) SetOverride(enabled bool)  { g.override = enabled }
func (g *fakeGyro) SetPower(fraction float64) { g.power = fraction }
func (g *fakeGyro) SetRates(p, y, r float64)  { g.pitch, g.yaw, g.roll = p, y, r }
func (g *fakeGyro) rates() r3.Vector          { return r3.Vector{X: g.pitch, Y: g.yaw, Z: g.roll} }

type fakeInventory struct {
	thrusters []*fakeThruster
	gyros     []*fakeGyro
}

func (i *fakeInventory) ForceActuators() []actuator.ForceActuator {
	out := make([]actuator.ForceActuator, 0, len(i.thrusters))
	for _, t := range i.thrusters {
		out = append(out, t)
	}
	return out
}

func (i *fakeInventory) TorqueActuators() []actuator.TorqueActuator {
	out := make([]actuator.TorqueActuator, 0, len(i.gyros))
	for _, g := range i.gyros {
		out = append(out, g)
	}
	return out
}

type fakeVehicle struct {
	mass float64
}

func (v *fakeVehicle) Snapshot() telemetry.Snapshot { return telemetry.Snapshot{} }
func (v *fakeVehicle) Mass() float64                { return v.mass }

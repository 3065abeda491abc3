package sim

import (
	"github.com/golang/geo/r3"

	"github.com/skyhook-ctl/flightcore/internal/vmath"
)

// Thruster is a simulated force actuator. Its override is held in newtons.
type Thruster struct {
	exhaust   r3.Vector
	maxThrust float64
	override  float64
}

// NewThruster creates a thruster exhausting along exhaust in the vehicle frame.
func NewThruster(exhaust r3.Vector, maxThrust float64) *Thruster {
	return &Thruster{exhaust: exhaust, maxThrust: maxThrust}
}

func (t *Thruster) ThrustDirection() r3.Vector  { return t.exhaust }
func (t *Thruster) MaxEffectiveThrust() float64 { return t.maxThrust }

// SetThrustOverride commands newtons, clamped to the current rating.
func (t *Thruster) SetThrustOverride(newtons float64) {
	t.override = min(max(newtons, 0), t.maxThrust)
}

// SetThrustOverridePercentage commands a fraction of the current rating, clamped to [0,1].
func (t *Thruster) SetThrustOverridePercentage(fraction float64) {
	t.override = min(max(fraction, 0), 1) * t.maxThrust
}

// SetMaxThrust changes the rating, as damage or power loss would.
func (t *Thruster) SetMaxThrust(newtons float64) {
	t.maxThrust = max(newtons, 0)
	t.override = min(t.override, t.maxThrust)
}

// Override is the force currently produced, in newtons.
func (t *Thruster) Override() float64 { return t.override }

// Force is the push on the vehicle in the vehicle frame, opposite the exhaust.
func (t *Thruster) Force() r3.Vector {
	return t.exhaust.Mul(-t.override)
}

// Gyro is a simulated torque actuator.
type Gyro struct {
	orientation vmath.Matrix
	override    bool
	power       float64
	rates       r3.Vector
}

// NewGyro creates a gyroscope mounted with orientation in the vehicle frame.
func NewGyro(orientation vmath.Matrix) *Gyro {
	return &Gyro{orientation: orientation, power: 1}
}

func (g *Gyro) Orientation() vmath.Matrix { return g.orientation }
func (g *Gyro) SetOverride(enabled bool)  { g.override = enabled }
func (g *Gyro) SetPower(fraction float64) { g.power = min(max(fraction, 0), 1) }
func (g *Gyro) Overridden() bool          { return g.override }

// SetRates takes radians per second on the gyro's pitch, yaw and roll channels.
func (g *Gyro) SetRates(pitch, yaw, roll float64) {
	g.rates = r3.Vector{X: pitch, Y: yaw, Z: roll}
}

// Rates returns the commanded channel rates.
func (g *Gyro) Rates() r3.Vector { return g.rates }

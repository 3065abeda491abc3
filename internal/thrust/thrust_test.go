package thrust

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyhook-ctl/flightcore/internal/telemetry"
	"github.com/skyhook-ctl/flightcore/internal/vmath"
)

const eps = 1e-9

// fakeBudget offers the same capacity in every direction.
type fakeBudget struct {
	mass     float64
	capacity float64
	last     r3.Vector
	calls    int
}

func (f *fakeBudget) Mass() float64 { return f.mass }

func (f *fakeBudget) MaxEffectiveThrustInDirection(r3.Vector) float64 { return f.capacity }

func (f *fakeBudget) CommandWorldThrust(accel r3.Vector) {
	f.calls++
	f.last = accel
}

func assertVec(t *testing.T, want, got r3.Vector) {
	t.Helper()
	assert.InDelta(t, want.X, got.X, eps, "x")
	assert.InDelta(t, want.Y, got.Y, eps, "y")
	assert.InDelta(t, want.Z, got.Z, eps, "z")
}

var (
	gravity = r3.Vector{Y: -9.8}
	down    = r3.Vector{Y: -1}
	level   = telemetry.VehicleState{Orientation: vmath.Identity(), Gravity: gravity}
)

func newTestController(mass, capacity float64) (*Controller, *fakeBudget) {
	fc := &fakeBudget{mass: mass, capacity: capacity}
	return New(fc, zerolog.Nop()), fc
}

func TestRun_ZeroInputZeroGravity(t *testing.T) {
	c, fc := newTestController(50, 100)

	for _, a := range []Alignment{GravityAligned, ControllerAligned} {
		c.SetAlignment(a)
		state := telemetry.VehicleState{Orientation: vmath.Identity()}
		cmd := c.Run(r3.Vector{}, r3.Vector{}, state, telemetry.PilotInput{})
		assert.Equal(t, r3.Vector{}, cmd, a.String())
		assert.Equal(t, r3.Vector{}, fc.last)
	}
}

func TestRun_HoverCompensatesGravity(t *testing.T) {
	c, fc := newTestController(50, 100)

	cmd := c.Run(gravity, down, level, telemetry.PilotInput{})

	assertVec(t, r3.Vector{Y: 9.8}, cmd)
	assert.Equal(t, cmd, fc.last)
	assert.Equal(t, 1, fc.calls)
}

func TestRun_FullDescentCancelsGravity(t *testing.T) {
	c, _ := newTestController(50, 100)

	cmd := c.Run(gravity, down, level, telemetry.PilotInput{Move: r3.Vector{Y: -1}})

	// Pilot term is the full budget along gravity: 100 / 50.
	assertVec(t, r3.Vector{Y: -2}, cmd)
}

func TestRun_PartialDescent(t *testing.T) {
	c, _ := newTestController(50, 100)

	cmd := c.Run(gravity, down, level, telemetry.PilotInput{Move: r3.Vector{Y: -0.5}})

	assertVec(t, r3.Vector{Y: 9.8*0.5 - 2}, cmd)
}

func TestRun_ClimbAddsBudget(t *testing.T) {
	c, _ := newTestController(50, 100)

	cmd := c.Run(gravity, down, level, telemetry.PilotInput{Move: r3.Vector{Y: 1}})

	assertVec(t, r3.Vector{Y: 9.8 + 2}, cmd)
}

func TestRun_DampenersOpposeVelocity(t *testing.T) {
	c, _ := newTestController(50, 100)
	state := level
	state.LinearVelocity = r3.Vector{X: 3, Y: -1}

	withoutDampeners := c.Run(gravity, down, state, telemetry.PilotInput{})
	assertVec(t, r3.Vector{Y: 9.8}, withoutDampeners)

	withDampeners := c.Run(gravity, down, state, telemetry.PilotInput{Dampeners: true})
	assertVec(t, r3.Vector{X: -3, Y: 10.8}, withDampeners)
}

func TestDecompose_GravityAlignedIgnoresPitch(t *testing.T) {
	c, _ := newTestController(50, 100)
	input := telemetry.PilotInput{Move: r3.Vector{X: 1, Z: -1}}

	assertVec(t, r3.Vector{X: 1, Z: -1}, c.Decompose(down, level, input))

	// Nose pitched 30 degrees up: horizontal movement stays horizontal.
	pitched := telemetry.VehicleState{Orientation: vmath.RotationX(0.5235987755982988)}
	got := c.Decompose(down, pitched, input)
	assert.InDelta(t, 0, got.Y, eps)
	assert.InDelta(t, 1, got.X, eps)
	assert.InDelta(t, -1, got.Z, eps)
}

func TestDecompose_ControllerAlignedFollowsVehicle(t *testing.T) {
	c, _ := newTestController(50, 100)
	c.SetAlignment(ControllerAligned)

	m := vmath.FromAxes(r3.Vector{X: 1}, r3.Vector{Z: 1}, r3.Vector{Y: -1})
	state := telemetry.VehicleState{Orientation: m}
	input := telemetry.PilotInput{Move: r3.Vector{Z: -1}}

	// Forward input follows the nose straight up.
	assertVec(t, r3.Vector{Y: 1}, c.Decompose(down, state, input))
}

func TestRun_ZeroMassDropsPilotTerm(t *testing.T) {
	c, _ := newTestController(0, 100)

	cmd := c.Run(gravity, down, level, telemetry.PilotInput{Move: r3.Vector{X: 1}})

	assertVec(t, r3.Vector{Y: 9.8}, cmd)
}

func TestOption_SwitchesAlignment(t *testing.T) {
	c, _ := newTestController(50, 100)
	require.Equal(t, GravityAligned, c.Alignment())

	opts := c.Options()
	require.Len(t, opts, 1)
	assert.Equal(t, "gravityAlignedThrust", opts[0].Name())

	require.NoError(t, opts[0].SetParameters("off"))
	assert.Equal(t, ControllerAligned, c.Alignment())

	c.SetAlignment(GravityAligned)
	assert.Equal(t, []string{"true"}, opts[0].Parameters())
}

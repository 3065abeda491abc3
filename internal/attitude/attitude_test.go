package attitude

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyhook-ctl/flightcore/internal/options"
	"github.com/skyhook-ctl/flightcore/internal/telemetry"
	"github.com/skyhook-ctl/flightcore/internal/vmath"
)

const eps = 1e-9

type fakeCommander struct {
	calls int
	rate  r3.Vector
}

func (f *fakeCommander) CommandWorldTorqueRate(rate r3.Vector) {
	f.calls++
	f.rate = rate
}

func newTestController() (*Controller, *fakeCommander) {
	fc := &fakeCommander{}
	return New(fc, zerolog.Nop()), fc
}

func option(t *testing.T, c *Controller, name string) options.Option {
	t.Helper()
	for _, o := range c.Options() {
		if o.Name() == name {
			return o
		}
	}
	t.Fatalf("option %s not declared", name)
	return nil
}

func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	assert.True(t, p.Enabled)
	assert.Equal(t, 0.25, p.NegBound)
	assert.Equal(t, 0.25, p.PosBound)
	assert.Equal(t, 4.0, p.Gain)
	assert.Equal(t, Corrected, p.Strategy())
}

func TestCorrect_PassthroughIgnoresAngle(t *testing.T) {
	p := DefaultPolicy()
	for _, a := range []float64{-1, -0.5, -0.25, 0, 0.1, 0.25, 0.9, 1} {
		for _, in := range []float64{-1, -0.3, 0, 0.7, 1} {
			assert.Equal(t, in, Correct(Passthrough, p, a, in), "a=%v in=%v", a, in)
		}
	}
}

func TestCorrect_WithinBoundsKeepsInput(t *testing.T) {
	p := Policy{Enabled: true, NegBound: 0.2, PosBound: 0.3, Gain: 4}
	for _, a := range []float64{-0.2, -0.1, 0, 0.29, 0.3} {
		assert.Equal(t, -0.6, Correct(Corrected, p, a, -0.6), "a=%v", a)
	}
}

func TestCorrect_ContinuousAtBoundary(t *testing.T) {
	p := Policy{Enabled: true, NegBound: 0.2, PosBound: 0.3, Gain: 4}

	atPos := Correct(Corrected, p, p.PosBound, 0)
	justPast := Correct(Corrected, p, p.PosBound+1e-12, 0)
	assert.Equal(t, 0.0, atPos)
	assert.InDelta(t, 0, justPast, eps)

	atNeg := Correct(Corrected, p, -p.NegBound, 0)
	justPastNeg := Correct(Corrected, p, -p.NegBound-1e-12, 0)
	assert.Equal(t, 0.0, atNeg)
	assert.InDelta(t, 0, justPastNeg, eps)
}

func TestCorrect_GrowsBeyondBound(t *testing.T) {
	p := Policy{Enabled: true, NegBound: 0.25, PosBound: 0.25, Gain: 4}

	prev := 0.0
	for _, a := range []float64{0.26, 0.3, 0.5, 0.8} {
		out := Correct(Corrected, p, a, 0)
		assert.Greater(t, out, prev, "a=%v", a)
		assert.InDelta(t, (a-0.25)*4, out, eps)
		prev = out
	}

	prev = 0.0
	for _, a := range []float64{-0.26, -0.3, -0.5, -0.8} {
		out := Correct(Corrected, p, a, 0)
		assert.Less(t, out, prev, "a=%v", a)
		prev = out
	}
}

func TestCorrect_KeepsRecoveryAuthority(t *testing.T) {
	p := Policy{Enabled: true, NegBound: 0.25, PosBound: 0.25, Gain: 4}

	// Beyond the positive bound only positive input survives.
	assert.InDelta(t, 0.2+1, Correct(Corrected, p, 0.3, 1), eps)
	assert.InDelta(t, 0.2, Correct(Corrected, p, 0.3, -1), eps)

	// Beyond the negative bound only negative input survives.
	assert.InDelta(t, -0.2-1, Correct(Corrected, p, -0.3, -1), eps)
	assert.InDelta(t, -0.2, Correct(Corrected, p, -0.3, 1), eps)
}

func TestOptions_Declared(t *testing.T) {
	c, _ := newTestController()

	var names []string
	for _, o := range c.Options() {
		names = append(names, o.Name())
	}
	assert.Equal(t, []string{
		"bankCorrection", "bankCorrectionMultiplier", "maximumBankAngle",
		"pitchCorrection", "pitchCorrectionMultiplier", "maximumPitchAngle",
	}, names)
	assert.Equal(t, []string{"45", "45"}, option(t, c, "maximumPitchAngle").Parameters())
}

func TestOptions_ResolveStrategyOnChange(t *testing.T) {
	c, _ := newTestController()
	require.Equal(t, Corrected, c.BankStrategy())

	require.NoError(t, option(t, c, "bankCorrection").SetParameters("off"))
	assert.Equal(t, Passthrough, c.BankStrategy())
	assert.Equal(t, Corrected, c.PitchStrategy())

	require.NoError(t, option(t, c, "pitchCorrection").SetParameters("toggle"))
	assert.Equal(t, Passthrough, c.PitchStrategy())
}

func TestOptions_BoundsAndGain(t *testing.T) {
	c, _ := newTestController()

	require.NoError(t, option(t, c, "maximumBankAngle").SetParameters("90", "36"))
	require.NoError(t, option(t, c, "pitchCorrectionMultiplier").SetParameters("2"))

	assert.InDelta(t, 0.5, c.BankPolicy().NegBound, eps)
	assert.InDelta(t, 0.2, c.BankPolicy().PosBound, eps)
	assert.Equal(t, 2.0, c.PitchPolicy().Gain)
	assert.Equal(t, 4.0, c.BankPolicy().Gain)
}

func TestOptions_InvalidBoundsKeepLastValue(t *testing.T) {
	c, _ := newTestController()

	err := option(t, c, "maximumBankAngle").SetParameters("30")
	assert.ErrorIs(t, err, options.ErrArgumentCount)
	err = option(t, c, "maximumBankAngle").SetParameters("30", "wide")
	assert.ErrorIs(t, err, options.ErrInvalidValue)

	assert.Equal(t, DefaultPolicy(), c.BankPolicy())
}

func TestOptions_RejectNonFinite(t *testing.T) {
	c, fc := newTestController()

	err := option(t, c, "bankCorrectionMultiplier").SetParameters("NaN")
	assert.ErrorIs(t, err, options.ErrInvalidValue)
	err = option(t, c, "maximumBankAngle").SetParameters("NaN", "45")
	assert.ErrorIs(t, err, options.ErrInvalidValue)
	err = option(t, c, "maximumPitchAngle").SetParameters("30", "+Inf")
	assert.ErrorIs(t, err, options.ErrInvalidValue)

	assert.Equal(t, DefaultPolicy(), c.BankPolicy())
	assert.Equal(t, DefaultPolicy(), c.PitchPolicy())

	// Rolled well past the bound: the correction stays finite.
	m := vmath.RotationZ(1.0)
	c.Run(r3.Vector{Y: -1}, telemetry.VehicleState{Orientation: m}, telemetry.PilotInput{})
	assert.False(t, math.IsNaN(fc.rate.X) || math.IsNaN(fc.rate.Y) || math.IsNaN(fc.rate.Z))
	assert.Greater(t, fc.rate.Norm(), 0.0)
}

func TestSetPolicy_UpdatesOptionParameters(t *testing.T) {
	c, _ := newTestController()

	require.NoError(t, c.SetBankPolicy(Policy{Enabled: false, NegBound: 0.5, PosBound: 0.25, Gain: 2}))

	assert.Equal(t, Passthrough, c.BankStrategy())
	assert.Equal(t, []string{"false"}, option(t, c, "bankCorrection").Parameters())
	assert.Equal(t, []string{"2"}, option(t, c, "bankCorrectionMultiplier").Parameters())
	assert.Equal(t, []string{"90", "45"}, option(t, c, "maximumBankAngle").Parameters())
	assert.InDelta(t, 0.5, c.BankPolicy().NegBound, eps)
	assert.InDelta(t, 0.25, c.BankPolicy().PosBound, eps)

	err := c.SetPitchPolicy(Policy{Enabled: true, NegBound: math.NaN(), PosBound: 0.25, Gain: 3})
	assert.ErrorIs(t, err, options.ErrInvalidValue)
	assert.Equal(t, DefaultPolicy(), c.PitchPolicy())
	assert.Equal(t, []string{"4"}, option(t, c, "pitchCorrectionMultiplier").Parameters())
}

func TestRun_LevelPassesPilotInput(t *testing.T) {
	c, fc := newTestController()

	state := telemetry.VehicleState{Orientation: vmath.Identity()}
	input := telemetry.PilotInput{Rotation: r3.Vector{X: 0.5, Y: -0.4}, Roll: 0.2}

	rate := c.Run(r3.Vector{Y: -1}, state, input)

	assert.Equal(t, 1, fc.calls)
	assert.Equal(t, rate, fc.rate)
	assert.InDelta(t, 0.5, rate.X, eps)
	assert.InDelta(t, -0.4, rate.Y, eps)
	assert.InDelta(t, 0.2, rate.Z, eps)
}

func TestRun_CorrectsExcessiveBank(t *testing.T) {
	c, fc := newTestController()

	// Right wing raised 60 degrees.
	s, co := math.Sincos(math.Pi / 3)
	m := vmath.FromAxes(r3.Vector{X: co, Y: s}, r3.Vector{X: -s, Y: co}, r3.Vector{Z: 1})
	state := telemetry.VehicleState{Orientation: m}
	input := telemetry.PilotInput{Rotation: r3.Vector{Y: 0.3}, Roll: -1}

	c.Run(r3.Vector{Y: -1}, state, input)

	local := m.Inverse().TransformNormal(fc.rate)
	assert.InDelta(t, 0, local.X, eps)
	assert.InDelta(t, 0.3, local.Y, eps, "yaw is never corrected")
	assert.InDelta(t, (s-0.25)*4, local.Z, 1e-6, "pilot input pushing further is dropped")
}

func TestRun_PassthroughWhenDisabled(t *testing.T) {
	c, fc := newTestController()
	require.NoError(t, c.SetBankPolicy(Policy{Enabled: false, NegBound: 0.25, PosBound: 0.25, Gain: 4}))
	require.NoError(t, c.SetPitchPolicy(Policy{Enabled: false, NegBound: 0.25, PosBound: 0.25, Gain: 4}))

	// Nose pitched 90 degrees up: backward axis points along gravity.
	m := vmath.FromAxes(r3.Vector{X: 1}, r3.Vector{Z: 1}, r3.Vector{Y: -1})
	state := telemetry.VehicleState{Orientation: m}
	input := telemetry.PilotInput{Rotation: r3.Vector{X: 0.7}, Roll: 0.1}

	c.Run(r3.Vector{Y: -1}, state, input)

	local := m.Inverse().TransformNormal(fc.rate)
	assert.InDelta(t, 0.7, local.X, eps)
	assert.InDelta(t, 0.1, local.Z, eps)
}

func TestRun_ExcessivePitch(t *testing.T) {
	c, fc := newTestController()

	m := vmath.FromAxes(r3.Vector{X: 1}, r3.Vector{Z: 1}, r3.Vector{Y: -1})
	state := telemetry.VehicleState{Orientation: m}

	c.Run(r3.Vector{Y: -1}, state, telemetry.PilotInput{})

	local := m.Inverse().TransformNormal(fc.rate)
	assert.InDelta(t, (1-0.25)*4, local.X, eps)
}

func TestStrategy_String(t *testing.T) {
	assert.Equal(t, "corrected", Corrected.String())
	assert.Equal(t, "passthrough", Passthrough.String())
}

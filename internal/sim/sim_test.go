package sim

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyhook-ctl/flightcore/internal/actuator"
	"github.com/skyhook-ctl/flightcore/internal/config"
	"github.com/skyhook-ctl/flightcore/internal/control"
	"github.com/skyhook-ctl/flightcore/internal/dispatcher"
	"github.com/skyhook-ctl/flightcore/internal/logging"
	"github.com/skyhook-ctl/flightcore/internal/telemetry"
	"github.com/skyhook-ctl/flightcore/internal/vmath"
)

var (
	_ actuator.Inventory      = (*Vehicle)(nil)
	_ actuator.ForceActuator  = (*Thruster)(nil)
	_ actuator.TorqueActuator = (*Gyro)(nil)
	_ telemetry.Source        = (*Vehicle)(nil)
)

const tick = time.Second / 60

func testConfig() config.SimConfig {
	return config.SimConfig{
		Mass:             1000,
		Gravity:          9.81,
		ThrusterForce:    20000,
		ThrustersPerSide: 2,
		Gyros:            1,
		Dampeners:        true,
	}
}

func newLoop(t *testing.T, v *Vehicle) *control.Loop {
	t.Helper()
	d, err := dispatcher.New(logging.NewDispatcherLogger(zerolog.Nop()))
	require.NoError(t, err)
	l, err := control.New(control.Config{RefreshEvery: control.DefaultRefreshEvery}, v, v, d, nil, zerolog.Nop())
	require.NoError(t, err)
	return l
}

func fly(l *control.Loop, v *Vehicle, ticks int) {
	for range ticks {
		l.Tick(context.Background())
		v.Step(tick)
	}
}

func TestNew(t *testing.T) {
	v := New(testConfig(), zerolog.Nop())

	assert.Len(t, v.ForceActuators(), 12)
	assert.Len(t, v.TorqueActuators(), 1)
	assert.Equal(t, 1000.0, v.Mass())

	snap := v.Snapshot()
	assert.Equal(t, r3.Vector{Y: -9.81}, snap.Vehicle.Gravity)
	assert.Equal(t, vmath.Identity(), snap.Vehicle.Orientation)
	assert.True(t, snap.Pilot.Dampeners)
	require.NotNil(t, v.ControllingSeat())
	assert.Equal(t, "cockpit", v.ControllingSeat().Name)
}

func TestSeatScore(t *testing.T) {
	tests := []struct {
		seat Seat
		want int
	}{
		{Seat{}, 0},
		{Seat{MainCockpit: true}, 10},
		{Seat{CanControlShip: true}, 5},
		{Seat{ControlThrusters: true}, 3},
		{Seat{ControlWheels: true}, 1},
		{Seat{MainCockpit: true, CanControlShip: true, ControlThrusters: true, ControlWheels: true}, 19},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.seat.Score())
	}
}

func TestSeatSelection(t *testing.T) {
	v := New(testConfig(), zerolog.Nop())

	v.AddSeat(&Seat{Name: "passenger"})
	assert.Equal(t, "cockpit", v.ControllingSeat().Name)

	// ties keep the earlier seat
	v.AddSeat(&Seat{Name: "copilot", MainCockpit: true, CanControlShip: true, ControlThrusters: true})
	assert.Equal(t, "cockpit", v.ControllingSeat().Name)

	v.AddSeat(&Seat{Name: "bridge", MainCockpit: true, CanControlShip: true, ControlThrusters: true, ControlWheels: true})
	assert.Equal(t, "bridge", v.ControllingSeat().Name)

	v.SetPilotInput(telemetry.PilotInput{Roll: 1})
	assert.Equal(t, 1.0, v.Snapshot().Pilot.Roll)
}

func TestSelectSeat_None(t *testing.T) {
	assert.Nil(t, selectSeat(nil))
}

func TestThrusterClamps(t *testing.T) {
	th := NewThruster(vmath.Down.Vector(), 100)

	th.SetThrustOverridePercentage(1.5)
	assert.Equal(t, 100.0, th.Override())
	assert.Equal(t, r3.Vector{Y: 100}, th.Force())

	th.SetThrustOverridePercentage(-0.1)
	assert.Equal(t, 0.0, th.Override())

	th.SetThrustOverride(250)
	assert.Equal(t, 100.0, th.Override())

	th.SetMaxThrust(40)
	assert.Equal(t, 40.0, th.Override())
	assert.Equal(t, 40.0, th.MaxEffectiveThrust())
}

func TestStep_FreeFall(t *testing.T) {
	v := New(testConfig(), zerolog.Nop())

	v.Step(time.Second)

	assert.InDelta(t, -9.81, v.Velocity().Y, 1e-9)
	assert.InDelta(t, -9.81, v.Position().Y, 1e-9)

	v.Step(0)
	assert.InDelta(t, -9.81, v.Velocity().Y, 1e-9)
}

func TestStep_GyroRotation(t *testing.T) {
	v := New(testConfig(), zerolog.Nop())
	g := v.Gyros()[0]
	g.SetRates(0, 0, 1)

	// not overridden, no effect
	v.Step(100 * time.Millisecond)
	assert.Equal(t, vmath.Identity(), v.Orientation())

	g.SetOverride(true)
	v.Step(100 * time.Millisecond)
	assert.InDelta(t, math.Sin(-0.1), v.Orientation().Right().Y, 1e-9)
}

func TestHover_DampsVelocity(t *testing.T) {
	v := New(testConfig(), zerolog.Nop())
	v.SetVelocity(r3.Vector{X: 1, Y: -5, Z: 2})
	l := newLoop(t, v)

	fly(l, v, 600)

	assert.Less(t, v.Velocity().Norm(), 0.05)
}

func TestHover_HoldsAltitude(t *testing.T) {
	v := New(testConfig(), zerolog.Nop())
	l := newLoop(t, v)

	fly(l, v, 300)

	assert.InDelta(t, 0, v.Position().Y, 0.05)
	assert.InDelta(t, 0, v.Velocity().Y, 0.01)
}

func TestAttitude_RecoversBank(t *testing.T) {
	v := New(testConfig(), zerolog.Nop())
	v.SetOrientation(vmath.RotationZ(-0.5))
	l := newLoop(t, v)

	gravity := r3.Vector{Y: -1}
	require.Greater(t, math.Abs(gravity.Dot(v.Orientation().Left())), 0.4)

	fly(l, v, 600)

	bound := l.Attitude().BankPolicy().PosBound
	assert.LessOrEqual(t, math.Abs(gravity.Dot(v.Orientation().Left())), bound+0.01)
}

func TestAttitude_RecoversPitch(t *testing.T) {
	v := New(testConfig(), zerolog.Nop())
	v.SetOrientation(vmath.RotationX(0.6))
	l := newLoop(t, v)

	gravity := r3.Vector{Y: -1}
	fly(l, v, 600)

	bound := l.Attitude().PitchPolicy().PosBound
	assert.LessOrEqual(t, math.Abs(gravity.Dot(v.Orientation().Backward())), bound+0.01)
}

func TestDescent(t *testing.T) {
	v := New(testConfig(), zerolog.Nop())
	v.SetPilotInput(telemetry.PilotInput{Move: r3.Vector{Y: -1}})
	l := newLoop(t, v)

	fly(l, v, 60)

	assert.Less(t, v.Velocity().Y, -1.0)
}

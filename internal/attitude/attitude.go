// Package attitude bounds bank and pitch deviation from the local vertical.
//
// Each axis blends pilot rotation input with a proportional correction that grows with how far
// the measured angle proxy lies outside the configured bounds. Input steering back toward
// level is always passed through.
package attitude

import (
	"strconv"

	"github.com/golang/geo/r3"
	"github.com/rs/zerolog"

	"github.com/skyhook-ctl/flightcore/internal/options"
	"github.com/skyhook-ctl/flightcore/internal/telemetry"
)

// Strategy selects how one axis treats pilot input.
type Strategy int

const (
	// Passthrough forwards pilot input unchanged.
	Passthrough Strategy = iota
	// Corrected adds a proportional correction outside the bounds.
	Corrected
)

func (s Strategy) String() string {
	if s == Corrected {
		return "corrected"
	}
	return "passthrough"
}

// DefaultGain is the correction multiplier for both axes.
const DefaultGain = 4.0

// DefaultBoundDegrees is the default maximum deviation on each side of both axes.
const DefaultBoundDegrees = 45.0

// Policy configures correction on one axis. Bounds are in angle proxy units,
// the dot product of gravity direction and a body axis.
type Policy struct {
	Enabled  bool
	NegBound float64
	PosBound float64
	Gain     float64
}

// DefaultPolicy is the policy both axes start with.
func DefaultPolicy() Policy {
	return Policy{
		Enabled:  true,
		NegBound: DegreesToProxy(DefaultBoundDegrees),
		PosBound: DegreesToProxy(DefaultBoundDegrees),
		Gain:     DefaultGain,
	}
}

// Strategy resolves the policy's enabled flag.
func (p Policy) Strategy() Strategy {
	if p.Enabled {
		return Corrected
	}
	return Passthrough
}

// DegreesToProxy converts an operator-facing angle bound into proxy units (45° → 0.25).
func DegreesToProxy(deg float64) float64 {
	return deg / 180
}

// Correct applies strategy s on one axis for the measured proxy a and pilot input in.
func Correct(s Strategy, p Policy, a, in float64) float64 {
	if s == Passthrough {
		return in
	}
	switch {
	case a < -p.NegBound:
		return (a+p.NegBound)*p.Gain + min(in, 0)
	case a > p.PosBound:
		return (a-p.PosBound)*p.Gain + max(in, 0)
	default:
		return in
	}
}

// TorqueCommander receives the world-frame rotation rate.
type TorqueCommander interface {
	CommandWorldTorqueRate(rate r3.Vector)
}

type axis struct {
	name     string
	policy   Policy
	strategy Strategy

	enabled *options.Boolean
	gain    *options.Numeric
	bound   *options.Custom
}

func (a *axis) set(p Policy) {
	a.policy = p
	a.strategy = p.Strategy()
}

// apply routes p through the axis options so their parameters follow the policy.
func (a *axis) apply(p Policy) error {
	if err := a.bound.SetParameters(formatDegrees(p.NegBound*180), formatDegrees(p.PosBound*180)); err != nil {
		return err
	}
	a.gain.Set(p.Gain)
	a.enabled.Set(p.Enabled)
	return nil
}

// Controller corrects bank (roll) and pitch. Yaw always passes through.
type Controller struct {
	fc     TorqueCommander
	logger zerolog.Logger

	bank  axis
	pitch axis

	opts []options.Option
}

// New creates a controller with default policies and the options that reconfigure it.
func New(fc TorqueCommander, logger zerolog.Logger) *Controller {
	c := &Controller{
		fc:     fc,
		logger: logger.With().Str("component", "attitude").Logger(),
		bank:   axis{name: "bank"},
		pitch:  axis{name: "pitch"},
	}
	c.bank.set(DefaultPolicy())
	c.pitch.set(DefaultPolicy())

	c.opts = append(c.axisOptions(&c.bank, "bankCorrection", "maximumBankAngle"),
		c.axisOptions(&c.pitch, "pitchCorrection", "maximumPitchAngle")...)
	return c
}

// axisOptions declares the enabled flag, gain and bound options of one axis.
func (c *Controller) axisOptions(a *axis, prefix, boundName string) []options.Option {
	enabled := options.NewBoolean(prefix, a.policy.Enabled)
	enabled.OnChanged(func() {
		a.policy.Enabled = enabled.Value()
		a.strategy = a.policy.Strategy()
		c.logger.Debug().Str("axis", a.name).Stringer("strategy", a.strategy).Msg("Correction strategy changed")
	})

	gain := options.NewNumeric(prefix+"Multiplier", a.policy.Gain)
	gain.OnChanged(func() {
		a.policy.Gain = gain.Value()
	})

	bound := options.NewCustom(boundName, func(params ...string) error {
		deg, err := options.ParseFloats(2, params...)
		if err != nil {
			return err
		}
		a.policy.NegBound = DegreesToProxy(deg[0])
		a.policy.PosBound = DegreesToProxy(deg[1])
		return nil
	}, formatDegrees(DefaultBoundDegrees), formatDegrees(DefaultBoundDegrees))

	a.enabled, a.gain, a.bound = enabled, gain, bound
	return []options.Option{enabled, gain, bound}
}

// Options returns the controller's named settings.
func (c *Controller) Options() []options.Option {
	return c.opts
}

// SetBankPolicy replaces the bank policy through its options, so a later writeConfig
// persists it. Bounds that are not finite are rejected and nothing changes.
func (c *Controller) SetBankPolicy(p Policy) error {
	return c.bank.apply(p)
}

// SetPitchPolicy is SetBankPolicy for the pitch axis.
func (c *Controller) SetPitchPolicy(p Policy) error {
	return c.pitch.apply(p)
}

func (c *Controller) BankPolicy() Policy      { return c.bank.policy }
func (c *Controller) PitchPolicy() Policy     { return c.pitch.policy }
func (c *Controller) BankStrategy() Strategy  { return c.bank.strategy }
func (c *Controller) PitchStrategy() Strategy { return c.pitch.strategy }

// Run measures pitch and bank against gravityDirection, corrects the pilot's rotation input
// and commands the resulting rate. It returns the commanded world-frame rate.
func (c *Controller) Run(gravityDirection r3.Vector, state telemetry.VehicleState, input telemetry.PilotInput) r3.Vector {
	m := state.Orientation
	pitch := Correct(c.pitch.strategy, c.pitch.policy, gravityDirection.Dot(m.Backward()), input.Rotation.X)
	bank := Correct(c.bank.strategy, c.bank.policy, gravityDirection.Dot(m.Left()), input.Roll)

	rate := m.TransformNormal(r3.Vector{X: pitch, Y: input.Rotation.Y, Z: bank})
	c.fc.CommandWorldTorqueRate(rate)
	return rate
}

func formatDegrees(deg float64) string {
	return strconv.FormatFloat(deg, 'f', -1, 64)
}

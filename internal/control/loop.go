// Package control runs the per-tick flight control sequence.
package control

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/skyhook-ctl/flightcore/internal/actuator"
	"github.com/skyhook-ctl/flightcore/internal/attitude"
	"github.com/skyhook-ctl/flightcore/internal/dispatcher"
	"github.com/skyhook-ctl/flightcore/internal/flight"
	"github.com/skyhook-ctl/flightcore/internal/options"
	"github.com/skyhook-ctl/flightcore/internal/storage"
	"github.com/skyhook-ctl/flightcore/internal/telemetry"
	"github.com/skyhook-ctl/flightcore/internal/thrust"
)

const instrumentationName = "github.com/skyhook-ctl/flightcore/internal/control"

// DefaultRefreshEvery is the number of ticks between actuator and mass refreshes.
const DefaultRefreshEvery = 100

// Config holds loop settings.
type Config struct {
	// RefreshEvery is the actuator and mass refresh cadence in ticks. Zero or less
	// disables periodic refresh.
	RefreshEvery int
	// MaxThrustEvery re-reads thruster ratings without regrouping, in ticks. Ticks that
	// run a full refresh skip it. Zero or less disables it.
	MaxThrustEvery int
	// OptionsFile persists the controllers' options. Empty disables persistence.
	OptionsFile string
	// TickLogger receives the per-tick trace messages, typically a sampled logger.
	// Nil uses the loop logger.
	TickLogger *zerolog.Logger
}

// Recorder receives one sample per tick. It must not block.
type Recorder interface {
	Record(storage.Sample)
}

// Loop owns the flight computer and both controllers and drives them once per tick.
// It is not safe for concurrent use.
type Loop struct {
	cfg      Config
	source   telemetry.Source
	computer *flight.Computer
	attitude *attitude.Controller
	thrust   *thrust.Controller
	options  *options.Registry
	recorder Recorder
	logger   zerolog.Logger
	tickLog  zerolog.Logger

	tick uint64
	now  func() time.Time

	ticks    metric.Int64Counter
	duration metric.Float64Histogram
}

// New builds the flight computer and controllers, registers their options with d and
// applies any persisted option values. rec may be nil.
func New(cfg Config, inv actuator.Inventory, source telemetry.Source, d *dispatcher.Dispatcher, rec Recorder, logger zerolog.Logger) (*Loop, error) {
	m := otel.Meter(instrumentationName)
	ticks, err := m.Int64Counter("control.ticks",
		metric.WithDescription("Control ticks executed"),
	)
	if err != nil {
		return nil, err
	}
	duration, err := m.Float64Histogram("control.tick.duration",
		metric.WithDescription("Time spent in one control tick"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	computer := flight.New(inv, source, logger)
	att := attitude.New(computer, logger)
	thr := thrust.New(computer, logger)

	opts := append(append([]options.Option(nil), att.Options()...), thr.Options()...)
	registry := options.NewRegistry(d, cfg.OptionsFile, logger, opts...)

	tickLog := logger
	if cfg.TickLogger != nil {
		tickLog = *cfg.TickLogger
	}

	l := &Loop{
		cfg:      cfg,
		source:   source,
		computer: computer,
		attitude: att,
		thrust:   thr,
		options:  registry,
		recorder: rec,
		logger:   logger.With().Str("component", "control").Logger(),
		tickLog:  tickLog.With().Str("component", "control").Logger(),
		now:      time.Now,
		ticks:    ticks,
		duration: duration,
	}

	if err := registry.ReadConfig(); err != nil {
		l.logger.Warn().Err(err).Str("path", cfg.OptionsFile).Msg("Some persisted options were not applied")
	}
	return l, nil
}

// Computer returns the flight computer.
func (l *Loop) Computer() *flight.Computer { return l.computer }

// Attitude returns the attitude controller.
func (l *Loop) Attitude() *attitude.Controller { return l.attitude }

// Thrust returns the thrust controller.
func (l *Loop) Thrust() *thrust.Controller { return l.thrust }

// Options returns the option registry.
func (l *Loop) Options() *options.Registry { return l.options }

// Ticks returns the number of ticks run.
func (l *Loop) Ticks() uint64 { return l.tick }

// Tick runs one control cycle: periodic refresh, thrust then attitude.
func (l *Loop) Tick(ctx context.Context) {
	start := l.now()
	l.tick++

	switch {
	case every(l.tick, l.cfg.RefreshEvery):
		l.computer.Refresh()
		l.tickLog.Trace().Uint64("tick", l.tick).Float64("mass", l.computer.Mass()).Msg("Refreshed actuators")
	case every(l.tick, l.cfg.MaxThrustEvery):
		l.computer.RefreshMaxThrust()
	}

	snap := l.source.Snapshot()
	state := snap.Vehicle
	l.computer.SetOrientation(state.Orientation)

	gravityDirection := state.GravityDirection()
	accel := l.thrust.Run(state.Gravity, gravityDirection, state, snap.Pilot)
	rate := l.attitude.Run(gravityDirection, state, snap.Pilot)

	if l.recorder != nil {
		l.recorder.Record(storage.Sample{
			Tick:       l.tick,
			Time:       start,
			Mass:       l.computer.Mass(),
			Gravity:    state.Gravity,
			Velocity:   state.LinearVelocity,
			Thrust:     accel,
			TorqueRate: rate,
			Fractions:  l.computer.LastFractions(),
		})
	}

	l.tickLog.Trace().
		Uint64("tick", l.tick).
		Float64("thrust", accel.Norm()).
		Float64("rate", rate.Norm()).
		Msg("Tick")

	l.ticks.Add(ctx, 1)
	l.duration.Record(ctx, float64(l.now().Sub(start).Microseconds())/1000)
}

func every(tick uint64, n int) bool {
	return n > 0 && tick%uint64(n) == 0
}

// HandleArgument re-reads the persisted options and then applies an operator command line.
// Persisted values that fail to apply are skipped and reported alongside the command result,
// so a bad options file can still be overwritten with writeConfig. A rejected command keeps
// the previously applied values.
func (l *Loop) HandleArgument(arg string) error {
	var readErr error
	if err := l.options.ReadConfig(); err != nil {
		l.logger.Warn().Err(err).Msg("Failed to re-read options")
		readErr = fmt.Errorf("failed to read options: %w", err)
	}
	if err := l.options.ProcessCommands(arg); err != nil {
		l.logger.Warn().Err(err).Str("argument", arg).Msg("Command rejected")
		return errors.Join(readErr, err)
	}
	return readErr
}

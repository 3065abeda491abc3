// Command flightcore flies a simulated vehicle with the flight core. Each line read from
// stdin is an operator command such as "maximumBankAngle(30, 30); writeConfig()".
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/skyhook-ctl/flightcore/internal/config"
	"github.com/skyhook-ctl/flightcore/internal/control"
	"github.com/skyhook-ctl/flightcore/internal/dispatcher"
	"github.com/skyhook-ctl/flightcore/internal/logging"
	"github.com/skyhook-ctl/flightcore/internal/monitor"
	intOtel "github.com/skyhook-ctl/flightcore/internal/otel"
	"github.com/skyhook-ctl/flightcore/internal/sim"
)

// module defs - BuildDate can be set at build time via ldflags
var (
	CurrentVersion string = "0.0.1"
	BuildDate      string = "unknown"

	AppName string = "flightcore"
)

func main() {
	flags := pflag.NewFlagSet(AppName, pflag.ExitOnError)
	configDir := flags.String("config-dir", ".", "directory containing "+config.FileName)
	maxTicks := flags.Uint64("ticks", 0, "stop after this many ticks; 0 runs until interrupted")
	_ = flags.Parse(os.Args[1:])

	if err := run(*configDir, *maxTicks); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", AppName, err)
		os.Exit(1)
	}
}

func run(configDir string, maxTicks uint64) error {
	sessionStart := time.Now()
	session := sessionStart.UTC().Format("20060102T150405Z")

	configErr := config.Load(configDir)

	logCfg := config.GetLoggingConfig()
	graylog := ""
	if logCfg.GraylogEnabled {
		graylog = logCfg.GraylogAddress
	}
	logs, err := logging.Setup(logging.Config{
		Level:          logCfg.Level,
		Dir:            logCfg.Dir,
		AppName:        AppName,
		SessionStart:   sessionStart,
		GraylogAddress: graylog,
	})
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer logs.Close()
	logger := logs.Logger()

	logger.Info().
		Str("version", CurrentVersion).
		Str("buildDate", BuildDate).
		Str("session", session).
		Str("logFile", logs.FilePath()).
		Msg("Starting up")
	if configErr != nil {
		logger.Warn().Err(configErr).Str("configDir", configDir).Msg("Using default configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, metricsFile, err := setupMetrics(logCfg.Dir, sessionStart)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Failed to shut down metrics")
		}
		if metricsFile != nil {
			metricsFile.Close()
		}
	}()

	rec, err := setupRecorder(ctx, session, sessionStart, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := rec.Close(closeCtx); err != nil {
			logger.Error().Err(err).Msg("Failed to close recorder")
		}
	}()

	vehicle := sim.New(config.GetSimConfig(), logger)

	d, err := dispatcher.New(logging.NewDispatcherLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", err)
	}

	loopCfg := config.GetLoopConfig()
	tickLog := logs.Sampled()
	loop, err := control.New(control.Config{
		RefreshEvery:   loopCfg.RefreshEvery,
		MaxThrustEvery: loopCfg.MaxThrustEvery,
		OptionsFile:    loopCfg.OptionsFile,
		TickLogger:     &tickLog,
	}, vehicle, vehicle, d, rec.Target(), logger)
	if err != nil {
		return fmt.Errorf("failed to create control loop: %w", err)
	}
	logger.Info().Strs("commands", d.Commands()).Msg("Accepting operator commands")

	var status <-chan time.Time
	var statusSvc *monitor.Service
	if loopCfg.StatusFile != "" && loopCfg.StatusInterval > 0 {
		statusSvc, err = monitor.NewService(loopCfg.StatusFile, logger)
		if err != nil {
			return err
		}
		defer statusSvc.Close()

		statusTicker := time.NewTicker(loopCfg.StatusInterval)
		defer statusTicker.Stop()
		status = statusTicker.C
	}

	commands := make(chan string)
	go readCommands(os.Stdin, commands, logger)

	ticker := time.NewTicker(loopCfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Uint64("ticks", loop.Ticks()).Msg("Shutting down")
			return nil

		case line, ok := <-commands:
			if !ok {
				// stdin closed, keep flying
				commands = nil
				continue
			}
			if err := loop.HandleArgument(line); err != nil {
				fmt.Println("Error: " + err.Error())
			} else {
				fmt.Println("Ok")
			}

		case <-status:
			if err := statusSvc.Publish(monitor.Collect(loop, rec.Stats())); err != nil {
				logger.Warn().Err(err).Msg("Failed to publish status")
			}

		case <-ticker.C:
			loop.Tick(ctx)
			vehicle.Step(loopCfg.TickInterval)

			if maxTicks > 0 && loop.Ticks() >= maxTicks {
				logger.Info().Uint64("ticks", loop.Ticks()).
					Interface("position", vehicle.Position()).
					Msg("Tick limit reached")
				return nil
			}
		}
	}
}

func setupMetrics(logsDir string, sessionStart time.Time) (*intOtel.Provider, *os.File, error) {
	otelCfg := config.GetOTelConfig()
	cfg := intOtel.Config{
		Enabled:        otelCfg.Enabled,
		ServiceName:    otelCfg.ServiceName,
		ExportInterval: otelCfg.ExportInterval,
	}

	var file *os.File
	if otelCfg.Enabled {
		path := otelCfg.MetricsFile
		if path == "" {
			path = filepath.Join(logsDir, fmt.Sprintf("%s.%s.metrics.json", AppName, sessionStart.Format("20060102_150405")))
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create metrics directory: %w", err)
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create metrics file: %w", err)
		}
		file = f
		cfg.MetricWriter = f
	}

	provider, err := intOtel.New(cfg)
	if err != nil {
		if file != nil {
			file.Close()
		}
		return nil, nil, fmt.Errorf("failed to set up metrics: %w", err)
	}
	return provider, file, nil
}

// setupRecorder starts the configured recorder. A disabled recorder yields an empty handle.
func setupRecorder(ctx context.Context, session string, start time.Time, logger zerolog.Logger) (*recorderHandle, error) {
	cfg := config.GetRecorderConfig()
	if !cfg.Enabled {
		logger.Info().Msg("Flight data recorder disabled")
		return &recorderHandle{}, nil
	}
	return startRecorder(ctx, cfg, session, start, logger)
}

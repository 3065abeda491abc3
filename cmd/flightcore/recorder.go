package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/skyhook-ctl/flightcore/internal/config"
	"github.com/skyhook-ctl/flightcore/internal/control"
	"github.com/skyhook-ctl/flightcore/internal/monitor"
	"github.com/skyhook-ctl/flightcore/internal/recorder"
)

// recorderHandle holds the running recorder, if any.
type recorderHandle struct {
	rec *recorder.Recorder
}

// Target returns what the control loop records into, nil when disabled.
func (h *recorderHandle) Target() control.Recorder {
	if h.rec == nil {
		return nil
	}
	return h.rec
}

// Stats returns the recorder's queue statistics, nil when disabled.
func (h *recorderHandle) Stats() monitor.RecorderStats {
	if h.rec == nil {
		return nil
	}
	return h.rec
}

func (h *recorderHandle) Close(ctx context.Context) error {
	if h.rec == nil {
		return nil
	}
	return h.rec.Close(ctx)
}

func startRecorder(ctx context.Context, cfg config.RecorderConfig, session string, start time.Time, logger zerolog.Logger) (*recorderHandle, error) {
	backend, err := recorder.NewBackend(cfg, session, start, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage backend: %w", err)
	}

	rec, err := recorder.New(backend, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create recorder: %w", err)
	}
	if err := rec.Start(ctx); err != nil {
		return nil, err
	}

	logger.Info().Str("backend", cfg.Backend).Msg("Flight data recorder started")
	return &recorderHandle{rec: rec}, nil
}

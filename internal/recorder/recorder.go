// Package recorder queues per-tick flight samples and flushes them to a storage backend
// on a background goroutine.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/skyhook-ctl/flightcore/internal/config"
	"github.com/skyhook-ctl/flightcore/internal/queue"
	"github.com/skyhook-ctl/flightcore/internal/storage"
)

const instrumentationName = "github.com/skyhook-ctl/flightcore/internal/recorder"

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("recorder closed")

// Recorder batches samples through a bounded queue. When the backend falls behind the
// oldest queued samples are dropped.
type Recorder struct {
	backend storage.Backend
	cfg     config.RecorderConfig
	logger  zerolog.Logger
	queue   *queue.Queue[storage.Sample]

	dropped metric.Int64Counter
	written metric.Int64Counter

	mu       sync.Mutex
	running  bool
	closed   bool
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a recorder writing to backend. Call Start before recording.
func New(backend storage.Backend, cfg config.RecorderConfig, logger zerolog.Logger) (*Recorder, error) {
	m := otel.Meter(instrumentationName)

	dropped, err := m.Int64Counter("recorder.samples.dropped",
		metric.WithDescription("Samples evicted from a full recorder queue"),
	)
	if err != nil {
		return nil, err
	}
	written, err := m.Int64Counter("recorder.samples.written",
		metric.WithDescription("Samples persisted by the storage backend"),
	)
	if err != nil {
		return nil, err
	}

	return &Recorder{
		backend: backend,
		cfg:     cfg,
		logger:  logger.With().Str("component", "recorder").Logger(),
		queue:   queue.New[storage.Sample](cfg.QueueSize),
		dropped: dropped,
		written: written,
	}, nil
}

// Start initializes the backend and launches the flush goroutine.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	if r.running {
		return nil
	}

	if err := r.backend.Init(ctx); err != nil {
		return fmt.Errorf("failed to init storage backend: %w", err)
	}

	r.stopChan = make(chan struct{})
	r.running = true
	if r.cfg.FlushInterval > 0 {
		r.wg.Add(1)
		go r.flushLoop()
	}

	r.logger.Info().
		Int("queueSize", r.cfg.QueueSize).
		Int("batchSize", r.cfg.BatchSize).
		Dur("flushInterval", r.cfg.FlushInterval).
		Msg("Recorder started")
	return nil
}

// Record queues a sample without blocking. With SampleEvery > 1 only ticks that are a
// multiple of it are kept.
func (r *Recorder) Record(s storage.Sample) {
	if r.cfg.SampleEvery > 1 && s.Tick%uint64(r.cfg.SampleEvery) != 0 {
		return
	}

	if evicted := r.queue.Push(s); evicted > 0 {
		r.dropped.Add(context.Background(), int64(evicted))
		r.logger.Warn().Int("evicted", evicted).Uint64("tick", s.Tick).
			Msg("Recorder queue full, dropped oldest samples")
	}
}

// Pending returns the number of queued samples.
func (r *Recorder) Pending() int {
	return r.queue.Len()
}

// Dropped returns the total number of samples evicted so far.
func (r *Recorder) Dropped() uint64 {
	return r.queue.Dropped()
}

// Flush writes every queued sample in batches of BatchSize. A failed batch is put back at
// the front of the queue, keeping tick order, and the error returned.
func (r *Recorder) Flush(ctx context.Context) error {
	for {
		batch := r.queue.Take(r.cfg.BatchSize)
		if len(batch) == 0 {
			return nil
		}

		start := time.Now()
		if err := r.backend.WriteSamples(ctx, batch); err != nil {
			if evicted := r.queue.PushFront(batch...); evicted > 0 {
				r.dropped.Add(ctx, int64(evicted))
			}
			return fmt.Errorf("failed to write %d samples: %w", len(batch), err)
		}

		r.written.Add(ctx, int64(len(batch)))
		r.logger.Trace().Int("count", len(batch)).Dur("took", time.Since(start)).Msg("Wrote samples")
	}
}

// flushLoop periodically drains the queue into the backend.
func (r *Recorder) flushLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopChan:
			return
		case <-ticker.C:
			if err := r.Flush(context.Background()); err != nil {
				r.logger.Error().Err(err).Msg("Error flushing samples")
			}
		}
	}
}

// Close stops the flush goroutine, writes what is left and closes the backend.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if !r.running {
		return nil
	}

	close(r.stopChan)
	r.wg.Wait()
	r.running = false

	flushErr := r.Flush(ctx)
	closeErr := r.backend.Close(ctx)

	if exp, ok := r.backend.(storage.Exporter); ok && exp.ExportedFilePath() != "" {
		r.logger.Info().Str("path", exp.ExportedFilePath()).Msg("Recording exported")
	}
	r.logger.Info().Uint64("dropped", r.Dropped()).Msg("Recorder closed")

	if closeErr != nil {
		closeErr = fmt.Errorf("failed to close storage backend: %w", closeErr)
	}
	return errors.Join(flushErr, closeErr)
}

// internal/storage/memory/memory.go
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/skyhook-ctl/flightcore/internal/config"
	"github.com/skyhook-ctl/flightcore/internal/storage"
)

// Backend keeps the session's samples in memory and exports them to JSON on Close
type Backend struct {
	cfg     config.MemoryConfig
	session string
	start   time.Time

	samples        []storage.Sample
	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend for one recording session
func New(cfg config.MemoryConfig, session string, start time.Time) *Backend {
	return &Backend{
		cfg:     cfg,
		session: session,
		start:   start,
	}
}

// Init initializes the backend
func (b *Backend) Init(context.Context) error {
	return nil
}

// WriteSamples appends a batch
func (b *Backend) WriteSamples(_ context.Context, samples []storage.Sample) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.samples = append(b.samples, samples...)
	return nil
}

// Close exports the session. Nothing is written when OutputDir is empty.
func (b *Backend) Close(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cfg.OutputDir == "" {
		return nil
	}
	return b.exportJSON()
}

// Samples returns a copy of everything recorded so far
func (b *Backend) Samples() []storage.Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return append([]storage.Sample(nil), b.samples...)
}

// ExportedFilePath returns the path of the last export, empty before Close
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.lastExportPath
}

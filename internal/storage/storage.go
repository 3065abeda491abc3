// internal/storage/storage.go
package storage

import (
	"context"
	"time"

	"github.com/golang/geo/r3"

	"github.com/skyhook-ctl/flightcore/internal/vmath"
)

// Sample is one recorded control tick.
type Sample struct {
	Tick     uint64
	Time     time.Time
	Mass     float64
	Gravity  r3.Vector
	Velocity r3.Vector
	// Thrust is the commanded world-frame acceleration.
	Thrust r3.Vector
	// TorqueRate is the commanded world-frame rotation rate.
	TorqueRate r3.Vector
	// Fractions holds the override fraction sent to each group, indexed by vmath.Direction.
	Fractions [6]float64
}

// FractionsByName keys the group fractions by direction name.
func (s Sample) FractionsByName() map[string]float64 {
	out := make(map[string]float64, len(s.Fractions))
	for _, d := range vmath.Directions {
		out[d.String()] = s.Fractions[d]
	}
	return out
}

// Backend is the interface all recorder storage implementations must satisfy
type Backend interface {
	// Init prepares the backend (connections, schema) before the first write.
	Init(ctx context.Context) error
	// WriteSamples persists a batch in order.
	WriteSamples(ctx context.Context, samples []Sample) error
	// Close flushes anything pending and releases resources.
	Close(ctx context.Context) error
}

// Exporter is an optional interface for backends that produce a file on Close.
type Exporter interface {
	ExportedFilePath() string
}

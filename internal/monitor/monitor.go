// Package monitor publishes a periodically refreshed status file describing the running
// control loop.
package monitor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skyhook-ctl/flightcore/internal/control"
	"github.com/skyhook-ctl/flightcore/internal/vmath"
)

// RecorderStats is implemented by the flight data recorder.
type RecorderStats interface {
	Pending() int
	Dropped() uint64
}

// Status is one snapshot of the loop.
type Status struct {
	Time          time.Time          `json:"time"`
	Ticks         uint64             `json:"ticks"`
	Mass          float64            `json:"mass"`
	Alignment     string             `json:"thrustAlignment"`
	BankStrategy  string             `json:"bankStrategy"`
	PitchStrategy string             `json:"pitchStrategy"`
	GroupForces   map[string]float64 `json:"groupMaxForce"`
	Fractions     map[string]float64 `json:"groupFractions"`

	RecorderPending int    `json:"recorderPending"`
	RecorderDropped uint64 `json:"recorderDropped"`
}

// Collect reads the loop's state. It must run on the loop's goroutine.
// rec may be nil.
func Collect(l *control.Loop, rec RecorderStats) Status {
	fc := l.Computer()
	fractions := fc.LastFractions()

	s := Status{
		Time:          time.Now(),
		Ticks:         l.Ticks(),
		Mass:          fc.Mass(),
		Alignment:     l.Thrust().Alignment().String(),
		BankStrategy:  l.Attitude().BankStrategy().String(),
		PitchStrategy: l.Attitude().PitchStrategy().String(),
		GroupForces:   make(map[string]float64, len(vmath.Directions)),
		Fractions:     make(map[string]float64, len(vmath.Directions)),
	}
	for _, d := range vmath.Directions {
		s.GroupForces[d.String()] = fc.Group(d).MaxForce()
		s.Fractions[d.String()] = fractions[d]
	}
	if rec != nil {
		s.RecorderPending = rec.Pending()
		s.RecorderDropped = rec.Dropped()
	}
	return s
}

// Service keeps the latest status in a file, rewriting it in place.
type Service struct {
	path   string
	logger zerolog.Logger

	mu   sync.Mutex
	file *os.File
	last Status
}

// NewService creates the status file at path.
func NewService(path string, logger zerolog.Logger) (*Service, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("error creating status directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("error creating status file: %w", err)
	}
	return &Service{
		path:   path,
		logger: logger.With().Str("component", "monitor").Logger(),
		file:   file,
	}, nil
}

// Path is the status file.
func (s *Service) Path() string { return s.path }

// Last returns the most recently published status.
func (s *Service) Last() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Publish replaces the status file contents with st.
func (s *Service) Publish(st Status) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding status: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = st
	if s.file == nil {
		return os.ErrClosed
	}

	if err := s.file.Truncate(0); err != nil {
		return fmt.Errorf("error truncating status file: %w", err)
	}
	if _, err := s.file.WriteAt(append(data, '\n'), 0); err != nil {
		return fmt.Errorf("error writing status file: %w", err)
	}

	s.logger.Trace().Uint64("ticks", st.Ticks).Msg("Status published")
	return nil
}

// Close closes the status file.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

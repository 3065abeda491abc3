// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/geo/r3"
)

// SessionExport is the root JSON structure
type SessionExport struct {
	Session   string       `json:"session"`
	StartTime time.Time    `json:"startTime"`
	FirstTick uint64       `json:"firstTick"`
	LastTick  uint64       `json:"lastTick"`
	Samples   []SampleJSON `json:"samples"`
}

// SampleJSON is one tick. Vectors are [x, y, z].
type SampleJSON struct {
	Tick       uint64             `json:"tick"`
	Time       time.Time          `json:"time"`
	Mass       float64            `json:"mass"`
	Gravity    [3]float64         `json:"gravity"`
	Velocity   [3]float64         `json:"velocity"`
	Thrust     [3]float64         `json:"thrust"`
	TorqueRate [3]float64         `json:"torqueRate"`
	Fractions  map[string]float64 `json:"fractions"`
}

func vec(v r3.Vector) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// exportJSON writes the session to a JSON file, gzipped when configured
func (b *Backend) exportJSON() error {
	export := b.buildExport()

	// Build filename
	session := strings.ReplaceAll(b.session, " ", "_")
	session = strings.ReplaceAll(session, ":", "_")
	timestamp := b.start.Format("20060102_150405")

	var filename string
	if b.cfg.CompressOutput {
		filename = fmt.Sprintf("%s_%s.json.gz", session, timestamp)
	} else {
		filename = fmt.Sprintf("%s_%s.json", session, timestamp)
	}

	outputPath := filepath.Join(b.cfg.OutputDir, filename)

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Write file
	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() SessionExport {
	export := SessionExport{
		Session:   b.session,
		StartTime: b.start,
		Samples:   make([]SampleJSON, 0, len(b.samples)),
	}

	for i, s := range b.samples {
		if i == 0 || s.Tick < export.FirstTick {
			export.FirstTick = s.Tick
		}
		if s.Tick > export.LastTick {
			export.LastTick = s.Tick
		}

		export.Samples = append(export.Samples, SampleJSON{
			Tick:       s.Tick,
			Time:       s.Time,
			Mass:       s.Mass,
			Gravity:    vec(s.Gravity),
			Velocity:   vec(s.Velocity),
			Thrust:     vec(s.Thrust),
			TorqueRate: vec(s.TorqueRate),
			Fractions:  s.FractionsByName(),
		})
	}

	return export
}

func writeJSON(path string, data SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data SessionExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}

package gormstore

import (
	"encoding/json"
	"time"

	"github.com/golang/geo/r3"
	"gorm.io/datatypes"

	"github.com/skyhook-ctl/flightcore/internal/storage"
	"github.com/skyhook-ctl/flightcore/internal/vmath"
)

// SampleRow is the flight_samples table.
type SampleRow struct {
	ID        uint      `gorm:"primarykey"`
	Session   string    `gorm:"size:64;index:idx_session_tick"`
	Tick      uint64    `gorm:"index:idx_session_tick"`
	Time      time.Time `gorm:"index"`
	Mass      float64
	GravityX  float64
	GravityY  float64
	GravityZ  float64
	VelocityX float64
	VelocityY float64
	VelocityZ float64
	ThrustX   float64
	ThrustY   float64
	ThrustZ   float64
	TorqueX   float64
	TorqueY   float64
	TorqueZ   float64
	// Fractions maps group direction names to the override fraction sent.
	Fractions datatypes.JSON
}

// TableName overrides the default pluralized struct name.
func (SampleRow) TableName() string {
	return "flight_samples"
}

// toRow converts a sample for insertion.
func toRow(session string, s storage.Sample) SampleRow {
	fractions, err := json.Marshal(s.FractionsByName())
	if err != nil {
		fractions = []byte("{}")
	}
	return SampleRow{
		Session:   session,
		Tick:      s.Tick,
		Time:      s.Time,
		Mass:      s.Mass,
		GravityX:  s.Gravity.X,
		GravityY:  s.Gravity.Y,
		GravityZ:  s.Gravity.Z,
		VelocityX: s.Velocity.X,
		VelocityY: s.Velocity.Y,
		VelocityZ: s.Velocity.Z,
		ThrustX:   s.Thrust.X,
		ThrustY:   s.Thrust.Y,
		ThrustZ:   s.Thrust.Z,
		TorqueX:   s.TorqueRate.X,
		TorqueY:   s.TorqueRate.Y,
		TorqueZ:   s.TorqueRate.Z,
		Fractions: datatypes.JSON(fractions),
	}
}

// Sample converts a stored row back.
func (r SampleRow) Sample() storage.Sample {
	s := storage.Sample{
		Tick:       r.Tick,
		Time:       r.Time,
		Mass:       r.Mass,
		Gravity:    r3.Vector{X: r.GravityX, Y: r.GravityY, Z: r.GravityZ},
		Velocity:   r3.Vector{X: r.VelocityX, Y: r.VelocityY, Z: r.VelocityZ},
		Thrust:     r3.Vector{X: r.ThrustX, Y: r.ThrustY, Z: r.ThrustZ},
		TorqueRate: r3.Vector{X: r.TorqueX, Y: r.TorqueY, Z: r.TorqueZ},
	}

	var byName map[string]float64
	if err := json.Unmarshal(r.Fractions, &byName); err == nil {
		for _, d := range vmath.Directions {
			s.Fractions[d] = byName[d.String()]
		}
	}
	return s
}

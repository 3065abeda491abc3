package sim

import (
	"github.com/skyhook-ctl/flightcore/internal/telemetry"
)

// Seat is a control position on the vehicle. The pilot input of the highest scoring seat
// drives the vehicle.
type Seat struct {
	Name             string
	MainCockpit      bool
	CanControlShip   bool
	ControlThrusters bool
	ControlWheels    bool

	Input telemetry.PilotInput
}

// Score ranks seats for control selection.
func (s *Seat) Score() int {
	score := 0
	if s.MainCockpit {
		score += 10
	}
	if s.CanControlShip {
		score += 5
	}
	if s.ControlThrusters {
		score += 3
	}
	if s.ControlWheels {
		score++
	}
	return score
}

// selectSeat returns the highest scoring seat, the first one on ties, or nil when there
// are no seats.
func selectSeat(seats []*Seat) *Seat {
	var best *Seat
	for _, s := range seats {
		if best == nil || s.Score() > best.Score() {
			best = s
		}
	}
	return best
}

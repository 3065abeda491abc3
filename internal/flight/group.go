package flight

import (
	"math"

	"github.com/skyhook-ctl/flightcore/internal/actuator"
	"github.com/skyhook-ctl/flightcore/internal/vmath"
)

// MinOverride is the smallest override ever sent to a force actuator.
// Some actuators read an override of exactly zero as "override disabled" rather than idle.
const MinOverride = 0.00001

// Group is the set of force actuators that push the vehicle along one cardinal direction.
// Members exhaust opposite to the group's direction.
type Group struct {
	direction vmath.Direction
	actuators []actuator.ForceActuator
	maxForce  float64
}

func newGroup(d vmath.Direction) *Group {
	return &Group{direction: d}
}

// Direction is the vehicle-frame direction the group pushes toward.
func (g *Group) Direction() vmath.Direction {
	return g.direction
}

// Actuators returns the group members.
func (g *Group) Actuators() []actuator.ForceActuator {
	return g.actuators
}

// Len returns the number of members.
func (g *Group) Len() int {
	return len(g.actuators)
}

// Empty reports whether the group has no members.
func (g *Group) Empty() bool {
	return len(g.actuators) == 0
}

// MaxForce is the summed MaxEffectiveThrust of the members at the last refresh.
func (g *Group) MaxForce() float64 {
	return g.maxForce
}

func (g *Group) reset() {
	g.actuators = g.actuators[:0]
	g.maxForce = 0
}

func (g *Group) add(a actuator.ForceActuator) {
	g.actuators = append(g.actuators, a)
}

func (g *Group) updateMaxForce() {
	g.maxForce = 0
	for _, a := range g.actuators {
		g.maxForce += a.MaxEffectiveThrust()
	}
}

// setOverridePercentage commands every member to a fraction of its rating and returns the
// fraction actually sent.
func (g *Group) setOverridePercentage(fraction float64) float64 {
	fraction = math.Max(MinOverride, fraction)
	for _, a := range g.actuators {
		a.SetThrustOverridePercentage(fraction)
	}
	return fraction
}

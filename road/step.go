// Package road implements the single-lane Nagel-Schreckenberg ring road:
// initial placement of cars and the per-tick state transition.
package road

import (
	"fmt"

	"github.com/lixenwraith/nasch/rng"
)

// State holds car positions and velocities, ordered by position.
// Positions are unwrapped: they only grow, and the cell is X[i] mod L.
type State struct {
	X []int
	V []int
}

// Rules are the per-run model parameters consumed by Step
type Rules struct {
	L    int     // ring size
	VMax int     // speed limit
	P    float64 // random slowdown probability
}

// NewState places n cars on the ring and draws their initial velocities
func NewState(n int, rules Rules, r *rng.Stream) (*State, error) {
	x, err := PlaceAgents(n, rules.L, r)
	if err != nil {
		return nil, err
	}
	v, err := PlaceVelocities(n, rules.L, rules.VMax, x, r)
	if err != nil {
		return nil, err
	}
	return &State{X: x, V: v}, nil
}

// Len returns the number of cars
func (s *State) Len() int {
	return min(len(s.X), len(s.V))
}

// Step advances the state by one tick.
//
// Velocities are finalized for every car before anyone moves, so a car's gap is always
// measured against its leader's position at the start of the tick. One Float draw is
// consumed per car, in index order.
func Step(s *State, rules Rules, r *rng.Stream) {
	n := s.Len()
	if n == 0 {
		return
	}
	x, v := s.X, s.V
	x0 := x[0]

	for i := 0; i < n; i++ {
		var d int
		if i < n-1 {
			d = x[i+1] - x[i]
		} else {
			d = x0 - x[i] + rules.L
		}

		v[i] = min(v[i]+1, rules.VMax, max(0, d-1))

		if float64(r.Float()) < rules.P && v[i] > 0 {
			v[i]--
		}
	}

	for i := 0; i < n; i++ {
		x[i] += v[i]
	}
}

// Ordered reports whether every car is strictly behind its leader on a ring of l cells
func (s *State) Ordered(l int) bool {
	n := s.Len()
	for i := 0; i < n-1; i++ {
		if s.X[i+1] <= s.X[i] {
			return false
		}
	}
	if n > 1 && s.X[n-1] >= s.X[0]+l {
		return false
	}
	return true
}

// Validate checks velocity bounds and ordering
func (s *State) Validate(rules Rules) error {
	if len(s.X) != len(s.V) {
		return fmt.Errorf("%w: %d positions, %d velocities", ErrInvalidArgument, len(s.X), len(s.V))
	}
	for i, vi := range s.V {
		if vi < 0 || vi > rules.VMax {
			return fmt.Errorf("%w: car %d velocity %d outside [0,%d]", ErrInvalidArgument, i, vi, rules.VMax)
		}
	}
	if !s.Ordered(rules.L) {
		return fmt.Errorf("%w: cars out of ring order", ErrInvalidArgument)
	}
	return nil
}

// Clone returns a deep copy
func (s *State) Clone() *State {
	return &State{
		X: append([]int(nil), s.X...),
		V: append([]int(nil), s.V...),
	}
}

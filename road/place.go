package road

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lixenwraith/nasch/rng"
)

// ErrInvalidArgument reports a placement request that cannot be satisfied
var ErrInvalidArgument = errors.New("road: invalid argument")

// PlaceAgents returns n distinct positions on a ring of l cells in ascending order.
//
// Each agent draws from [0, l-n-1]; after sorting, agent i is shifted by i. This maps
// n values in the shrunk range onto n values separated by at least one cell, with the
// last position at most l-1. Exactly n draws are consumed when n < l. A full ring
// (n == l) has a single arrangement and consumes no draws.
func PlaceAgents(n, l int, r *rng.Stream) ([]int, error) {
	if l <= 0 {
		return nil, fmt.Errorf("%w: ring size %d", ErrInvalidArgument, l)
	}
	if n < 0 || n > l {
		return nil, fmt.Errorf("%w: %d agents on %d cells", ErrInvalidArgument, n, l)
	}

	x := make([]int, n)
	if n == l {
		for i := range x {
			x[i] = i
		}
		return x, nil
	}

	for i := range x {
		v, err := r.Int(l - n - 1)
		if err != nil {
			return nil, fmt.Errorf("place agent %d: %w", i, err)
		}
		x[i] = v
	}
	slices.Sort(x)
	for i := range x {
		x[i] += i
	}
	return x, nil
}

// PlaceVelocities draws an initial velocity in [0, vmax] for each agent and clamps it
// to max(0, gap-1), gap being the forward distance to the next agent on the ring.
// x must be ascending. One Int draw per agent, in index order.
func PlaceVelocities(n, l, vmax int, x []int, r *rng.Stream) ([]int, error) {
	if vmax < 0 {
		return nil, fmt.Errorf("%w: vmax %d", ErrInvalidArgument, vmax)
	}
	if len(x) < n {
		return nil, fmt.Errorf("%w: %d positions for %d agents", ErrInvalidArgument, len(x), n)
	}

	v := make([]int, n)
	for i := 0; i < n; i++ {
		draw, err := r.Int(vmax)
		if err != nil {
			return nil, fmt.Errorf("velocity of agent %d: %w", i, err)
		}
		v[i] = min(draw, max(0, forwardGap(x, i, n, l)-1))
	}
	return v, nil
}

// forwardGap is the ring distance from agent i to its leader; a lone agent sees l
func forwardGap(x []int, i, n, l int) int {
	var d int
	if i < n-1 {
		d = x[i+1] - x[i]
	} else {
		d = x[0] - x[n-1]
	}
	if d <= 0 {
		d += l
	}
	return d
}

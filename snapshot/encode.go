// Package snapshot rasterizes the sparse car state onto the ring's cells.
package snapshot

// EmptyVelocity fills the velocity field of a road without cars
const EmptyVelocity int32 = 0

// unset marks a velocity cell not yet resolved
const unset int32 = -1

// Frame is the dense view of one sampled tick
type Frame struct {
	Tick     int
	Density  []int32 // cars per cell
	Velocity []int32 // car velocity, or velocity of the nearest car ahead
}

// NewFrame allocates a frame for a ring of l cells
func NewFrame(l int) *Frame {
	return &Frame{
		Density:  make([]int32, l),
		Velocity: make([]int32, l),
	}
}

// Cells returns the ring size the frame was built for
func (f *Frame) Cells() int {
	return len(f.Density)
}

// Encode fills f from positions x and velocities v on a ring of len(f.Density) cells.
//
// Density counts cars per wrapped cell. Occupied cells take their car's velocity; when
// several cars share a cell the highest index wins. Every empty cell takes the velocity
// of the nearest occupied cell ahead of it on the ring. With no cars at all the velocity
// field is EmptyVelocity everywhere.
func Encode(x, v []int, f *Frame) {
	l := f.Cells()
	n := min(len(x), len(v))
	dens, velo := f.Density, f.Velocity

	for c := range dens {
		dens[c] = 0
		velo[c] = unset
	}
	if l == 0 {
		return
	}
	if n == 0 {
		for c := range velo {
			velo[c] = EmptyVelocity
		}
		return
	}

	for i := 0; i < n; i++ {
		c := wrap(x[i], l)
		dens[c]++
		velo[c] = int32(v[i])
	}

	for c := 0; c < l; c++ {
		if velo[c] != unset {
			continue
		}
		for j := 1; j < l; j++ {
			if ahead := velo[(c+j)%l]; ahead != unset {
				velo[c] = ahead
				break
			}
		}
	}
}

// wrap maps an unwrapped position onto [0, l)
func wrap(x, l int) int {
	c := x % l
	if c < 0 {
		c += l
	}
	return c
}

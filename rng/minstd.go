// Package rng provides the seedable random stream that drives a simulation run.
//
// The generator is the Park-Miller "minimal standard" multiplicative LCG with
// multiplier 48271 (C++ std::minstd_rand). The float and integer draws reproduce
// the libstdc++ distribution algorithms, so a seed yields the same trajectory here
// as in the C++ reference tooling.
package rng

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
)

const (
	// Multiplier of the generator
	Multiplier uint64 = 48271

	// Modulus of the generator (2^31 - 1, prime)
	Modulus uint64 = 2147483647

	// Min and Max bound every raw draw
	Min uint32 = 1
	Max uint32 = uint32(Modulus - 1)

	// drawRange is Max-Min, the span of an offset draw
	drawRange = uint64(Max - Min)

	// canonicalScale is float32(Max-Min+1); it rounds to 2^31
	canonicalScale = float32(drawRange + 1)
)

// DefaultSeed matches the engine's default_seed
const DefaultSeed int64 = 1

// ErrInvalidArgument is returned for draw bounds the generator cannot serve
var ErrInvalidArgument = errors.New("rng: invalid argument")

// belowOne is the largest float32 strictly less than 1
var belowOne = math32.Nextafter(1, 0)

// Stream is a single logical random stream. The state is a plain integer in
// [1, Modulus-1] so it can be inspected, restored and fast-forwarded.
// A Stream is not safe for concurrent use.
type Stream struct {
	state uint64
}

// New returns a stream seeded with seed
func New(seed int64) *Stream {
	s := &Stream{}
	s.Seed(seed)
	return s
}

// Seed resets the stream. Negative seeds are reduced through their unsigned
// two's-complement value; a seed congruent to 0 becomes 1.
func (s *Stream) Seed(seed int64) {
	s.SetState(uint64(seed) % Modulus)
}

// State returns the raw generator state
func (s *Stream) State() uint64 {
	return s.state
}

// SetState restores a raw state, reducing it modulo Modulus
func (s *Stream) SetState(state uint64) {
	state %= Modulus
	if state == 0 {
		state = 1
	}
	s.state = state
}

// Next advances the generator and returns the new state, in [Min, Max]
func (s *Stream) Next() uint32 {
	s.state = (s.state * Multiplier) % Modulus
	return uint32(s.state)
}

// Float returns a uniform float32 in [0, 1), consuming exactly one draw
func (s *Stream) Float() float32 {
	f := float32(s.Next()-Min) / canonicalScale
	if f >= 1 {
		f = belowOne
	}
	return f
}

// Int returns a uniform integer in [0, max] using downscaling with rejection.
// The number of draws consumed is data dependent (at least one).
func (s *Stream) Int(max int) (int, error) {
	if max < 0 {
		return 0, fmt.Errorf("%w: max %d is negative", ErrInvalidArgument, max)
	}
	urange := uint64(max)
	if urange > drawRange {
		return 0, fmt.Errorf("%w: max %d exceeds generator range %d", ErrInvalidArgument, max, drawRange)
	}
	if urange == drawRange {
		return int(s.Next() - Min), nil
	}

	erange := urange + 1
	scaling := drawRange / erange
	past := erange * scaling
	var ret uint64
	for {
		ret = uint64(s.Next() - Min)
		if ret < past {
			break
		}
	}
	return int(ret / scaling), nil
}

// Skip advances the stream as if n draws had been consumed.
// Runs in O(log n) modular multiplications without allocating.
func (s *Stream) Skip(n uint64) {
	s.state = (s.state * Jump(n)) % Modulus
}

// Jump returns Multiplier^n mod Modulus, the factor that advances a state by n draws
func Jump(n uint64) uint64 {
	acc := uint64(1)
	b := Multiplier
	for n > 0 {
		if n&1 == 1 {
			acc = (acc * b) % Modulus
		}
		b = (b * b) % Modulus
		n >>= 1
	}
	return acc
}

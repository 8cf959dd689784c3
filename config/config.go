// Package config loads run parameters from a key=value file.
//
// Recognised keys are L, T, N, p, vmax, seed, per and outputprefix. Unknown keys are
// ignored, missing keys keep their defaults, and a line starting with '#' is a comment.
package config

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"strings"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/lixenwraith/nasch/parameter"
	"github.com/lixenwraith/nasch/road"
)

var (
	// ErrTooManyCars reports more cars than cells
	ErrTooManyCars = errors.New("config: more cars than cells")

	// ErrInvalid reports any other unusable parameter set or file
	ErrInvalid = errors.New("config: invalid parameters")
)

// Params is one simulation run
type Params struct {
	L            int     `param:"L"`
	T            int     `param:"T"`
	N            int     `param:"N"`
	P            float64 `param:"p"`
	VMax         int     `param:"vmax"`
	Seed         int64   `param:"seed"`
	Per          int     `param:"per"`
	OutputPrefix string  `param:"outputprefix"`
}

// Default returns the built-in parameter set
func Default() Params {
	return Params{
		L:            parameter.DefaultRingSize,
		T:            parameter.DefaultTicks,
		N:            parameter.DefaultCars,
		P:            parameter.DefaultSlowdown,
		VMax:         parameter.DefaultSpeedLimit,
		Seed:         parameter.DefaultSeed,
		Per:          parameter.DefaultSamplePeriod,
		OutputPrefix: parameter.DefaultOutputPrefix,
	}
}

// Validate checks the parameter set; a run is only started from a valid one
func (p Params) Validate() error {
	if p.L <= 0 {
		return fmt.Errorf("%w: L=%d, need at least one cell", ErrInvalid, p.L)
	}
	if p.N < 0 {
		return fmt.Errorf("%w: N=%d", ErrInvalid, p.N)
	}
	if p.N > p.L {
		return fmt.Errorf("%w: N=%d, L=%d", ErrTooManyCars, p.N, p.L)
	}
	if p.T < 0 {
		return fmt.Errorf("%w: T=%d", ErrInvalid, p.T)
	}
	// sampled ticks are stored as int32
	if p.Per > 0 && p.T > math.MaxInt32 {
		return fmt.Errorf("%w: T=%d exceeds the int32 tick range", ErrInvalid, p.T)
	}
	if math.IsNaN(p.P) || p.P < 0 || p.P > 1 {
		return fmt.Errorf("%w: p=%v, need 0 <= p <= 1", ErrInvalid, p.P)
	}
	if p.VMax < 0 {
		return fmt.Errorf("%w: vmax=%d", ErrInvalid, p.VMax)
	}
	if p.Per < 0 {
		return fmt.Errorf("%w: per=%d", ErrInvalid, p.Per)
	}
	if p.Per > 0 && strings.TrimSpace(p.OutputPrefix) == "" {
		return fmt.Errorf("%w: empty outputprefix", ErrInvalid)
	}
	return nil
}

// Rules returns the update rules of the run
func (p Params) Rules() road.Rules {
	return road.Rules{L: p.L, VMax: p.VMax, P: p.P}
}

// Sampled reports whether tick t is written to the output
func (p Params) Sampled(t int) bool {
	return p.Per > 0 && t%p.Per == 0
}

// Samples returns the number of records a complete run writes
func (p Params) Samples() int {
	if p.Per <= 0 {
		return 0
	}
	return p.T/p.Per + 1
}

// Map returns the parameters in file key order
func (p Params) Map() *orderedmap.OrderedMap[string, any] {
	m := orderedmap.NewOrderedMap[string, any]()
	m.Set("L", p.L)
	m.Set("T", p.T)
	m.Set("N", p.N)
	m.Set("p", p.P)
	m.Set("vmax", p.VMax)
	m.Set("seed", p.Seed)
	m.Set("per", p.Per)
	m.Set("outputprefix", p.OutputPrefix)
	return m
}

// Report renders the one-line console summary printed before a run
func (p Params) Report() string {
	m := p.Map()
	var sb strings.Builder
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		fmt.Fprintf(&sb, " %s=%v", key, v)
	}
	return sb.String()
}

// Marshal renders a parameter file that Parse reads back to p
func (p Params) Marshal() []byte {
	m := p.Map()
	var sb strings.Builder
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		if s, ok := v.(string); ok {
			fmt.Fprintf(&sb, "%s=%q\n", key, s)
			continue
		}
		fmt.Fprintf(&sb, "%s=%v\n", key, v)
	}
	return []byte(sb.String())
}

// Parse reads a parameter file over the defaults. Syntax and conversion errors
// wrap ErrInvalid and carry the line number.
func Parse(data []byte) (Params, error) {
	p := Default()

	parser := NewParser(data)
	entries, err := parser.Parse()
	if err != nil {
		return p, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	for _, line := range parser.Skipped() {
		log.Printf("config: line %d has no '=', ignored", line)
	}

	unknown, err := Decode(entries, &p)
	if err != nil {
		return p, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	for _, key := range unknown {
		log.Printf("config: unknown key %q ignored", key)
	}
	return p, nil
}

// Load reads the parameter file at path. The returned error wraps the
// *os.PathError when the file cannot be read.
func Load(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("config: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return p, fmt.Errorf("%s: %w", path, err)
	}
	log.Printf("config: loaded %s", path)
	return p, nil
}

// Package sim drives a ring road run: placement, per-tick sampling into the .npy
// triple, and the state transition, for ticks 0 through T.
package sim

import (
	"fmt"
	"log"
	"time"

	"github.com/lixenwraith/nasch/config"
	"github.com/lixenwraith/nasch/npy"
	"github.com/lixenwraith/nasch/rng"
	"github.com/lixenwraith/nasch/road"
	"github.com/lixenwraith/nasch/snapshot"
	"github.com/lixenwraith/nasch/stats"
)

// Simulation owns the state and random stream of one run
type Simulation struct {
	params config.Params
	rules  road.Rules
	rng    *rng.Stream
	state  *road.State
	frame  *snapshot.Frame
	tick   int
}

// New validates p and places the cars
func New(p config.Params) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	r := rng.New(p.Seed)
	rules := p.Rules()
	state, err := road.NewState(p.N, rules, r)
	if err != nil {
		return nil, err
	}
	return &Simulation{
		params: p,
		rules:  rules,
		rng:    r,
		state:  state,
		frame:  snapshot.NewFrame(p.L),
	}, nil
}

// Params returns the validated parameters of the run
func (s *Simulation) Params() config.Params { return s.params }

// Tick returns the index of the current state
func (s *Simulation) Tick() int { return s.tick }

// State returns the live state; it changes on Advance
func (s *Simulation) State() *road.State { return s.state }

// Done reports whether every tick 0..T has been advanced
func (s *Simulation) Done() bool { return s.tick > s.params.T }

// Frame encodes the current state. The frame is reused by the next call.
func (s *Simulation) Frame() *snapshot.Frame {
	snapshot.Encode(s.state.X, s.state.V, s.frame)
	s.frame.Tick = s.tick
	return s.frame
}

// Advance applies one tick of the update rules
func (s *Simulation) Advance() {
	road.Step(s.state, s.rules, s.rng)
	s.tick++
}

// Options select optional run outputs
type Options struct {
	// KeepFlows retains the per-tick flow series in Result.Flows
	KeepFlows bool
}

// Result describes a finished run
type Result struct {
	Summary stats.Summary
	Flows   []float32
}

// Run executes a whole run and writes the sampled ticks to the triple named by
// p.OutputPrefix. With p.Per == 0 no file is created. The writer is closed on every
// path; a failed append stops the run.
func Run(p config.Params, opts Options) (res Result, err error) {
	s, err := New(p)
	if err != nil {
		return res, err
	}

	var w *npy.Writer
	if p.Per > 0 {
		w, err = npy.Create(p.OutputPrefix, p.L)
		if err != nil {
			return res, err
		}
		defer func() {
			if cerr := w.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
	}

	log.Printf("sim: start%s", p.Report())
	started := time.Now()

	acc := stats.NewAccumulator(opts.KeepFlows)
	for !s.Done() {
		acc.Add(stats.Observe(s.state, p.L))
		if p.Sampled(s.tick) {
			f := s.Frame()
			if err = w.Append(f.Tick, f.Density, f.Velocity); err != nil {
				return res, fmt.Errorf("tick %d: %w", f.Tick, err)
			}
		}
		s.Advance()
	}

	res.Summary = acc.Summary()
	res.Summary.Fingerprint = stats.Fingerprint(s.state, p.L)
	if w != nil {
		res.Summary.Records = w.Records()
	}
	res.Flows = acc.Flows()

	log.Printf("sim: %d ticks, %d records in %v", res.Summary.Ticks, res.Summary.Records, time.Since(started))
	return res, nil
}

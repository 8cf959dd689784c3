package main

import (
	"github.com/lixenwraith/nasch/npy"
	"github.com/lixenwraith/nasch/sim"
)

// row is one tick of the space-time diagram
type row struct {
	tick     int
	density  []int32
	velocity []int32
}

// source yields rows in tick order until exhausted
type source interface {
	Next() (row, bool)
	Cells() int
	VMax() int32
	// PeakFlow is the flow that maps to the highest tone
	PeakFlow() float32
}

// liveSource runs a simulation and shows every tick
type liveSource struct {
	sim *sim.Simulation
}

func (s *liveSource) Next() (row, bool) {
	if s.sim.Done() {
		return row{}, false
	}
	f := s.sim.Frame()
	r := row{
		tick:     f.Tick,
		density:  append([]int32(nil), f.Density...),
		velocity: append([]int32(nil), f.Velocity...),
	}
	s.sim.Advance()
	return r, true
}

func (s *liveSource) Cells() int  { return s.sim.Params().L }
func (s *liveSource) VMax() int32 { return int32(s.sim.Params().VMax) }

// PeakFlow bounds sum(v)/L by every car at vmax
func (s *liveSource) PeakFlow() float32 {
	p := s.sim.Params()
	return float32(p.N*p.VMax) / float32(p.L)
}

// replaySource walks a saved triple
type replaySource struct {
	triple *npy.Triple
	next   int
	vmax   int32
	peak   float32
}

func newReplaySource(t *npy.Triple) *replaySource {
	var vmax int32
	for _, v := range t.Velocity.Data {
		vmax = max(vmax, v)
	}
	rs := &replaySource{triple: t, vmax: vmax}
	for i := range t.Frames() {
		rs.peak = max(rs.peak, rowFlow(row{density: t.Density.Row(i), velocity: t.Velocity.Row(i)}))
	}
	return rs
}

func (s *replaySource) Next() (row, bool) {
	if s.next >= s.triple.Frames() {
		return row{}, false
	}
	i := s.next
	s.next++
	return row{
		tick:     int(s.triple.Time.Row(i)[0]),
		density:  s.triple.Density.Row(i),
		velocity: s.triple.Velocity.Row(i),
	}, true
}

func (s *replaySource) Cells() int  { return s.triple.Cells() }
func (s *replaySource) VMax() int32 { return s.vmax }

// PeakFlow is the highest flow in the saved series
func (s *replaySource) PeakFlow() float32 { return s.peak }

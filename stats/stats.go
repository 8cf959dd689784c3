// Package stats measures the macroscopic state of the ring road: mean speed, flow and
// the share of stopped cars per tick, aggregated over a run.
package stats

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/chewxy/math32"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/zeebo/xxh3"

	"github.com/lixenwraith/nasch/road"
)

// Tick is the observation of one road state
type Tick struct {
	Cars         int
	MeanVelocity float32 // cells per tick, averaged over cars
	StdVelocity  float32
	Flow         float32 // cars passing a cell per tick: sum(v) / L
	Stopped      float32 // fraction of cars with v = 0
}

// Observe measures s on a ring of l cells
func Observe(s *road.State, l int) Tick {
	n := s.Len()
	t := Tick{Cars: n}
	if n == 0 || l <= 0 {
		return t
	}

	var sum, sumSq float32
	stopped := 0
	for _, v := range s.V[:n] {
		fv := float32(v)
		sum += fv
		sumSq += fv * fv
		if v == 0 {
			stopped++
		}
	}

	mean := sum / float32(n)
	t.MeanVelocity = mean
	t.StdVelocity = math32.Sqrt(math32.Max(0, sumSq/float32(n)-mean*mean))
	t.Flow = sum / float32(l)
	t.Stopped = float32(stopped) / float32(n)
	return t
}

// Fingerprint hashes wrapped positions and velocities of s. Two runs with equal
// parameters and seed produce equal fingerprints at every tick.
func Fingerprint(s *road.State, l int) uint64 {
	h := xxh3.New()
	var buf [16]byte
	for i := 0; i < s.Len(); i++ {
		x := s.X[i]
		if l > 0 {
			x %= l
		}
		binary.LittleEndian.PutUint64(buf[:8], uint64(x))
		binary.LittleEndian.PutUint64(buf[8:], uint64(s.V[i]))
		h.Write(buf[:])
	}
	return h.Sum64()
}

// Accumulator aggregates tick observations over a run
type Accumulator struct {
	ticks   int
	sumMean float32
	sumFlow float32
	sumStop float32
	minFlow float32
	maxFlow float32
	flows   []float32
	keep    bool
}

// NewAccumulator returns an empty accumulator. With keepSeries the flow of every added
// tick is retained for Flows.
func NewAccumulator(keepSeries bool) *Accumulator {
	return &Accumulator{keep: keepSeries}
}

// Add records one observation
func (a *Accumulator) Add(t Tick) {
	if a.ticks == 0 {
		a.minFlow, a.maxFlow = t.Flow, t.Flow
	} else {
		a.minFlow = math32.Min(a.minFlow, t.Flow)
		a.maxFlow = math32.Max(a.maxFlow, t.Flow)
	}
	a.ticks++
	a.sumMean += t.MeanVelocity
	a.sumFlow += t.Flow
	a.sumStop += t.Stopped
	if a.keep {
		a.flows = append(a.flows, t.Flow)
	}
}

// Flows returns the retained flow series
func (a *Accumulator) Flows() []float32 {
	return a.flows
}

// Summary is the aggregate of a run
type Summary struct {
	Ticks        int
	Records      int
	MeanVelocity float32
	MeanFlow     float32
	MinFlow      float32
	MaxFlow      float32
	Stopped      float32
	Fingerprint  uint64
}

// Summary returns the run averages; Records and Fingerprint are left to the caller
func (a *Accumulator) Summary() Summary {
	s := Summary{Ticks: a.ticks}
	if a.ticks == 0 {
		return s
	}
	n := float32(a.ticks)
	s.MeanVelocity = a.sumMean / n
	s.MeanFlow = a.sumFlow / n
	s.MinFlow = a.minFlow
	s.MaxFlow = a.maxFlow
	s.Stopped = a.sumStop / n
	return s
}

// Table returns the summary fields in display order
func (s Summary) Table() *orderedmap.OrderedMap[string, any] {
	m := orderedmap.NewOrderedMap[string, any]()
	m.Set("ticks", s.Ticks)
	m.Set("records", s.Records)
	m.Set("mean velocity", fmt.Sprintf("%.4f", s.MeanVelocity))
	m.Set("mean flow", fmt.Sprintf("%.4f", s.MeanFlow))
	m.Set("flow range", fmt.Sprintf("%.4f..%.4f", s.MinFlow, s.MaxFlow))
	m.Set("stopped", fmt.Sprintf("%.1f%%", 100*s.Stopped))
	m.Set("fingerprint", fmt.Sprintf("%016x", s.Fingerprint))
	return m
}

// String renders the table one field per line
func (s Summary) String() string {
	m := s.Table()
	var sb strings.Builder
	for _, key := range m.Keys() {
		v, _ := m.Get(key)
		fmt.Fprintf(&sb, "%-14s %v\n", key+":", v)
	}
	return sb.String()
}

package main

import (
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/nasch/config"
	"github.com/lixenwraith/nasch/npy"
	"github.com/lixenwraith/nasch/sim"
)

func newTestScreen(t *testing.T, w, h int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatal(err)
	}
	screen.SetSize(w, h)
	t.Cleanup(screen.Fini)
	return screen
}

func liveParams() config.Params {
	return config.Params{L: 10, T: 2, N: 3, P: 0, VMax: 2, Seed: 42, Per: 0}
}

func screenRow(screen tcell.SimulationScreen, y, w int) string {
	var sb strings.Builder
	for x := 0; x < w; x++ {
		ch, _, _, _ := screen.GetContent(x, y)
		sb.WriteRune(ch)
	}
	return sb.String()
}

func TestViewer_LiveRows(t *testing.T) {
	s, err := sim.New(liveParams())
	if err != nil {
		t.Fatal(err)
	}
	screen := newTestScreen(t, 10, 6)
	v := NewViewer(screen, &liveSource{sim: s}, 10*time.Millisecond)

	for i := 0; i < 4; i++ {
		v.advance()
	}
	v.draw()

	want := []string{
		"█·█··█····",
		"·█··█··█··",
		"···█··█··█",
	}
	for y, w := range want {
		if got := screenRow(screen, y, 10); got != w {
			t.Errorf("row %d = %q, want %q", y, got, w)
		}
	}
	if !v.finished {
		t.Error("source of T=2 not exhausted after 4 pulls")
	}
	if status := screenRow(screen, 5, 10); !strings.HasPrefix(status, " tick 2") {
		t.Errorf("status %q", status)
	}
}

func TestViewer_Scrolls(t *testing.T) {
	p := liveParams()
	p.T = 20
	s, err := sim.New(p)
	if err != nil {
		t.Fatal(err)
	}
	screen := newTestScreen(t, 10, 4)
	v := NewViewer(screen, &liveSource{sim: s}, time.Millisecond)

	for i := 0; i < 10; i++ {
		v.advance()
	}
	if len(v.history) != 3 {
		t.Fatalf("history %d rows, want 3", len(v.history))
	}
	if v.history[2].tick != 9 || v.history[0].tick != 7 {
		t.Errorf("visible ticks %d..%d", v.history[0].tick, v.history[2].tick)
	}
}

func TestViewer_Input(t *testing.T) {
	p := liveParams()
	p.L, p.N = 40, 10
	s, err := sim.New(p)
	if err != nil {
		t.Fatal(err)
	}
	screen := newTestScreen(t, 10, 5)
	v := NewViewer(screen, &liveSource{sim: s}, 40*time.Millisecond)

	keys := []struct {
		ev    *tcell.EventKey
		check func() bool
	}{
		{tcell.NewEventKey(tcell.KeyRune, ' ', tcell.ModNone), func() bool { return v.paused }},
		{tcell.NewEventKey(tcell.KeyRune, 'v', tcell.ModNone), func() bool { return !v.showVelocity }},
		{tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone), func() bool { return v.offset > 0 }},
		{tcell.NewEventKey(tcell.KeyEnd, 0, tcell.ModNone), func() bool { return v.offset == 30 }},
		{tcell.NewEventKey(tcell.KeyHome, 0, tcell.ModNone), func() bool { return v.offset == 0 }},
		{tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone), func() bool { return v.offset == 0 }},
		{tcell.NewEventKey(tcell.KeyRune, '+', tcell.ModNone), func() bool { return v.frameDelay == 20*time.Millisecond }},
		{tcell.NewEventKey(tcell.KeyRune, 'n', tcell.ModNone), func() bool { return len(v.history) == 1 }},
	}
	for i, k := range keys {
		if !v.handleInput(k.ev) {
			t.Fatalf("key %d ended the viewer", i)
		}
		if !k.check() {
			t.Errorf("key %d (%v) had no effect", i, k.ev.Name())
		}
	}

	if v.handleInput(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)) {
		t.Error("q did not quit")
	}
	if v.handleInput(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("escape did not quit")
	}
}

func TestReplaySource(t *testing.T) {
	p := liveParams()
	p.Per = 1
	p.OutputPrefix = filepath.Join(t.TempDir(), "replay")
	if _, err := sim.Run(p, sim.Options{}); err != nil {
		t.Fatal(err)
	}
	tr, err := npy.LoadTriple(p.OutputPrefix)
	if err != nil {
		t.Fatal(err)
	}

	live, err := sim.New(p)
	if err != nil {
		t.Fatal(err)
	}
	ls := &liveSource{sim: live}
	rs := newReplaySource(tr)
	if rs.Cells() != 10 || rs.VMax() != 2 {
		t.Errorf("replay cells %d vmax %d", rs.Cells(), rs.VMax())
	}
	// 3 cars at vmax 2 on 10 cells; the saved run reaches that flow at tick 2
	if got := ls.PeakFlow(); got != 0.6 {
		t.Errorf("live PeakFlow = %v, want 0.6", got)
	}
	if got := rs.PeakFlow(); got != 0.6 {
		t.Errorf("replay PeakFlow = %v, want 0.6", got)
	}

	for {
		a, okA := ls.Next()
		b, okB := rs.Next()
		if okA != okB {
			t.Fatalf("sources end at different ticks")
		}
		if !okA {
			break
		}
		if a.tick != b.tick || !slices.Equal(a.density, b.density) || !slices.Equal(a.velocity, b.velocity) {
			t.Errorf("tick %d: live and replay differ", a.tick)
		}
	}
}

func TestReplaySource_PeakFlowIsSeriesMax(t *testing.T) {
	p := liveParams()
	p.T = 0
	p.Per = 1
	p.OutputPrefix = filepath.Join(t.TempDir(), "short")
	if _, err := sim.Run(p, sim.Options{}); err != nil {
		t.Fatal(err)
	}
	tr, err := npy.LoadTriple(p.OutputPrefix)
	if err != nil {
		t.Fatal(err)
	}
	// Only tick 0 is saved: velocities [1,1,2] on 10 cells
	if got := newReplaySource(tr).PeakFlow(); got != 0.4 {
		t.Errorf("PeakFlow = %v, want 0.4", got)
	}
}

func TestViewer_RowFlow(t *testing.T) {
	if got := rowFlow(row{density: []int32{1, 0, 2, 0}, velocity: []int32{2, 2, 1, 1}}); got != 1 {
		t.Errorf("rowFlow = %v, want 1", got)
	}
	if got := rowFlow(row{}); got != 0 {
		t.Errorf("empty rowFlow = %v", got)
	}

	s, err := sim.New(liveParams())
	if err != nil {
		t.Fatal(err)
	}
	v := NewViewer(newTestScreen(t, 10, 5), &liveSource{sim: s}, time.Millisecond)
	var flows []float32
	v.onRow = func(flow float32) { flows = append(flows, flow) }
	for !v.finished {
		v.advance()
	}
	// Ticks 0..2: velocities [1,1,2], [1,2,2], [2,2,2] on 10 cells
	if !slices.Equal(flows, []float32{0.4, 0.5, 0.6}) {
		t.Errorf("flows %v", flows)
	}
}

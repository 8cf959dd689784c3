package main

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/nasch/parameter"
	"github.com/lixenwraith/nasch/plot"
)

const (
	carRune   = '█'
	emptyRune = '·'
)

// Viewer scrolls a space-time diagram: newest tick at the bottom, one column per cell
type Viewer struct {
	screen        tcell.Screen
	width, height int

	src      source
	history  []row
	finished bool

	// onRow, when set, is called with the flow of every new row
	onRow func(flow float32)

	// Display state
	showVelocity bool
	paused       bool
	offset       int // first visible cell
	frameDelay   time.Duration
}

func NewViewer(screen tcell.Screen, src source, frameDelay time.Duration) *Viewer {
	v := &Viewer{
		screen:       screen,
		src:          src,
		showVelocity: true,
		frameDelay:   frameDelay,
	}
	v.width, v.height = screen.Size()
	return v
}

// rows available for the diagram; the last screen line is the status bar
func (v *Viewer) rows() int {
	return max(0, v.height-1)
}

// advance pulls one row from the source
func (v *Viewer) advance() {
	if v.finished {
		return
	}
	r, ok := v.src.Next()
	if !ok {
		v.finished = true
		return
	}
	v.history = append(v.history, r)
	if v.onRow != nil {
		v.onRow(rowFlow(r))
	}
	if excess := len(v.history) - v.rows(); excess > 0 {
		v.history = append(v.history[:0], v.history[excess:]...)
	}
}

func (v *Viewer) cellStyle(r row, c int) (rune, tcell.Style) {
	ch := emptyRune
	if r.density[c] > 0 {
		ch = carRune
	}
	if !v.showVelocity {
		return ch, tcell.StyleDefault.Foreground(tcell.ColorWhite)
	}
	col := plot.VelocityColor(r.velocity[c], v.src.VMax())
	r8, g8, b8 := col.RGB255()
	return ch, tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r8), int32(g8), int32(b8)))
}

func (v *Viewer) draw() {
	v.screen.Clear()

	cells := v.src.Cells()
	for y, r := range v.history {
		for x := 0; x < v.width && v.offset+x < cells; x++ {
			ch, style := v.cellStyle(r, v.offset+x)
			v.screen.SetContent(x, y, ch, nil, style)
		}
	}
	v.drawStatus()
	v.screen.Show()
}

func (v *Viewer) drawStatus() {
	tick := "-"
	if n := len(v.history); n > 0 {
		tick = fmt.Sprint(v.history[n-1].tick)
	}
	state := "running"
	switch {
	case v.finished:
		state = "done"
	case v.paused:
		state = "paused"
	}
	mode := "density"
	if v.showVelocity {
		mode = "velocity"
	}
	status := fmt.Sprintf(" tick %s  %s  %s  cells %d-%d  %dms  [space] pause [v] mode [←→] scroll [+-] speed [q] quit",
		tick, state, mode, v.offset, min(v.offset+v.width, v.src.Cells())-1, v.frameDelay.Milliseconds())

	style := tcell.StyleDefault.Reverse(true)
	y := v.height - 1
	for x := 0; x < v.width; x++ {
		ch := ' '
		if x < len([]rune(status)) {
			ch = []rune(status)[x]
		}
		v.screen.SetContent(x, y, ch, nil, style)
	}
}

func (v *Viewer) handleResize() {
	v.width, v.height = v.screen.Size()
	if excess := len(v.history) - v.rows(); excess > 0 {
		v.history = append(v.history[:0], v.history[excess:]...)
	}
	v.clampOffset()
}

func (v *Viewer) clampOffset() {
	v.offset = max(0, min(v.offset, v.src.Cells()-v.width))
}

// handleInput returns false when the viewer should exit
func (v *Viewer) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyLeft:
			v.offset -= max(1, v.width/4)
			v.clampOffset()
		case tcell.KeyRight:
			v.offset += max(1, v.width/4)
			v.clampOffset()
		case tcell.KeyHome:
			v.offset = 0
		case tcell.KeyEnd:
			v.offset = v.src.Cells()
			v.clampOffset()
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case ' ':
				v.paused = !v.paused
			case 'v':
				v.showVelocity = !v.showVelocity
			case 'n':
				v.advance()
			case '+':
				v.frameDelay = max(v.frameDelay/2, parameter.ViewerMinFrameMs*time.Millisecond)
			case '-':
				v.frameDelay = min(v.frameDelay*2, parameter.ViewerMaxFrameMs*time.Millisecond)
			}
		}

	case *tcell.EventResize:
		v.handleResize()
	}

	return true
}

func (v *Viewer) run() {
	ticker := time.NewTicker(v.frameDelay)
	defer ticker.Stop()
	delay := v.frameDelay

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	v.draw()
	for {
		select {
		case ev := <-eventChan:
			if !v.handleInput(ev) {
				return
			}
			v.draw()

		case <-ticker.C:
			if delay != v.frameDelay {
				delay = v.frameDelay
				ticker.Reset(delay)
			}
			if !v.paused && !v.finished {
				v.advance()
				v.draw()
			}
		}
	}
}

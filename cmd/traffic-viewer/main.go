// Command traffic-viewer shows a ring road run as a scrolling space-time diagram in the
// terminal, either live from a parameter file or replayed from a saved .npy triple.
//
//	traffic-viewer [paramfile]
//	traffic-viewer -replay traffic
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"runtime/debug"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/nasch/config"
	"github.com/lixenwraith/nasch/npy"
	"github.com/lixenwraith/nasch/parameter"
	"github.com/lixenwraith/nasch/sim"
)

var (
	replayFlag = flag.String("replay", "", "Replay the triple saved under this output prefix")
	frameFlag  = flag.Int("frame", parameter.ViewerFrameMs, "Milliseconds between rows")
	soundFlag  = flag.Bool("sound", false, "Play a tone per row, pitched by traffic flow")
)

func main() {
	flag.Parse()
	log.SetOutput(io.Discard)

	src, err := openSource()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if r := recover(); r != nil {
			screen.Fini()
			fmt.Fprintf(os.Stderr, "traffic-viewer crashed: %v\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()
	defer screen.Fini()

	frame := time.Duration(min(max(*frameFlag, parameter.ViewerMinFrameMs), parameter.ViewerMaxFrameMs)) * time.Millisecond
	v := NewViewer(screen, src, frame)

	if *soundFlag {
		// Non-fatal, the viewer runs without sound
		if player, err := newTonePlayer(src.PeakFlow()); err == nil {
			defer player.close()
			v.onRow = player.play
		}
	}
	v.run()
}

func openSource() (source, error) {
	if *replayFlag != "" {
		t, err := npy.LoadTriple(*replayFlag)
		if err != nil {
			return nil, err
		}
		return newReplaySource(t), nil
	}

	p := config.Default()
	if path := flag.Arg(0); path != "" {
		var err error
		p, err = config.Load(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	s, err := sim.New(p)
	if err != nil {
		return nil, err
	}
	return &liveSource{sim: s}, nil
}

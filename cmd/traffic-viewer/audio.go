package main

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/nasch/sonify"
)

// tonePlayer sounds one short tone per displayed row
type tonePlayer struct {
	cfg  sonify.Config
	peak float32
}

// newTonePlayer opens the audio device. peak is the flow that maps to the highest pitch.
func newTonePlayer(peak float32) (*tonePlayer, error) {
	cfg := sonify.DefaultConfig()
	if err := speaker.Init(cfg.SampleRate, cfg.SampleRate.N(time.Second/10)); err != nil {
		return nil, err
	}
	return &tonePlayer{cfg: cfg, peak: peak}, nil
}

func (p *tonePlayer) play(flow float32) {
	speaker.Play(beep.Take(p.cfg.SampleRate.N(p.cfg.Tone), sonify.Streamer([]float32{flow}, p.peak, p.cfg)))
}

func (p *tonePlayer) close() {
	speaker.Close()
}

// rowFlow estimates sum(v)/L from a dense row; occupied cells carry their car's velocity
func rowFlow(r row) float32 {
	if len(r.density) == 0 {
		return 0
	}
	var sum int32
	for c, d := range r.density {
		sum += d * r.velocity[c]
	}
	return float32(sum) / float32(len(r.density))
}

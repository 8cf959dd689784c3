// Package sonify renders a per-tick series, such as traffic flow, as a WAV file: one
// short sine tone per tick whose pitch rises with the value.
package sonify

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/wav"

	"github.com/lixenwraith/nasch/parameter"
)

// ErrIO reports a failure creating or writing the output file
var ErrIO = errors.New("sonify: i/o error")

// Config controls the rendering
type Config struct {
	SampleRate beep.SampleRate
	Tone       time.Duration // length of one value
	Ramp       time.Duration // attack and release of each tone
	BaseFreq   float64       // pitch of a zero value
	SpanFreq   float64       // added to BaseFreq at peak
	Gain       float64       // effects.Gain; -1 mutes
}

// DefaultConfig returns the tone settings from the parameter package
func DefaultConfig() Config {
	return Config{
		SampleRate: beep.SampleRate(parameter.AudioSampleRate),
		Tone:       parameter.AudioToneMs * time.Millisecond,
		Ramp:       parameter.AudioRampMs * time.Millisecond,
		BaseFreq:   parameter.AudioBaseFreq,
		SpanFreq:   parameter.AudioSpanFreq,
		Gain:       parameter.AudioGain,
	}
}

// Pitch maps v in [0, peak] to a frequency; values outside are clamped
func (c Config) Pitch(v, peak float32) float64 {
	if peak <= 0 {
		return c.BaseFreq
	}
	f := math.Max(0, math.Min(1, float64(v/peak)))
	return c.BaseFreq + f*c.SpanFreq
}

// toneSeries plays one tone per value with continuous phase across tones
type toneSeries struct {
	cfg      Config
	series   []float32
	peak     float32
	toneLen  int
	rampLen  int
	index    int // current value
	position int // sample within the current tone
	phase    float64
}

// Streamer returns the rendering of series. A peak of 0 uses the series maximum.
func Streamer(series []float32, peak float32, cfg Config) beep.Streamer {
	if peak <= 0 {
		for _, v := range series {
			peak = max(peak, v)
		}
	}
	tone := &toneSeries{
		cfg:     cfg,
		series:  series,
		peak:    peak,
		toneLen: max(1, cfg.SampleRate.N(cfg.Tone)),
	}
	tone.rampLen = min(cfg.SampleRate.N(cfg.Ramp), tone.toneLen/2)
	return &effects.Gain{Streamer: tone, Gain: cfg.Gain}
}

// Len returns the total sample count
func (t *toneSeries) Len() int {
	return len(t.series) * t.toneLen
}

func (t *toneSeries) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if t.index >= len(t.series) {
			return i, i > 0
		}

		freq := t.cfg.Pitch(t.series[t.index], t.peak)
		val := math.Sin(2*math.Pi*t.phase) * t.envelope()

		samples[i][0] = val
		samples[i][1] = val

		t.phase += freq / float64(t.cfg.SampleRate)
		t.phase -= math.Floor(t.phase)
		t.position++
		if t.position >= t.toneLen {
			t.position = 0
			t.index++
		}
	}
	return len(samples), true
}

// envelope ramps each tone in and out to avoid clicks between pitches
func (t *toneSeries) envelope() float64 {
	if t.rampLen == 0 {
		return 1
	}
	if t.position < t.rampLen {
		return float64(t.position) / float64(t.rampLen)
	}
	if remaining := t.toneLen - t.position; remaining < t.rampLen {
		return float64(remaining) / float64(t.rampLen)
	}
	return 1
}

func (t *toneSeries) Err() error { return nil }

// WriteWAV renders series into a 16-bit stereo WAV file at path
func WriteWAV(path string, series []float32, peak float32, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	format := beep.Format{SampleRate: cfg.SampleRate, NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, Streamer(series, peak, cfg), format); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}

	log.Printf("sonify: wrote %d tones to %s", len(series), path)
	return nil
}

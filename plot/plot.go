// Package plot draws a space-time diagram of a saved run: one pixel row per sampled
// tick, density on the left panel and velocity on the right.
package plot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/nasch/npy"
)

var (
	// ErrEmpty reports a triple with no frames or cells to draw
	ErrEmpty = errors.New("plot: nothing to draw")

	// ErrIO reports a failure writing the image
	ErrIO = errors.New("plot: i/o error")
)

// Velocity ramp endpoints: stopped, half speed, free flow
var (
	rampSlow = colorful.Color{R: 0.843, G: 0.188, B: 0.153}
	rampMid  = colorful.Color{R: 1.000, G: 1.000, B: 0.749}
	rampFast = colorful.Color{R: 0.102, G: 0.596, B: 0.314}

	emptyCell   = colorful.Color{R: 1, G: 1, B: 1}
	occupied    = colorful.Color{R: 0, G: 0, B: 0}
	overlapCell = colorful.Color{R: 0.6, G: 0, B: 0}
	separator   = color.RGBA{R: 128, G: 128, B: 128, A: 255}
)

// Options control the layout
type Options struct {
	Scale int   // pixels per cell and per frame; 0 means 1
	Gap   int   // separator width between the panels
	VMax  int32 // velocity at the green end of the ramp; 0 uses the data maximum
}

// VelocityColor maps v in [0, vmax] onto the red-yellow-green ramp, blended in Lab space
func VelocityColor(v, vmax int32) colorful.Color {
	if vmax <= 0 {
		return rampSlow
	}
	t := float64(v) / float64(vmax)
	switch {
	case t <= 0:
		return rampSlow
	case t >= 1:
		return rampFast
	case t < 0.5:
		return rampSlow.BlendLab(rampMid, 2*t).Clamped()
	default:
		return rampMid.BlendLab(rampFast, 2*t-1).Clamped()
	}
}

// DensityColor is white for an empty cell and black for one car. Shared cells are
// marked red.
func DensityColor(d int32) colorful.Color {
	switch {
	case d <= 0:
		return emptyCell
	case d == 1:
		return occupied
	default:
		return overlapCell
	}
}

// Render draws the triple
func Render(t *npy.Triple, opts Options) (*image.RGBA, error) {
	if t == nil || t.Frames() == 0 || t.Cells() == 0 {
		return nil, ErrEmpty
	}
	scale := max(1, opts.Scale)
	gap := max(0, opts.Gap)
	frames, cells := t.Frames(), t.Cells()

	vmax := opts.VMax
	if vmax <= 0 {
		for _, v := range t.Velocity.Data {
			vmax = max(vmax, v)
		}
	}

	panel := cells * scale
	img := image.NewRGBA(image.Rect(0, 0, 2*panel+gap, frames*scale))
	for y := 0; y < frames; y++ {
		dens, velo := t.Density.Row(y), t.Velocity.Row(y)
		for c := 0; c < cells; c++ {
			fill(img, c*scale, y*scale, scale, DensityColor(dens[c]))
			fill(img, panel+gap+c*scale, y*scale, scale, VelocityColor(velo[c], vmax))
		}
		for x := panel; x < panel+gap; x++ {
			for dy := 0; dy < scale; dy++ {
				img.Set(x, y*scale+dy, separator)
			}
		}
	}
	return img, nil
}

func fill(img *image.RGBA, x, y, size int, c color.Color) {
	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			img.Set(x+dx, y+dy, c)
		}
	}
}

// WritePNG encodes img to path
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIO, path, err)
	}
	return nil
}

// File renders the triple saved under prefix to a PNG at out
func File(prefix, out string, opts Options) error {
	t, err := npy.LoadTriple(prefix)
	if err != nil {
		return err
	}
	img, err := Render(t, opts)
	if err != nil {
		return err
	}
	return WritePNG(out, img)
}

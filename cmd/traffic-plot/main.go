// Command traffic-plot renders a saved run as a PNG space-time diagram.
//
//	traffic-plot [-o out.png] [-scale 2] [-vmax 5] [prefix]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lixenwraith/nasch/parameter"
	"github.com/lixenwraith/nasch/plot"
)

func main() {
	var (
		output string
		scale  int
		gap    int
		vmax   int
	)
	flag.StringVar(&output, "o", "", "Output PNG (default <prefix>.png)")
	flag.IntVar(&scale, "scale", 1, "Pixels per cell and per tick")
	flag.IntVar(&gap, "gap", 4, "Separator width between the density and velocity panels")
	flag.IntVar(&vmax, "vmax", 0, "Velocity mapped to green (0 = data maximum)")
	flag.Parse()

	prefix := parameter.DefaultOutputPrefix
	if flag.NArg() > 0 {
		prefix = flag.Arg(0)
	}
	if output == "" {
		output = prefix + ".png"
	}

	opts := plot.Options{Scale: scale, Gap: gap, VMax: int32(vmax)}
	if err := plot.File(prefix, output, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s\n", output)
}

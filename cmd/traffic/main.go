// Command traffic runs a Nagel-Schreckenberg ring road simulation and writes the
// sampled density, velocity and tick arrays to <outputprefix>-{dens,velo,time}.npy.
//
// Usage:
//
//	traffic [-debug] [-quiet] [-wav flow.wav] [paramfile]
//
// Without a parameter file the built-in defaults are used.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/lixenwraith/nasch/config"
	"github.com/lixenwraith/nasch/sim"
	"github.com/lixenwraith/nasch/sonify"
)

// Exit codes
const (
	exitOK     = 0
	exitConfig = 1
	exitIO     = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flags := flag.NewFlagSet("traffic", flag.ContinueOnError)
	flags.SetOutput(stderr)
	debug := flags.Bool("debug", false, "Write a debug log to logs/traffic.log")
	quiet := flags.Bool("quiet", false, "Print nothing but errors")
	wavPath := flags.String("wav", "", "Render the per-tick flow to this WAV file")
	flags.Usage = func() {
		fmt.Fprintln(stderr, "Usage: traffic [options] [paramfile]")
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return exitConfig
	}

	if logFile := setupLogging(*debug); logFile != nil {
		defer logFile.Close()
	}

	p, err := loadParams(flags.Arg(0), stderr)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitConfig
	}
	if !*quiet {
		fmt.Fprintln(stdout, p.Report())
	}

	res, err := sim.Run(p, sim.Options{KeepFlows: *wavPath != ""})
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitCode(err)
	}

	if *wavPath != "" {
		peak := float32(p.N*p.VMax) / float32(p.L)
		if err := sonify.WriteWAV(*wavPath, res.Flows, peak, sonify.DefaultConfig()); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return exitIO
		}
	}

	if !*quiet {
		fmt.Fprint(stdout, res.Summary.String())
	}
	return exitOK
}

// loadParams reads path over the defaults. A missing file is only a warning.
func loadParams(path string, stderr io.Writer) (config.Params, error) {
	if path == "" {
		fmt.Fprintln(stderr, "warning: no parameter file given, using defaults")
		return config.Default(), nil
	}
	p, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "warning: %s not found, using defaults\n", path)
		return config.Default(), nil
	}
	return p, err
}

// exitCode maps configuration errors to 1 and output failures (npy.ErrIO and the
// like) to 2
func exitCode(err error) int {
	if errors.Is(err, config.ErrInvalid) || errors.Is(err, config.ErrTooManyCars) {
		return exitConfig
	}
	return exitIO
}

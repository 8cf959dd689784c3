package npy

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
)

// Placeholder is the leading dimension written at open time. Its digit count bounds
// every record count a run can reach, so the final header always fits.
const Placeholder = 1000000000

// File name suffixes of the triple
const (
	SuffixDensity  = "-dens.npy"
	SuffixVelocity = "-velo.npy"
	SuffixTime     = "-time.npy"
)

// Paths returns the density, velocity and time file names for prefix
func Paths(prefix string) (dens, velo, time string) {
	return prefix + SuffixDensity, prefix + SuffixVelocity, prefix + SuffixTime
}

// stream is one output file with its reserved header length and record width
type stream struct {
	path      string
	file      *os.File
	buf       *bufio.Writer
	headerLen int
	width     int // values per record; second dimension of the shape
}

// header renders the final header at exactly the length reserved at open
func (s *stream) header(records int) ([]byte, error) {
	return Header(DescrInt32, []int{records, s.width}, s.headerLen)
}

// Writer appends sampled ticks to a density, velocity and time .npy triple.
// Records are (cells) int32 for density and velocity and one int32 tick for time.
// A Writer is not safe for concurrent use.
type Writer struct {
	cells   int
	records int
	dens    *stream
	velo    *stream
	time    *stream
	scratch []byte
	closed  bool
}

// Create opens the triple for prefix and writes provisional headers.
// Either all three files are created or none is left behind.
func Create(prefix string, cells int) (*Writer, error) {
	if cells <= 0 {
		return nil, fmt.Errorf("%w: %d cells", ErrShape, cells)
	}
	densPath, veloPath, timePath := Paths(prefix)

	w := &Writer{
		cells:   cells,
		dens:    &stream{path: densPath, width: cells},
		velo:    &stream{path: veloPath, width: cells},
		time:    &stream{path: timePath, width: 1},
		scratch: make([]byte, 4*cells),
	}

	var opened []*stream
	for _, s := range w.streams() {
		if err := s.open(); err != nil {
			for _, o := range opened {
				o.file.Close()
				os.Remove(o.path)
			}
			return nil, err
		}
		opened = append(opened, s)
	}
	return w, nil
}

func (w *Writer) streams() []*stream {
	return []*stream{w.dens, w.velo, w.time}
}

func (s *stream) open() error {
	hdr, err := Header(DescrInt32, []int{Placeholder, s.width}, 0)
	if err != nil {
		return err
	}
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	// Header goes straight to disk so an interrupted run still leaves a readable preamble
	if _, err := f.Write(hdr); err != nil {
		f.Close()
		os.Remove(s.path)
		return fmt.Errorf("%w: %s: %w", ErrIO, s.path, err)
	}
	s.file = f
	s.buf = bufio.NewWriter(f)
	s.headerLen = len(hdr)
	return nil
}

// Cells returns the record width of the density and velocity arrays
func (w *Writer) Cells() int {
	return w.cells
}

// Records returns the number of appended records
func (w *Writer) Records() int {
	return w.records
}

// HeaderLens returns the reserved header length of each file (density, velocity, time)
func (w *Writer) HeaderLens() (dens, velo, time int) {
	return w.dens.headerLen, w.velo.headerLen, w.time.headerLen
}

// Append writes one record to each file
func (w *Writer) Append(tick int, density, velocity []int32) error {
	if w.closed {
		return fmt.Errorf("%w: append after close", ErrIO)
	}
	if len(density) != w.cells || len(velocity) != w.cells {
		return fmt.Errorf("%w: record of %d/%d cells, want %d", ErrShape, len(density), len(velocity), w.cells)
	}
	if tick < 0 || tick > math.MaxInt32 {
		return fmt.Errorf("%w: tick %d does not fit int32", ErrShape, tick)
	}

	if err := w.dens.writeInts(density, w.scratch); err != nil {
		return err
	}
	if err := w.velo.writeInts(velocity, w.scratch); err != nil {
		return err
	}
	if err := w.time.writeInts([]int32{int32(tick)}, w.scratch); err != nil {
		return err
	}
	w.records++
	return nil
}

func (s *stream) writeInts(vals []int32, scratch []byte) error {
	b := scratch[:4*len(vals)]
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[4*i:], uint32(v))
	}
	if _, err := s.buf.Write(b); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIO, s.path, err)
	}
	return nil
}

// Close rewrites the headers with the final record count and closes every file.
// Every file is closed even when an earlier one fails. Calling Close again is a no-op.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	for _, s := range w.streams() {
		if err := s.finalize(w.records); err != nil {
			errs = append(errs, err)
		}
	}
	log.Printf("npy: closed %d records x %d cells", w.records, w.cells)
	return errors.Join(errs...)
}

func (s *stream) finalize(records int) error {
	err := s.rewrite(records)
	if cerr := s.file.Close(); cerr != nil && err == nil {
		err = fmt.Errorf("%w: %s: %w", ErrIO, s.path, cerr)
	}
	return err
}

// rewrite flushes pending records and patches the header in place
func (s *stream) rewrite(records int) error {
	if err := s.buf.Flush(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIO, s.path, err)
	}
	hdr, err := s.header(records)
	if err != nil {
		return fmt.Errorf("%s: %w", s.path, err)
	}
	if _, err := s.file.WriteAt(hdr, 0); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIO, s.path, err)
	}
	if _, err := s.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrIO, s.path, err)
	}
	return nil
}

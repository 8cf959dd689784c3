package npy

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// Info describes a parsed header
type Info struct {
	Major, Minor int
	Descr        string
	Fortran      bool
	Shape        []int
	HeaderLen    int // total header bytes, preamble included
}

// Len returns the element count implied by the shape
func (h Info) Len() int {
	n := 1
	for _, d := range h.Shape {
		n *= d
	}
	return n
}

// Array is a loaded integer array in C order
type Array struct {
	Info
	Data []int32
}

// Row returns the i-th slice along the leading dimension
func (a *Array) Row(i int) []int32 {
	if len(a.Shape) < 2 {
		return a.Data[i : i+1]
	}
	w := a.Len() / a.Shape[0]
	return a.Data[i*w : (i+1)*w]
}

// ReadHeader parses a format 1.x, 2.x or 3.x header from r
func ReadHeader(r io.Reader) (Info, error) {
	var info Info

	pre := make([]byte, len(Magic)+2)
	if _, err := io.ReadFull(r, pre); err != nil {
		return info, fmt.Errorf("%w: preamble: %w", ErrFormat, err)
	}
	if string(pre[:len(Magic)]) != Magic {
		return info, fmt.Errorf("%w: bad magic %q", ErrFormat, pre[:len(Magic)])
	}
	info.Major, info.Minor = int(pre[len(Magic)]), int(pre[len(Magic)+1])

	var bodyLen int
	switch info.Major {
	case 1:
		var b [2]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return info, fmt.Errorf("%w: header length: %w", ErrFormat, err)
		}
		bodyLen = int(binary.LittleEndian.Uint16(b[:]))
		info.HeaderLen = len(pre) + 2 + bodyLen
	case 2, 3:
		var b [4]byte
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return info, fmt.Errorf("%w: header length: %w", ErrFormat, err)
		}
		bodyLen = int(binary.LittleEndian.Uint32(b[:]))
		info.HeaderLen = len(pre) + 4 + bodyLen
	default:
		return info, fmt.Errorf("%w: unsupported version %d.%d", ErrFormat, info.Major, info.Minor)
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return info, fmt.Errorf("%w: header body: %w", ErrFormat, err)
	}
	if bodyLen == 0 || body[bodyLen-1] != '\n' {
		return info, fmt.Errorf("%w: header not newline terminated", ErrFormat)
	}

	if err := parseDict(strings.TrimSpace(string(body)), &info); err != nil {
		return info, err
	}
	return info, nil
}

// parseDict extracts descr, fortran_order and shape from the header's dict literal
func parseDict(dict string, info *Info) error {
	descr, ok := dictValue(dict, "descr")
	if !ok {
		return fmt.Errorf("%w: missing descr", ErrFormat)
	}
	info.Descr = strings.Trim(descr, `'"`)

	fortran, ok := dictValue(dict, "fortran_order")
	if !ok {
		return fmt.Errorf("%w: missing fortran_order", ErrFormat)
	}
	info.Fortran = fortran == "True"

	i := strings.Index(dict, "'shape'")
	if i < 0 {
		return fmt.Errorf("%w: missing shape", ErrFormat)
	}
	open := strings.IndexByte(dict[i:], '(')
	end := strings.IndexByte(dict[i:], ')')
	if open < 0 || end < open {
		return fmt.Errorf("%w: malformed shape", ErrFormat)
	}

	info.Shape = info.Shape[:0]
	for _, part := range strings.Split(dict[i+open+1:i+end], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil || d < 0 {
			return fmt.Errorf("%w: shape dimension %q", ErrFormat, part)
		}
		info.Shape = append(info.Shape, d)
	}
	return nil
}

// dictValue returns the scalar literal following 'key': up to the next comma
func dictValue(dict, key string) (string, bool) {
	marker := "'" + key + "':"
	i := strings.Index(dict, marker)
	if i < 0 {
		return "", false
	}
	rest := strings.TrimSpace(dict[i+len(marker):])
	if j := strings.IndexAny(rest, ",}"); j >= 0 {
		rest = rest[:j]
	}
	return strings.TrimSpace(rest), true
}

// Read decodes a whole array of '<i4' or '<i8' values from r
func Read(r io.Reader) (*Array, error) {
	info, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	return readData(r, info)
}

func readData(r io.Reader, info Info) (*Array, error) {
	if info.Fortran {
		return nil, fmt.Errorf("%w: fortran order not supported", ErrFormat)
	}

	n := info.Len()
	a := &Array{Info: info, Data: make([]int32, n)}
	if itemSize(info.Descr) == 0 {
		return nil, fmt.Errorf("%w: unsupported dtype %q", ErrFormat, info.Descr)
	}
	if n == 0 {
		return a, nil
	}
	switch info.Descr {
	case DescrInt32:
		if err := binary.Read(r, binary.LittleEndian, a.Data); err != nil {
			return nil, fmt.Errorf("%w: data: %w", ErrFormat, err)
		}
	case DescrInt64:
		wide := make([]int64, n)
		if err := binary.Read(r, binary.LittleEndian, wide); err != nil {
			return nil, fmt.Errorf("%w: data: %w", ErrFormat, err)
		}
		for i, v := range wide {
			a.Data[i] = int32(v)
		}
	}
	return a, nil
}

// itemSize returns the byte width of a supported dtype
func itemSize(descr string) int {
	switch descr {
	case DescrInt32:
		return 4
	case DescrInt64:
		return 8
	}
	return 0
}

// Load reads the array stored at path. A file whose header promises more data than
// it holds, such as one left with a provisional header by an interrupted run, is an
// ErrFormat.
func Load(path string) (*Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	br := bufio.NewReader(f)
	info, err := ReadHeader(br)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if want := int64(info.HeaderLen) + int64(info.Len())*int64(itemSize(info.Descr)); want > st.Size() {
		return nil, fmt.Errorf("%s: %w: header declares %d bytes, file has %d", path, ErrFormat, want, st.Size())
	}

	a, err := readData(br, info)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Triple is a loaded density, velocity and time set
type Triple struct {
	Density  *Array
	Velocity *Array
	Time     *Array
}

// Frames returns the number of records common to all three arrays
func (t *Triple) Frames() int {
	n := t.Density.Shape[0]
	n = min(n, t.Velocity.Shape[0], t.Time.Shape[0])
	return n
}

// Cells returns the ring size
func (t *Triple) Cells() int {
	if len(t.Density.Shape) < 2 {
		return 0
	}
	return t.Density.Shape[1]
}

// LoadTriple loads the three arrays written for prefix
func LoadTriple(prefix string) (*Triple, error) {
	densPath, veloPath, timePath := Paths(prefix)
	var t Triple
	var err error
	if t.Density, err = Load(densPath); err != nil {
		return nil, err
	}
	if t.Velocity, err = Load(veloPath); err != nil {
		return nil, err
	}
	if t.Time, err = Load(timePath); err != nil {
		return nil, err
	}
	if len(t.Density.Shape) != 2 || !slices.Equal(t.Density.Shape, t.Velocity.Shape) {
		return nil, fmt.Errorf("%w: density %v, velocity %v", ErrShape, t.Density.Shape, t.Velocity.Shape)
	}
	return &t, nil
}

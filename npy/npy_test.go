package npy

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestHeader_Layout(t *testing.T) {
	hdr, err := Header(DescrInt32, []int{Placeholder, 500}, 0)
	if err != nil {
		t.Fatal(err)
	}

	if len(hdr) != 96 {
		t.Errorf("header length = %d, want 96", len(hdr))
	}
	if len(hdr)%headerAlign != 0 {
		t.Errorf("header length %d not aligned", len(hdr))
	}
	if !bytes.HasPrefix(hdr, []byte("\x93NUMPY\x01\x00")) {
		t.Errorf("bad preamble %q", hdr[:8])
	}
	if got := int(binary.LittleEndian.Uint16(hdr[8:10])); got != len(hdr)-10 {
		t.Errorf("length field = %d, want %d", got, len(hdr)-10)
	}
	if hdr[8] != byte((len(hdr)-10)%256) || hdr[9] != byte((len(hdr)-10)/256) {
		t.Errorf("length field bytes %x %x", hdr[8], hdr[9])
	}
	if hdr[len(hdr)-1] != '\n' {
		t.Error("header does not end in newline")
	}

	body := string(hdr[10:])
	want := "{'descr': '<i4', 'fortran_order': False, 'shape': (1000000000, 500), }"
	if !strings.HasPrefix(body, want) {
		t.Errorf("dict = %q", body)
	}
	if strings.TrimLeft(body[len(want):], " ") != "\n" {
		t.Errorf("padding = %q", body[len(want):])
	}
}

func TestHeader_FixedLength(t *testing.T) {
	reserved, err := Header(DescrInt32, []int{Placeholder, 500}, 0)
	if err != nil {
		t.Fatal(err)
	}

	for _, records := range []int{0, 1, 42, 999999999, Placeholder} {
		hdr, err := Header(DescrInt32, []int{records, 500}, len(reserved))
		if err != nil {
			t.Fatalf("records=%d: %v", records, err)
		}
		if len(hdr) != len(reserved) {
			t.Errorf("records=%d: rewritten header is %d bytes, reserved %d", records, len(hdr), len(reserved))
		}
		info, err := ReadHeader(bytes.NewReader(hdr))
		if err != nil {
			t.Fatalf("records=%d: %v", records, err)
		}
		if !slices.Equal(info.Shape, []int{records, 500}) {
			t.Errorf("records=%d: parsed shape %v", records, info.Shape)
		}
	}
}

func TestHeader_TooShort(t *testing.T) {
	_, err := Header(DescrInt32, []int{Placeholder, 500}, 64)
	if !errors.Is(err, ErrFormat) {
		t.Errorf("err = %v, want ErrFormat", err)
	}
}

func TestHeader_Shapes(t *testing.T) {
	tests := []struct {
		shape []int
		want  string
	}{
		{[]int{7}, "(7,)"},
		{[]int{3, 10}, "(3, 10)"},
		{[]int{2, 3, 4}, "(2, 3, 4)"},
		{nil, "()"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatShape(tt.shape); got != tt.want {
				t.Errorf("formatShape(%v) = %q", tt.shape, got)
			}
			hdr, err := Header(DescrInt32, tt.shape, 0)
			if err != nil {
				t.Fatal(err)
			}
			info, err := ReadHeader(bytes.NewReader(hdr))
			if err != nil {
				t.Fatal(err)
			}
			if len(info.Shape) != len(tt.shape) || (len(tt.shape) > 0 && !slices.Equal(info.Shape, tt.shape)) {
				t.Errorf("round trip shape %v, want %v", info.Shape, tt.shape)
			}
		})
	}
}

func TestReadHeader_Rejects(t *testing.T) {
	good, _ := Header(DescrInt32, []int{1, 2}, 0)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", append([]byte("\x93NUMPX"), good[6:]...)},
		{"bad version", append(append([]byte{}, good[:6]...), append([]byte{9, 0}, good[8:]...)...)},
		{"truncated", good[:20]},
		{"no newline", append(good[:len(good)-1:len(good)-1], ' ')},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ReadHeader(bytes.NewReader(tt.data)); !errors.Is(err, ErrFormat) {
				t.Errorf("err = %v, want ErrFormat", err)
			}
		})
	}
}

func fileSize(t *testing.T, path string) int64 {
	t.Helper()
	st, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	return st.Size()
}

func TestWriter_EmptyRun(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "empty")
	w, err := Create(prefix, 500)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	densLen, veloLen, timeLen := w.HeaderLens()
	densPath, veloPath, timePath := Paths(prefix)
	for _, c := range []struct {
		path   string
		hdrLen int
		width  int
	}{
		{densPath, densLen, 500},
		{veloPath, veloLen, 500},
		{timePath, timeLen, 1},
	} {
		if got := fileSize(t, c.path); got != int64(c.hdrLen) {
			t.Errorf("%s: size %d, want header only (%d)", c.path, got, c.hdrLen)
		}
		a, err := Load(c.path)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(a.Shape, []int{0, c.width}) {
			t.Errorf("%s: shape %v, want (0, %d)", c.path, a.Shape, c.width)
		}
		if len(a.Data) != 0 {
			t.Errorf("%s: %d values", c.path, len(a.Data))
		}
	}
}

func TestWriter_AppendAndClose(t *testing.T) {
	const cells, k = 10, 7
	prefix := filepath.Join(t.TempDir(), "run")
	w, err := Create(prefix, cells)
	if err != nil {
		t.Fatal(err)
	}
	openDens, openVelo, openTime := w.HeaderLens()

	dens := make([]int32, cells)
	velo := make([]int32, cells)
	for rec := 0; rec < k; rec++ {
		for c := range dens {
			dens[c] = int32((rec + c) % 2)
			velo[c] = int32(rec*100 + c)
		}
		if err := w.Append(rec*3, dens, velo); err != nil {
			t.Fatal(err)
		}
	}
	if w.Records() != k {
		t.Fatalf("Records() = %d", w.Records())
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	densPath, veloPath, timePath := Paths(prefix)
	if got, want := fileSize(t, densPath), int64(openDens+k*cells*4); got != want {
		t.Errorf("density size %d, want %d", got, want)
	}
	if got, want := fileSize(t, veloPath), int64(openVelo+k*cells*4); got != want {
		t.Errorf("velocity size %d, want %d", got, want)
	}
	if got, want := fileSize(t, timePath), int64(openTime+k*4); got != want {
		t.Errorf("time size %d, want %d", got, want)
	}

	tr, err := LoadTriple(prefix)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Frames() != k || tr.Cells() != cells {
		t.Fatalf("triple %d frames x %d cells", tr.Frames(), tr.Cells())
	}
	if tr.Density.HeaderLen != openDens || tr.Time.HeaderLen != openTime {
		t.Errorf("header length changed on close: %d/%d vs %d/%d", tr.Density.HeaderLen, tr.Time.HeaderLen, openDens, openTime)
	}
	if !slices.Equal(tr.Time.Shape, []int{k, 1}) {
		t.Errorf("time shape %v", tr.Time.Shape)
	}
	for rec := 0; rec < k; rec++ {
		if got := tr.Time.Row(rec)[0]; got != int32(rec*3) {
			t.Errorf("time[%d] = %d", rec, got)
		}
		if got := tr.Velocity.Row(rec)[4]; got != int32(rec*100+4) {
			t.Errorf("velocity[%d][4] = %d", rec, got)
		}
		if got := tr.Density.Row(rec)[1]; got != int32((rec+1)%2) {
			t.Errorf("density[%d][1] = %d", rec, got)
		}
	}
}

func TestWriter_AppendValidation(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "v"), 4)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Append(0, make([]int32, 3), make([]int32, 4)); !errors.Is(err, ErrShape) {
		t.Errorf("short record: err = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := w.Append(0, make([]int32, 4), make([]int32, 4)); !errors.Is(err, ErrIO) {
		t.Errorf("append after close: err = %v", err)
	}
	if w.Records() != 0 {
		t.Errorf("rejected records counted: %d", w.Records())
	}
}

func TestWriter_TickRange(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "ticks"), 2)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	rec := make([]int32, 2)
	big := int64(math.MaxInt32)
	if err := w.Append(int(big), rec, rec); err != nil {
		t.Fatalf("max int32 tick: %v", err)
	}
	for _, tick := range []int{-1, int(big + 1)} {
		if err := w.Append(tick, rec, rec); !errors.Is(err, ErrShape) {
			t.Errorf("tick %d: err = %v, want ErrShape", tick, err)
		}
	}
	if w.Records() != 1 {
		t.Errorf("Records() = %d, want 1", w.Records())
	}
}

func TestWriter_HeaderOnDiskBeforeClose(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "live")
	w, err := Create(prefix, 8)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	rec := make([]int32, 8)
	for i := 0; i < 20; i++ {
		if err := w.Append(i, rec, rec); err != nil {
			t.Fatal(err)
		}
	}

	densLen, _, timeLen := w.HeaderLens()
	densPath, _, timePath := Paths(prefix)
	for _, c := range []struct {
		path   string
		hdrLen int
		width  int
	}{
		{densPath, densLen, 8},
		{timePath, timeLen, 1},
	} {
		if got := fileSize(t, c.path); got < int64(c.hdrLen) {
			t.Fatalf("%s: %d bytes on disk, want at least the %d byte header", c.path, got, c.hdrLen)
		}
		f, err := os.Open(c.path)
		if err != nil {
			t.Fatal(err)
		}
		info, err := ReadHeader(f)
		f.Close()
		if err != nil {
			t.Fatalf("%s: %v", c.path, err)
		}
		if !slices.Equal(info.Shape, []int{Placeholder, c.width}) {
			t.Errorf("%s: shape %v, want provisional (%d, %d)", c.path, info.Shape, Placeholder, c.width)
		}
		if _, err := Load(c.path); !errors.Is(err, ErrFormat) {
			t.Errorf("%s: unfinished file loaded: err = %v", c.path, err)
		}
	}
}

func TestWriter_ProvisionalHeaderIsRejected(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "killed")
	w, err := Create(prefix, 8)
	if err != nil {
		t.Fatal(err)
	}
	rec := make([]int32, 8)
	for i := 0; i < 3; i++ {
		if err := w.Append(i, rec, rec); err != nil {
			t.Fatal(err)
		}
	}
	// Simulate a killed process: flush the bytes without patching headers
	for _, s := range w.streams() {
		if err := s.buf.Flush(); err != nil {
			t.Fatal(err)
		}
		s.file.Close()
	}

	densPath, _, _ := Paths(prefix)
	if _, err := Load(densPath); !errors.Is(err, ErrFormat) {
		t.Errorf("provisional file loaded: err = %v", err)
	}
}

func TestCreate_Failures(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := Create(filepath.Join(t.TempDir(), "nope", "run"), 10)
		if !errors.Is(err, ErrIO) {
			t.Errorf("err = %v, want ErrIO", err)
		}
	})

	t.Run("all or nothing", func(t *testing.T) {
		prefix := filepath.Join(t.TempDir(), "run")
		_, veloPath, _ := Paths(prefix)
		if err := os.Mkdir(veloPath, 0o755); err != nil {
			t.Fatal(err)
		}

		_, err := Create(prefix, 10)
		if !errors.Is(err, ErrIO) {
			t.Fatalf("err = %v, want ErrIO", err)
		}
		densPath, _, timePath := Paths(prefix)
		for _, p := range []string{densPath, timePath} {
			if _, err := os.Stat(p); !os.IsNotExist(err) {
				t.Errorf("%s left behind", p)
			}
		}
	})

	t.Run("zero cells", func(t *testing.T) {
		if _, err := Create(filepath.Join(t.TempDir(), "z"), 0); !errors.Is(err, ErrShape) {
			t.Errorf("err = %v, want ErrShape", err)
		}
	})
}

func TestRead_Int64(t *testing.T) {
	hdr, err := Header(DescrInt64, []int{2, 2}, 0)
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	buf.Write(hdr)
	binary.Write(&buf, binary.LittleEndian, []int64{1, -2, 3, 40})

	a, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a.Data, []int32{1, -2, 3, 40}) {
		t.Errorf("Data = %v", a.Data)
	}
	if !slices.Equal(a.Row(1), []int32{3, 40}) {
		t.Errorf("Row(1) = %v", a.Row(1))
	}
}

// Package npy writes and reads NumPy .npy (format 1.0) integer arrays.
//
// The Writer streams records whose final count is unknown until Close: the header is
// written first with a placeholder leading dimension and rewritten in place, at the
// same byte length, once the run ends.
package npy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// Magic opens every .npy file
	Magic = "\x93NUMPY"

	// preambleLen is magic + 2 version bytes + 2 length bytes
	preambleLen = len(Magic) + 4

	// headerAlign is the alignment of the whole header
	headerAlign = 16

	// DescrInt32 is the dtype of every array written by this package
	DescrInt32 = "<i4"

	// DescrInt64 is accepted by the reader
	DescrInt64 = "<i8"
)

var (
	// ErrFormat reports a header that cannot be built or parsed
	ErrFormat = errors.New("npy: format error")

	// ErrIO reports a file system failure on any of the streams
	ErrIO = errors.New("npy: i/o error")

	// ErrShape reports a record whose length does not match the array
	ErrShape = errors.New("npy: shape mismatch")
)

// Header builds a format 1.0 header describing a C-ordered array of dtype descr.
//
// With fixLen 0 the header is padded with spaces so its total length, newline included,
// is a multiple of 16. Otherwise the header is padded to exactly fixLen bytes, and a
// fixLen too small to hold the descriptor is an ErrFormat.
func Header(descr string, shape []int, fixLen int) ([]byte, error) {
	dict := fmt.Sprintf("{'descr': '%s', 'fortran_order': False, 'shape': %s, }", descr, formatShape(shape))

	minLen := preambleLen + len(dict) + 1
	total := fixLen
	if fixLen == 0 {
		total = (minLen + headerAlign - 1) / headerAlign * headerAlign
	}
	if total < minLen {
		return nil, fmt.Errorf("%w: header needs %d bytes, %d reserved", ErrFormat, minLen, fixLen)
	}

	bodyLen := total - preambleLen
	if bodyLen > 0xFFFF {
		return nil, fmt.Errorf("%w: header length %d exceeds format 1.0 limit", ErrFormat, bodyLen)
	}

	buf := make([]byte, 0, total)
	buf = append(buf, Magic...)
	buf = append(buf, 1, 0)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(bodyLen))
	buf = append(buf, dict...)
	buf = append(buf, strings.Repeat(" ", total-minLen)...)
	buf = append(buf, '\n')
	return buf, nil
}

// formatShape renders a Python tuple literal
func formatShape(shape []int) string {
	if len(shape) == 1 {
		return "(" + strconv.Itoa(shape[0]) + ",)"
	}
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

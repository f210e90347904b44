// Package byteio provides bounds-checked big-endian primitive reads over
// an in-memory byte slice, plus zero-copy sub-readers for region and
// archive framing.
package byteio

import (
	"encoding/binary"
	"fmt"
	"math"
)

// TruncatedError reports a read that ran past the end of the buffer.
type TruncatedError struct {
	Offset int
	Need   int
	Have   int
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("truncated read at offset %d: need %d bytes, have %d", e.Offset, e.Need, e.Have)
}

// Reader reads big-endian primitives from a byte slice with a cursor.
// It never copies the underlying slice.
type Reader struct {
	buf []byte
	pos int
}

// New wraps buf in a Reader starting at offset 0.
func New(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int { return len(r.buf) - r.pos }

func (r *Reader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return &TruncatedError{Offset: r.pos, Need: n, Have: len(r.buf) - r.pos}
	}
	return nil
}

// Bytes reads n raw bytes without copying; the returned slice aliases the
// underlying buffer and must not be retained past the buffer's lifetime
// if the caller intends to mutate it.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Skip advances the cursor by n bytes without returning them.
func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// Byte reads a single unsigned byte.
func (r *Reader) Byte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.buf[r.pos]
	r.pos++
	return b, nil
}

// Int8 reads a signed byte.
func (r *Reader) Int8() (int8, error) {
	b, err := r.Byte()
	return int8(b), err
}

// Uint16 reads a big-endian uint16.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// Int16 reads a big-endian int16.
func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err
}

// Uint32 reads a big-endian uint32.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Int32 reads a big-endian int32.
func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

// Uint64 reads a big-endian uint64.
func (r *Reader) Uint64() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// Int64 reads a big-endian int64.
func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

// Float32 reads a big-endian IEEE-754 single.
func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	return math.Float32frombits(v), err
}

// Float64 reads a big-endian IEEE-754 double.
func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	return math.Float64frombits(v), err
}

// Uint24 reads a 3-byte big-endian unsigned integer, as used by the
// region-file location table.
func (r *Reader) Uint24() (uint32, error) {
	b, err := r.Bytes(3)
	if err != nil {
		return 0, err
	}
	return uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]), nil
}

// Sub returns a new Reader over buf[off:off+n] without copying. It does
// not affect r's own cursor.
func (r *Reader) Sub(off, n int) (*Reader, error) {
	if off < 0 || n < 0 || off+n > len(r.buf) {
		return nil, &TruncatedError{Offset: off, Need: n, Have: len(r.buf) - off}
	}
	return &Reader{buf: r.buf[off : off+n]}, nil
}

// NewSub builds a zero-copy Reader over buf[off:off+n].
func NewSub(buf []byte, off, n int) (*Reader, error) {
	return New(buf).Sub(off, n)
}

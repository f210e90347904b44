// Package streamdecomp auto-detects and inflates the compression formats
// used by Anvil region chunks, level.dat, and schematic files: gzip,
// zlib, raw deflate, and (for the region chunk compression byte) lz4.
package streamdecomp

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/pierrec/lz4/v4"
)

// Method names the compression scheme a stream was (or should be)
// decoded with.
type Method byte

const (
	MethodGZip    Method = 1
	MethodZlib    Method = 2
	MethodRaw     Method = 3
	MethodLZ4     Method = 4
	MethodUnknown Method = 0
)

// UnsupportedCompressionError reports a region chunk compression byte
// outside the known 1-4 range.
type UnsupportedCompressionError struct {
	Byte byte
}

func (e *UnsupportedCompressionError) Error() string {
	return fmt.Sprintf("unsupported compression method byte %d", e.Byte)
}

// TooLargeError reports a decompressed stream that exceeded the caller's
// size cap.
type TooLargeError struct {
	Limit int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("decompressed data exceeded %d byte limit", e.Limit)
}

// DecompressFailedError wraps an underlying decompressor error.
type DecompressFailedError struct {
	Method Method
	Err    error
}

func (e *DecompressFailedError) Error() string {
	return fmt.Sprintf("decompress failed (method %d): %v", e.Method, e.Err)
}

func (e *DecompressFailedError) Unwrap() error { return e.Err }

// ByMethod decompresses data using the named method, bounded by limit
// bytes (the read returns TooLargeError if more data is available).
func ByMethod(method Method, data []byte, limit int64) ([]byte, error) {
	var rc io.ReadCloser
	var err error

	switch method {
	case MethodGZip:
		rc, err = gzip.NewReader(bytes.NewReader(data))
	case MethodZlib:
		rc, err = zlib.NewReader(bytes.NewReader(data))
	case MethodRaw:
		rc = flate.NewReader(bytes.NewReader(data))
	case MethodLZ4:
		zr := lz4.NewReader(bytes.NewReader(data))
		rc = io.NopCloser(zr)
	default:
		return nil, &UnsupportedCompressionError{Byte: byte(method)}
	}
	if err != nil {
		return nil, &DecompressFailedError{Method: method, Err: err}
	}
	defer rc.Close()

	return readBounded(rc, method, limit)
}

// AutoDetect inspects data's leading bytes per the mixed marker/magic
// convention region-adjacent tools use: a leading 0x01/0x02 method byte,
// or bare gzip (0x1F 0x8B) / zlib (0x78 {0x01,0x9C,0xDA}) magic with no
// method byte at all. Falls back to treating the stream as already
// uncompressed.
func AutoDetect(data []byte, limit int64) ([]byte, Method, error) {
	if len(data) == 0 {
		return nil, MethodUnknown, fmt.Errorf("empty data")
	}

	if data[0] == byte(MethodGZip) && len(data) > 1 {
		out, err := ByMethod(MethodGZip, data[1:], limit)
		return out, MethodGZip, err
	}
	if data[0] == byte(MethodZlib) && len(data) > 1 {
		out, err := ByMethod(MethodZlib, data[1:], limit)
		return out, MethodZlib, err
	}
	if len(data) >= 2 && data[0] == 0x1F && data[1] == 0x8B {
		out, err := ByMethod(MethodGZip, data, limit)
		return out, MethodGZip, err
	}
	if len(data) >= 2 && data[0] == 0x78 && (data[1] == 0x01 || data[1] == 0x9C || data[1] == 0xDA) {
		out, err := ByMethod(MethodZlib, data, limit)
		return out, MethodZlib, err
	}
	return data, MethodUnknown, nil
}

func readBounded(r io.Reader, method Method, limit int64) ([]byte, error) {
	lr := io.LimitReader(r, limit+1)
	out, err := io.ReadAll(lr)
	if err != nil {
		return nil, &DecompressFailedError{Method: method, Err: err}
	}
	if int64(len(out)) > limit {
		return nil, &TooLargeError{Limit: limit}
	}
	return out, nil
}

// Package stream reads framed buffers from register-tree streams.
//
// Each buffer carries an 8-byte header and a 1-byte footer around the
// payload. The frame number is packed into the first two header bytes.
// Payloads are published as little-endian 16-bit and 32-bit word views.
package stream

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Framing constants.
const (
	HeaderSize = 8
	FooterSize = 1

	// DefaultMaxSize is the default read buffer size (200 MiB).
	DefaultMaxSize = 200 * 1024 * 1024
)

// ErrShortFrame is returned for buffers smaller than header plus footer.
var ErrShortFrame = errors.New("frame shorter than header and footer")

// Frame is a decoded stream buffer.
type Frame struct {
	// Number is the frame number from the header.
	Number uint32

	// Size is the number of bytes read, framing included.
	Size int

	// Payload is the data between header and footer. It aliases the read
	// buffer.
	Payload []byte
}

// FrameNumber extracts the frame number from a header.
func FrameNumber(header []byte) uint32 {
	return uint32(header[1])<<4 | uint32(header[0])>>4
}

// Decode splits a buffer of n read bytes.
func Decode(buf []byte) (Frame, error) {
	if len(buf) < HeaderSize+FooterSize {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrShortFrame, len(buf))
	}
	return Frame{
		Number:  FrameNumber(buf),
		Size:    len(buf),
		Payload: buf[HeaderSize : len(buf)-FooterSize],
	}, nil
}

// Words16 returns the payload as 16-bit words. A trailing odd byte is
// dropped.
func (f Frame) Words16() []int16 {
	out := make([]int16, len(f.Payload)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(f.Payload[2*i:]))
	}
	return out
}

// Words32 returns the payload as 32-bit words. Trailing bytes that do not
// fill a word are dropped.
func (f Frame) Words32() []int32 {
	out := make([]int32, len(f.Payload)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(f.Payload[4*i:]))
	}
	return out
}

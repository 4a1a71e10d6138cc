// Package record classifies register-tree leaves into record descriptors.
//
// A leaf exposes one or more capabilities. Each capability of a leaf is
// classified independently: scalars become analog or menu records, arrays
// become waveforms, commands become execute records and streams become a
// pair of waveforms with 16-bit and 32-bit element views.
package record

import "github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"

// AddrClass is the address a record's parameter lives at. Runtime requests
// are dispatched on it.
type AddrClass int

// Address classes.
const (
	ClassRO AddrClass = iota
	ClassRW
	ClassCMD
	ClassSTM
)

// NumClasses is the number of address classes.
const NumClasses = 4

// String returns the class tag used in parameter names.
func (c AddrClass) String() string {
	switch c {
	case ClassRO:
		return "RO"
	case ClassRW:
		return "RW"
	case ClassCMD:
		return "CMD"
	case ClassSTM:
		return "STM"
	default:
		return "UNKNOWN"
	}
}

// Suffix returns the record-name suffix of the class. Streams carry a
// width-specific suffix instead, see StreamSuffix.
func (c AddrClass) Suffix() string {
	switch c {
	case ClassRO:
		return ":Rd"
	case ClassRW:
		return ":St"
	case ClassCMD:
		return ":Ex"
	default:
		return ""
	}
}

// StreamSuffix returns the suffix of a stream record of the given word width.
func StreamSuffix(width int) string {
	if width == 16 {
		return ":16"
	}
	return ":32"
}

// Capability is one behavior of a leaf. The set of implementations is closed:
// ReadableScalar, WritableScalar, Command and Stream.
type Capability interface {
	Path() cpsw.Path
	Class() AddrClass
	capability()
}

// ReadableScalar is a register that can be read.
type ReadableScalar struct {
	Handle cpsw.ScalarRO
}

// WritableScalar is a register that can be written and read back.
type WritableScalar struct {
	Handle cpsw.ScalarRW
}

// Command is an executable command sequence.
type Command struct {
	Handle cpsw.Command
}

// Stream is a framed byte stream.
type Stream struct {
	Handle cpsw.Stream
}

func (c ReadableScalar) Path() cpsw.Path { return c.Handle.Path() }
func (c WritableScalar) Path() cpsw.Path { return c.Handle.Path() }
func (c Command) Path() cpsw.Path        { return c.Handle.Path() }
func (c Stream) Path() cpsw.Path         { return c.Handle.Path() }

func (ReadableScalar) Class() AddrClass { return ClassRO }
func (WritableScalar) Class() AddrClass { return ClassRW }
func (Command) Class() AddrClass        { return ClassCMD }
func (Stream) Class() AddrClass         { return ClassSTM }

func (ReadableScalar) capability() {}
func (WritableScalar) capability() {}
func (Command) capability()        {}
func (Stream) capability()         {}

// ScalarOf returns the readable view shared by both scalar capabilities.
func ScalarOf(c Capability) (cpsw.ScalarRO, bool) {
	switch v := c.(type) {
	case ReadableScalar:
		return v.Handle, true
	case WritableScalar:
		return v.Handle, true
	default:
		return nil, false
	}
}

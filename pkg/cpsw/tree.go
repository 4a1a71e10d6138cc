package cpsw

import (
	"errors"
	"io"
)

// Tree errors.
var (
	// ErrNotSupported is returned when a capability does not apply to a node.
	ErrNotSupported = errors.New("capability not supported")

	// ErrNotFound is returned for paths that do not name a node.
	ErrNotFound = errors.New("node not found")

	// ErrNotHub is returned when children are requested from a leaf.
	ErrNotHub = errors.New("node is not a hub")

	// ErrInterrupted is returned by Stream.Read once the stream is interrupted.
	ErrInterrupted = errors.New("stream interrupted")

	// ErrReadOnly is returned when configuration targets a read-only register.
	ErrReadOnly = errors.New("register is read-only")

	// ErrRange is returned for element ranges outside a register.
	ErrRange = errors.New("element range out of bounds")
)

// EnumEntry is one (label, value) pair of an enumeration.
type EnumEntry struct {
	Name  string `yaml:"name"`
	Value uint64 `yaml:"value"`
}

// Enum is an ordered enumeration. A nil Enum means the register is numeric.
type Enum []EnumEntry

// Child is the identity of a node as seen from its parent.
type Child interface {
	// Name is unique among siblings and carries no index suffix.
	Name() string
	Description() string
	// Nelms is the replication count (hubs) or element count (leaves).
	Nelms() int
	IsHub() bool
}

// Tree is a queryable register hierarchy.
type Tree interface {
	// Root returns the path of the root hub.
	Root() Path

	// Lookup resolves a path to its node.
	Lookup(p Path) (Child, error)

	// Children lists the children of the hub at p in native order.
	Children(p Path) ([]Child, error)

	OpenScalarRO(p Path) (ScalarRO, error)
	OpenScalarRW(p Path) (ScalarRW, error)
	OpenCommand(p Path) (Command, error)
	OpenStream(p Path) (Stream, error)

	// DumpConfig writes the current values of every writable register.
	DumpConfig(w io.Writer) error

	// LoadConfig applies a document written by DumpConfig.
	LoadConfig(r io.Reader) error
}

// ScalarRO reads register values.
type ScalarRO interface {
	Path() Path
	SizeBits() int
	Nelms() int
	// Enum returns nil for numeric registers.
	Enum() Enum
	// GetVal reads up to len(dst) elements starting at element 0.
	GetVal(dst []uint64) (int, error)
}

// ScalarRW reads and writes register values.
type ScalarRW interface {
	ScalarRO
	// SetVal writes up to len(src) elements starting at element 0.
	SetVal(src []uint64) (int, error)
}

// Command executes a command sequence.
type Command interface {
	Path() Path
	Execute() error
}

// Stream delivers framed byte buffers.
type Stream interface {
	Path() Path
	// Read blocks until a buffer is available and copies it into buf.
	// It returns ErrInterrupted once the stream has been interrupted.
	Read(buf []byte) (int, error)
}

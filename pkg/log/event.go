package log

import "time"

// Event is one diagnostic event.
type Event struct {
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the driver session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Port is the driver port name.
	Port string `cbor:"3,keyasint,omitempty"`

	Layer    Layer    `cbor:"4,keyasint"`
	Category Category `cbor:"5,keyasint"`

	// Path is the register path the event refers to.
	Path string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (at most one is set).
	Record      *RecordEvent      `cbor:"10,keyasint,omitempty"`
	Miss        *MissEvent        `cbor:"11,keyasint,omitempty"`
	Degrade     *DegradeEvent     `cbor:"12,keyasint,omitempty"`
	Frame       *FrameEvent       `cbor:"13,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"14,keyasint,omitempty"`
	IO          *IOEvent          `cbor:"15,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"16,keyasint,omitempty"`
}

// Layer is the component that produced the event.
type Layer uint8

const (
	// LayerTree is the register-tree walk.
	LayerTree Layer = 0
	// LayerRecord is classification and record materialization.
	LayerRecord Layer = 1
	// LayerStream is the stream reader tasks.
	LayerStream Layer = 2
	// LayerRuntime is on-demand register access after initialization.
	LayerRuntime Layer = 3
)

func (l Layer) String() string {
	switch l {
	case LayerTree:
		return "TREE"
	case LayerRecord:
		return "RECORD"
	case LayerStream:
		return "STREAM"
	case LayerRuntime:
		return "RUNTIME"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event.
type Category uint8

const (
	CategoryRecord     Category = 0
	CategoryDiagnostic Category = 1
	CategoryState      Category = 2
	CategoryError      Category = 3
	CategoryData       Category = 4
)

func (c Category) String() string {
	switch c {
	case CategoryRecord:
		return "RECORD"
	case CategoryDiagnostic:
		return "DIAGNOSTIC"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategoryData:
		return "DATA"
	default:
		return "UNKNOWN"
	}
}

// RecordEvent describes a materialized record.
type RecordEvent struct {
	Name      string `cbor:"1,keyasint"`
	Kind      string `cbor:"2,keyasint"`
	Template  string `cbor:"3,keyasint"`
	ParamName string `cbor:"4,keyasint"`
	ParamType string `cbor:"5,keyasint"`
	AddrClass int    `cbor:"6,keyasint"`
	// Seq is the global sequence number of the parameter.
	Seq int `cbor:"7,keyasint"`
}

// MissEvent is a path segment that matched no dictionary.
type MissEvent struct {
	Segment string `cbor:"1,keyasint"`
}

// DegradeEvent is an enumeration too large for a menu record.
type DegradeEvent struct {
	Entries int    `cbor:"1,keyasint"`
	Max     int    `cbor:"2,keyasint"`
	Kind    string `cbor:"3,keyasint"`
}

// FrameEvent is one buffer read from a stream.
type FrameEvent struct {
	// Size is the number of bytes read, framing included.
	Size int `cbor:"1,keyasint"`

	// FrameNumber is decoded from the header.
	FrameNumber uint32 `cbor:"2,keyasint"`

	// Data holds the leading payload bytes.
	Data []byte `cbor:"3,keyasint,omitempty"`

	// Truncated is set when Data does not hold the whole payload.
	Truncated bool `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures session and configuration state transitions.
type StateChangeEvent struct {
	Entity   StateEntity `cbor:"1,keyasint"`
	OldState string      `cbor:"2,keyasint,omitempty"`
	NewState string      `cbor:"3,keyasint"`
	Reason   string      `cbor:"4,keyasint,omitempty"`
}

// StateEntity is what changed state.
type StateEntity uint8

const (
	StateEntitySession StateEntity = 0
	StateEntityConfig  StateEntity = 1
	StateEntityStream  StateEntity = 2
)

func (s StateEntity) String() string {
	switch s {
	case StateEntitySession:
		return "SESSION"
	case StateEntityConfig:
		return "CONFIG"
	case StateEntityStream:
		return "STREAM"
	default:
		return "UNKNOWN"
	}
}

// Direction is the flow of a runtime access.
type Direction uint8

const (
	// DirectionRead reads from hardware.
	DirectionRead Direction = 0
	// DirectionWrite writes to hardware.
	DirectionWrite Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionRead:
		return "READ"
	case DirectionWrite:
		return "WRITE"
	default:
		return "UNKNOWN"
	}
}

// IOEvent is a failed runtime access.
type IOEvent struct {
	Direction Direction `cbor:"1,keyasint"`
	Function  string    `cbor:"2,keyasint"`
	ParamName string    `cbor:"3,keyasint"`
	AddrClass int       `cbor:"4,keyasint"`
	Message   string    `cbor:"5,keyasint"`
}

// ErrorEventData captures errors outside runtime access.
type ErrorEventData struct {
	Layer   Layer  `cbor:"1,keyasint"`
	Message string `cbor:"2,keyasint"`
	// Context describes the operation being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}

package log

import (
	"time"

	"github.com/google/uuid"
)

// MaxFrameDataSize bounds the payload bytes kept in a FrameEvent.
const MaxFrameDataSize = 64

// Recorder stamps events with time, session and port before passing them
// to a Logger.
type Recorder struct {
	logger  Logger
	session string
	port    string
	now     func() time.Time
}

// NewRecorder creates a Recorder with a fresh session ID. A nil logger
// discards events.
func NewRecorder(logger Logger, port string) *Recorder {
	if logger == nil {
		logger = Discard
	}
	return &Recorder{
		logger:  logger,
		session: uuid.NewString(),
		port:    port,
		now:     time.Now,
	}
}

// SessionID returns the session identifier.
func (r *Recorder) SessionID() string {
	return r.session
}

// Log stamps and forwards an event. Fields already set are kept.
func (r *Recorder) Log(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now()
	}
	if event.SessionID == "" {
		event.SessionID = r.session
	}
	if event.Port == "" {
		event.Port = r.port
	}
	r.logger.Log(event)
}

// RecordCreated logs a materialized record.
func (r *Recorder) RecordCreated(path string, rec RecordEvent) {
	r.Log(Event{Layer: LayerRecord, Category: CategoryRecord, Path: path, Record: &rec})
}

// Miss logs a dictionary miss.
func (r *Recorder) Miss(segment string) {
	r.Log(Event{Layer: LayerTree, Category: CategoryDiagnostic, Miss: &MissEvent{Segment: segment}})
}

// Degraded logs an enumeration that fell back to a coarser record kind.
func (r *Recorder) Degraded(path string, entries, limit int, kind string) {
	r.Log(Event{
		Layer:    LayerRecord,
		Category: CategoryDiagnostic,
		Path:     path,
		Degrade:  &DegradeEvent{Entries: entries, Max: limit, Kind: kind},
	})
}

// BranchError logs an abandoned subtree or a failed leaf.
func (r *Recorder) BranchError(path string, err error) {
	r.Log(Event{
		Layer:    LayerTree,
		Category: CategoryError,
		Path:     path,
		Error:    &ErrorEventData{Layer: LayerTree, Message: err.Error(), Context: "traversal"},
	})
}

// Frame logs a stream buffer. Only the leading payload bytes are kept.
func (r *Recorder) Frame(path string, size int, frame uint32, payload []byte) {
	data, truncated := payload, false
	if len(data) > MaxFrameDataSize {
		data, truncated = data[:MaxFrameDataSize], true
	}
	r.Log(Event{
		Layer:    LayerStream,
		Category: CategoryData,
		Path:     path,
		Frame: &FrameEvent{
			Size:        size,
			FrameNumber: frame,
			Data:        append([]byte(nil), data...),
			Truncated:   truncated,
		},
	})
}

// StateChange logs a state transition.
func (r *Recorder) StateChange(entity StateEntity, from, to, reason string) {
	layer := LayerRuntime
	if entity == StateEntityStream {
		layer = LayerStream
	}
	r.Log(Event{
		Layer:       layer,
		Category:    CategoryState,
		StateChange: &StateChangeEvent{Entity: entity, OldState: from, NewState: to, Reason: reason},
	})
}

// IOError logs a failed runtime access.
func (r *Recorder) IOError(path string, io IOEvent) {
	r.Log(Event{Layer: LayerRuntime, Category: CategoryError, Path: path, IO: &io})
}

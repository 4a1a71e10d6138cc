package log

// Logger receives diagnostic events. Stream tasks log from their own
// goroutines, so implementations must be safe for concurrent use.
type Logger interface {
	Log(event Event)
}

// LoggerFunc adapts a function to Logger.
type LoggerFunc func(event Event)

// Log calls f.
func (f LoggerFunc) Log(event Event) { f(event) }

// Discard drops every event.
var Discard Logger = LoggerFunc(func(Event) {})

// Tee returns a Logger that hands each event to every non-nil logger in
// order. With no loggers left it returns Discard, with one the logger itself.
func Tee(loggers ...Logger) Logger {
	var out tee
	for _, l := range loggers {
		switch l := l.(type) {
		case nil:
		case tee:
			out = append(out, l...)
		default:
			out = append(out, l)
		}
	}
	switch len(out) {
	case 0:
		return Discard
	case 1:
		return out[0]
	}
	return out
}

type tee []Logger

func (t tee) Log(event Event) {
	for _, l := range t {
		l.Log(event)
	}
}

package log

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// Event files are a plain sequence of CBOR items. Keys are sorted so equal
// events encode to equal bytes, and timestamps keep nanoseconds so stream
// frames stay ordered.
var (
	eventEnc = mustEncMode(cbor.EncOptions{
		Sort:          cbor.SortCoreDeterministic,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	})
	eventDec = mustDecMode(cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	})
)

func mustEncMode(opts cbor.EncOptions) cbor.EncMode {
	m, err := opts.EncMode()
	if err != nil {
		panic("log: event encoder: " + err.Error())
	}
	return m
}

func mustDecMode(opts cbor.DecOptions) cbor.DecMode {
	m, err := opts.DecMode()
	if err != nil {
		panic("log: event decoder: " + err.Error())
	}
	return m
}

// EncodeEvent returns the CBOR form of one event.
func EncodeEvent(event Event) ([]byte, error) {
	return eventEnc.Marshal(event)
}

// DecodeEvent parses one CBOR-encoded event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	err := eventDec.Unmarshal(data, &event)
	return event, err
}

func newEventEncoder(w io.Writer) *cbor.Encoder { return eventEnc.NewEncoder(w) }
func newEventDecoder(r io.Reader) *cbor.Decoder { return eventDec.NewDecoder(r) }

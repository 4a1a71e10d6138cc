package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureLogger struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureLogger) Log(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func writeLog(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.ylog")
	fl, err := NewFileLogger(path)
	require.NoError(t, err)
	for _, e := range events {
		fl.Log(e)
	}
	assert.Equal(t, len(events), fl.Count())
	require.NoError(t, fl.Close())
	return path
}

func TestEncodeDecodeEvent(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC)
	in := Event{
		Timestamp: ts,
		SessionID: "s-1",
		Layer:     LayerRecord,
		Category:  CategoryRecord,
		Path:      "/mmio/Reg",
		Record:    &RecordEvent{Name: "B0:Reg:Rd", Kind: "Scalar", Template: "ai", ParamName: "Reg_RO_0"},
	}
	data, err := EncodeEvent(in)
	require.NoError(t, err)

	out, err := DecodeEvent(data)
	require.NoError(t, err)
	assert.True(t, ts.Equal(out.Timestamp), "nanosecond timestamps survive")
	assert.Equal(t, in.Record, out.Record)
	assert.Nil(t, out.Frame)
}

func TestFileLoggerReader(t *testing.T) {
	events := []Event{
		{Timestamp: time.Now(), SessionID: "a", Layer: LayerTree, Category: CategoryDiagnostic, Miss: &MissEvent{Segment: "Foo"}},
		{Timestamp: time.Now(), SessionID: "a", Layer: LayerRecord, Category: CategoryRecord, Path: "/mmio/Bay0/X", Record: &RecordEvent{Name: "B0:X:Rd"}},
		{Timestamp: time.Now(), SessionID: "b", Layer: LayerStream, Category: CategoryData, Path: "/mmio/Stream0", Frame: &FrameEvent{Size: 20, FrameNumber: 7}},
	}
	path := writeLog(t, events)

	all, err := ReadAll(path, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Foo", all[0].Miss.Segment)
	assert.Equal(t, uint32(7), all[2].Frame.FrameNumber)

	cat := CategoryRecord
	got, err := ReadAll(path, Filter{Category: &cat})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "B0:X:Rd", got[0].Record.Name)

	got, err = ReadAll(path, Filter{SessionID: "b"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = ReadAll(path, Filter{PathPrefix: "/mmio/Bay0"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = ReadAll(path, Filter{RecordName: "X:"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestReaderFilterTime(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	path := writeLog(t, []Event{
		{Timestamp: base},
		{Timestamp: base.Add(time.Minute)},
		{Timestamp: base.Add(2 * time.Minute)},
	})

	start, end := base.Add(30*time.Second), base.Add(2*time.Minute)
	got, err := ReadAll(path, Filter{TimeStart: &start, TimeEnd: &end})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Timestamp.Equal(base.Add(time.Minute)))
}

func TestReaderEmptyAndTruncated(t *testing.T) {
	path := writeLog(t, nil)
	r, err := NewReader(path)
	require.NoError(t, err)
	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
	require.NoError(t, r.Close())

	data, err := EncodeEvent(Event{SessionID: "x"})
	require.NoError(t, err)
	bad := filepath.Join(t.TempDir(), "bad.ylog")
	require.NoError(t, os.WriteFile(bad, data[:len(data)-2], 0644))

	_, err = ReadAll(bad, Filter{})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, io.EOF))
}

func TestFileLoggerIgnoresAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.ylog")
	fl, err := NewFileLogger(path)
	require.NoError(t, err)
	require.NoError(t, fl.Close())
	require.NoError(t, fl.Close())
	fl.Log(Event{})
	assert.Equal(t, 0, fl.Count())
	assert.NoError(t, fl.Flush())
}

func TestTee(t *testing.T) {
	a, b, c := &captureLogger{}, &captureLogger{}, &captureLogger{}

	Tee(Tee(a, nil), Tee(b, c)).Log(Event{SessionID: "s"})
	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
	assert.Len(t, c.events, 1)

	assert.Same(t, a, Tee(nil, a))
	assert.NotPanics(t, func() { Tee().Log(Event{}) })

	var got []string
	Tee(LoggerFunc(func(e Event) { got = append(got, e.Path) })).Log(Event{Path: "/mmio/Reg"})
	assert.Equal(t, []string{"/mmio/Reg"}, got)
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	adapter.Log(Event{
		SessionID: "s-9",
		Layer:     LayerRuntime,
		Category:  CategoryError,
		Path:      "/mmio/Reg",
		IO:        &IOEvent{Direction: DirectionWrite, Function: "writeInt32", ParamName: "Reg_RW_1", Message: "bus error"},
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "s-9", entry["session"])
	assert.Equal(t, "RUNTIME", entry["layer"])
	assert.Equal(t, "WRITE", entry["direction"])
	assert.Equal(t, "bus error", entry["error"])
}

func TestRecorderStampsEvents(t *testing.T) {
	c := &captureLogger{}
	r := NewRecorder(c, "ATCA1")
	fixed := time.Date(2026, 5, 5, 5, 5, 5, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	r.Miss("Foo")
	r.Degraded("/mmio/Menu", 17, 16, "Scalar")
	r.BranchError("/mmio/Ch[1]", errors.New("bus error"))
	r.Frame("/mmio/Stream0", 200, 3, make([]byte, 100))
	r.StateChange(StateEntityStream, "RUNNING", "STOPPED", "interrupted")

	require.Len(t, c.events, 5)
	for _, e := range c.events {
		assert.Equal(t, r.SessionID(), e.SessionID)
		assert.Equal(t, "ATCA1", e.Port)
		assert.True(t, fixed.Equal(e.Timestamp))
	}
	assert.Equal(t, 16, c.events[1].Degrade.Max)
	assert.Equal(t, "bus error", c.events[2].Error.Message)
	assert.Len(t, c.events[3].Frame.Data, MaxFrameDataSize)
	assert.True(t, c.events[3].Frame.Truncated)
	assert.Equal(t, LayerStream, c.events[4].Layer)
}

func TestNilRecorderLogger(t *testing.T) {
	r := NewRecorder(nil, "p")
	assert.NotPanics(t, func() { r.Miss("x") })
	assert.NotEmpty(t, r.SessionID())
}

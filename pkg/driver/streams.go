package driver

import (
	"fmt"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/log"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/record"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/stream"
)

type streamTask struct {
	path   string
	reader *stream.Reader
}

// StreamStats is the reader state of one stream.
type StreamStats struct {
	Path string
	stream.Stats
}

// materializeStream creates the 16-bit and 32-bit records of a stream and
// prepares its reader task. Both records share one sequence number.
func (d *Driver) materializeStream(l record.Leaf, s record.Stream, descs []record.Descriptor) error {
	if len(descs) != 2 {
		return fmt.Errorf("stream %s: %d descriptors", l.Path, len(descs))
	}
	seq := d.nextClassSeq(record.ClassSTM)

	var idx [2]int
	for i, desc := range descs {
		n, err := d.materialize(desc, seq)
		if err != nil {
			return err
		}
		idx[i] = n
	}

	addr := int(record.ClassSTM)
	path := l.Path.String()
	param := d.bindings[addr][idx[0]].ParamName
	pub := stream.PublisherFuncs{
		On16: func(w []int16) { d.sink.DoCallbacksInt16Array(addr, idx[0], w) },
		On32: func(w []int32) { d.sink.DoCallbacksInt32Array(addr, idx[1], w) },
	}
	r := stream.NewReader(s.Handle, pub, stream.Config{
		MaxSize: d.config.StreamMaxSize,
		OnFrame: func(f stream.Frame) {
			d.recorder.Frame(path, f.Size, f.Number, f.Payload)
			d.metrics.StreamFrame(path)
		},
		OnError: func(err error) {
			d.recorder.IOError(path, log.IOEvent{
				Direction: log.DirectionRead,
				Function:  "streamRead",
				ParamName: param,
				AddrClass: addr,
				Message:   err.Error(),
			})
			d.metrics.RuntimeError("streamRead")
		},
		Logger: d.config.Logger,
	})
	d.streams = append(d.streams, &streamTask{path: path, reader: r})
	return nil
}

// startStreams spawns one reader task per stream.
func (d *Driver) startStreams() {
	for _, t := range d.streams {
		d.wg.Add(1)
		go func(t *streamTask) {
			defer d.wg.Done()
			d.recorder.StateChange(log.StateEntityStream, "", "RUNNING", t.path)
			t.reader.Run()
			d.recorder.StateChange(log.StateEntityStream, "RUNNING", "STOPPED", t.path)
		}(t)
	}
	if len(d.streams) > 0 {
		d.debugLog("stream readers started", "count", len(d.streams))
	}
}

// Wait blocks until every stream task has ended.
func (d *Driver) Wait() {
	d.wg.Wait()
}

// StreamStats returns the counters of every stream task.
func (d *Driver) StreamStats() []StreamStats {
	out := make([]StreamStats, len(d.streams))
	for i, t := range d.streams {
		out[i] = StreamStats{Path: t.path, Stats: t.reader.Stats()}
	}
	return out
}

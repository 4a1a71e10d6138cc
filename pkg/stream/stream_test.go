package stream

import (
	"encoding/binary"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
)

func TestFrameNumber(t *testing.T) {
	tests := []struct {
		b0, b1 byte
		want   uint32
	}{
		{0x00, 0x00, 0},
		{0x10, 0x00, 1},
		{0xf0, 0x00, 15},
		{0x0f, 0x01, 16},
		{0xa5, 0xff, 0xffa},
	}
	for _, tt := range tests {
		if got := FrameNumber([]byte{tt.b0, tt.b1}); got != tt.want {
			t.Errorf("FrameNumber(%#x, %#x) = %#x, want %#x", tt.b0, tt.b1, got, tt.want)
		}
	}
}

func buildFrame(number uint32, payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload)+FooterSize)
	buf[0] = byte(number&0xf) << 4
	buf[1] = byte(number >> 4)
	copy(buf[HeaderSize:], payload)
	buf[len(buf)-1] = 0xee
	return buf
}

func TestDecodeWordViews(t *testing.T) {
	payload := make([]byte, 10)
	binary.LittleEndian.PutUint32(payload[0:], 0x11223344)
	binary.LittleEndian.PutUint32(payload[4:], 0xfffffffe)
	binary.LittleEndian.PutUint16(payload[8:], 0x0102)

	f, err := Decode(buildFrame(42, payload))
	require.NoError(t, err)
	assert.Equal(t, uint32(42), f.Number)
	assert.Equal(t, 19, f.Size)
	assert.Len(t, f.Payload, 10)

	assert.Equal(t, []int16{0x3344, 0x1122, -2, -1, 0x0102}, f.Words16())
	assert.Equal(t, []int32{0x11223344, -2}, f.Words32())
}

func TestDecodeShort(t *testing.T) {
	_, err := Decode(make([]byte, 8))
	assert.ErrorIs(t, err, ErrShortFrame)

	f, err := Decode(make([]byte, 9))
	require.NoError(t, err)
	assert.Empty(t, f.Words16())
	assert.Empty(t, f.Words32())
}

const streamTree = `
root:
  name: mmio
  children:
    - name: Stream0
      class: stream
`

func TestReaderPublishesUntilInterrupted(t *testing.T) {
	tree, err := cpsw.ParseTree([]byte(streamTree))
	require.NoError(t, err)
	p, _ := cpsw.ParsePath("/mmio/Stream0")
	s, err := tree.OpenStream(p)
	require.NoError(t, err)

	var mu sync.Mutex
	var got16 [][]int16
	var got32 [][]int32
	var errs []error
	pub := PublisherFuncs{
		On16: func(w []int16) { mu.Lock(); got16 = append(got16, w); mu.Unlock() },
		On32: func(w []int32) { mu.Lock(); got32 = append(got32, w); mu.Unlock() },
	}
	r := NewReader(s, pub, Config{
		MaxSize: 64,
		OnError: func(err error) { mu.Lock(); errs = append(errs, err); mu.Unlock() },
	})

	done := make(chan struct{})
	go func() {
		r.Run()
		close(done)
	}()

	require.NoError(t, tree.Push(p, buildFrame(1, []byte{1, 0, 2, 0})))
	require.NoError(t, tree.Push(p, []byte{1, 2, 3}))
	require.NoError(t, tree.Push(p, buildFrame(2, []byte{3, 0, 0, 0})))

	require.Eventually(t, func() bool { return r.Stats().Frames == 2 }, time.Second, time.Millisecond)
	tree.Interrupt()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reader did not exit after interrupt")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, [][]int16{{1, 2}, {3, 0}}, got16)
	assert.Equal(t, [][]int32{{0x20001}, {3}}, got32)
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], ErrShortFrame))

	st := r.Stats()
	assert.Equal(t, uint64(1), st.ShortFrames)
	assert.Equal(t, uint32(2), st.LastFrame)
}

type failingStream struct {
	fails int
	path  cpsw.Path
}

func (f *failingStream) Path() cpsw.Path { return f.path }

func (f *failingStream) Read(buf []byte) (int, error) {
	if f.fails > 0 {
		f.fails--
		return 0, errors.New("link down")
	}
	return 0, cpsw.ErrInterrupted
}

func TestReaderBacksOffOnReadErrors(t *testing.T) {
	p, _ := cpsw.ParsePath("/mmio/Stream0")
	var errs int
	r := NewReader(&failingStream{fails: 4, path: p}, PublisherFuncs{}, Config{
		OnError: func(error) { errs++ },
		Retry:   BackoffConfig{Initial: 10 * time.Millisecond, Max: 40 * time.Millisecond, Jitter: -1},
	})
	var delays []time.Duration
	r.sleep = func(d time.Duration) { delays = append(delays, d) }

	r.Run()

	assert.Equal(t, 4, errs)
	assert.Equal(t, uint64(4), r.Stats().Errors)
	assert.Equal(t, []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		40 * time.Millisecond,
		40 * time.Millisecond,
	}, delays)
}

func TestBackoff(t *testing.T) {
	b := NewBackoff(BackoffConfig{Jitter: -1})
	assert.Equal(t, DefaultRetryInitial, b.Current())

	for range 10 {
		b.Next()
	}
	assert.Equal(t, DefaultRetryMax, b.Current())
	assert.Equal(t, 10, b.Attempts())

	b.Reset()
	assert.Equal(t, DefaultRetryInitial, b.Current())
	assert.Zero(t, b.Attempts())

	j := NewBackoff(BackoffConfig{Initial: time.Second})
	for range 20 {
		d := j.Next()
		j.Reset()
		if d < time.Second || d > 1250*time.Millisecond {
			t.Errorf("jittered delay %v outside [1s, 1.25s]", d)
		}
	}
}

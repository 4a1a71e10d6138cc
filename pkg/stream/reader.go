package stream

import (
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
)

// Publisher receives decoded word views. Slices are owned by the callee.
type Publisher interface {
	Publish16(words []int16)
	Publish32(words []int32)
}

// PublisherFuncs adapts functions to Publisher. Nil fields are no-ops.
type PublisherFuncs struct {
	On16 func(words []int16)
	On32 func(words []int32)
}

func (p PublisherFuncs) Publish16(w []int16) {
	if p.On16 != nil {
		p.On16(w)
	}
}

func (p PublisherFuncs) Publish32(w []int32) {
	if p.On32 != nil {
		p.On32(w)
	}
}

// Config configures a Reader.
type Config struct {
	// MaxSize is the read buffer size. Zero means DefaultMaxSize.
	MaxSize int

	// OnFrame is called for every decoded frame before publishing.
	OnFrame func(f Frame)

	// OnError is called for reads that fail or are too short.
	OnError func(err error)

	// Retry paces consecutive failing reads.
	Retry BackoffConfig

	// Logger receives debug output. Nil disables logging.
	Logger *slog.Logger
}

// Reader is the task loop of one stream.
type Reader struct {
	stream cpsw.Stream
	pub    Publisher
	config Config
	retry  *Backoff
	sleep  func(time.Duration)

	frames      atomic.Uint64
	shortFrames atomic.Uint64
	errs        atomic.Uint64
	lastFrame   atomic.Uint32
}

// NewReader creates a reader of s publishing to pub.
func NewReader(s cpsw.Stream, pub Publisher, config Config) *Reader {
	if config.MaxSize <= 0 {
		config.MaxSize = DefaultMaxSize
	}
	return &Reader{
		stream: s,
		pub:    pub,
		config: config,
		retry:  NewBackoff(config.Retry),
		sleep:  time.Sleep,
	}
}

func (r *Reader) debugLog(msg string, args ...any) {
	if r.config.Logger != nil {
		r.config.Logger.Debug(msg, args...)
	}
}

// Run reads until the stream is interrupted. It blocks for as long as no
// data arrives; interruption by the provider is the only way out. Failing
// reads are retried after a growing delay.
func (r *Reader) Run() {
	buf := make([]byte, r.config.MaxSize)
	path := r.stream.Path().String()
	r.debugLog("stream reader started", "path", path, "max_size", r.config.MaxSize)

	for {
		n, err := r.stream.Read(buf)
		if errors.Is(err, cpsw.ErrInterrupted) {
			r.debugLog("stream reader interrupted", "path", path, "frames", r.frames.Load())
			return
		}
		if err != nil {
			r.errs.Add(1)
			r.report(err)
			delay := r.retry.Next()
			r.debugLog("stream read failed", "path", path, "error", err, "retry_in", delay)
			r.sleep(delay)
			continue
		}
		r.retry.Reset()

		f, err := Decode(buf[:n])
		if err != nil {
			r.shortFrames.Add(1)
			r.report(err)
			continue
		}

		r.frames.Add(1)
		r.lastFrame.Store(f.Number)
		if r.config.OnFrame != nil {
			r.config.OnFrame(f)
		}
		r.pub.Publish16(f.Words16())
		r.pub.Publish32(f.Words32())
	}
}

func (r *Reader) report(err error) {
	if r.config.OnError != nil {
		r.config.OnError(err)
	}
}

// Stats is a snapshot of reader counters.
type Stats struct {
	Frames      uint64
	ShortFrames uint64
	Errors      uint64
	LastFrame   uint32
}

// Stats returns the current counters.
func (r *Reader) Stats() Stats {
	return Stats{
		Frames:      r.frames.Load(),
		ShortFrames: r.shortFrames.Load(),
		Errors:      r.errs.Load(),
		LastFrame:   r.lastFrame.Load(),
	}
}

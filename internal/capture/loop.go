package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"ipcam-cli/pkg/models"
)

var (
	ErrAlreadyRunning   = errors.New("capture: loop already started")
	ErrNotRunning       = errors.New("capture: loop not running")
	ErrAlreadyRecording = errors.New("capture: recording already attached")
	ErrNotRecording     = errors.New("capture: no recording attached")
)

// Consumer receives every decoded frame, in capture order, on the loop's
// delivery goroutine.
type Consumer func(models.Frame)

// Sink is an open recording bound to a frame rate and size.
type Sink interface {
	Write(f models.Frame) error
	Close() error
}

// SinkFactory opens a recording at path for frames of width x height.
type SinkFactory func(path string, fps float64, width, height int) (Sink, error)

type State int

const (
	StateIdle State = iota
	StateRunning
	StateFailed // the reader gave up, Stop is still required
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

type Config struct {
	Open     Opener
	Consumer Consumer
	Sinks    SinkFactory
	Stream   StreamOptions
	Policy   FailurePolicy
	Logger   zerolog.Logger
}

// Stats are counters of the current (or last) run.
type Stats struct {
	FramesRead     uint64
	ReadFailures   uint64
	FramesRecorded uint64
	Recording      bool
	StartedAt      time.Time
}

// Loop pulls frames from one stream at a time. Reading happens on its own
// goroutine; frames are handed to a second goroutine that owns the consumer
// and the recording sink, so neither is touched from two places.
type Loop struct {
	cfg Config
	log zerolog.Logger

	mu  sync.Mutex
	run *run

	framesRead     atomic.Uint64
	readFailures   atomic.Uint64
	framesRecorded atomic.Uint64
	recording      atomic.Bool
	startedAt      atomic.Int64
}

// run is the state of one Start/Stop cycle.
type run struct {
	cancel context.CancelFunc
	frames chan models.Frame
	cmds   chan command

	ready    chan struct{} // source opened
	done     chan struct{} // reader exited
	finished chan struct{} // delivery exited

	src    Source
	width  int
	height int
	err    error

	wg sync.WaitGroup
}

// command runs on the delivery goroutine with the current sink and returns
// the sink to keep.
type command struct {
	apply func(Sink) (Sink, error)
	reply chan error
}

func NewLoop(cfg Config) *Loop {
	if cfg.Consumer == nil {
		cfg.Consumer = func(models.Frame) {}
	}
	return &Loop{
		cfg: cfg,
		log: cfg.Logger.With().Str("component", "capture").Logger(),
	}
}

// Start begins acquisition from ep and returns immediately. Connecting
// happens on the reader goroutine; use Ready or Done to observe it.
func (l *Loop) Start(ctx context.Context, ep models.CameraEndpoint) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.run != nil {
		return ErrAlreadyRunning
	}
	if l.cfg.Open == nil {
		return fmt.Errorf("capture: no stream opener configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	r := &run{
		cancel:   cancel,
		frames:   make(chan models.Frame),
		cmds:     make(chan command),
		ready:    make(chan struct{}),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}

	l.framesRead.Store(0)
	l.readFailures.Store(0)
	l.framesRecorded.Store(0)
	l.recording.Store(false)
	l.startedAt.Store(time.Now().UnixNano())

	uri := StreamURI(ep, l.cfg.Stream)
	l.log.Info().Str("uri", redact(uri)).Msg("starting acquisition")

	r.wg.Add(2)
	go l.read(runCtx, r, uri)
	go l.deliver(r)

	l.run = r
	return nil
}

// read is the acquisition goroutine.
func (l *Loop) read(ctx context.Context, r *run, uri string) {
	defer r.wg.Done()
	defer close(r.done)
	defer close(r.frames)

	src, err := l.cfg.Open(ctx, uri)
	if err != nil {
		r.err = fmt.Errorf("capture: open stream: %w", err)
		l.log.Error().Err(err).Str("uri", redact(uri)).Msg("stream open failed")
		return
	}
	r.src = src
	r.width, r.height = src.Size()
	close(r.ready)

	l.log.Info().Int("width", r.width).Int("height", r.height).Msg("stream opened")

	var seq uint64
	consecutive := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var f models.Frame
		if err := src.Read(&f); err != nil {
			l.readFailures.Add(1)
			consecutive++

			if l.cfg.Policy.exceeded(consecutive) {
				r.err = fmt.Errorf("%w (%d): %v", ErrTooManyFailures, consecutive, err)
				l.log.Error().Err(err).Int("consecutive", consecutive).Msg("giving up on stream")
				return
			}
			if l.cfg.Policy.Backoff > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.cfg.Policy.Backoff):
				}
			}
			continue
		}

		consecutive = 0
		seq++
		f.Seq = seq
		if f.Timestamp.IsZero() {
			f.Timestamp = time.Now()
		}
		l.framesRead.Add(1)

		select {
		case r.frames <- f:
		case <-ctx.Done():
			return
		}
	}
}

// deliver owns the consumer and the sink. It drains frames until the reader
// closes the channel, then closes any sink still attached.
func (l *Loop) deliver(r *run) {
	defer r.wg.Done()
	defer close(r.finished)

	var sink Sink
	defer func() {
		if sink == nil {
			return
		}
		if err := sink.Close(); err != nil {
			l.log.Warn().Err(err).Msg("closing recording on shutdown")
		}
		l.recording.Store(false)
	}()

	for {
		select {
		case f, ok := <-r.frames:
			if !ok {
				return
			}
			l.cfg.Consumer(f)
			if sink == nil {
				continue
			}
			if err := sink.Write(f); err != nil {
				l.log.Warn().Err(err).Uint64("seq", f.Seq).Msg("recording write failed")
				continue
			}
			l.framesRecorded.Add(1)

		case cmd := <-r.cmds:
			next, err := cmd.apply(sink)
			sink = next
			l.recording.Store(sink != nil)
			cmd.reply <- err
		}
	}
}

// Stop signals the reader, waits for both goroutines to exit and releases
// the stream. Any attached recording is closed. Safe to call when idle.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	r := l.run
	if r == nil {
		return
	}

	r.cancel()
	r.wg.Wait()

	if r.src != nil {
		if err := r.src.Close(); err != nil {
			l.log.Warn().Err(err).Msg("releasing stream")
		}
	}

	l.run = nil
	l.log.Info().
		Uint64("frames_read", l.framesRead.Load()).
		Uint64("read_failures", l.readFailures.Load()).
		Uint64("frames_recorded", l.framesRecorded.Load()).
		Msg("acquisition stopped")
}

func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.run == nil {
		return StateIdle
	}
	select {
	case <-l.run.done:
		return StateFailed
	default:
		return StateRunning
	}
}

// Done is closed when the reader exits, either after Stop or on its own.
// It returns nil when idle.
func (l *Loop) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.run == nil {
		return nil
	}
	return l.run.done
}

// Err reports why the reader ended on its own, once Done is closed.
func (l *Loop) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.run == nil {
		return nil
	}
	select {
	case <-l.run.done:
		return l.run.err
	default:
		return nil
	}
}

// Ready waits until the stream is open and returns its frame size.
func (l *Loop) Ready(ctx context.Context) (width, height int, err error) {
	r := l.current()
	if r == nil {
		return 0, 0, ErrNotRunning
	}
	return r.waitReady(ctx)
}

func (r *run) waitReady(ctx context.Context) (int, int, error) {
	select {
	case <-r.ready:
		return r.width, r.height, nil
	case <-r.done:
		// done may win the race with an already closed ready
		select {
		case <-r.ready:
			return r.width, r.height, nil
		default:
		}
		if r.err != nil {
			return 0, 0, r.err
		}
		return 0, 0, ErrNotRunning
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	}
}

// StartRecording opens a sink at path for the stream's frame size and
// attaches it. Every frame delivered afterwards is also written there.
func (l *Loop) StartRecording(ctx context.Context, path string, fps float64) error {
	if l.cfg.Sinks == nil {
		return fmt.Errorf("capture: no recording sink configured")
	}

	r := l.current()
	if r == nil {
		return ErrNotRunning
	}

	width, height, err := r.waitReady(ctx)
	if err != nil {
		return err
	}

	// opened on the delivery goroutine, and only when nothing is attached
	err = r.send(func(cur Sink) (Sink, error) {
		if cur != nil {
			return cur, ErrAlreadyRecording
		}
		sink, err := l.cfg.Sinks(path, fps, width, height)
		if err != nil {
			return nil, fmt.Errorf("capture: open recording: %w", err)
		}
		return sink, nil
	})
	if err != nil {
		return err
	}

	l.log.Info().Str("path", path).Float64("fps", fps).Int("width", width).Int("height", height).Msg("recording started")
	return nil
}

// StopRecording detaches the sink and closes it.
func (l *Loop) StopRecording() error {
	r := l.current()
	if r == nil {
		return ErrNotRecording
	}

	err := r.send(func(cur Sink) (Sink, error) {
		if cur == nil {
			return nil, ErrNotRecording
		}
		return nil, cur.Close()
	})
	if err != nil {
		return err
	}

	l.log.Info().Uint64("frames_recorded", l.framesRecorded.Load()).Msg("recording stopped")
	return nil
}

func (l *Loop) current() *run {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.run
}

// send runs fn on the delivery goroutine.
func (r *run) send(fn func(Sink) (Sink, error)) error {
	cmd := command{apply: fn, reply: make(chan error, 1)}

	select {
	case r.cmds <- cmd:
		return <-cmd.reply
	case <-r.finished:
		return ErrNotRunning
	}
}

func (l *Loop) Stats() Stats {
	var started time.Time
	if ns := l.startedAt.Load(); ns != 0 {
		started = time.Unix(0, ns)
	}
	return Stats{
		FramesRead:     l.framesRead.Load(),
		ReadFailures:   l.readFailures.Load(),
		FramesRecorded: l.framesRecorded.Load(),
		Recording:      l.recording.Load(),
		StartedAt:      started,
	}
}

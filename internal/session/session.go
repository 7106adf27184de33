package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ipcam-cli/internal/capture"
	"ipcam-cli/internal/recorder"
	"ipcam-cli/pkg/models"
)

// DefaultStep is how far one nudge moves pan or tilt.
const DefaultStep = 10.0

// FallbackFPS is used for recordings when the camera reports no frame rate.
const FallbackFPS = 25

var (
	ErrNotOpen     = errors.New("session: not open")
	ErrAlreadyOpen = errors.New("session: already open")
	ErrOutOfRange  = errors.New("session: position outside camera limits")
)

// Controller is the camera control surface a session drives.
type Controller interface {
	GetPosition(ctx context.Context, ep models.CameraEndpoint) (models.Position, error)
	GetLimits(ctx context.Context, ep models.CameraEndpoint) (models.Limits, error)
	SetPosition(ctx context.Context, pan, tilt, zoom float64, ep models.CameraEndpoint) error
	GetStreamParameters(ctx context.Context, ep models.CameraEndpoint) (models.StreamParameters, models.Fields, error)
	SetStreamParameters(ctx context.Context, fps, compression int, ep models.CameraEndpoint) error
}

// Acquirer is the video side of a session.
type Acquirer interface {
	Start(ctx context.Context, ep models.CameraEndpoint) error
	Stop()
	StartRecording(ctx context.Context, path string, fps float64) error
	StopRecording() error
	Stats() capture.Stats
	State() capture.State
}

type Direction string

const (
	Left  Direction = "left"
	Right Direction = "right"
	Up    Direction = "up"
	Down  Direction = "down"
)

// ParseDirection accepts the four nudge directions by name.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(s); d {
	case Left, Right, Up, Down:
		return d, nil
	}
	return "", fmt.Errorf("unknown direction %q (want left, right, up or down)", s)
}

// Snapshot is the camera state read when a session opens or refreshes.
type Snapshot struct {
	Position models.Position         `json:"position"`
	Limits   models.Limits           `json:"limits"`
	Params   models.StreamParameters `json:"params"`
}

type Options struct {
	Name         string // used for recording file names
	RecordingDir string
	Logger       zerolog.Logger
}

// Session binds one camera endpoint to a controller and an acquisition
// loop. It replaces process-wide connection state: everything a command
// needs about the active camera lives here.
type Session struct {
	ID   string
	Name string

	ep     models.CameraEndpoint
	ctrl   Controller
	loop   Acquirer
	recDir string
	log    zerolog.Logger
	now    func() time.Time

	mu        sync.Mutex
	open      bool
	limits    models.Limits
	params    models.StreamParameters
	recording string
}

func New(id string, ep models.CameraEndpoint, ctrl Controller, loop Acquirer, opts Options) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	name := opts.Name
	if name == "" {
		name = ep.Address
	}
	return &Session{
		ID:     id,
		Name:   name,
		ep:     ep,
		ctrl:   ctrl,
		loop:   loop,
		recDir: opts.RecordingDir,
		log:    opts.Logger.With().Str("session", id).Str("camera", name).Logger(),
		now:    time.Now,
	}
}

func (s *Session) Endpoint() models.CameraEndpoint { return s.ep }

// Open checks the camera answers, reads its limits, starts acquisition and
// reads the stream parameters. Nothing is started when the first query
// fails.
func (s *Session) Open(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.open {
		return Snapshot{}, ErrAlreadyOpen
	}

	pos, err := s.ctrl.GetPosition(ctx, s.ep)
	if err != nil {
		return Snapshot{}, err
	}
	limits, err := s.ctrl.GetLimits(ctx, s.ep)
	if err != nil {
		return Snapshot{}, err
	}

	if s.loop != nil {
		if err := s.loop.Start(ctx, s.ep); err != nil {
			return Snapshot{}, err
		}
	}

	params, _, err := s.ctrl.GetStreamParameters(ctx, s.ep)
	if err != nil {
		if s.loop != nil {
			s.loop.Stop()
		}
		return Snapshot{}, err
	}

	s.open = true
	s.limits = limits
	s.params = params
	s.log.Info().Float64("pan", pos.Pan).Float64("tilt", pos.Tilt).Float64("zoom", pos.Zoom).Msg("session opened")

	return Snapshot{Position: pos, Limits: limits, Params: params}, nil
}

// Refresh re-reads position, limits and stream parameters without touching
// the loop.
func (s *Session) Refresh(ctx context.Context) (Snapshot, error) {
	pos, err := s.ctrl.GetPosition(ctx, s.ep)
	if err != nil {
		return Snapshot{}, err
	}
	limits, err := s.ctrl.GetLimits(ctx, s.ep)
	if err != nil {
		return Snapshot{}, err
	}
	params, _, err := s.ctrl.GetStreamParameters(ctx, s.ep)
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	s.limits = limits
	s.params = params
	s.mu.Unlock()

	return Snapshot{Position: pos, Limits: limits, Params: params}, nil
}

// SetPosition moves the camera after checking the target against the
// limits read at Open.
func (s *Session) SetPosition(ctx context.Context, pan, tilt, zoom float64) error {
	limits, err := s.cachedLimits()
	if err != nil {
		return err
	}
	if err := limits.Check(models.Position{Pan: pan, Tilt: tilt, Zoom: zoom}); err != nil {
		return fmt.Errorf("%w: %v", ErrOutOfRange, err)
	}
	return s.ctrl.SetPosition(ctx, pan, tilt, zoom, s.ep)
}

// Nudge moves pan or tilt by step from the current position and returns the
// position that was requested.
func (s *Session) Nudge(ctx context.Context, dir Direction, step float64) (models.Position, error) {
	if _, err := s.cachedLimits(); err != nil {
		return models.Position{}, err
	}

	pos, err := s.ctrl.GetPosition(ctx, s.ep)
	if err != nil {
		return models.Position{}, err
	}

	switch dir {
	case Left:
		pos.Pan -= step
	case Right:
		pos.Pan += step
	case Up:
		pos.Tilt += step
	case Down:
		pos.Tilt -= step
	default:
		return models.Position{}, fmt.Errorf("unknown direction %q", dir)
	}
	pos.Fields = nil

	if err := s.SetPosition(ctx, pos.Pan, pos.Tilt, pos.Zoom); err != nil {
		return models.Position{}, err
	}
	return pos, nil
}

func (s *Session) SetStreamParameters(ctx context.Context, p models.StreamParameters) error {
	if err := s.ctrl.SetStreamParameters(ctx, p.FPS, p.Compression, s.ep); err != nil {
		return err
	}
	s.mu.Lock()
	s.params = p
	s.mu.Unlock()
	return nil
}

// StartRecording records the live stream to a new file under the
// recording directory at the camera's frame rate. It returns the path.
func (s *Session) StartRecording(ctx context.Context) (string, error) {
	s.mu.Lock()
	if !s.open || s.loop == nil {
		s.mu.Unlock()
		return "", ErrNotOpen
	}
	fps := s.params.FPS
	s.mu.Unlock()

	if fps <= 0 {
		s.log.Warn().Int("fps", fps).Int("fallback", FallbackFPS).Msg("camera reported no frame rate")
		fps = FallbackFPS
	}

	path := recorder.FileName(s.recDir, s.Name, s.now())
	if err := s.loop.StartRecording(ctx, path, float64(fps)); err != nil {
		return "", err
	}

	s.mu.Lock()
	s.recording = path
	s.mu.Unlock()
	return path, nil
}

func (s *Session) StopRecording() error {
	if s.loop == nil {
		return ErrNotOpen
	}
	if err := s.loop.StopRecording(); err != nil {
		return err
	}
	s.mu.Lock()
	s.recording = ""
	s.mu.Unlock()
	return nil
}

// Recording returns the current recording path, empty when not recording.
func (s *Session) Recording() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// Stats reports the acquisition counters of the session's loop.
func (s *Session) Stats() capture.Stats {
	if s.loop == nil {
		return capture.Stats{}
	}
	return s.loop.Stats()
}

// Close stops acquisition, closing any recording. Safe to call twice.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return
	}
	if s.loop != nil {
		s.loop.Stop()
	}
	s.open = false
	s.recording = ""
	s.log.Info().Msg("session closed")
}

func (s *Session) cachedLimits() (models.Limits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return models.Limits{}, ErrNotOpen
	}
	return s.limits, nil
}

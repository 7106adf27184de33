package preview

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ipcam-cli/pkg/models"
)

// Encoder turns a raw frame into an image the browser can show.
type Encoder func(f models.Frame) ([]byte, error)

// Holder keeps the most recent encoded frame of a stream. Its Consume
// method is meant to be the acquisition loop's consumer.
type Holder struct {
	encode   Encoder
	interval time.Duration
	log      zerolog.Logger

	mu      sync.RWMutex
	jpg     []byte
	seq     uint64
	updated time.Time
}

// NewHolder encodes at most one frame per interval; zero encodes every
// frame.
func NewHolder(enc Encoder, interval time.Duration, logger zerolog.Logger) *Holder {
	if enc == nil {
		enc = EncodeJPEG
	}
	return &Holder{
		encode:   enc,
		interval: interval,
		log:      logger.With().Str("component", "preview").Logger(),
	}
}

func (h *Holder) Consume(f models.Frame) {
	h.mu.RLock()
	last := h.updated
	h.mu.RUnlock()

	if h.interval > 0 && !last.IsZero() && f.Timestamp.Sub(last) < h.interval {
		return
	}

	jpg, err := h.encode(f)
	if err != nil {
		h.log.Warn().Err(err).Uint64("seq", f.Seq).Msg("encoding preview frame")
		return
	}

	h.mu.Lock()
	h.jpg = jpg
	h.seq = f.Seq
	h.updated = f.Timestamp
	h.mu.Unlock()
}

// Latest returns a copy of the newest frame and its sequence number, or nil
// before the first frame.
func (h *Holder) Latest() ([]byte, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.jpg) == 0 {
		return nil, 0
	}
	out := make([]byte, len(h.jpg))
	copy(out, h.jpg)
	return out, h.seq
}

package speech

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

// Compile-time interface check.
var _ domain.Speaker = (*Mouth)(nil)

// wavOutput plays synthesized clips. *Player implements it.
type wavOutput interface {
	PlayWAV(data []byte) error
	Stop()
}

// MouthOption configures the Mouth.
type MouthOption func(*Mouth)

// WithCache sets the audio cache. Without one, every line is synthesized.
func WithCache(c *AudioCache) MouthOption {
	return func(m *Mouth) {
		m.cache = c
	}
}

// WithPollInterval sets how often WaitWhileSpeaking checks for silence.
func WithPollInterval(d time.Duration) MouthOption {
	return func(m *Mouth) {
		m.poll = d
	}
}

// Mouth serializes speech output: queue -> synthesize -> play. Only one
// line is spoken at a time, in the order queued.
type Mouth struct {
	tts    Synthesizer
	out    wavOutput
	log    *logger.Logger
	cache  *AudioCache
	poll   time.Duration
	notify chan struct{}

	mu          sync.Mutex
	queue       []SpeechRequest
	speaking    bool
	interrupted bool
}

// NewMouth creates a speech dispatcher. Call Start before speaking.
func NewMouth(tts Synthesizer, out wavOutput, log *logger.Logger, opts ...MouthOption) *Mouth {
	m := &Mouth{
		tts:    tts,
		out:    out,
		log:    log,
		poll:   20 * time.Millisecond,
		notify: make(chan struct{}, 32),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Speak queues text and returns immediately.
func (m *Mouth) Speak(ctx context.Context, text string) error {
	req := SpeechRequest{
		ID:       uuid.NewString(),
		Text:     text,
		QueuedAt: time.Now(),
	}

	m.mu.Lock()
	m.queue = append(m.queue, req)
	qLen := len(m.queue)
	m.mu.Unlock()

	m.log.Debug("mouth: queued %s (queue_len=%d): %s", req.ID[:8], qLen, truncate(text, 60))

	select {
	case m.notify <- struct{}{}:
	default: // already signaled
	}
	return nil
}

// WaitWhileSpeaking blocks until the queue is drained and nothing is
// playing, or ctx ends.
func (m *Mouth) WaitWhileSpeaking(ctx context.Context) error {
	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()

	for m.busy() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (m *Mouth) busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaking || len(m.queue) > 0
}

// IsSpeaking returns true while a line is being synthesized or played.
func (m *Mouth) IsSpeaking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.speaking
}

// Interrupt stops the current line and drops everything queued.
func (m *Mouth) Interrupt() {
	m.mu.Lock()
	m.queue = m.queue[:0]
	m.interrupted = true
	m.mu.Unlock()

	m.out.Stop()
	m.log.Debug("mouth: interrupted, queue cleared")
}

// Start begins the speech processing goroutine. Non-blocking.
func (m *Mouth) Start(ctx context.Context) {
	go m.processLoop(ctx)
	m.log.Info("mouth started")
}

func (m *Mouth) processLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.log.Info("mouth stopped")
			return
		case <-m.notify:
			m.drain(ctx)
		}
	}
}

func (m *Mouth) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		req, ok := m.dequeue()
		if !ok {
			return
		}
		m.speak(ctx, req)

		m.mu.Lock()
		m.speaking = false
		m.mu.Unlock()
	}
}

// dequeue pops the oldest request and marks the mouth busy in the same
// critical section, so WaitWhileSpeaking never sees a gap.
func (m *Mouth) dequeue() (SpeechRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return SpeechRequest{}, false
	}
	req := m.queue[0]
	m.queue = m.queue[1:]
	m.speaking = true
	m.interrupted = false
	return req, true
}

func (m *Mouth) speak(ctx context.Context, req SpeechRequest) {
	m.log.Debug("mouth: speaking %s (waited=%s)", req.ID[:8], time.Since(req.QueuedAt).Round(time.Millisecond))

	audio, err := m.synthesize(ctx, req.Text)
	if err != nil {
		m.log.Error("mouth: synthesis failed: %v", err)
		return
	}

	m.mu.Lock()
	abort := m.interrupted
	m.mu.Unlock()
	if abort {
		m.log.Debug("mouth: dropping %s (interrupted)", req.ID[:8])
		return
	}

	if err := m.out.PlayWAV(audio); err != nil {
		m.log.Error("mouth: playback failed: %v", err)
	}
}

func (m *Mouth) synthesize(ctx context.Context, text string) ([]byte, error) {
	if m.cache != nil {
		if audio, ok := m.cache.Get(text); ok {
			return audio, nil
		}
	}
	audio, err := m.tts.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	if m.cache != nil {
		m.cache.Put(text, audio)
	}
	return audio, nil
}

// Prefetch synthesizes texts in the background so their first Speak is
// instant. Requires a cache.
func (m *Mouth) Prefetch(ctx context.Context, texts ...string) {
	if m.cache == nil {
		return
	}
	for _, text := range texts {
		if text == "" {
			continue
		}
		if _, ok := m.cache.Get(text); ok {
			continue
		}
		go func(t string) {
			audio, err := m.tts.Synthesize(ctx, t)
			if err != nil {
				m.log.Error("prefetch: synthesis failed: %v", err)
				return
			}
			m.cache.Put(t, audio)
		}(text)
	}
}

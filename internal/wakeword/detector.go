// Package wakeword spots a wake phrase in live microphone audio using the
// openWakeWord ONNX pipeline: melspectrogram, then embedding, then a
// wake-word classifier.
//
// Audio is captured through miniaudio (malgo) at 16 kHz mono and scored
// in 80 ms chunks. A detection is delivered on [Detector.C].
package wakeword

import (
	"context"
	"sync"
	"time"

	"github.com/hammamikhairi/animalsay/internal/logger"
)

// Config holds model paths and tuning knobs for a Detector.
type Config struct {
	WakewordModel  string // e.g. "models/hey_animal.onnx"
	MelspecModel   string // e.g. "bin/melspectrogram.onnx"
	EmbeddingModel string // e.g. "bin/embedding_model.onnx"
	OnnxLib        string // e.g. "bin/libonnxruntime.so"

	Threshold float64       // window max >= Threshold fires (default 0.3)
	Cooldown  time.Duration // minimum gap between detections (default 1.5s)
}

func (c *Config) defaults() {
	if c.Threshold <= 0 {
		c.Threshold = 0.3
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 1500 * time.Millisecond
	}
}

// Detector listens for the wake phrase until its context ends.
type Detector struct {
	cfg      Config
	log      *logger.Logger
	detected chan struct{}

	mu         sync.Mutex
	paused     bool
	needsReset bool
}

// New creates a Detector. Call Start to begin listening.
func New(cfg Config, log *logger.Logger) *Detector {
	cfg.defaults()
	return &Detector{
		cfg:      cfg,
		log:      log,
		detected: make(chan struct{}, 1),
	}
}

// C receives one value per detection. Detections that arrive while the
// previous one is unread are dropped.
func (d *Detector) C() <-chan struct{} { return d.detected }

// Pause stops scoring, e.g. while the speaker is playing.
func (d *Detector) Pause() {
	d.mu.Lock()
	d.paused = true
	d.mu.Unlock()
}

// Resume restarts scoring with empty buffers.
func (d *Detector) Resume() {
	d.mu.Lock()
	d.paused = false
	d.needsReset = true
	d.mu.Unlock()
}

func (d *Detector) isPaused() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paused
}

// takeReset reports, once, that Resume was called.
func (d *Detector) takeReset() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := d.needsReset
	d.needsReset = false
	return r
}

// Start loads the models, opens the capture device and scores audio until
// ctx is cancelled. Run it in its own goroutine.
func (d *Detector) Start(ctx context.Context) error {
	m, err := openModels(d.cfg, d.log)
	if err != nil {
		d.log.Error("wakeword: model init failed: %v", err)
		return err
	}
	defer m.close()

	c, err := openCapture(d.log)
	if err != nil {
		d.log.Error("wakeword: audio capture failed: %v", err)
		return err
	}
	defer c.close()

	return d.run(ctx, m, c.frames)
}

// run scores frames until ctx ends.
func (d *Detector) run(ctx context.Context, m model, frames <-chan []int16) error {
	p := newPipeline(m, d.log)
	t := &trigger{threshold: d.cfg.Threshold, cooldown: d.cfg.Cooldown}

	onScore := func(score float32) {
		peak, fired := t.observe(score, time.Now())
		if float64(peak) >= d.cfg.Threshold*0.1 {
			d.log.Debug("wakeword: score=%.4f max=%.4f (threshold=%.2f)", score, peak, d.cfg.Threshold)
		}
		if !fired {
			return
		}
		d.log.Info("wakeword: detected (score=%.4f, max=%.4f)", score, peak)
		select {
		case d.detected <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if d.isPaused() {
				continue
			}
			if d.takeReset() {
				p.reset()
				t.reset()
				d.log.Debug("wakeword: buffers reset after resume")
			}
			p.push(frame, onScore)
		}
	}
}

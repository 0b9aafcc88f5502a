package speech

import (
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/faiface/beep"

	"github.com/hammamikhairi/animalsay/internal/logger"
)

// resampleQuality is the beep.Resample quality used for rate conversion.
const resampleQuality = 4

// Player owns the process-wide oto context and plays one stream at a time.
type Player struct {
	ctx  *oto.Context
	rate beep.SampleRate
	log  *logger.Logger

	mu     sync.Mutex
	active *oto.Player // currently playing, nil when idle
}

// NewPlayer initializes the system audio context at sampleRate.
// Returns an error if the audio device is unavailable.
func NewPlayer(sampleRate int, log *logger.Logger) (*Player, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: ChannelCount,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-readyChan

	log.Debug("audio player initialized (rate=%d, channels=%d)", sampleRate, ChannelCount)
	return &Player{ctx: ctx, rate: beep.SampleRate(sampleRate), log: log}, nil
}

// PlayWAV decodes and plays an in-memory WAV clip. Blocks until playback
// finishes or Stop is called.
func (p *Player) PlayWAV(data []byte) error {
	stream, format, err := DecodeWAV(data)
	if err != nil {
		return err
	}
	defer stream.Close()
	return p.PlayStream(stream, format)
}

// PlayStream plays a decoded stream, resampling it to the context rate.
// Blocks until playback finishes or Stop is called.
func (p *Player) PlayStream(s beep.Streamer, format beep.Format) error {
	if format.SampleRate != p.rate {
		p.log.Debug("audio player: resampling %d -> %d", format.SampleRate, p.rate)
		s = beep.Resample(resampleQuality, format.SampleRate, p.rate, s)
	}

	player := p.ctx.NewPlayer(newPCMReader(s))

	p.mu.Lock()
	p.active = player
	p.mu.Unlock()

	player.Play()
	p.log.Debug("audio player: playing")

	for player.IsPlaying() {
		time.Sleep(10 * time.Millisecond)
	}

	p.mu.Lock()
	if p.active == player {
		p.active = nil
	}
	p.mu.Unlock()

	return player.Close()
}

// IsPlaying reports whether a stream is currently playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active != nil
}

// Stop interrupts the currently playing stream, if any. Safe to call
// concurrently and when nothing is playing.
func (p *Player) Stop() {
	p.mu.Lock()
	active := p.active
	p.mu.Unlock()

	if active != nil {
		active.Pause()
		p.log.Debug("audio player: interrupted")
	}
}

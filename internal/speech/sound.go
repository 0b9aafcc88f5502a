package speech

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/faiface/beep"

	"github.com/hammamikhairi/animalsay/internal/domain"
	"github.com/hammamikhairi/animalsay/internal/logger"
)

// Compile-time interface check.
var _ domain.AudioService = (*SoundPlayer)(nil)

// streamPlayer is the part of Player that SoundPlayer drives.
type streamPlayer interface {
	PlayStream(s beep.Streamer, format beep.Format) error
	Stop()
}

// SoundPlayer plays sound files in the background. Starting a clip stops
// the one already playing.
type SoundPlayer struct {
	player streamPlayer
	open   func(path string) (beep.StreamSeekCloser, beep.Format, error)
	log    *logger.Logger
	done   chan string // receives the path of each finished clip if a reader is ready

	mu     sync.Mutex
	active int           // clips still playing
	idle   chan struct{} // closed when active drops to zero
}

// NewSoundPlayer creates an audio service on top of player.
func NewSoundPlayer(player *Player, log *logger.Logger) *SoundPlayer {
	return &SoundPlayer{player: player, open: OpenSound, log: log}
}

// Play decodes path and starts playback. Decode errors are returned; errors
// during playback are only logged.
func (s *SoundPlayer) Play(ctx context.Context, path string) error {
	stream, format, err := s.open(path)
	if err != nil {
		return err
	}

	s.player.Stop()
	s.log.Debug("sound: start %s (rate=%d, channels=%d)", filepath.Base(path), format.SampleRate, format.NumChannels)

	s.begin()
	go func() {
		defer s.end()
		err := s.player.PlayStream(stream, format)
		stream.Close()
		if err != nil {
			s.log.Error("sound: %s: %v", filepath.Base(path), err)
		}
		if s.done != nil {
			select {
			case s.done <- path:
			default:
			}
		}
	}()
	return nil
}

func (s *SoundPlayer) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == 0 {
		s.idle = make(chan struct{})
	}
	s.active++
}

func (s *SoundPlayer) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active--
	if s.active == 0 {
		close(s.idle)
	}
}

// Wait blocks until every started clip has finished, or ctx ends. It may
// run concurrently with Play.
func (s *SoundPlayer) Wait(ctx context.Context) error {
	s.mu.Lock()
	if s.active == 0 {
		s.mu.Unlock()
		return nil
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

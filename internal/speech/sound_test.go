package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/faiface/beep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hammamikhairi/animalsay/internal/logger"
)

type recordingPlayer struct {
	mu     sync.Mutex
	played int
	stops  int
}

func (p *recordingPlayer) PlayStream(s beep.Streamer, format beep.Format) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played++
	return nil
}

func (p *recordingPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stops++
}

type nopStream struct{ closed bool }

func (s *nopStream) Stream(samples [][2]float64) (int, bool) { return 0, false }
func (s *nopStream) Err() error                               { return nil }
func (s *nopStream) Len() int                                 { return 0 }
func (s *nopStream) Position() int                            { return 0 }
func (s *nopStream) Seek(p int) error                         { return nil }
func (s *nopStream) Close() error                             { s.closed = true; return nil }

func TestSoundPlayerPlaysInBackground(t *testing.T) {
	rp := &recordingPlayer{}
	stream := &nopStream{}
	sp := &SoundPlayer{
		player: rp,
		open: func(path string) (beep.StreamSeekCloser, beep.Format, error) {
			return stream, beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}, nil
		},
		log:  logger.New(logger.LevelOff, nil),
		done: make(chan string, 1),
	}

	require.NoError(t, sp.Play(context.Background(), "sounds/cow-1.wav"))

	select {
	case p := <-sp.done:
		assert.Equal(t, "sounds/cow-1.wav", p)
	case <-time.After(2 * time.Second):
		t.Fatal("playback never finished")
	}
	rp.mu.Lock()
	defer rp.mu.Unlock()
	assert.Equal(t, 1, rp.played)
	assert.Equal(t, 1, rp.stops, "previous clip should be stopped")
	assert.True(t, stream.closed)
}

func TestSoundPlayerReturnsOpenErrors(t *testing.T) {
	boom := errors.New("boom")
	sp := &SoundPlayer{
		player: &recordingPlayer{},
		open: func(path string) (beep.StreamSeekCloser, beep.Format, error) {
			return nil, beep.Format{}, boom
		},
		log: logger.New(logger.LevelOff, nil),
	}
	assert.ErrorIs(t, sp.Play(context.Background(), "x-1.wav"), boom)
}

type blockingPlayer struct {
	release chan struct{}
}

func (p *blockingPlayer) PlayStream(beep.Streamer, beep.Format) error {
	<-p.release
	return nil
}

func (p *blockingPlayer) Stop() {}

func TestSoundPlayerWait(t *testing.T) {
	bp := &blockingPlayer{release: make(chan struct{})}
	sp := &SoundPlayer{
		player: bp,
		open: func(path string) (beep.StreamSeekCloser, beep.Format, error) {
			return &nopStream{}, beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}, nil
		},
		log: logger.New(logger.LevelOff, nil),
	}
	require.NoError(t, sp.Play(context.Background(), "sounds/owl-1.wav"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, sp.Wait(ctx), context.DeadlineExceeded)

	close(bp.release)
	assert.NoError(t, sp.Wait(context.Background()))
}

func TestSoundPlayerDoneNeverBlocks(t *testing.T) {
	sp := &SoundPlayer{
		player: &recordingPlayer{},
		open: func(path string) (beep.StreamSeekCloser, beep.Format, error) {
			return &nopStream{}, beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}, nil
		},
		log:  logger.New(logger.LevelOff, nil),
		done: make(chan string), // nobody reads it
	}
	require.NoError(t, sp.Play(context.Background(), "sounds/pig-1.wav"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, sp.Wait(ctx))
}

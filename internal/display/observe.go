package display

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/hammamikhairi/animalsay/internal/domain"
)

// playbackTracker records each clip it forwards in the status bar.
type playbackTracker struct {
	next domain.AudioService
	ui   *UI
}

// TrackPlayback wraps audio so the status bar shows the last clip started.
func (u *UI) TrackPlayback(audio domain.AudioService) domain.AudioService {
	return &playbackTracker{next: audio, ui: u}
}

func (t *playbackTracker) Play(ctx context.Context, path string) error {
	if err := t.next.Play(ctx, path); err != nil {
		return err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	t.ui.UpdateStatus(func(s *Status) { s.LastPlayed = name })
	return nil
}
